package account_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	customjwt "github.com/magabrotheeeer/betting-rank/internal/lib/jwt"
	"github.com/magabrotheeeer/betting-rank/internal/lib/password"
	"github.com/magabrotheeeer/betting-rank/internal/models"
	"github.com/magabrotheeeer/betting-rank/internal/services/account"
	"github.com/magabrotheeeer/betting-rank/internal/storage"
	"github.com/magabrotheeeer/betting-rank/internal/storage/memory"
)

const validUserID = "3f2b8c1e-6a1d-4e9b-9c3a-1f0e2d3c4b5a"

// Мок для UserRepository
type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) GetUser(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) ApplySettlement(ctx context.Context, st models.Settlement) (bool, error) {
	args := m.Called(ctx, st)
	return args.Bool(0), args.Error(1)
}

func (m *UserRepoMock) DisableUser(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// Мок для jwt.Maker
type JwtMakerMock struct {
	mock.Mock
}

func (m *JwtMakerMock) GenerateToken(userID, username string) (string, error) {
	args := m.Called(userID, username)
	return args.String(0), args.Error(1)
}

func (m *JwtMakerMock) ParseToken(token string) (*customjwt.CustomClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customjwt.CustomClaims), args.Error(1)
}

func newHasher(t testing.TB) *password.Hasher {
	h, err := password.NewHasher(4)
	require.NoError(t, err)
	return h
}

func TestService_Register(t *testing.T) {
	hasher := newHasher(t)
	errSign := errors.New("sign failed")
	input := account.RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "password123",
		Country:  "de",
		FullName: "Alice Doe",
	}

	tests := []struct {
		name       string
		setupMocks func(r *UserRepoMock, j *JwtMakerMock)
		wantToken  string
		wantErr    error
	}{
		{
			name: "успешная регистрация",
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock) {
				r.On("CreateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
					return u.Username == "alice" &&
						u.Country == "DE" &&
						u.PasswordHash != "" &&
						u.PasswordHash != "password123" &&
						u.ID != "" &&
						u.TotalBets == 0
				})).Return(&models.User{ID: validUserID, Username: "alice", Seq: 1}, nil).Once()
				j.On("GenerateToken", validUserID, "alice").Return("token", nil).Once()
			},
			wantToken: "token",
		},
		{
			name: "дубликат",
			setupMocks: func(r *UserRepoMock, _ *JwtMakerMock) {
				r.On("CreateUser", mock.Anything, mock.Anything).
					Return(nil, fmt.Errorf("op: %w", storage.ErrUserExists)).Once()
			},
			wantErr: account.ErrDuplicate,
		},
		{
			name: "ошибка хранилища",
			setupMocks: func(r *UserRepoMock, _ *JwtMakerMock) {
				r.On("CreateUser", mock.Anything, mock.Anything).
					Return(nil, storage.ErrUnavailable).Once()
			},
			wantErr: storage.ErrUnavailable,
		},
		{
			name: "ошибка выпуска токена",
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock) {
				r.On("CreateUser", mock.Anything, mock.Anything).
					Return(&models.User{ID: validUserID, Username: "alice"}, nil).Once()
				j.On("GenerateToken", validUserID, "alice").Return("", errSign).Once()
			},
			wantErr: errSign,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			jwtMock := new(JwtMakerMock)
			tt.setupMocks(repo, jwtMock)
			svc := account.New(repo, hasher, jwtMock)

			user, token, err := svc.Register(context.Background(), input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantToken, token)
			assert.Equal(t, validUserID, user.ID)
			repo.AssertExpectations(t)
			jwtMock.AssertExpectations(t)
		})
	}
}

func TestService_Authenticate(t *testing.T) {
	hasher := newHasher(t)
	hash, err := hasher.GetHash("correctpassword")
	require.NoError(t, err)

	tests := []struct {
		name       string
		password   string
		setupMocks func(r *UserRepoMock, j *JwtMakerMock)
		wantToken  string
		wantErr    error
	}{
		{
			name:     "верный пароль",
			password: "correctpassword",
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock) {
				r.On("GetUserByUsername", mock.Anything, "alice").
					Return(&models.User{ID: validUserID, Username: "alice", PasswordHash: hash}, nil).Once()
				j.On("GenerateToken", validUserID, "alice").Return("token", nil).Once()
			},
			wantToken: "token",
		},
		{
			name:     "неверный пароль",
			password: "wrong",
			setupMocks: func(r *UserRepoMock, _ *JwtMakerMock) {
				r.On("GetUserByUsername", mock.Anything, "alice").
					Return(&models.User{ID: validUserID, Username: "alice", PasswordHash: hash}, nil).Once()
			},
			wantErr: account.ErrInvalidCredentials,
		},
		{
			name:     "неизвестный пользователь",
			password: "correctpassword",
			setupMocks: func(r *UserRepoMock, _ *JwtMakerMock) {
				r.On("GetUserByUsername", mock.Anything, "alice").
					Return(nil, storage.ErrUserNotFound).Once()
			},
			wantErr: account.ErrInvalidCredentials,
		},
		{
			name:     "отключённая учётная запись",
			password: "correctpassword",
			setupMocks: func(r *UserRepoMock, _ *JwtMakerMock) {
				r.On("GetUserByUsername", mock.Anything, "alice").
					Return(&models.User{ID: validUserID, Username: "alice", PasswordHash: hash, Disabled: true}, nil).Once()
			},
			wantErr: account.ErrInvalidCredentials,
		},
		{
			name:     "хранилище недоступно",
			password: "correctpassword",
			setupMocks: func(r *UserRepoMock, _ *JwtMakerMock) {
				r.On("GetUserByUsername", mock.Anything, "alice").
					Return(nil, storage.ErrUnavailable).Once()
			},
			wantErr: storage.ErrUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			jwtMock := new(JwtMakerMock)
			tt.setupMocks(repo, jwtMock)
			svc := account.New(repo, hasher, jwtMock)

			token, err := svc.Authenticate(context.Background(), "alice", tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, token)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantToken, token)
			}
			repo.AssertExpectations(t)
			jwtMock.AssertExpectations(t)
		})
	}
}

func TestService_AuthenticateErrorsLookAlike(t *testing.T) {
	store := memory.New()
	svc := account.New(store, newHasher(t), customjwt.NewJWTMaker("secret", time.Hour, ""))
	ctx := context.Background()

	_, _, err := svc.Register(ctx, account.RegisterInput{
		Username: "bob", Email: "bob@example.com", Password: "password123", Country: "US", FullName: "Bob",
	})
	require.NoError(t, err)

	_, errUnknown := svc.Authenticate(ctx, "nobody", "password123")
	_, errWrong := svc.Authenticate(ctx, "bob", "nope")
	require.Error(t, errUnknown)
	require.Error(t, errWrong)
	assert.Equal(t, errUnknown.Error(), errWrong.Error())
}

func TestService_Profile(t *testing.T) {
	repo := new(UserRepoMock)
	svc := account.New(repo, newHasher(t), new(JwtMakerMock))

	repo.On("GetUser", mock.Anything, validUserID).Return(&models.User{ID: validUserID}, nil).Once()
	repo.On("GetUser", mock.Anything, "missing").Return(nil, storage.ErrUserNotFound).Once()

	u, err := svc.Profile(context.Background(), validUserID)
	require.NoError(t, err)
	assert.Equal(t, validUserID, u.ID)

	_, err = svc.Profile(context.Background(), "missing")
	assert.ErrorIs(t, err, account.ErrNotFound)
	repo.AssertExpectations(t)
}

func TestService_Active(t *testing.T) {
	repo := new(UserRepoMock)
	svc := account.New(repo, newHasher(t), new(JwtMakerMock))

	repo.On("GetUser", mock.Anything, "active").Return(&models.User{ID: "active"}, nil).Once()
	repo.On("GetUser", mock.Anything, "disabled").Return(&models.User{ID: "disabled", Disabled: true}, nil).Once()
	repo.On("GetUser", mock.Anything, "gone").Return(nil, storage.ErrUserNotFound).Once()

	assert.NoError(t, svc.Active(context.Background(), "active"))
	assert.ErrorIs(t, svc.Active(context.Background(), "disabled"), account.ErrDisabled)
	assert.ErrorIs(t, svc.Active(context.Background(), "gone"), account.ErrNotFound)
}

func TestService_ApplySettlement_Validation(t *testing.T) {
	tests := []struct {
		name string
		st   models.Settlement
	}{
		{name: "без bet id", st: models.Settlement{UserID: validUserID}},
		{name: "без пользователя", st: models.Settlement{BetID: "b1"}},
		{name: "не uuid", st: models.Settlement{BetID: "b1", UserID: "42"}},
		{name: "отрицательная ставка", st: models.Settlement{BetID: "b1", UserID: validUserID, Stake: -1}},
		{name: "отрицательная выплата", st: models.Settlement{BetID: "b1", UserID: validUserID, Payout: -5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			svc := account.New(repo, newHasher(t), new(JwtMakerMock))

			applied, err := svc.ApplySettlement(context.Background(), tt.st)
			assert.False(t, applied)
			assert.ErrorIs(t, err, account.ErrInvalidSettlement)
			repo.AssertNotCalled(t, "ApplySettlement", mock.Anything, mock.Anything)
		})
	}
}

func TestService_ApplySettlement_UnknownUser(t *testing.T) {
	repo := new(UserRepoMock)
	svc := account.New(repo, newHasher(t), new(JwtMakerMock))
	st := models.Settlement{BetID: "b1", UserID: validUserID, Stake: 10}
	repo.On("ApplySettlement", mock.Anything, mock.MatchedBy(func(s models.Settlement) bool {
		return s.BetID == "b1" && !s.SettledAt.IsZero()
	})).Return(false, storage.ErrUserNotFound).Once()

	_, err := svc.ApplySettlement(context.Background(), st)
	assert.ErrorIs(t, err, account.ErrNotFound)
	repo.AssertExpectations(t)
}

func TestService_DuplicateRegistrationKeepsOriginal(t *testing.T) {
	store := memory.New()
	svc := account.New(store, newHasher(t), customjwt.NewJWTMaker("secret", time.Hour, ""))
	ctx := context.Background()

	orig, _, err := svc.Register(ctx, account.RegisterInput{
		Username: "carol", Email: "carol@example.com", Password: "password123", Country: "FR", FullName: "Carol",
	})
	require.NoError(t, err)

	_, _, err = svc.Register(ctx, account.RegisterInput{
		Username: "carol", Email: "other@example.com", Password: "otherpass1", Country: "IT", FullName: "Impostor",
	})
	require.ErrorIs(t, err, account.ErrDuplicate)

	_, _, err = svc.Register(ctx, account.RegisterInput{
		Username: "carol2", Email: "CAROL@example.com", Password: "otherpass1", Country: "IT", FullName: "Impostor",
	})
	require.ErrorIs(t, err, account.ErrDuplicate)

	got, err := svc.Profile(ctx, orig.ID)
	require.NoError(t, err)
	assert.Equal(t, orig.FullName, got.FullName)
	assert.Equal(t, orig.Country, got.Country)
	assert.Equal(t, orig.PasswordHash, got.PasswordHash)

	_, err = svc.Authenticate(ctx, "carol", "password123")
	assert.NoError(t, err)
}

func TestService_Disable(t *testing.T) {
	store := memory.New()
	svc := account.New(store, newHasher(t), customjwt.NewJWTMaker("secret", time.Hour, ""))
	ctx := context.Background()

	u, _, err := svc.Register(ctx, account.RegisterInput{
		Username: "dave", Email: "dave@example.com", Password: "password123", Country: "ES", FullName: "Dave",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Disable(ctx, u.ID))
	_, err = svc.Authenticate(ctx, "dave", "password123")
	assert.ErrorIs(t, err, account.ErrInvalidCredentials)
	assert.ErrorIs(t, svc.Active(ctx, u.ID), account.ErrDisabled)
	assert.ErrorIs(t, svc.Disable(ctx, "00000000-0000-0000-0000-000000000000"), account.ErrNotFound)

	snap, err := store.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Users, 1)
	assert.True(t, snap.Users[0].Disabled)
}

// Счётчики всегда согласованы: total = won + lost, суммы равны сумме уникальных расчётов,
// повторная доставка ничего не меняет.
func TestService_SettlementCountersProperty(t *testing.T) {
	hasher := newHasher(t)
	rapid.Check(t, func(rt *rapid.T) {
		store := memory.New()
		svc := account.New(store, hasher, customjwt.NewJWTMaker("secret", time.Hour, ""))
		ctx := context.Background()

		u, _, err := svc.Register(ctx, account.RegisterInput{
			Username: "eve", Email: "eve@example.com", Password: "password123", Country: "PL", FullName: "Eve",
		})
		if err != nil {
			rt.Fatalf("register: %v", err)
		}

		n := rapid.IntRange(0, 40).Draw(rt, "n")
		var won, lost int64
		var stake, payout float64
		seen := map[string]bool{}
		for i := range n {
			betID := fmt.Sprintf("bet-%d", rapid.IntRange(0, 15).Draw(rt, fmt.Sprintf("bet%d", i)))
			st := models.Settlement{
				BetID:  betID,
				UserID: u.ID,
				Won:    rapid.Bool().Draw(rt, fmt.Sprintf("won%d", i)),
				Stake:  float64(rapid.IntRange(0, 1000).Draw(rt, fmt.Sprintf("stake%d", i))),
				Payout: float64(rapid.IntRange(0, 5000).Draw(rt, fmt.Sprintf("payout%d", i))),
			}
			applied, err := svc.ApplySettlement(ctx, st)
			if err != nil {
				rt.Fatalf("apply: %v", err)
			}
			if applied == seen[betID] {
				rt.Fatalf("bet %s: applied=%v, seen before=%v", betID, applied, seen[betID])
			}
			if applied {
				seen[betID] = true
				if st.Won {
					won++
				} else {
					lost++
				}
				stake += st.Stake
				payout += st.Payout
			}
		}

		got, err := svc.Profile(ctx, u.ID)
		if err != nil {
			rt.Fatalf("profile: %v", err)
		}
		if got.TotalBets != got.WonBets+got.LostBets {
			rt.Fatalf("total %d != won %d + lost %d", got.TotalBets, got.WonBets, got.LostBets)
		}
		if got.WonBets != won || got.LostBets != lost {
			rt.Fatalf("won/lost = %d/%d, want %d/%d", got.WonBets, got.LostBets, won, lost)
		}
		if got.TotalAmount != stake || got.TotalWinnings != payout {
			rt.Fatalf("amount/winnings = %v/%v, want %v/%v", got.TotalAmount, got.TotalWinnings, stake, payout)
		}
	})
}
