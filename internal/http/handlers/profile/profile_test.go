package profile

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/betting-rank/internal/cache"
	"github.com/magabrotheeeer/betting-rank/internal/http/middlewarectx"
	"github.com/magabrotheeeer/betting-rank/internal/lib/sl"
	"github.com/magabrotheeeer/betting-rank/internal/models"
	"github.com/magabrotheeeer/betting-rank/internal/services/ranking"
	"github.com/magabrotheeeer/betting-rank/internal/storage"
	"github.com/magabrotheeeer/betting-rank/internal/storage/memory"
)

type RankingMock struct {
	mock.Mock
}

func (m *RankingMock) Standing(ctx context.Context, userID string) (*models.User, *models.RankingEntry, error) {
	args := m.Called(ctx, userID)
	if res := args.Get(0); res != nil {
		return res.(*models.User), args.Get(1).(*models.RankingEntry), args.Error(2)
	}
	return nil, nil, args.Error(2)
}

func TestProfileHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		userID         string
		setupMocks     func(*RankingMock)
		expectedStatus int
		expectedBody   []string
	}{
		{
			name:   "профиль с местом",
			userID: "u-1",
			setupMocks: func(r *RankingMock) {
				r.On("Standing", mock.Anything, "u-1").Return(
					&models.User{ID: "u-1", Username: "alice", Country: "DE", WonBets: 5, LostBets: 5, TotalBets: 10, PasswordHash: "secret-hash"},
					&models.RankingEntry{ID: "u-1", Rank: 3, Score: 55, WonBets: 5, TotalBets: 10},
					nil,
				).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   []string{`"id":"u-1"`, `"rank":3`, `"score":55`, `"won_bets":5`, `"total_bets":10`},
		},
		{
			name:           "нет пользователя в контексте",
			setupMocks:     func(_ *RankingMock) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   []string{`"detail"`},
		},
		{
			name:   "пользователь не найден",
			userID: "ghost",
			setupMocks: func(r *RankingMock) {
				r.On("Standing", mock.Anything, "ghost").Return(nil, nil, ranking.ErrNotFound).Once()
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:   "хранилище недоступно",
			userID: "u-1",
			setupMocks: func(r *RankingMock) {
				r.On("Standing", mock.Anything, "u-1").Return(nil, nil, storage.ErrUnavailable).Once()
			},
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rankings := new(RankingMock)
			tt.setupMocks(rankings)
			handler := New(logger, rankings)

			req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
			if tt.userID != "" {
				req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserID, tt.userID))
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			for _, part := range tt.expectedBody {
				assert.Contains(t, w.Body.String(), part)
			}
			assert.NotContains(t, w.Body.String(), "secret-hash")
			rankings.AssertExpectations(t)
		})
	}
}

// settleOnSnapshot применяет выигрыш после каждого снимка, чтобы следующий
// запрос видел уже изменённые счётчики.
type settleOnSnapshot struct {
	*memory.Storage
	userID string
}

func (s *settleOnSnapshot) Snapshot(ctx context.Context) (*models.Snapshot, error) {
	snap, err := s.Storage.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	_, err = s.Storage.ApplySettlement(ctx, models.Settlement{BetID: uuid.NewString(), UserID: s.userID, Won: true, Stake: 1})
	return snap, err
}

func TestProfileHandler_ScoreMatchesCounters(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	me, err := store.CreateUser(ctx, models.User{ID: uuid.NewString(), Username: "me", Email: "me@x.io", Country: "DE"})
	require.NoError(t, err)

	loader := &settleOnSnapshot{Storage: store, userID: me.ID}
	svc := ranking.New(sl.Discard(), loader, cache.Noop{}, ranking.DefaultScorer, time.Minute, cache.RankingsKey)
	handler := New(sl.Discard(), svc)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
		req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserID, me.ID))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var got models.Profile
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, int64(i), got.WonBets)
		assert.Equal(t, ranking.DefaultScorer.Score(got.WonBets, got.TotalBets), got.Score)
		assert.Equal(t, 1, got.Rank)
	}
}
