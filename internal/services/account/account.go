// Package account содержит хранилище учётных записей: регистрацию,
// аутентификацию, профиль и единственный путь изменения статистики ставок.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/betting-rank/internal/lib/jwt"
	"github.com/magabrotheeeer/betting-rank/internal/models"
	"github.com/magabrotheeeer/betting-rank/internal/storage"
)

var (
	// ErrDuplicate имя пользователя или email уже заняты.
	ErrDuplicate = errors.New("username or email already registered")
	// ErrInvalidCredentials неверное имя пользователя или пароль. Причина не раскрывается.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotFound пользователь не найден.
	ErrNotFound = errors.New("user not found")
	// ErrDisabled учётная запись отключена.
	ErrDisabled = errors.New("account is disabled")
	// ErrInvalidSettlement расчёт ставки не прошёл проверку.
	ErrInvalidSettlement = errors.New("invalid settlement")
)

// UserRepository описывает контракт для работы с пользователями в хранилище.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	ApplySettlement(ctx context.Context, st models.Settlement) (bool, error)
	DisableUser(ctx context.Context, id string) error
}

// PasswordHasher хэширует и проверяет пароли.
type PasswordHasher interface {
	GetHash(password string) (string, error)
	CompareHash(hash, password string) error
	CompareDummy(password string) error
}

// RegisterInput данные регистрации.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Country  string
	FullName string
}

// Service отвечает за учётные записи.
type Service struct {
	users    UserRepository
	hasher   PasswordHasher
	jwtMaker jwt.Maker
	validate *validator.Validate
	now      func() time.Time
}

// New создает новый экземпляр Service.
func New(users UserRepository, hasher PasswordHasher, jwtMaker jwt.Maker) *Service {
	return &Service{
		users:    users,
		hasher:   hasher,
		jwtMaker: jwtMaker,
		validate: validator.New(),
		now:      time.Now,
	}
}

// Register создаёт пользователя с хэшированным паролем и выдаёт токен сессии.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	const op = "account.Register"

	hashed, err := s.hasher.GetHash(in.Password)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.users.CreateUser(ctx, models.User{
		ID:           uuid.NewString(),
		Username:     strings.TrimSpace(in.Username),
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: hashed,
		Country:      strings.ToUpper(strings.TrimSpace(in.Country)),
		FullName:     strings.TrimSpace(in.FullName),
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			return nil, "", fmt.Errorf("%s: %w: %w", op, ErrDuplicate, err)
		}
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.jwtMaker.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	return user, token, nil
}

// Authenticate проверяет пароль и выдаёт токен. Неизвестное имя, отключённая
// учётная запись и неверный пароль дают одну и ту же ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, rawPassword string) (string, error) {
	const op = "account.Authenticate"

	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			_ = s.hasher.CompareDummy(rawPassword)
			return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err = s.hasher.CompareHash(user.PasswordHash, rawPassword); err != nil || user.Disabled {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	token, err := s.jwtMaker.GenerateToken(user.ID, user.Username)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return token, nil
}

// Profile возвращает пользователя по ID.
func (s *Service) Profile(ctx context.Context, userID string) (*models.User, error) {
	const op = "account.Profile"
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// Active проверяет, что владелец токена существует и не отключён.
func (s *Service) Active(ctx context.Context, userID string) error {
	const op = "account.Active"
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if user.Disabled {
		return fmt.Errorf("%s: %w", op, ErrDisabled)
	}
	return nil
}

// ApplySettlement применяет расчёт ставки к счётчикам пользователя.
// Повторный BetID ничего не меняет и возвращает false.
func (s *Service) ApplySettlement(ctx context.Context, st models.Settlement) (bool, error) {
	const op = "account.ApplySettlement"
	if err := s.validate.Struct(st); err != nil {
		return false, fmt.Errorf("%s: %w: %w", op, ErrInvalidSettlement, err)
	}
	if st.SettledAt.IsZero() {
		st.SettledAt = s.now().UTC()
	}

	applied, err := s.users.ApplySettlement(ctx, st)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return false, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return applied, nil
}

// Disable мягко отключает учётную запись. Пользователь остаётся в рейтинге.
func (s *Service) Disable(ctx context.Context, userID string) error {
	const op = "account.Disable"
	if err := s.users.DisableUser(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
