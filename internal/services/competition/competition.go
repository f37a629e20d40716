// Package competition содержит реестр соревнований: список и вступление.
package competition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/betting-rank/internal/lib/keylock"
	"github.com/magabrotheeeer/betting-rank/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/betting-rank/internal/lib/sl"
	"github.com/magabrotheeeer/betting-rank/internal/models"
	"github.com/magabrotheeeer/betting-rank/internal/storage"
)

var (
	// ErrNotFound соревнование не найдено.
	ErrNotFound = errors.New("competition not found")
	// ErrAlreadyJoined пользователь уже участвует.
	ErrAlreadyJoined = errors.New("already a member of this competition")
	// ErrClosed соревнование завершено.
	ErrClosed = errors.New("competition is closed")
	// ErrUserNotFound пользователь из токена не найден.
	ErrUserNotFound = errors.New("user not found")
)

// Repository описывает контракт хранилища соревнований.
type Repository interface {
	UpsertCompetition(ctx context.Context, c models.Competition) error
	ListCompetitions(ctx context.Context) ([]models.Competition, error)
	AddMember(ctx context.Context, competitionID, userID string, now time.Time) error
}

// Publisher публикует события. nil отключает публикацию.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Service реестр соревнований.
type Service struct {
	log       *slog.Logger
	repo      Repository
	locks     *keylock.KeyLock
	publisher Publisher
	now       func() time.Time
}

// New создаёт Service. publisher может быть nil.
func New(log *slog.Logger, repo Repository, publisher Publisher) *Service {
	return &Service{
		log:       log,
		repo:      repo,
		locks:     keylock.New(),
		publisher: publisher,
		now:       time.Now,
	}
}

// List возвращает соревнования в порядке создания с признаком закрытия на текущий момент.
func (s *Service) List(ctx context.Context) ([]models.Competition, error) {
	const op = "competition.List"
	list, err := s.repo.ListCompetitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	now := s.now()
	for i := range list {
		list[i].Closed = list[i].ClosedAt(now)
	}
	return list, nil
}

// Join добавляет пользователя в соревнование. Из двух одновременных вступлений
// одного пользователя успешно ровно одно, второе получает ErrAlreadyJoined.
func (s *Service) Join(ctx context.Context, competitionID, userID string) error {
	const op = "competition.Join"

	now := s.now().UTC()
	err := s.locks.WithLock(ctx, competitionID+":"+userID, func() error {
		return s.repo.AddMember(ctx, competitionID, userID, now)
	})
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrCompetitionNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, storage.ErrAlreadyMember):
		return fmt.Errorf("%s: %w", op, ErrAlreadyJoined)
	case errors.Is(err, storage.ErrCompetitionClosed):
		return fmt.Errorf("%s: %w", op, ErrClosed)
	case errors.Is(err, storage.ErrUserNotFound):
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}

	if s.publisher != nil {
		event := models.CompetitionJoined{CompetitionID: competitionID, UserID: userID, JoinedAt: now}
		if err = s.publisher.Publish(ctx, rabbitmq.CompetitionJoinedKey, event); err != nil {
			s.log.Warn("failed to publish join event",
				slog.String("op", op),
				slog.String("competition_id", competitionID),
				sl.Err(err))
		}
	}
	return nil
}

// Sync создаёт или обновляет соревнования из конфигурации.
func (s *Service) Sync(ctx context.Context, list []models.Competition) error {
	const op = "competition.Sync"
	for _, c := range list {
		if err := s.repo.UpsertCompetition(ctx, c); err != nil {
			return fmt.Errorf("%s: %s: %w", op, c.ID, err)
		}
	}
	return nil
}
