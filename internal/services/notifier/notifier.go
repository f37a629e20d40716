// Package notifier сообщает в брокер о завершившихся соревнованиях.
package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/betting-rank/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/betting-rank/internal/models"
)

// Repository хранилище соревнований с отметкой об оповещении.
type Repository interface {
	ClosedUnannounced(ctx context.Context, now time.Time) ([]models.Competition, error)
	MarkAnnounced(ctx context.Context, competitionID string) error
}

// Publisher публикует события.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Service находит закрытые соревнования и публикует competition.closed.
type Service struct {
	log       *slog.Logger
	repo      Repository
	publisher Publisher
	now       func() time.Time
}

// New создаёт Service.
func New(log *slog.Logger, repo Repository, publisher Publisher) *Service {
	return &Service{log: log, repo: repo, publisher: publisher, now: time.Now}
}

// AnnounceClosed публикует событие о каждом закрытом и ещё не объявленном
// соревновании и отмечает его. Возвращает число объявленных соревнований.
// При ошибке публикации соревнование остаётся неотмеченным и будет повторено.
func (s *Service) AnnounceClosed(ctx context.Context) (int, error) {
	const op = "notifier.AnnounceClosed"
	log := s.log.With(slog.String("op", op))

	now := s.now().UTC()
	closed, err := s.repo.ClosedUnannounced(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	announced := 0
	for _, c := range closed {
		closedAt := now
		if c.EndsAt != nil {
			closedAt = c.EndsAt.UTC()
		}
		event := models.CompetitionClosed{
			CompetitionID: c.ID,
			Name:          c.Name,
			MembersCount:  c.MembersCount,
			PrizePool:     c.PrizePool,
			ClosedAt:      closedAt,
		}
		if err = s.publisher.Publish(ctx, rabbitmq.CompetitionClosedKey, event); err != nil {
			return announced, fmt.Errorf("%s: publish %s: %w", op, c.ID, err)
		}
		if err = s.repo.MarkAnnounced(ctx, c.ID); err != nil {
			return announced, fmt.Errorf("%s: mark %s: %w", op, c.ID, err)
		}
		announced++
		log.Info("competition closed", slog.String("competition_id", c.ID), slog.Int64("members", c.MembersCount))
	}
	return announced, nil
}
