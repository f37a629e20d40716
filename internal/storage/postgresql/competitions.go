package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/betting-rank/internal/models"
	"github.com/magabrotheeeer/betting-rank/internal/storage"
)

const competitionColumns = `c.id, c.name, c.description, c.region, c.prize_pool, c.ends_at, c.created_at,
	(SELECT COUNT(*) FROM competition_members m WHERE m.competition_id = c.id)`

func scanCompetition(row rowScanner) (*models.Competition, error) {
	var (
		c      models.Competition
		endsAt sql.NullTime
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Region, &c.PrizePool,
		&endsAt, &c.CreatedAt, &c.MembersCount); err != nil {
		return nil, err
	}
	if endsAt.Valid {
		t := endsAt.Time
		c.EndsAt = &t
	}
	return &c, nil
}

// UpsertCompetition создаёт соревнование или обновляет его описание.
func (s *Storage) UpsertCompetition(ctx context.Context, c models.Competition) error {
	const op = "storage.postgresql.UpsertCompetition"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO competitions (id, name, description, region, prize_pool, ends_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE
		 SET name = EXCLUDED.name,
		     description = EXCLUDED.description,
		     region = EXCLUDED.region,
		     prize_pool = EXCLUDED.prize_pool,
		     ends_at = EXCLUDED.ends_at`,
		c.ID, c.Name, c.Description, c.Region, c.PrizePool, c.EndsAt)
	if err != nil {
		return wrap(op, err)
	}
	return nil
}

// ListCompetitions возвращает соревнования с числом участников.
func (s *Storage) ListCompetitions(ctx context.Context) ([]models.Competition, error) {
	const op = "storage.postgresql.ListCompetitions"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	return s.queryCompetitions(ctx, op,
		`SELECT `+competitionColumns+` FROM competitions c ORDER BY c.created_at, c.id`)
}

// AddMember добавляет участника условной вставкой. Строка соревнования блокируется
// FOR SHARE, чтобы проверка даты закрытия и вставка видели одно и то же соревнование.
func (s *Storage) AddMember(ctx context.Context, competitionID, userID string, now time.Time) error {
	const op = "storage.postgresql.AddMember"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return wrap(op, err)
	}
	defer rollback(tx)

	var endsAt sql.NullTime
	err = tx.QueryRowContext(ctx,
		`SELECT ends_at FROM competitions WHERE id = $1 FOR SHARE`, competitionID).Scan(&endsAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%s: %w", op, storage.ErrCompetitionNotFound)
		}
		return wrap(op, err)
	}
	if endsAt.Valid && !now.Before(endsAt.Time) {
		return fmt.Errorf("%s: %w", op, storage.ErrCompetitionClosed)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO competition_members (competition_id, user_uid, joined_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (competition_id, user_uid) DO NOTHING`,
		competitionID, userID, now)
	if err != nil {
		if code := pgCode(err); code == codeForeignKeyViolation || code == codeInvalidText {
			return fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return wrap(op, err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return wrap(op, err)
	}
	if inserted == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrAlreadyMember)
	}
	if err = tx.Commit(); err != nil {
		return wrap(op, err)
	}
	return nil
}

// ClosedUnannounced находит закрытые соревнования, о которых ещё не сообщали.
func (s *Storage) ClosedUnannounced(ctx context.Context, now time.Time) ([]models.Competition, error) {
	const op = "storage.postgresql.ClosedUnannounced"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	return s.queryCompetitions(ctx, op,
		`SELECT `+competitionColumns+` FROM competitions c
		 WHERE NOT c.announced AND c.ends_at IS NOT NULL AND c.ends_at <= $1
		 ORDER BY c.created_at, c.id`, now)
}

// MarkAnnounced отмечает соревнование как объявленное закрытым.
func (s *Storage) MarkAnnounced(ctx context.Context, competitionID string) error {
	const op = "storage.postgresql.MarkAnnounced"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE competitions SET announced = true WHERE id = $1`, competitionID)
	if err != nil {
		return wrap(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrap(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrCompetitionNotFound)
	}
	return nil
}

func (s *Storage) queryCompetitions(ctx context.Context, op, query string, args ...any) ([]models.Competition, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	res := []models.Competition{}
	for rows.Next() {
		c, err := scanCompetition(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		res = append(res, *c)
	}
	if err = rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return res, nil
}
