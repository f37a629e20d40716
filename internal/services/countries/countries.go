// Package countries сворачивает снимок пользователей в статистику по странам.
package countries

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/magabrotheeeer/betting-rank/internal/lib/sl"
	"github.com/magabrotheeeer/betting-rank/internal/models"
)

// Aggregate группирует пользователей по стране. Одна запись на страну,
// записи отсортированы по коду страны.
func Aggregate(users []models.User) []models.CountryStat {
	byCountry := make(map[string]*models.CountryStat)
	for _, u := range users {
		st, ok := byCountry[u.Country]
		if !ok {
			st = &models.CountryStat{Country: u.Country}
			byCountry[u.Country] = st
		}
		st.TotalUsers++
		st.TotalBets += u.TotalBets
		st.TotalAmount += u.TotalAmount
		st.TotalWinnings += u.TotalWinnings
	}

	res := make([]models.CountryStat, 0, len(byCountry))
	for _, st := range byCountry {
		res = append(res, *st)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Country < res[j].Country })
	return res
}

// SnapshotLoader отдаёт согласованный снимок пользователей и текущую версию хранилища.
type SnapshotLoader interface {
	Version(ctx context.Context) (models.Version, error)
	Snapshot(ctx context.Context) (*models.Snapshot, error)
}

// Cache кэш проекций по версии хранилища.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// Service отдаёт статистику по странам.
type Service struct {
	log   *slog.Logger
	store SnapshotLoader
	cache Cache
	ttl   time.Duration
	key   func(version models.Version) string
}

// New создаёт Service.
func New(log *slog.Logger, store SnapshotLoader, cache Cache, ttl time.Duration, key func(models.Version) string) *Service {
	return &Service{log: log, store: store, cache: cache, ttl: ttl, key: key}
}

// Stats возвращает статистику по странам на один момент времени.
func (s *Service) Stats(ctx context.Context) ([]models.CountryStat, error) {
	const op = "countries.Stats"

	version, err := s.store.Version(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var cached []models.CountryStat
	found, err := s.cache.Get(ctx, s.key(version), &cached)
	if err != nil {
		s.log.Warn("country stats cache read failed", slog.String("op", op), sl.Err(err))
	}
	if found {
		return cached, nil
	}

	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	stats := Aggregate(snap.Users)
	if err = s.cache.Set(ctx, s.key(snap.Version), stats, s.ttl); err != nil {
		s.log.Warn("country stats cache write failed", slog.String("op", op), sl.Err(err))
	}
	return stats, nil
}
