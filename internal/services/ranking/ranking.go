// Package ranking вычисляет таблицу лидеров. Очки и места не хранятся:
// они считаются чистой функцией от согласованного снимка пользователей.
package ranking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/magabrotheeeer/betting-rank/internal/lib/sl"
	"github.com/magabrotheeeer/betting-rank/internal/models"
)

// ErrNotFound пользователя нет в снимке.
var ErrNotFound = errors.New("user not ranked")

// Scorer веса формулы очков.
type Scorer struct {
	WinWeight  float64
	RateWeight float64
}

// DefaultScorer веса по умолчанию: каждая победа даёт очко, доля побед до 100 очков.
var DefaultScorer = Scorer{WinWeight: 1, RateWeight: 100}

// Score возвращает очки игрока с won победами из total ставок.
func (s Scorer) Score(won, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(won)*s.WinWeight + float64(won)/float64(total)*s.RateWeight
}

// Compute строит таблицу лидеров: очки по убыванию, при равенстве раньше
// зарегистрированный выше. Места начинаются с 1.
func Compute(users []models.User, scorer Scorer) []models.RankingEntry {
	entries := make([]models.RankingEntry, len(users))
	seqs := make([]int64, len(users))
	for i, u := range users {
		entries[i] = models.RankingEntry{
			ID:        u.ID,
			Username:  u.Username,
			FullName:  u.FullName,
			Country:   u.Country,
			WonBets:   u.WonBets,
			LostBets:  u.LostBets,
			TotalBets: u.TotalBets,
			Score:     scorer.Score(u.WonBets, u.TotalBets),
		}
		seqs[i] = u.Seq
	}

	idx := make([]int, len(users))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		ea, eb := entries[idx[a]], entries[idx[b]]
		if ea.Score != eb.Score {
			return ea.Score > eb.Score
		}
		return seqs[idx[a]] < seqs[idx[b]]
	})

	res := make([]models.RankingEntry, len(users))
	for pos, i := range idx {
		e := entries[i]
		e.Rank = pos + 1
		res[pos] = e
	}
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

// Service отдаёт таблицу лидеров, кэшируя её по версии снимка.
type Service struct {
	log    *slog.Logger
	store  SnapshotLoader
	cache  Cache
	scorer Scorer
	ttl    time.Duration
	key    func(version models.Version) string
}

// New создаёт Service. key строит ключ кэша из версии хранилища.
func New(log *slog.Logger, store SnapshotLoader, cache Cache, scorer Scorer, ttl time.Duration, key func(models.Version) string) *Service {
	return &Service{
		log:    log,
		store:  store,
		cache:  cache,
		scorer: scorer,
		ttl:    ttl,
		key:    key,
	}
}

// Rankings возвращает полную таблицу лидеров.
func (s *Service) Rankings(ctx context.Context) ([]models.RankingEntry, error) {
	const op = "ranking.Rankings"

	version, err := s.store.Version(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var cached []models.RankingEntry
	found, err := s.cache.Get(ctx, s.key(version), &cached)
	if err != nil {
		s.log.Warn("rankings cache read failed", slog.String("op", op), sl.Err(err))
	}
	if found {
		return cached, nil
	}

	// снимок может оказаться новее прочитанной версии, ключ берём из него
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	entries := Compute(snap.Users, s.scorer)
	if err = s.cache.Set(ctx, s.key(snap.Version), entries, s.ttl); err != nil {
		s.log.Warn("rankings cache write failed", slog.String("op", op), sl.Err(err))
	}
	return entries, nil
}

// Standing возвращает пользователя и его строку таблицы лидеров, взятые из
// одного снимка: счётчики, очки и место всегда согласованы между собой.
func (s *Service) Standing(ctx context.Context, userID string) (*models.User, *models.RankingEntry, error) {
	const op = "ranking.Standing"

	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	var user *models.User
	for i := range snap.Users {
		if snap.Users[i].ID == userID {
			user = &snap.Users[i]
			break
		}
	}
	if user == nil {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	entries := s.entriesFor(ctx, op, snap)
	for i := range entries {
		if entries[i].ID == userID {
			return user, &entries[i], nil
		}
	}
	return nil, nil, fmt.Errorf("%s: %w", op, ErrNotFound)
}

// entriesFor берёт таблицу снимка из кэша по его версии или считает её заново.
func (s *Service) entriesFor(ctx context.Context, op string, snap *models.Snapshot) []models.RankingEntry {
	key := s.key(snap.Version)

	var cached []models.RankingEntry
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn("rankings cache read failed", slog.String("op", op), sl.Err(err))
	}
	if found {
		return cached
	}

	entries := Compute(snap.Users, s.scorer)
	if err = s.cache.Set(ctx, key, entries, s.ttl); err != nil {
		s.log.Warn("rankings cache write failed", slog.String("op", op), sl.Err(err))
	}
	return entries
}

// Page возвращает срез entries со смещением offset и не длиннее limit.
// limit <= 0 означает без ограничения.
func Page(entries []models.RankingEntry, limit, offset int) []models.RankingEntry {
	if offset >= len(entries) {
		return []models.RankingEntry{}
	}
	entries = entries[offset:]
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	return entries
}
