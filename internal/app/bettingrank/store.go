package bettingrank

import (
	"context"
	"time"

	"github.com/magabrotheeeer/betting-rank/internal/models"
)

// Store хранилище учётных записей и соревнований. Реализуется PostgreSQL
// и хранилищем в памяти.
type Store interface {
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	ApplySettlement(ctx context.Context, st models.Settlement) (bool, error)
	DisableUser(ctx context.Context, id string) error
	Version(ctx context.Context) (models.Version, error)
	Snapshot(ctx context.Context) (*models.Snapshot, error)

	UpsertCompetition(ctx context.Context, c models.Competition) error
	ListCompetitions(ctx context.Context) ([]models.Competition, error)
	AddMember(ctx context.Context, competitionID, userID string, now time.Time) error
}
