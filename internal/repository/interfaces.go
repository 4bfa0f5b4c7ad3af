package repository

import (
	"context"
	"time"

	"github.com/geoinsight/backend/internal/domain"
	"github.com/google/uuid"
)

type PlayerRepository interface {
	Create(ctx context.Context, player *domain.Player) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Player, error)
	GetByExternalID(ctx context.Context, externalID string) (*domain.Player, error)
	GetByExternalIDs(ctx context.Context, externalIDs []string) ([]*domain.Player, error)
	Update(ctx context.Context, player *domain.Player) error
	GetAll(ctx context.Context) ([]*domain.Player, error)
	GetTracked(ctx context.Context) ([]*domain.Player, error)

	// GetTopRatedIDs returns the ids of the top-rated players, ordered by
	// current_rating descending with ties broken by ascending id.
	GetTopRatedIDs(ctx context.Context, limit int) ([]uuid.UUID, error)

	// CountTrackedExcluding counts tracked players whose id is not in ids.
	CountTrackedExcluding(ctx context.Context, ids []uuid.UUID) (int64, error)

	// GetOldestViewedTrackedExcluding returns the tracked player outside
	// ids with the oldest last_viewed_at, never-viewed players first.
	GetOldestViewedTrackedExcluding(ctx context.Context, ids []uuid.UUID) (*domain.Player, error)

	SetTracked(ctx context.Context, ids []uuid.UUID, tracked bool) error
	SetLastViewed(ctx context.Context, id uuid.UUID, viewedAt time.Time) error

	// ApplyRatingChange updates the player's current rating fields and
	// appends a snapshot in a single transaction.
	ApplyRatingChange(ctx context.Context, playerID uuid.UUID, rating int, division string, at time.Time) error
}

type SnapshotRepository interface {
	Create(ctx context.Context, snapshot *domain.RatingSnapshot) error
	GetByPlayerID(ctx context.Context, playerID uuid.UUID) ([]*domain.RatingSnapshot, error)
	GetLatest(ctx context.Context, playerID uuid.UUID) (*domain.RatingSnapshot, error)
}

type Repositories struct {
	Player   PlayerRepository
	Snapshot SnapshotRepository
}
