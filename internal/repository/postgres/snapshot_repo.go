package postgres

import (
	"context"

	"github.com/geoinsight/backend/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type snapshotRepository struct {
	db *gorm.DB
}

func NewSnapshotRepository(db *gorm.DB) *snapshotRepository {
	return &snapshotRepository{db: db}
}

func (r *snapshotRepository) Create(ctx context.Context, snapshot *domain.RatingSnapshot) error {
	return r.db.WithContext(ctx).Create(snapshot).Error
}

func (r *snapshotRepository) GetByPlayerID(ctx context.Context, playerID uuid.UUID) ([]*domain.RatingSnapshot, error) {
	var snapshots []*domain.RatingSnapshot
	err := r.db.WithContext(ctx).
		Where("player_id = ?", playerID).
		Order("recorded_at ASC").
		Find(&snapshots).Error
	if err != nil {
		return nil, err
	}
	return snapshots, nil
}

func (r *snapshotRepository) GetLatest(ctx context.Context, playerID uuid.UUID) (*domain.RatingSnapshot, error) {
	var snapshot domain.RatingSnapshot
	err := r.db.WithContext(ctx).
		Where("player_id = ?", playerID).
		Order("recorded_at DESC").
		First(&snapshot).Error
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}
