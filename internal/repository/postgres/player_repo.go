package postgres

import (
	"context"
	"time"

	"github.com/geoinsight/backend/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type playerRepository struct {
	db *gorm.DB
}

func NewPlayerRepository(db *gorm.DB) *playerRepository {
	return &playerRepository{db: db}
}

func (r *playerRepository) Create(ctx context.Context, player *domain.Player) error {
	return r.db.WithContext(ctx).Create(player).Error
}

func (r *playerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Player, error) {
	var player domain.Player
	err := r.db.WithContext(ctx).
		First(&player, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &player, nil
}

func (r *playerRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.Player, error) {
	var player domain.Player
	err := r.db.WithContext(ctx).
		First(&player, "external_id = ?", externalID).Error
	if err != nil {
		return nil, err
	}
	return &player, nil
}

func (r *playerRepository) GetByExternalIDs(ctx context.Context, externalIDs []string) ([]*domain.Player, error) {
	var players []*domain.Player
	if len(externalIDs) == 0 {
		return players, nil
	}
	err := r.db.WithContext(ctx).
		Where("external_id IN ?", externalIDs).
		Find(&players).Error
	if err != nil {
		return nil, err
	}
	return players, nil
}

func (r *playerRepository) Update(ctx context.Context, player *domain.Player) error {
	return r.db.WithContext(ctx).Save(player).Error
}

func (r *playerRepository) GetAll(ctx context.Context) ([]*domain.Player, error) {
	var players []*domain.Player
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&players).Error
	if err != nil {
		return nil, err
	}
	return players, nil
}

func (r *playerRepository) GetTracked(ctx context.Context) ([]*domain.Player, error) {
	var players []*domain.Player
	err := r.db.WithContext(ctx).
		Where("is_tracked = ?", true).
		Order("current_rating DESC").
		Find(&players).Error
	if err != nil {
		return nil, err
	}
	return players, nil
}

func (r *playerRepository) GetTopRatedIDs(ctx context.Context, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&domain.Player{}).
		Order("current_rating DESC, id ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *playerRepository) CountTrackedExcluding(ctx context.Context, ids []uuid.UUID) (int64, error) {
	var count int64
	q := r.db.WithContext(ctx).
		Model(&domain.Player{}).
		Where("is_tracked = ?", true)
	if len(ids) > 0 {
		q = q.Where("id NOT IN ?", ids)
	}
	if err := q.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *playerRepository) GetOldestViewedTrackedExcluding(ctx context.Context, ids []uuid.UUID) (*domain.Player, error) {
	var player domain.Player
	q := r.db.WithContext(ctx).
		Where("is_tracked = ?", true)
	if len(ids) > 0 {
		q = q.Where("id NOT IN ?", ids)
	}
	// Never-viewed players sort ahead of anyone viewed long ago.
	err := q.Order("last_viewed_at ASC NULLS FIRST").
		First(&player).Error
	if err != nil {
		return nil, err
	}
	return &player, nil
}

func (r *playerRepository) SetTracked(ctx context.Context, ids []uuid.UUID, tracked bool) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&domain.Player{}).
		Where("id IN ?", ids).
		Update("is_tracked", tracked).Error
}

func (r *playerRepository) SetLastViewed(ctx context.Context, id uuid.UUID, viewedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.Player{}).
		Where("id = ?", id).
		Update("last_viewed_at", viewedAt).Error
}

func (r *playerRepository) ApplyRatingChange(ctx context.Context, playerID uuid.UUID, rating int, division string, at time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&domain.Player{}).
			Where("id = ?", playerID).
			Updates(map[string]interface{}{
				"current_rating": rating,
				"division":       division,
				"updated_at":     at,
			}).Error
		if err != nil {
			return err
		}

		snapshot := &domain.RatingSnapshot{
			ID:         uuid.New(),
			PlayerID:   playerID,
			Rating:     rating,
			Division:   division,
			RecordedAt: at,
		}
		return tx.Create(snapshot).Error
	})
}
