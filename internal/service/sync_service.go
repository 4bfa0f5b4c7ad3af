package service

import (
	"context"
	"fmt"
	"time"

	"github.com/geoinsight/backend/internal/domain"
	"github.com/geoinsight/backend/internal/events"
	"github.com/geoinsight/backend/internal/metrics"
	"github.com/geoinsight/backend/internal/repository"
	"go.uber.org/zap"
)

// SyncResult is the outcome of syncing one player. Upstream failures
// land in Err and never propagate as errors from SyncOne; the caller
// keeps serving the player's stored values.
type SyncResult struct {
	Changed  bool
	Rating   int
	Division string
	Err      error
}

// BatchResult tallies one periodic sync pass.
type BatchResult struct {
	Updated   int
	Unchanged int
	Errored   int
}

type SyncService struct {
	playerRepo repository.PlayerRepository
	source     RatingSource
	publisher  Publisher
	logger     *zap.Logger
}

func NewSyncService(playerRepo repository.PlayerRepository, source RatingSource, publisher Publisher, logger *zap.Logger) *SyncService {
	return &SyncService{
		playerRepo: playerRepo,
		source:     source,
		publisher:  publisher,
		logger:     logger,
	}
}

// SyncOne fetches the player's current rating and persists it if it
// differs from the stored value. The history table only grows when an
// observable value changes: identical (rating, division) means no row
// update, no snapshot, and an untouched UpdatedAt.
func (s *SyncService) SyncOne(ctx context.Context, player *domain.Player) SyncResult {
	progress, err := s.source.FetchRating(ctx, player.ExternalID)
	if err != nil {
		metrics.PlayersSyncedTotal.WithLabelValues("error").Inc()
		s.logger.Warn("rating fetch failed",
			zap.String("username", player.Username),
			zap.String("externalId", player.ExternalID),
			zap.Error(err))
		return SyncResult{Err: err}
	}

	rating, division := progress.Normalize()
	if rating == player.CurrentRating && division == player.Division {
		metrics.PlayersSyncedTotal.WithLabelValues("unchanged").Inc()
		return SyncResult{Rating: rating, Division: division}
	}

	now := time.Now()
	if err := s.playerRepo.ApplyRatingChange(ctx, player.ID, rating, division, now); err != nil {
		// A half-applied write here would leave the player row and the
		// latest snapshot disagreeing, so store errors are real failures.
		metrics.PlayersSyncedTotal.WithLabelValues("error").Inc()
		return SyncResult{Err: fmt.Errorf("persisting rating change: %w", err)}
	}

	previousRating := player.CurrentRating
	player.CurrentRating = rating
	player.Division = division
	player.UpdatedAt = now

	metrics.PlayersSyncedTotal.WithLabelValues("updated").Inc()
	s.logger.Info("rating updated",
		zap.String("username", player.Username),
		zap.Int("rating", rating),
		zap.String("division", division))

	if s.publisher != nil {
		s.publisher.PublishRatingUpdate(events.RatingUpdate{
			PlayerID:       player.ID,
			Username:       player.Username,
			Rating:         rating,
			Division:       division,
			PreviousRating: previousRating,
			RecordedAt:     now,
		})
	}

	return SyncResult{Changed: true, Rating: rating, Division: division}
}

// SyncBatch syncs players strictly one at a time with a fixed pause
// between upstream calls. The sequencing and the delay are a rate
// discipline toward GeoGuessr, not an optimization knob. One player's
// failure never aborts the batch.
func (s *SyncService) SyncBatch(ctx context.Context, players []*domain.Player, delay time.Duration) BatchResult {
	var result BatchResult

	for i, player := range players {
		res := s.SyncOne(ctx, player)
		switch {
		case res.Err != nil:
			result.Errored++
		case res.Changed:
			result.Updated++
		default:
			result.Unchanged++
		}

		if i == len(players)-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return result
		}
	}

	return result
}
