package service

import (
	"context"
	"sort"
	"strings"

	"github.com/geoinsight/backend/internal/config"
	"github.com/geoinsight/backend/internal/domain"
	"github.com/geoinsight/backend/internal/metrics"
	"github.com/geoinsight/backend/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TrackingService maintains the bounded tracked set. Tier A is the top
// N players by rating, tracked unconditionally. Tier B is a rotation
// pool of at most M additional players, admitted when a user views them
// and evicted least-recently-viewed.
type TrackingService struct {
	playerRepo   repository.PlayerRepository
	topN         int
	rotationSize int
	logger       *zap.Logger
}

func NewTrackingService(playerRepo repository.PlayerRepository, cfg *config.Config, logger *zap.Logger) *TrackingService {
	return &TrackingService{
		playerRepo:   playerRepo,
		topN:         cfg.TopPlayerCount,
		rotationSize: cfg.RotationSize,
		logger:       logger,
	}
}

// EnsureTracked admits a currently-untracked player into the tracked
// set, evicting the least-recently-viewed rotation member when the pool
// is full. Idempotent; callers check IsTracked first and skip the call.
//
// The reads that drive eviction are best-effort: if counting the pool or
// selecting a victim fails, eviction is skipped and the player is
// tracked anyway. Over-tracking beats dropping the request of the user
// who is looking at this player right now.
func (s *TrackingService) EnsureTracked(ctx context.Context, player *domain.Player) (*domain.Player, error) {
	topIDs, err := s.playerRepo.GetTopRatedIDs(ctx, s.topN)
	if err != nil {
		s.logger.Warn("top-rated lookup failed, treating player as rotation member", zap.Error(err))
		topIDs = nil
	}

	var evicted *domain.Player
	if !containsID(topIDs, player.ID) {
		evicted = s.evictIfFull(ctx, topIDs)
	}

	if err := s.playerRepo.SetTracked(ctx, []uuid.UUID{player.ID}, true); err != nil {
		return nil, err
	}
	player.IsTracked = true

	s.logger.Info("player added to tracking",
		zap.String("username", player.Username),
		zap.Bool("topPlayer", containsID(topIDs, player.ID)))

	return evicted, nil
}

// evictIfFull removes the oldest-viewed rotation member when the pool
// is at capacity. Never-viewed players are evicted before players
// viewed long ago. Read failures skip eviction.
func (s *TrackingService) evictIfFull(ctx context.Context, topIDs []uuid.UUID) *domain.Player {
	count, err := s.playerRepo.CountTrackedExcluding(ctx, topIDs)
	if err != nil {
		s.logger.Warn("rotation count failed, skipping eviction", zap.Error(err))
		return nil
	}
	if count < int64(s.rotationSize) {
		return nil
	}

	victim, err := s.playerRepo.GetOldestViewedTrackedExcluding(ctx, topIDs)
	if err != nil {
		s.logger.Warn("eviction candidate lookup failed, skipping eviction", zap.Error(err))
		return nil
	}

	if err := s.playerRepo.SetTracked(ctx, []uuid.UUID{victim.ID}, false); err != nil {
		s.logger.Warn("eviction write failed, skipping eviction",
			zap.String("username", victim.Username), zap.Error(err))
		return nil
	}

	victim.IsTracked = false
	metrics.EvictionsTotal.Inc()
	s.logger.Info("player evicted from rotation",
		zap.String("username", victim.Username))
	return victim
}

// Rebalance recomputes the whole tracked set from scratch: top N by
// rating plus up to M most-recently-synced players outside the top N
// (next-highest-rated when no player carries an activity signal). The
// target set is computed over one read of all players and applied as a
// diff, so there is never a window where everyone is untracked.
func (s *TrackingService) Rebalance(ctx context.Context) error {
	players, err := s.playerRepo.GetAll(ctx)
	if err != nil {
		return err
	}

	byRating := make([]*domain.Player, len(players))
	copy(byRating, players)
	sort.Slice(byRating, func(i, j int) bool {
		if byRating[i].CurrentRating != byRating[j].CurrentRating {
			return byRating[i].CurrentRating > byRating[j].CurrentRating
		}
		// Rating ties broken by id so the cut at N is deterministic.
		return strings.Compare(byRating[i].ID.String(), byRating[j].ID.String()) < 0
	})

	target := make(map[uuid.UUID]bool, s.topN+s.rotationSize)
	for i := 0; i < len(byRating) && i < s.topN; i++ {
		target[byRating[i].ID] = true
	}

	var withSignal []*domain.Player
	for _, p := range byRating {
		if !target[p.ID] && !p.UpdatedAt.IsZero() {
			withSignal = append(withSignal, p)
		}
	}
	sort.Slice(withSignal, func(i, j int) bool {
		return withSignal[i].UpdatedAt.After(withSignal[j].UpdatedAt)
	})

	if len(withSignal) > 0 {
		for i := 0; i < len(withSignal) && i < s.rotationSize; i++ {
			target[withSignal[i].ID] = true
		}
	} else {
		// No activity signal anywhere: fall back to the next tier of
		// top-rated players.
		admitted := 0
		for _, p := range byRating {
			if admitted == s.rotationSize {
				break
			}
			if !target[p.ID] {
				target[p.ID] = true
				admitted++
			}
		}
	}

	var toTrack, toUntrack []uuid.UUID
	for _, p := range players {
		switch {
		case target[p.ID] && !p.IsTracked:
			toTrack = append(toTrack, p.ID)
		case !target[p.ID] && p.IsTracked:
			toUntrack = append(toUntrack, p.ID)
		}
	}

	if err := s.playerRepo.SetTracked(ctx, toUntrack, false); err != nil {
		return err
	}
	if err := s.playerRepo.SetTracked(ctx, toTrack, true); err != nil {
		return err
	}

	s.logger.Info("tracked set rebalanced",
		zap.Int("targetSize", len(target)),
		zap.Int("tracked", len(toTrack)),
		zap.Int("untracked", len(toUntrack)))
	return nil
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
