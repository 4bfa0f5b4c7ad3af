package service

import (
	"context"

	"github.com/geoinsight/backend/internal/cache"
	"github.com/geoinsight/backend/internal/config"
	"github.com/geoinsight/backend/internal/events"
	"github.com/geoinsight/backend/internal/geoguessr"
	"github.com/geoinsight/backend/internal/repository"
	"go.uber.org/zap"
)

// RatingSource is the capability the services need from the upstream
// game API. *geoguessr.Client satisfies it; tests substitute stubs.
type RatingSource interface {
	FetchRating(ctx context.Context, externalID string) (*geoguessr.RankedProgress, error)
	FetchProfile(ctx context.Context, externalID string) (*geoguessr.Profile, error)
	FetchRecentGames(ctx context.Context, externalID string) (*geoguessr.GameSummary, error)
	Search(ctx context.Context, username string) ([]geoguessr.SearchResult, error)
}

// Publisher receives rating-change events for live clients. The
// websocket hub implements it; a nil publisher disables broadcasting.
type Publisher interface {
	PublishRatingUpdate(update events.RatingUpdate)
}

type Services struct {
	Sync     *SyncService
	Tracking *TrackingService
	Player   *PlayerService
}

func NewServices(repos *repository.Repositories, cfg *config.Config, source RatingSource, store cache.Cache, publisher Publisher, logger *zap.Logger) *Services {
	sync := NewSyncService(repos.Player, source, publisher, logger)
	tracking := NewTrackingService(repos.Player, cfg, logger)
	return &Services{
		Sync:     sync,
		Tracking: tracking,
		Player:   NewPlayerService(repos, sync, tracking, source, store, cfg, logger),
	}
}
