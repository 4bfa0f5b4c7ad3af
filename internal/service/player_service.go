package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/geoinsight/backend/internal/cache"
	"github.com/geoinsight/backend/internal/config"
	"github.com/geoinsight/backend/internal/domain"
	"github.com/geoinsight/backend/internal/geoguessr"
	"github.com/geoinsight/backend/internal/metrics"
	"github.com/geoinsight/backend/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PlayerService is the single entry point for the UI-serving layer. It
// wraps the sync engine and the tracking policy behind the operations
// the HTTP handlers need.
type PlayerService struct {
	playerRepo   repository.PlayerRepository
	snapshotRepo repository.SnapshotRepository
	sync         *SyncService
	tracking     *TrackingService
	source       RatingSource
	cache        cache.Cache
	cacheTTL     time.Duration
	logger       *zap.Logger
}

func NewPlayerService(repos *repository.Repositories, sync *SyncService, tracking *TrackingService, source RatingSource, store cache.Cache, cfg *config.Config, logger *zap.Logger) *PlayerService {
	return &PlayerService{
		playerRepo:   repos.Player,
		snapshotRepo: repos.Snapshot,
		sync:         sync,
		tracking:     tracking,
		source:       source,
		cache:        store,
		cacheTTL:     cfg.CacheTTL,
		logger:       logger,
	}
}

// CompetitiveStats is the live competitive state from the profile
// endpoint, as opposed to our tracked history.
type CompetitiveStats struct {
	Rating        int    `json:"rating"`
	Division      string `json:"division"`
	OnLeaderboard bool   `json:"onLeaderboard"`
}

// PlayerStats are the derived and enriched statistics for the detail
// view. Upstream enrichment fields stay zero-valued when GeoGuessr is
// unreachable; staleness is silent.
type PlayerStats struct {
	PeakRating       int                    `json:"peakRating"`
	SevenDayChange   *int                   `json:"sevenDayChange"`
	AccountCreated   string                 `json:"accountCreated,omitempty"`
	AvatarURL        string                 `json:"avatarUrl,omitempty"`
	CountryCode      string                 `json:"countryCode,omitempty"`
	IsVerified       bool                   `json:"isVerified"`
	TotalXP          int                    `json:"totalXp"`
	Level            int                    `json:"level"`
	WinStreak        int                    `json:"winStreak"`
	GuessedFirstRate float64                `json:"guessedFirstRate"`
	Competitive      *CompetitiveStats      `json:"competitiveStats,omitempty"`
	Games            *geoguessr.GameSummary `json:"playerStats,omitempty"`
}

// PlayerDetail is the full response of GetOrSyncPlayerDetail.
type PlayerDetail struct {
	Player              *domain.Player
	History             []*domain.RatingSnapshot
	Stats               PlayerStats
	JustAddedToTracking bool
}

// SearchMatch is one upstream search hit enriched with local state.
type SearchMatch struct {
	ExternalID     string         `json:"geoguessrId"`
	Username       string         `json:"username"`
	CountryCode    string         `json:"countryCode,omitempty"`
	XP             int            `json:"xp"`
	AccountCreated string         `json:"accountCreated,omitempty"`
	AvatarURL      string         `json:"avatarUrl,omitempty"`
	IsTracked      bool           `json:"isTracked"`
	Player         *domain.Player `json:"dbPlayer,omitempty"`
}

func (s *PlayerService) ListPlayers(ctx context.Context) ([]*domain.Player, error) {
	return s.playerRepo.GetAll(ctx)
}

func (s *PlayerService) GetPlayer(ctx context.Context, id uuid.UUID) (*domain.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPlayerNotFound
		}
		return nil, err
	}
	return player, nil
}

// GetOrSyncPlayerDetail loads a player with history and derived stats.
// Viewing an untracked player triggers one synchronous sync and admits
// the player into the tracked set; a failed sync serves the stored
// values and never surfaces to the user.
func (s *PlayerService) GetOrSyncPlayerDetail(ctx context.Context, id uuid.UUID) (*PlayerDetail, error) {
	player, err := s.GetPlayer(ctx, id)
	if err != nil {
		return nil, err
	}

	// View bookkeeping drives rotation eviction. Only user views stamp
	// this, never the periodic job.
	now := time.Now()
	if err := s.playerRepo.SetLastViewed(ctx, player.ID, now); err != nil {
		s.logger.Warn("last-viewed update failed", zap.Error(err))
	} else {
		player.LastViewedAt = &now
	}

	justAdded := false
	if !player.IsTracked {
		metrics.OnDemandSyncsTotal.Inc()
		if res := s.sync.SyncOne(ctx, player); res.Err != nil {
			s.logger.Warn("on-demand sync failed, serving stored values",
				zap.String("username", player.Username), zap.Error(res.Err))
		}

		if _, err := s.tracking.EnsureTracked(ctx, player); err != nil {
			s.logger.Warn("tracking admission failed",
				zap.String("username", player.Username), zap.Error(err))
		} else {
			justAdded = true
		}
	}

	history, err := s.snapshotRepo.GetByPlayerID(ctx, player.ID)
	if err != nil {
		return nil, err
	}

	stats := PlayerStats{
		PeakRating:     PeakRating(history, player.CurrentRating),
		SevenDayChange: SevenDayChange(history, now),
	}
	s.enrichFromUpstream(ctx, player, &stats)

	return &PlayerDetail{
		Player:              player,
		History:             history,
		Stats:               stats,
		JustAddedToTracking: justAdded,
	}, nil
}

// enrichFromUpstream fills profile and game stats from the GeoGuessr
// API through the cache. Every step is optional; failures leave zero
// values.
func (s *PlayerService) enrichFromUpstream(ctx context.Context, player *domain.Player, stats *PlayerStats) {
	if profile := s.cachedProfile(ctx, player.ExternalID); profile != nil {
		stats.AccountCreated = profile.Created
		stats.AvatarURL = profile.AvatarURL
		stats.CountryCode = profile.CountryCode
		stats.IsVerified = profile.IsVerified
		stats.TotalXP = profile.Progress.XP
		stats.Level = profile.Progress.Level
		if profile.Competitive.Rating != 0 || profile.Competitive.Division.Type != "" {
			stats.Competitive = &CompetitiveStats{
				Rating:        profile.Competitive.Rating,
				Division:      profile.Competitive.Division.Type,
				OnLeaderboard: profile.Competitive.OnLeaderboard,
			}
		}
	}

	games, err := s.source.FetchRecentGames(ctx, player.ExternalID)
	if err != nil {
		s.logger.Warn("game history fetch failed", zap.Error(err))
	} else {
		stats.Games = games
	}

	progress, err := s.source.FetchRating(ctx, player.ExternalID)
	if err == nil {
		stats.WinStreak = progress.WinStreak
		stats.GuessedFirstRate = progress.GuessedFirstRate
	}
}

func (s *PlayerService) cachedProfile(ctx context.Context, externalID string) *geoguessr.Profile {
	data, err := s.cache.GetOrSet(ctx, "profile:"+externalID, s.cacheTTL, func() ([]byte, error) {
		profile, err := s.source.FetchProfile(ctx, externalID)
		if err != nil {
			return nil, err
		}
		return json.Marshal(profile)
	})
	if err != nil {
		s.logger.Warn("profile fetch failed", zap.String("externalId", externalID), zap.Error(err))
		return nil
	}

	var profile geoguessr.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil
	}
	return &profile
}

// SearchPlayers looks a username up on GeoGuessr and enriches exact
// matches with local tracking state. Tracked players sort first by
// rating, the rest by XP.
func (s *PlayerService) SearchPlayers(ctx context.Context, username string) ([]SearchMatch, error) {
	results, err := s.source.Search(ctx, username)
	if err != nil {
		return nil, err
	}

	var exact []geoguessr.SearchResult
	for _, r := range results {
		if r.ID != "" && strings.EqualFold(r.DisplayName(), username) {
			exact = append(exact, r)
		}
	}
	if len(exact) == 0 {
		return nil, domain.ErrPlayerNotFound
	}

	externalIDs := make([]string, len(exact))
	for i, r := range exact {
		externalIDs[i] = r.ID
	}
	known, err := s.playerRepo.GetByExternalIDs(ctx, externalIDs)
	if err != nil {
		return nil, err
	}
	knownByID := make(map[string]*domain.Player, len(known))
	for _, p := range known {
		knownByID[p.ExternalID] = p
	}

	matches := make([]SearchMatch, len(exact))
	for i, r := range exact {
		match := SearchMatch{
			ExternalID:     r.ID,
			Username:       r.DisplayName(),
			CountryCode:    r.CountryCode,
			XP:             r.XP,
			AccountCreated: r.AccountCreated(),
			AvatarURL:      r.AvatarFullURL(),
		}
		if p, ok := knownByID[r.ID]; ok {
			match.IsTracked = true
			match.Player = p
		}
		matches[i] = match
	}

	sortMatches(matches)
	return matches, nil
}

func sortMatches(matches []SearchMatch) {
	for i := 1; i < len(matches); i++ {
		for j := i; j > 0 && matchLess(matches[j], matches[j-1]); j-- {
			matches[j], matches[j-1] = matches[j-1], matches[j]
		}
	}
}

func matchLess(a, b SearchMatch) bool {
	ar, br := 0, 0
	if a.Player != nil {
		ar = a.Player.CurrentRating
	}
	if b.Player != nil {
		br = b.Player.CurrentRating
	}
	if ar != br {
		return ar > br
	}
	return a.XP > b.XP
}

// AddPlayer registers an upstream account for tracking. Idempotent on
// the external id: re-adding a known player returns the existing record.
// The username is corrected from the profile endpoint when reachable,
// and the initial rating falls back to (0, "unranked") when the ranked
// progress call fails, so an unreachable API never blocks adding.
func (s *PlayerService) AddPlayer(ctx context.Context, externalID, username string) (*domain.Player, bool, error) {
	existing, err := s.playerRepo.GetByExternalID(ctx, externalID)
	if err == nil {
		return existing, true, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	player := &domain.Player{
		ID:         uuid.New(),
		ExternalID: externalID,
		Username:   username,
		Division:   "unranked",
		IsTracked:  true,
		UpdatedAt:  time.Now(),
	}

	if profile, err := s.source.FetchProfile(ctx, externalID); err != nil {
		s.logger.Warn("profile fetch failed, keeping provided username",
			zap.String("externalId", externalID), zap.Error(err))
	} else {
		if profile.Nick != "" {
			player.Username = profile.Nick
		}
		player.CountryCode = profile.CountryCode
		player.AvatarURL = profile.AvatarURL
		player.XP = profile.Progress.XP
		player.Level = profile.Progress.Level
		player.IsVerified = profile.IsVerified
	}

	if progress, err := s.source.FetchRating(ctx, externalID); err != nil {
		s.logger.Warn("rating fetch failed, using defaults",
			zap.String("externalId", externalID), zap.Error(err))
	} else {
		player.CurrentRating, player.Division = progress.Normalize()
		if len(progress.GameModeRatings) > 0 {
			if raw, err := json.Marshal(progress.GameModeRatings); err == nil {
				player.GameModeRatings = raw
			}
		}
	}

	if err := s.playerRepo.Create(ctx, player); err != nil {
		return nil, false, err
	}

	seed := &domain.RatingSnapshot{
		ID:         uuid.New(),
		PlayerID:   player.ID,
		Rating:     player.CurrentRating,
		Division:   player.Division,
		RecordedAt: time.Now(),
	}
	if err := s.snapshotRepo.Create(ctx, seed); err != nil {
		return nil, false, err
	}

	s.logger.Info("player added",
		zap.String("username", player.Username),
		zap.Int("rating", player.CurrentRating))
	return player, false, nil
}
