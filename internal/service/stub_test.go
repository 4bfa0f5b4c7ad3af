package service_test

import (
	"context"

	"github.com/geoinsight/backend/internal/geoguessr"
)

// stubSource is a canned RatingSource. Per-call answers can be fixed
// or keyed by external id via ratingFn.
type stubSource struct {
	progress    *geoguessr.RankedProgress
	progressErr error
	ratingFn    func(externalID string) (*geoguessr.RankedProgress, error)
	ratingCalls int

	profile    *geoguessr.Profile
	profileErr error

	games    *geoguessr.GameSummary
	gamesErr error

	results   []geoguessr.SearchResult
	searchErr error
}

func (s *stubSource) FetchRating(ctx context.Context, externalID string) (*geoguessr.RankedProgress, error) {
	s.ratingCalls++
	if s.ratingFn != nil {
		return s.ratingFn(externalID)
	}
	return s.progress, s.progressErr
}

func (s *stubSource) FetchProfile(ctx context.Context, externalID string) (*geoguessr.Profile, error) {
	return s.profile, s.profileErr
}

func (s *stubSource) FetchRecentGames(ctx context.Context, externalID string) (*geoguessr.GameSummary, error) {
	return s.games, s.gamesErr
}

func (s *stubSource) Search(ctx context.Context, username string) ([]geoguessr.SearchResult, error) {
	return s.results, s.searchErr
}
