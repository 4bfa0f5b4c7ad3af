package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/geoinsight/backend/internal/cache"
	"github.com/geoinsight/backend/internal/domain"
	"github.com/geoinsight/backend/internal/geoguessr"
	"github.com/geoinsight/backend/internal/repository/postgres"
	"github.com/geoinsight/backend/internal/service"
	"github.com/geoinsight/backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newServices(t *testing.T, testDB *testutil.TestDB, source service.RatingSource) *service.Services {
	t.Helper()
	repos := postgres.NewRepositories(testDB.DB)
	memCache := cache.NewMemoryCache()
	t.Cleanup(memCache.Close)
	return service.NewServices(repos, testutil.TestConfig(), source, memCache, nil, zap.NewNop())
}

func TestPlayerService_GetOrSyncPlayerDetail_NotFound(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	svc := newServices(t, testDB, &stubSource{progressErr: errors.New("unused")})

	_, err := svc.Player.GetOrSyncPlayerDetail(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrPlayerNotFound)
}

func TestPlayerService_GetOrSyncPlayerDetail_TrackedPlayerSkipsSync(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	source := &stubSource{
		progress:   &geoguessr.RankedProgress{Rating: 9999, DivisionName: "Champion_I"},
		profileErr: errors.New("profile down"),
		gamesErr:   errors.New("games down"),
	}
	svc := newServices(t, testDB, source)
	ctx := context.Background()

	player := testutil.NewPlayerBuilder().WithRating(1500).WithDivision("master_ii").Tracked().Build(t, testDB.DB)
	testutil.CreateSnapshot(t, testDB.DB, player.ID, 1500, "master_ii", time.Now().Add(-time.Hour))

	detail, err := svc.Player.GetOrSyncPlayerDetail(ctx, player.ID)
	require.NoError(t, err)

	// Already tracked: the periodic job owns this player's syncing, the
	// view must not push a 9999 rating through.
	assert.False(t, detail.JustAddedToTracking)
	assert.Equal(t, 1500, detail.Player.CurrentRating)
	assert.Equal(t, int64(1), testutil.CountSnapshots(t, testDB.DB, player.ID))

	// Viewing stamps the eviction bookkeeping.
	require.NotNil(t, testutil.Reload(t, testDB.DB, player.ID).LastViewedAt)
}

func TestPlayerService_GetOrSyncPlayerDetail_UntrackedSyncsAndAdmits(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	source := &stubSource{
		progress:   &geoguessr.RankedProgress{Rating: 1620, DivisionName: "Master_I"},
		profileErr: errors.New("profile down"),
		gamesErr:   errors.New("games down"),
	}
	svc := newServices(t, testDB, source)
	ctx := context.Background()

	player := testutil.NewPlayerBuilder().WithRating(1500).WithDivision("master_ii").Build(t, testDB.DB)

	detail, err := svc.Player.GetOrSyncPlayerDetail(ctx, player.ID)
	require.NoError(t, err)

	assert.True(t, detail.JustAddedToTracking)
	assert.Equal(t, 1620, detail.Player.CurrentRating)
	assert.Equal(t, "master_i", detail.Player.Division)
	assert.True(t, testutil.Reload(t, testDB.DB, player.ID).IsTracked)
	assert.Equal(t, int64(1), testutil.CountSnapshots(t, testDB.DB, player.ID))
	require.Len(t, detail.History, 1)
	assert.Equal(t, 1620, detail.Stats.PeakRating)
}

func TestPlayerService_GetOrSyncPlayerDetail_UpstreamDownServesStored(t *testing.T) {
	// Staleness is silent: an unreachable upstream must not surface an
	// error on the detail view of an untracked player.
	testDB := testutil.NewTestDB(t)
	source := &stubSource{
		progressErr: errors.New("upstream timeout"),
		profileErr:  errors.New("upstream timeout"),
		gamesErr:    errors.New("upstream timeout"),
	}
	svc := newServices(t, testDB, source)
	ctx := context.Background()

	player := testutil.NewPlayerBuilder().WithRating(1500).WithDivision("master_ii").Build(t, testDB.DB)
	testutil.CreateSnapshot(t, testDB.DB, player.ID, 1500, "master_ii", time.Now().Add(-time.Hour))

	detail, err := svc.Player.GetOrSyncPlayerDetail(ctx, player.ID)
	require.NoError(t, err)

	assert.Equal(t, 1500, detail.Player.CurrentRating)
	assert.Equal(t, 1500, detail.Stats.PeakRating)
	// The failed sync must not block admission into tracking.
	assert.True(t, testutil.Reload(t, testDB.DB, player.ID).IsTracked)
}

func TestPlayerService_GetOrSyncPlayerDetail_Enrichment(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	profile := &geoguessr.Profile{
		Nick:        "MapMaster",
		Created:     "2019-03-01T00:00:00Z",
		CountryCode: "se",
		IsVerified:  true,
	}
	profile.Progress.XP = 120000
	profile.Progress.Level = 60
	profile.Competitive.Rating = 1510
	profile.Competitive.Division.Type = "master"
	profile.Competitive.OnLeaderboard = true

	source := &stubSource{
		progress: &geoguessr.RankedProgress{Rating: 1500, DivisionName: "Master_II", WinStreak: 4},
		profile:  profile,
		games: &geoguessr.GameSummary{
			TotalGames: 20,
			Wins:       12,
			Losses:     8,
			WinRate:    0.6,
			MaxRating:  1530,
		},
	}
	svc := newServices(t, testDB, source)

	player := testutil.NewPlayerBuilder().WithRating(1500).WithDivision("master_ii").Tracked().Build(t, testDB.DB)

	detail, err := svc.Player.GetOrSyncPlayerDetail(context.Background(), player.ID)
	require.NoError(t, err)

	assert.Equal(t, "se", detail.Stats.CountryCode)
	assert.True(t, detail.Stats.IsVerified)
	assert.Equal(t, 120000, detail.Stats.TotalXP)
	assert.Equal(t, 4, detail.Stats.WinStreak)
	require.NotNil(t, detail.Stats.Competitive)
	assert.Equal(t, "master", detail.Stats.Competitive.Division)
	require.NotNil(t, detail.Stats.Games)
	assert.Equal(t, 20, detail.Stats.Games.TotalGames)
}

func TestPlayerService_AddPlayer(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	source := &stubSource{
		progress: &geoguessr.RankedProgress{Rating: 1340, DivisionName: "Platinum_I"},
		profile:  &geoguessr.Profile{Nick: "GeoWizard"},
	}
	svc := newServices(t, testDB, source)
	ctx := context.Background()

	player, already, err := svc.Player.AddPlayer(ctx, "gg_wizard", "geowizard")
	require.NoError(t, err)

	assert.False(t, already)
	// Username capitalization comes from the profile, not the request.
	assert.Equal(t, "GeoWizard", player.Username)
	assert.Equal(t, 1340, player.CurrentRating)
	assert.Equal(t, "platinum_i", player.Division)
	assert.True(t, player.IsTracked)
	assert.Equal(t, int64(1), testutil.CountSnapshots(t, testDB.DB, player.ID))

	// Re-adding the same account is idempotent.
	again, already, err := svc.Player.AddPlayer(ctx, "gg_wizard", "whatever")
	require.NoError(t, err)
	assert.True(t, already)
	assert.Equal(t, player.ID, again.ID)
	assert.Equal(t, int64(1), testutil.CountSnapshots(t, testDB.DB, player.ID))
}

func TestPlayerService_AddPlayer_UpstreamDownUsesDefaults(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	source := &stubSource{
		progressErr: errors.New("upstream timeout"),
		profileErr:  errors.New("upstream timeout"),
	}
	svc := newServices(t, testDB, source)

	player, already, err := svc.Player.AddPlayer(context.Background(), "gg_offline", "offline_player")
	require.NoError(t, err)

	assert.False(t, already)
	assert.Equal(t, "offline_player", player.Username)
	assert.Equal(t, 0, player.CurrentRating)
	assert.Equal(t, "unranked", player.Division)
	assert.Equal(t, int64(1), testutil.CountSnapshots(t, testDB.DB, player.ID))
}

func TestPlayerService_SearchPlayers(t *testing.T) {
	testDB := testutil.NewTestDB(t)

	tracked := testutil.NewPlayerBuilder().WithExternalID("gg_1").WithRating(1700).Tracked().Build(t, testDB.DB)

	source := &stubSource{results: []geoguessr.SearchResult{
		{ID: "gg_1", Name: "Sampo", XP: 1000},
		{ID: "gg_2", Name: "Sampo", XP: 50000},
		{ID: "gg_3", Name: "SampoTheGreat", XP: 99999}, // not an exact match
	}}
	svc := newServices(t, testDB, source)

	matches, err := svc.Player.SearchPlayers(context.Background(), "sampo")
	require.NoError(t, err)

	// Exact case-insensitive matches only; tracked players sort first.
	require.Len(t, matches, 2)
	assert.Equal(t, "gg_1", matches[0].ExternalID)
	assert.True(t, matches[0].IsTracked)
	assert.Equal(t, tracked.ID, matches[0].Player.ID)
	assert.Equal(t, "gg_2", matches[1].ExternalID)
	assert.False(t, matches[1].IsTracked)
}

func TestPlayerService_SearchPlayers_NoExactMatch(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	source := &stubSource{results: []geoguessr.SearchResult{
		{ID: "gg_9", Name: "SomebodyElse", XP: 10},
	}}
	svc := newServices(t, testDB, source)

	_, err := svc.Player.SearchPlayers(context.Background(), "sampo")
	assert.ErrorIs(t, err, domain.ErrPlayerNotFound)
}
