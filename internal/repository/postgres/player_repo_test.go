package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/geoinsight/backend/internal/domain"
	"github.com/geoinsight/backend/internal/repository/postgres"
	"github.com/geoinsight/backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerRepository_Create(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewPlayerRepository(testDB.DB)
	ctx := context.Background()

	tests := []struct {
		name    string
		player  *domain.Player
		wantErr bool
	}{
		{
			name: "successful creation",
			player: &domain.Player{
				ID:         uuid.New(),
				ExternalID: "gg_abc123",
				Username:   "testplayer",
				Division:   "gold_i",
				CreatedAt:  time.Now(),
				UpdatedAt:  time.Now(),
			},
			wantErr: false,
		},
		{
			name: "duplicate external id",
			player: &domain.Player{
				ID:         uuid.New(),
				ExternalID: "gg_abc123", // Same as above
				Username:   "otherplayer",
				Division:   "gold_i",
				CreatedAt:  time.Now(),
				UpdatedAt:  time.Now(),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Create(ctx, tt.player)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestPlayerRepository_GetTopRatedIDs(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewPlayerRepository(testDB.DB)
	ctx := context.Background()

	first := testutil.NewPlayerBuilder().WithRating(2000).Build(t, testDB.DB)
	second := testutil.NewPlayerBuilder().WithRating(1900).Build(t, testDB.DB)
	testutil.NewPlayerBuilder().WithRating(1800).Build(t, testDB.DB)
	testutil.NewPlayerBuilder().WithRating(1700).Build(t, testDB.DB)

	ids, err := repo.GetTopRatedIDs(ctx, 2)
	require.NoError(t, err)

	require.Len(t, ids, 2)
	assert.Equal(t, first.ID, ids[0])
	assert.Equal(t, second.ID, ids[1])
}

func TestPlayerRepository_CountTrackedExcluding(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewPlayerRepository(testDB.DB)
	ctx := context.Background()

	excluded := testutil.NewPlayerBuilder().Tracked().Build(t, testDB.DB)
	testutil.NewPlayerBuilder().Tracked().Build(t, testDB.DB)
	testutil.NewPlayerBuilder().Tracked().Build(t, testDB.DB)
	testutil.NewPlayerBuilder().Build(t, testDB.DB) // untracked

	count, err := repo.CountTrackedExcluding(ctx, []uuid.UUID{excluded.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	count, err = repo.CountTrackedExcluding(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestPlayerRepository_GetOldestViewedTrackedExcluding(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewPlayerRepository(testDB.DB)
	ctx := context.Background()

	now := time.Now()
	neverViewed := testutil.NewPlayerBuilder().Tracked().Build(t, testDB.DB)
	viewedLongAgo := testutil.NewPlayerBuilder().Tracked().
		WithLastViewedAt(now.Add(-48 * time.Hour)).Build(t, testDB.DB)
	testutil.NewPlayerBuilder().Tracked().
		WithLastViewedAt(now).Build(t, testDB.DB)

	// A player never viewed sorts before one viewed long ago.
	victim, err := repo.GetOldestViewedTrackedExcluding(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, neverViewed.ID, victim.ID)

	// With the never-viewed player excluded, the oldest view wins.
	victim, err = repo.GetOldestViewedTrackedExcluding(ctx, []uuid.UUID{neverViewed.ID})
	require.NoError(t, err)
	assert.Equal(t, viewedLongAgo.ID, victim.ID)
}

func TestPlayerRepository_SetTracked_RetainsHistory(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewPlayerRepository(testDB.DB)
	ctx := context.Background()

	player := testutil.NewPlayerBuilder().Tracked().Build(t, testDB.DB)
	testutil.CreateSnapshot(t, testDB.DB, player.ID, 1000, "gold_i", time.Now().Add(-time.Hour))
	testutil.CreateSnapshot(t, testDB.DB, player.ID, 1050, "gold_ii", time.Now())

	require.NoError(t, repo.SetTracked(ctx, []uuid.UUID{player.ID}, false))

	reloaded := testutil.Reload(t, testDB.DB, player.ID)
	assert.False(t, reloaded.IsTracked)
	assert.Equal(t, int64(2), testutil.CountSnapshots(t, testDB.DB, player.ID))
}

func TestPlayerRepository_ApplyRatingChange(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewPlayerRepository(testDB.DB)
	ctx := context.Background()

	player := testutil.NewPlayerBuilder().WithRating(1000).WithDivision("gold_i").Build(t, testDB.DB)

	at := time.Now()
	require.NoError(t, repo.ApplyRatingChange(ctx, player.ID, 1100, "gold_ii", at))

	reloaded := testutil.Reload(t, testDB.DB, player.ID)
	assert.Equal(t, 1100, reloaded.CurrentRating)
	assert.Equal(t, "gold_ii", reloaded.Division)
	assert.WithinDuration(t, at, reloaded.UpdatedAt, time.Second)

	snapshots, err := postgres.NewSnapshotRepository(testDB.DB).GetByPlayerID(ctx, player.ID)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, 1100, snapshots[0].Rating)
	assert.Equal(t, "gold_ii", snapshots[0].Division)
}

func TestPlayerRepository_SetLastViewed(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewPlayerRepository(testDB.DB)
	ctx := context.Background()

	player := testutil.NewPlayerBuilder().Build(t, testDB.DB)
	require.Nil(t, player.LastViewedAt)

	at := time.Now()
	require.NoError(t, repo.SetLastViewed(ctx, player.ID, at))

	reloaded := testutil.Reload(t, testDB.DB, player.ID)
	require.NotNil(t, reloaded.LastViewedAt)
	assert.WithinDuration(t, at, *reloaded.LastViewedAt, time.Second)
}

func TestPlayerRepository_GetByExternalIDs(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewPlayerRepository(testDB.DB)
	ctx := context.Background()

	a := testutil.NewPlayerBuilder().WithExternalID("gg_a").Build(t, testDB.DB)
	testutil.NewPlayerBuilder().WithExternalID("gg_b").Build(t, testDB.DB)

	players, err := repo.GetByExternalIDs(ctx, []string{"gg_a", "gg_missing"})
	require.NoError(t, err)
	require.Len(t, players, 1)
	assert.Equal(t, a.ID, players[0].ID)

	players, err = repo.GetByExternalIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, players)
}
