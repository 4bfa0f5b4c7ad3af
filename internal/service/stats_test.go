package service_test

import (
	"testing"
	"time"

	"github.com/geoinsight/backend/internal/domain"
	"github.com/geoinsight/backend/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotAt(rating int, at time.Time) *domain.RatingSnapshot {
	return &domain.RatingSnapshot{Rating: rating, Division: "gold_i", RecordedAt: at}
}

func TestPeakRating(t *testing.T) {
	tests := []struct {
		name    string
		history []*domain.RatingSnapshot
		current int
		want    int
	}{
		{
			name:    "no history falls back to current rating",
			history: nil,
			current: 1234,
			want:    1234,
		},
		{
			name: "peak is the maximum ever recorded, not the latest",
			history: []*domain.RatingSnapshot{
				snapshotAt(1000, time.Now().Add(-3*time.Hour)),
				snapshotAt(1400, time.Now().Add(-2*time.Hour)),
				snapshotAt(1250, time.Now().Add(-time.Hour)),
			},
			current: 1250,
			want:    1400,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, service.PeakRating(tt.history, tt.current))
		})
	}
}

func TestSevenDayChange(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	boundary := now.AddDate(0, 0, -7)

	t.Run("defined when snapshots bracket the boundary", func(t *testing.T) {
		history := []*domain.RatingSnapshot{
			snapshotAt(1000, boundary.Add(-24*time.Hour)),
			snapshotAt(1100, now.Add(-time.Hour)),
		}
		change := service.SevenDayChange(history, now)
		require.NotNil(t, change)
		assert.Equal(t, 100, *change)
	})

	t.Run("snapshot exactly on the boundary counts as before", func(t *testing.T) {
		history := []*domain.RatingSnapshot{
			snapshotAt(1000, boundary),
			snapshotAt(1080, now.Add(-time.Hour)),
		}
		change := service.SevenDayChange(history, now)
		require.NotNil(t, change)
		assert.Equal(t, 80, *change)
	})

	t.Run("nil when all snapshots are inside the window", func(t *testing.T) {
		history := []*domain.RatingSnapshot{
			snapshotAt(1000, boundary.Add(time.Hour)),
			snapshotAt(1100, now.Add(-time.Hour)),
		}
		assert.Nil(t, service.SevenDayChange(history, now))
	})

	t.Run("nil when nothing was recorded after the boundary", func(t *testing.T) {
		history := []*domain.RatingSnapshot{
			snapshotAt(1000, boundary.Add(-72*time.Hour)),
			snapshotAt(1050, boundary.Add(-24*time.Hour)),
		}
		assert.Nil(t, service.SevenDayChange(history, now))
	})

	t.Run("nil with empty history", func(t *testing.T) {
		assert.Nil(t, service.SevenDayChange(nil, now))
	})

	t.Run("uses newest snapshot before the boundary", func(t *testing.T) {
		history := []*domain.RatingSnapshot{
			snapshotAt(900, boundary.Add(-96*time.Hour)),
			snapshotAt(1000, boundary.Add(-24*time.Hour)),
			snapshotAt(1150, now.Add(-48*time.Hour)),
			snapshotAt(1120, now.Add(-time.Hour)),
		}
		change := service.SevenDayChange(history, now)
		require.NotNil(t, change)
		// Latest (1120) minus the last pre-boundary value (1000).
		assert.Equal(t, 120, *change)
	})
}
