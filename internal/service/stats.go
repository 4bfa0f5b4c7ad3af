package service

import (
	"time"

	"github.com/geoinsight/backend/internal/domain"
)

// PeakRating is the highest rating ever recorded for a player, falling
// back to the current rating when no history exists yet. GeoGuessr does
// not expose an all-time best over the API, so this is the best rating
// observed since tracking began.
func PeakRating(history []*domain.RatingSnapshot, currentRating int) int {
	if len(history) == 0 {
		return currentRating
	}
	peak := history[0].Rating
	for _, snapshot := range history[1:] {
		if snapshot.Rating > peak {
			peak = snapshot.Rating
		}
	}
	return peak
}

// SevenDayChange is the rating delta over the trailing seven days:
// latest snapshot minus the newest snapshot recorded at or before the
// boundary. Defined only when at least one snapshot lies on each side
// of the boundary; otherwise nil. History must be ordered ascending by
// RecordedAt.
func SevenDayChange(history []*domain.RatingSnapshot, now time.Time) *int {
	boundary := now.AddDate(0, 0, -7)

	var before *domain.RatingSnapshot
	var after *domain.RatingSnapshot
	for _, snapshot := range history {
		if !snapshot.RecordedAt.After(boundary) {
			before = snapshot
		} else {
			after = snapshot
		}
	}
	if before == nil || after == nil {
		return nil
	}

	latest := history[len(history)-1]
	change := latest.Rating - before.Rating
	return &change
}
