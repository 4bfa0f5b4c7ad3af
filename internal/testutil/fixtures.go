package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/geoinsight/backend/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PlayerBuilder creates test players with a builder pattern
type PlayerBuilder struct {
	externalID   string
	username     string
	rating       int
	division     string
	tracked      bool
	lastViewedAt *time.Time
	updatedAt    time.Time
}

// NewPlayerBuilder creates a new PlayerBuilder with default values
func NewPlayerBuilder() *PlayerBuilder {
	suffix := uuid.New().String()[:8]
	return &PlayerBuilder{
		externalID: fmt.Sprintf("gg_%s", suffix),
		username:   fmt.Sprintf("player_%s", suffix),
		rating:     1000,
		division:   "gold_i",
		updatedAt:  time.Now(),
	}
}

func (b *PlayerBuilder) WithExternalID(id string) *PlayerBuilder {
	b.externalID = id
	return b
}

func (b *PlayerBuilder) WithUsername(name string) *PlayerBuilder {
	b.username = name
	return b
}

func (b *PlayerBuilder) WithRating(rating int) *PlayerBuilder {
	b.rating = rating
	return b
}

func (b *PlayerBuilder) WithDivision(division string) *PlayerBuilder {
	b.division = division
	return b
}

func (b *PlayerBuilder) Tracked() *PlayerBuilder {
	b.tracked = true
	return b
}

func (b *PlayerBuilder) WithLastViewedAt(at time.Time) *PlayerBuilder {
	b.lastViewedAt = &at
	return b
}

func (b *PlayerBuilder) WithUpdatedAt(at time.Time) *PlayerBuilder {
	b.updatedAt = at
	return b
}

// Build creates the player in the database
func (b *PlayerBuilder) Build(t *testing.T, db *gorm.DB) *domain.Player {
	t.Helper()

	player := &domain.Player{
		ID:            uuid.New(),
		ExternalID:    b.externalID,
		Username:      b.username,
		CurrentRating: b.rating,
		Division:      b.division,
		IsTracked:     b.tracked,
		LastViewedAt:  b.lastViewedAt,
		CreatedAt:     time.Now(),
		UpdatedAt:     b.updatedAt,
	}

	if err := db.Create(player).Error; err != nil {
		t.Fatalf("failed to create player: %v", err)
	}

	return player
}

// CreateSnapshot inserts one rating snapshot for a player
func CreateSnapshot(t *testing.T, db *gorm.DB, playerID uuid.UUID, rating int, division string, recordedAt time.Time) *domain.RatingSnapshot {
	t.Helper()

	snapshot := &domain.RatingSnapshot{
		ID:         uuid.New(),
		PlayerID:   playerID,
		Rating:     rating,
		Division:   division,
		RecordedAt: recordedAt,
	}

	if err := db.Create(snapshot).Error; err != nil {
		t.Fatalf("failed to create snapshot: %v", err)
	}

	return snapshot
}

// CountSnapshots returns the number of snapshots stored for a player
func CountSnapshots(t *testing.T, db *gorm.DB, playerID uuid.UUID) int64 {
	t.Helper()

	var count int64
	if err := db.Model(&domain.RatingSnapshot{}).Where("player_id = ?", playerID).Count(&count).Error; err != nil {
		t.Fatalf("failed to count snapshots: %v", err)
	}
	return count
}

// Reload fetches the current state of a player row
func Reload(t *testing.T, db *gorm.DB, id uuid.UUID) *domain.Player {
	t.Helper()

	var player domain.Player
	if err := db.First(&player, "id = ?", id).Error; err != nil {
		t.Fatalf("failed to reload player: %v", err)
	}
	return &player
}
