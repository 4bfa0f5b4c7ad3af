package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Player is a GeoGuessr account we know about. ExternalID is the id in
// GeoGuessr's namespace and is immutable once set; IsTracked is an
// operational flag toggled by the tracking policy and never implies
// deletion of history.
type Player struct {
	ID            uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ExternalID    string     `json:"externalId" gorm:"uniqueIndex;not null"`
	Username      string     `json:"username" gorm:"not null"`
	CurrentRating int        `json:"currentRating"`
	Division      string     `json:"division" gorm:"default:unranked"`
	IsTracked     bool       `json:"isTracked" gorm:"index"`
	LastViewedAt  *time.Time `json:"lastViewedAt"`

	// Profile fields refreshed opportunistically from the upstream
	// profile endpoint; not part of rating change detection.
	CountryCode     string         `json:"countryCode"`
	AvatarURL       string         `json:"avatarUrl"`
	XP              int            `json:"xp"`
	Level           int            `json:"level"`
	IsVerified      bool           `json:"isVerified"`
	GameModeRatings datatypes.JSON `json:"gameModeRatings,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the time of the last successful rating sync, set
	// explicitly by the sync engine rather than by gorm.
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime:false"`
}

// RatingSnapshot is one immutable point in a player's rating history.
// Rows are append-only; untracking a player never removes them.
type RatingSnapshot struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	PlayerID   uuid.UUID `json:"playerId" gorm:"type:uuid;index;not null"`
	Rating     int       `json:"rating"`
	Division   string    `json:"division"`
	RecordedAt time.Time `json:"recordedAt" gorm:"index"`
}
