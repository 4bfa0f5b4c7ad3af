package geoguessr

import (
	"fmt"
	"strings"
	"time"
)

// RankedProgress is the payload of the ranked-system progress endpoint.
// Field names have drifted across upstream revisions (rating vs.
// divisionNumber, divisionName vs. tier), so consumers must go through
// Normalize rather than reading fields directly.
type RankedProgress struct {
	Rating           int            `json:"rating"`
	DivisionNumber   int            `json:"divisionNumber"`
	DivisionName     string         `json:"divisionName"`
	Tier             string         `json:"tier"`
	WinStreak        int            `json:"winStreak"`
	GuessedFirstRate float64        `json:"guessedFirstRate"`
	GameModeRatings  map[string]int `json:"gameModeRatings"`
}

// Normalize collapses the upstream field variants into a canonical
// (rating, division) pair. Precedence: rating, then divisionNumber,
// then 0; divisionName, then tier, then "unranked". The division is
// always lowercased so change detection is case-insensitive.
func (p *RankedProgress) Normalize() (int, string) {
	rating := p.Rating
	if rating == 0 {
		rating = p.DivisionNumber
	}

	division := p.DivisionName
	if division == "" {
		division = p.Tier
	}
	if division == "" {
		division = "unranked"
	}

	return rating, strings.ToLower(division)
}

// Profile is the payload of the user profile endpoint.
type Profile struct {
	Nick        string `json:"nick"`
	Created     string `json:"created"`
	CountryCode string `json:"countryCode"`
	IsVerified  bool   `json:"isVerified"`
	AvatarURL   string `json:"avatarUrl"`
	Progress    struct {
		XP    int `json:"xp"`
		Level int `json:"level"`
	} `json:"progress"`
	Competitive struct {
		Rating   int `json:"rating"`
		Division struct {
			Type string `json:"type"`
		} `json:"division"`
		OnLeaderboard bool `json:"onLeaderboard"`
	} `json:"competitive"`
}

// SearchResult is one entry of the user search endpoint. Older payloads
// carry "nick"/"created", newer ones "name"/"createdAt".
type SearchResult struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Nick        string `json:"nick"`
	CountryCode string `json:"countryCode"`
	XP          int    `json:"xp"`
	Created     string `json:"created"`
	CreatedAt   string `json:"createdAt"`
	ImageURL    string `json:"imageUrl"`
}

// DisplayName returns the username under either payload variant.
func (r *SearchResult) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Nick
}

// AccountCreated returns the account creation date under either variant.
func (r *SearchResult) AccountCreated() string {
	if r.Created != "" {
		return r.Created
	}
	return r.CreatedAt
}

// AvatarFullURL expands the relative pin path into a CDN resize URL.
func (r *SearchResult) AvatarFullURL() string {
	if r.ImageURL == "" {
		return ""
	}
	return fmt.Sprintf("https://www.geoguessr.com/images/resize:auto:192:192/gravity:ce/plain/%s", r.ImageURL)
}

// RecentGame is one entry of a player's ranked game history.
type RecentGame struct {
	GameMode     string    `json:"gameMode"`
	Outcome      string    `json:"outcome"` // "win", "loss", "draw"
	RatingBefore int       `json:"ratingBefore"`
	RatingAfter  int       `json:"ratingAfter"`
	PlayedAt     time.Time `json:"playedAt"`
}

// GameSummary aggregates a player's recent ranked games.
type GameSummary struct {
	TotalGames  int            `json:"totalGames"`
	Wins        int            `json:"wins"`
	Losses      int            `json:"losses"`
	WinRate     float64        `json:"winRate"`
	MaxRating   int            `json:"maxRating"`
	GamesByMode map[string]int `json:"gamesByMode"`
	RecentGames []RecentGame   `json:"recentGames"`
}

// Summarize builds a GameSummary from a raw game list.
func Summarize(games []RecentGame) *GameSummary {
	summary := &GameSummary{
		TotalGames:  len(games),
		GamesByMode: make(map[string]int),
		RecentGames: games,
	}

	for _, g := range games {
		switch g.Outcome {
		case "win":
			summary.Wins++
		case "loss":
			summary.Losses++
		}
		if g.RatingAfter > summary.MaxRating {
			summary.MaxRating = g.RatingAfter
		}
		summary.GamesByMode[g.GameMode]++
	}

	if summary.TotalGames > 0 {
		summary.WinRate = float64(summary.Wins) / float64(summary.TotalGames)
	}

	return summary
}
