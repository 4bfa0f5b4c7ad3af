package geoguessr

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/geoinsight/backend/internal/metrics"
	"go.uber.org/zap"
)

const defaultBaseURL = "https://www.geoguessr.com"

// GeoGuessr has no public API; requests need the _ncfa session cookie
// and a browser user agent or they get blocked.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// Client talks to the GeoGuessr web API.
type Client struct {
	baseURL    string
	cookie     string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL, cookie string, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		cookie:  cookie,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *Client) get(ctx context.Context, endpoint, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Cookie", "_ncfa="+c.cookie)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.UpstreamErrorsTotal.WithLabelValues(endpoint).Inc()
		return fmt.Errorf("fetching %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.UpstreamErrorsTotal.WithLabelValues(endpoint).Inc()
		return fmt.Errorf("fetching %s: unexpected status %d", endpoint, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.UpstreamErrorsTotal.WithLabelValues(endpoint).Inc()
		return fmt.Errorf("decoding %s response: %w", endpoint, err)
	}
	return nil
}

// FetchRating returns the current ranked progress for a player.
func (c *Client) FetchRating(ctx context.Context, externalID string) (*RankedProgress, error) {
	var progress RankedProgress
	path := fmt.Sprintf("/api/v4/ranked-system/progress/%s", externalID)
	if err := c.get(ctx, "progress", path, &progress); err != nil {
		return nil, err
	}
	return &progress, nil
}

// FetchProfile returns public profile metadata for a player.
func (c *Client) FetchProfile(ctx context.Context, externalID string) (*Profile, error) {
	var profile Profile
	path := fmt.Sprintf("/api/v3/users/%s", externalID)
	if err := c.get(ctx, "profile", path, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// FetchRecentGames returns a summary of the player's last ranked games.
func (c *Client) FetchRecentGames(ctx context.Context, externalID string) (*GameSummary, error) {
	var payload struct {
		Games []RecentGame `json:"games"`
	}
	path := fmt.Sprintf("/api/v4/game-history/%s?limit=20", externalID)
	if err := c.get(ctx, "game-history", path, &payload); err != nil {
		return nil, err
	}
	return Summarize(payload.Games), nil
}

// Search looks up players by username. The endpoint has returned a bare
// array, an {items} wrapper and a {users} wrapper at different times;
// all three are accepted.
func (c *Client) Search(ctx context.Context, username string) ([]SearchResult, error) {
	var raw json.RawMessage
	path := fmt.Sprintf("/api/v3/search/user?query=%s", url.QueryEscape(username))
	if err := c.get(ctx, "search", path, &raw); err != nil {
		return nil, err
	}

	var results []SearchResult
	if err := json.Unmarshal(raw, &results); err == nil {
		return results, nil
	}

	var wrapped struct {
		Items []SearchResult `json:"items"`
		Users []SearchResult `json:"users"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}
	if wrapped.Items != nil {
		return wrapped.Items, nil
	}
	return wrapped.Users, nil
}
