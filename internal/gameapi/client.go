// Package gameapi is the HTTP client for the snake game backend. The
// backend owns all player records; the bot never stores them locally.
package gameapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sedalcrazy-create/refahmaar/core/logger"
	"log/slog"
)

const defaultTimeout = 5 * time.Second

// User is a registered player record as returned by the backend.
type User struct {
	ID           int64  `json:"id"`
	BaleUserID   string `json:"bale_user_id"`
	PhoneNumber  string `json:"phone_number"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	EmployeeCode string `json:"employee_code"`
}

// Registration is the payload for creating a new player.
type Registration struct {
	BaleUserID   int64  `json:"baleUserId"`
	PhoneNumber  string `json:"phoneNumber"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	EmployeeCode string `json:"employeeCode"`
}

// Stats summarises a single player's game history.
type Stats struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	EmployeeCode string `json:"employee_code"`
	HighScore    int    `json:"high_score"`
	MaxLength    int    `json:"max_length"`
	TotalKills   int    `json:"total_kills"`
	GamesPlayed  int    `json:"games_played"`
	Rank         int    `json:"rank"`
}

// LeaderboardEntry is one row of the ranked leaderboard.
type LeaderboardEntry struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	EmployeeCode string `json:"employee_code"`
	HighScore    int    `json:"high_score"`
	MaxLength    int    `json:"max_length"`
	TotalKills   int    `json:"total_kills"`
	GamesPlayed  int    `json:"games_played"`
}

// Client calls the game backend API. Calls are bounded by a short
// timeout and never retried: a registration POST that is replayed could
// create duplicate players.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a Client for the given base URL. A non-positive
// timeout falls back to the default.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// UserExists checks whether a player is already registered. Any
// non-200 response is treated as "not registered" so a flaky backend
// degrades to re-prompting rather than erroring at the user.
func (c *Client) UserExists(ctx context.Context, baleUserID int64) (*User, error) {
	start := time.Now()
	url := fmt.Sprintf("%s/api/user/%d", c.baseURL, baleUserID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("gameapi: build user request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logCall(ctx, "user.check", 0, start, err)
		return nil, fmt.Errorf("gameapi: check user %d: %w", baleUserID, err)
	}
	defer drain(resp)

	c.logCall(ctx, "user.check", resp.StatusCode, start, nil)
	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("gameapi: decode user %d: %w", baleUserID, err)
	}
	return &user, nil
}

// Register creates a new player. The backend reports logical failure
// via success=false even on HTTP 200.
func (c *Client) Register(ctx context.Context, reg Registration) error {
	start := time.Now()
	payload, err := json.Marshal(reg)
	if err != nil {
		return fmt.Errorf("gameapi: marshal registration: %w", err)
	}

	url := c.baseURL + "/api/register"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("gameapi: build register request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logCall(ctx, "register", 0, start, err)
		return fmt.Errorf("gameapi: register user %d: %w", reg.BaleUserID, err)
	}
	defer drain(resp)

	c.logCall(ctx, "register", resp.StatusCode, start, nil)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gameapi: register user %d: unexpected status %s", reg.BaleUserID, resp.Status)
	}

	var result struct {
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("gameapi: decode register response: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("gameapi: register user %d: backend rejected registration", reg.BaleUserID)
	}
	return nil
}

// Stats fetches a single player's game statistics.
func (c *Client) Stats(ctx context.Context, baleUserID int64) (*Stats, error) {
	start := time.Now()
	url := fmt.Sprintf("%s/api/user/%d/stats", c.baseURL, baleUserID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("gameapi: build stats request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logCall(ctx, "stats", 0, start, err)
		return nil, fmt.Errorf("gameapi: stats for user %d: %w", baleUserID, err)
	}
	defer drain(resp)

	c.logCall(ctx, "stats", resp.StatusCode, start, nil)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gameapi: stats for user %d: unexpected status %s", baleUserID, resp.Status)
	}

	var stats Stats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, fmt.Errorf("gameapi: decode stats for user %d: %w", baleUserID, err)
	}
	return &stats, nil
}

// Leaderboard fetches the top N ranked players.
func (c *Client) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	start := time.Now()
	url := fmt.Sprintf("%s/api/leaderboard/top/%d", c.baseURL, limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("gameapi: build leaderboard request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logCall(ctx, "leaderboard", 0, start, err)
		return nil, fmt.Errorf("gameapi: leaderboard: %w", err)
	}
	defer drain(resp)

	c.logCall(ctx, "leaderboard", resp.StatusCode, start, nil)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gameapi: leaderboard: unexpected status %s", resp.Status)
	}

	var entries []LeaderboardEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("gameapi: decode leaderboard: %w", err)
	}
	return entries, nil
}

func (c *Client) logCall(ctx context.Context, op string, code int, start time.Time, err error) {
	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.String("operation", op),
		slog.Duration("duration_ms", logger.Took(start)),
	}
	if code != 0 {
		attrs = append(attrs, slog.Int("http_code", code))
	}
	if err != nil {
		attrs = append(attrs, slog.String("err", logger.SanitizeLimit(err.Error(), 256)))
		logger.Warn(ctx, "api", "backend.call", attrs...)
		return
	}
	logger.Debug(ctx, "api", "backend.call", attrs...)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
