package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/quizbattle/go/internal/game"
)

// Client talks to the game server's session endpoints
type Client struct {
	base *BaseClient
}

func NewClient(baseURL string) *Client {
	return &Client{base: NewBaseClient(baseURL)}
}

// Base exposes the underlying HTTP client for tuning
func (c *Client) Base() *BaseClient {
	return c.base
}

type startRequest struct {
	HostPlayerID int `json:"host_player_id"`
}

// StartGame asks the server to start the session. Any failure wraps
// game.ErrStartRequestFailed.
func (c *Client) StartGame(ctx context.Context, pin string, hostPlayerID int) error {
	body, err := json.Marshal(startRequest{HostPlayerID: hostPlayerID})
	if err != nil {
		return fmt.Errorf("failed to encode start request: %w", err)
	}

	endpoint := fmt.Sprintf("/games/%s/start", url.PathEscape(strings.ToUpper(pin)))
	if _, err := c.base.Post(ctx, endpoint, bytes.NewReader(body)); err != nil {
		log.Warn().Err(err).Str("pin", pin).Int("player_id", hostPlayerID).Msg("start request rejected")
		return fmt.Errorf("%v: %w", err, game.ErrStartRequestFailed)
	}

	log.Info().Str("pin", pin).Int("player_id", hostPlayerID).Msg("start request accepted")
	return nil
}

// GameState fetches the current snapshot of the session
func (c *Client) GameState(ctx context.Context, pin string) (*game.Snapshot, error) {
	endpoint := fmt.Sprintf("/games/%s", url.PathEscape(strings.ToUpper(pin)))
	data, err := c.base.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch game state: %w", err)
	}

	var s game.Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode game state: %w", err)
	}
	return &s, nil
}
