// Package api is the HTTP collaborator used by the game store.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/palemoky/tagracer/internal/apperrors"
)

const (
	pathStartGame   = "/games/start"
	pathCurrentGame = "/games/current"
)

// Client talks to the TagRacer HTTP API.
type Client struct {
	baseURL string
	client  *http.Client
	headers map[string]string
}

// NewClient creates a client rooted at baseURL (e.g. http://host:5000/api).
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{
			"Accept": "application/json",
		},
	}
}

// SetHeader sets a header sent with every request.
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// StartGame starts a new game.
func (c *Client) StartGame(ctx context.Context) (*Game, error) {
	var game Game
	if err := c.do(ctx, http.MethodPost, pathStartGame, nil, &game); err != nil {
		return nil, fmt.Errorf("start game: %w", err)
	}
	return &game, nil
}

// CurrentGame fetches the running game with its scores. A 404 is reported as
// apperrors.ErrNotFound.
func (c *Client) CurrentGame(ctx context.Context) (*CurrentGame, error) {
	var current CurrentGame
	err := c.do(ctx, http.MethodGet, pathCurrentGame, nil, &current)
	var apiErr *apperrors.APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return nil, fmt.Errorf("get current game: %w", apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get current game: %w", err)
	}
	return &current, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	log.Debug().
		Str("method", method).
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("api request")

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &apperrors.APIError{Status: resp.StatusCode}
		var eb errorBody
		if json.Unmarshal(responseBody, &eb) == nil {
			apiErr.Message = eb.Error
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(responseBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
