// Package dataservice is the HTTP client for the round bank and
// scoring endpoints. It implements session.DataService.
package dataservice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"chessguessr/internal/session"
	"chessguessr/internal/wire"
)

const requestTimeout = 10 * time.Second

// Client talks to a chessguessr server's /api endpoints.
type Client struct {
	base string
	http *http.Client
}

// New creates a client for the given base URL, e.g. "http://localhost:8080".
func New(base string) *Client {
	return &Client{
		base: base,
		http: &http.Client{Timeout: requestTimeout},
	}
}

// RandomGame fetches one rating round.
func (c *Client) RandomGame(ctx context.Context) (wire.Round, error) {
	var resp wire.RoundResponse
	if err := c.get(ctx, "/api/random-game", &resp); err != nil {
		return wire.Round{}, err
	}
	if resp.Error != "" {
		return wire.Round{}, errors.New(resp.Error)
	}
	return resp.Round, nil
}

// RandomPosition fetches one evaluation round.
func (c *Client) RandomPosition(ctx context.Context) (wire.Round, error) {
	var resp wire.RoundResponse
	if err := c.get(ctx, "/api/random-eval", &resp); err != nil {
		return wire.Round{}, err
	}
	if resp.Error != "" {
		return wire.Round{}, errors.New(resp.Error)
	}
	return resp.Round, nil
}

// CalculateScore asks the server to score a guess with its canonical
// formula.
func (c *Client) CalculateScore(ctx context.Context, kind session.Kind, actual, guess float64) (int, float64, error) {
	path := "/api/calculate-score"
	if kind == session.GuessEvaluation {
		path = "/api/calculate-eval-score"
	}
	var resp wire.ScoreResponse
	if err := c.post(ctx, path, wire.ScoreRequest{Actual: actual, Guess: guess}, &resp); err != nil {
		return 0, 0, err
	}
	if resp.Error != "" {
		return 0, 0, errors.New(resp.Error)
	}
	return resp.Score, resp.Difference, nil
}

// CreateRoom provisions a multiplayer room of the given kind.
func (c *Client) CreateRoom(ctx context.Context, kind session.Kind, req wire.CreateRoomRequest) (wire.RoomResponse, error) {
	path := "/api/create-room"
	if kind == session.GuessEvaluation {
		path = "/api/create-eval-room"
	}
	var resp wire.RoomResponse
	if err := c.post(ctx, path, req, &resp); err != nil {
		return wire.RoomResponse{}, err
	}
	if resp.Error != "" {
		return wire.RoomResponse{}, errors.New(resp.Error)
	}
	return resp, nil
}

// JoinRoom fetches the snapshot of an existing room.
func (c *Client) JoinRoom(ctx context.Context, code, playerName string) (wire.RoomResponse, error) {
	var resp wire.RoomResponse
	path := "/api/join-room/" + url.PathEscape(code)
	if err := c.post(ctx, path, wire.JoinRoomRequest{PlayerName: playerName}, &resp); err != nil {
		return wire.RoomResponse{}, err
	}
	if resp.Error != "" {
		return wire.RoomResponse{}, errors.New(resp.Error)
	}
	return resp, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// do runs the request and decodes the body regardless of status: the
// server reports failures inside the payload's error field.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", req.URL.Path, err)
	}
	return nil
}

var _ session.DataService = (*Client)(nil)
