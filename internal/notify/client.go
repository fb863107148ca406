// Package notify posts game lifecycle events to an optional upstream
// webhook. Delivery is best-effort; the coordinator never blocks room state
// on it.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"github.com/vhoang/covua-server/internal/obslog"
	"go.uber.org/zap"
)

// HeaderProvider injects per-request headers, e.g. auth tokens.
type HeaderProvider func() map[string]string

type Client struct {
	url  string
	http *fasthttp.Client

	headers        HeaderProvider
	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *Client) { c.headers = h }
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

// New returns a webhook client, or nil when no URL is configured.
func New(webhookURL string, opts ...Option) *Client {
	if strings.TrimSpace(webhookURL) == "" {
		return nil
	}
	c := &Client{
		url:            strings.TrimSpace(webhookURL),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 16},
		defaultTimeout: 5 * time.Second,
		retryMax:       2,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type gameEvent struct {
	Event     string   `json:"event"`
	RoomCode  string   `json:"roomCode"`
	White     string   `json:"white,omitempty"`
	Black     string   `json:"black,omitempty"`
	Winner    string   `json:"winner,omitempty"`
	Outcome   string   `json:"outcome,omitempty"`
	Moves     []string `json:"moves,omitempty"`
	Timestamp int64    `json:"timestamp"`
}

// GameStarted announces a ready → playing transition.
func (c *Client) GameStarted(ctx context.Context, roomCode, white, black string) {
	c.post(ctx, gameEvent{
		Event:     "gameStart",
		RoomCode:  roomCode,
		White:     white,
		Black:     black,
		Timestamp: time.Now().UnixMilli(),
	})
}

// GameEnded announces a terminal transition.
func (c *Client) GameEnded(ctx context.Context, roomCode, winner, outcome string, moves []string) {
	c.post(ctx, gameEvent{
		Event:     "gameEnd",
		RoomCode:  roomCode,
		Winner:    winner,
		Outcome:   outcome,
		Moves:     moves,
		Timestamp: time.Now().UnixMilli(),
	})
}

func (c *Client) post(ctx context.Context, payload gameEvent) {
	if c == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := c.doPost(ctx, body); err != nil {
		obslog.L().Warn("webhook_post_error",
			zap.String("event", payload.Event),
			zap.String("code", payload.RoomCode),
			zap.Error(err),
		)
	}
}

func (c *Client) doPost(ctx context.Context, body []byte) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(fasthttp.MethodPost)
	req.SetRequestURI(c.url)
	req.Header.SetContentType("application/json")
	if c.headers != nil {
		for k, v := range c.headers() {
			if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
				req.Header.Set(k, v)
			}
		}
	}
	req.SetBody(body)

	timeout := c.defaultTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d < timeout {
			timeout = d
		}
	}

	var lastErr error
	attempts := c.retryMax + 1
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.http.DoTimeout(req, resp, timeout); err != nil {
			lastErr = err
			continue
		}
		code := resp.StatusCode()
		if code >= 200 && code < 300 {
			return nil
		}
		lastErr = fmt.Errorf("webhook status %d", code)
		if code >= 400 && code < 500 {
			break // not retryable
		}
	}
	return lastErr
}
