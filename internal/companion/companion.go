// Package companion notifies the local companion application (the note-taking
// bridge) about freshly uploaded photos.
package companion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/photobridge/service/internal/response"
)

// StatusError is returned when the companion answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("companion responded with status %d", e.StatusCode)
	}
	return fmt.Sprintf("companion responded with status %d: %s", e.StatusCode, e.Body)
}

// Options configures a Client.
type Options struct {
	Endpoint    string        // full URL, e.g. "http://localhost:3001/photos"
	Timeout     time.Duration // bound on one notification
	MaxFailures int           // consecutive failures before the breaker opens; <=0 disables it
	OpenFor     time.Duration // how long an open breaker rejects calls
	HTTPClient  *http.Client
}

// Client posts photo lists to the companion endpoint. It never retries.
type Client struct {
	endpoint string
	timeout  time.Duration
	http     *http.Client
	cb       *gobreaker.CircuitBreaker
}

type notifyRequest struct {
	Photos []response.Photo `json:"photos"`
}

// New creates a companion Client.
func New(opts Options, log *zap.Logger) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	c := &Client{endpoint: opts.Endpoint, timeout: opts.Timeout, http: hc}

	if opts.MaxFailures > 0 {
		openFor := opts.OpenFor
		if openFor <= 0 {
			openFor = 30 * time.Second
		}
		maxFailures := uint32(opts.MaxFailures)
		c.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "companion",
			MaxRequests: 1,
			Timeout:     openFor,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Info("circuit breaker state",
					zap.String("name", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		})
	}
	return c
}

// Endpoint returns the URL notifications are sent to.
func (c *Client) Endpoint() string { return c.endpoint }

// Notify sends {"photos": [...]} to the companion. Any transport error, timeout,
// non-2xx status or open breaker is returned as an error.
func (c *Client) Notify(ctx context.Context, photos []response.Photo) error {
	if c.cb == nil {
		return c.post(ctx, photos)
	}
	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, c.post(ctx, photos)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("notify companion: %w", err)
	}
	return err
}

func (c *Client) post(ctx context.Context, photos []response.Photo) error {
	if photos == nil {
		photos = []response.Photo{}
	}
	body, err := json.Marshal(notifyRequest{Photos: photos})
	if err != nil {
		return fmt.Errorf("encode companion payload: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build companion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("notify companion: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(msg))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
