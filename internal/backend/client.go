// Package backend wraps HTTP access to the restaurant REST API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/buensabor/buensabor-web/internal/shared"
)

const maxErrorBody = 64 << 10

// Observer receives one sample per backend round trip. Code is 0 on transport failure.
type Observer interface {
	ObserveBackend(method string, code int, elapsed time.Duration)
}

// Options configures a Client.
type Options struct {
	BaseURL         string
	Timeout         time.Duration
	BreakerFailures uint32
	BreakerCooldown time.Duration
	HTTPClient      *http.Client
	Logger          *slog.Logger
	Observer        Observer
	// OnUnauthorized runs when the backend answers 401, before the error is returned.
	OnUnauthorized func(ctx context.Context)
}

// Client is the single HTTP client used by every service module.
type Client struct {
	base           string
	http           *http.Client
	breaker        *gobreaker.CircuitBreaker
	logger         *slog.Logger
	observer       Observer
	onUnauthorized func(ctx context.Context)
}

// Download is a binary response body.
type Download struct {
	ContentType string
	Filename    string
	Data        []byte
}

type rawResponse struct {
	status int
	header http.Header
	body   []byte
}

var errServerStatus = errors.New("backend: server error")

// New builds a Client.
func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	failures := opts.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	cooldown := opts.BreakerCooldown
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "backend",
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})
	return &Client{
		base:           strings.TrimRight(opts.BaseURL, "/"),
		http:           httpClient,
		breaker:        breaker,
		logger:         logger,
		observer:       opts.Observer,
		onUnauthorized: opts.OnUnauthorized,
	}
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.base
}

// Ready fails while the circuit breaker is open.
func (c *Client) Ready(context.Context) error {
	if c.breaker.State() == gobreaker.StateOpen {
		return fmt.Errorf("backend: circuit open: %w", shared.ErrBackendUnavailable)
	}
	return nil
}

// GetJSON performs a GET and decodes the JSON body into out.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	body, err := c.Do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	return decode(body, out)
}

// PostJSON sends in as JSON and decodes the response into out (when non-nil).
func (c *Client) PostJSON(ctx context.Context, path string, query url.Values, in, out any) error {
	body, err := c.Do(ctx, http.MethodPost, path, query, in)
	if err != nil {
		return err
	}
	return decode(body, out)
}

// PutJSON sends in as JSON and decodes the response into out (when non-nil).
func (c *Client) PutJSON(ctx context.Context, path string, query url.Values, in, out any) error {
	body, err := c.Do(ctx, http.MethodPut, path, query, in)
	if err != nil {
		return err
	}
	return decode(body, out)
}

// Delete issues a DELETE and discards the body.
func (c *Client) Delete(ctx context.Context, path string) error {
	_, err := c.Do(ctx, http.MethodDelete, path, nil, nil)
	return err
}

// Download fetches a binary document such as a spreadsheet.
func (c *Client) Download(ctx context.Context, path string, query url.Values) (Download, error) {
	resp, err := c.roundTrip(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return Download{}, err
	}
	dl := Download{ContentType: resp.header.Get("Content-Type"), Data: resp.body}
	if _, params, err := mime.ParseMediaType(resp.header.Get("Content-Disposition")); err == nil {
		dl.Filename = params["filename"]
	}
	return dl, nil
}

// Do performs a request and returns the raw response body of a 2xx answer.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, in any) ([]byte, error) {
	resp, err := c.roundTrip(ctx, method, path, query, in)
	if err != nil {
		return nil, err
	}
	return resp.body, nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, in any) (*rawResponse, error) {
	target := c.base + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var payload []byte
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("backend: encode %s %s: %w", method, path, err)
		}
		payload = data
	}

	start := time.Now()
	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if auth, ok := shared.AuthFromContext(ctx); ok {
			req.Header.Set("Authorization", "Bearer "+auth.Token)
		}

		res, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer func() { _ = res.Body.Close() }()

		reader := io.Reader(res.Body)
		if res.StatusCode >= 400 {
			reader = io.LimitReader(res.Body, maxErrorBody)
		}
		body, err := io.ReadAll(reader)
		if err != nil {
			return nil, err
		}
		raw := &rawResponse{status: res.StatusCode, header: res.Header, body: body}
		if res.StatusCode >= 500 {
			return raw, errServerStatus
		}
		return raw, nil
	})

	resp, _ := result.(*rawResponse)
	code := 0
	if resp != nil {
		code = resp.status
	}
	if c.observer != nil {
		c.observer.ObserveBackend(method, code, time.Since(start))
	}

	if err != nil && !errors.Is(err, errServerStatus) {
		c.logger.Warn("backend request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.Any("error", err))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("backend: %s %s: %w", method, path, ctxErr)
		}
		return nil, fmt.Errorf("backend: %s %s: %w: %v", method, path, shared.ErrBackendUnavailable, err)
	}

	if resp.status >= 400 {
		apiErr := &APIError{Method: method, Path: path, Status: resp.status, Detail: extractDetail(resp.body)}
		c.logger.Warn("backend request rejected",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", resp.status))
		if resp.status == http.StatusUnauthorized && c.onUnauthorized != nil {
			c.onUnauthorized(ctx)
		}
		return nil, apiErr
	}
	return resp, nil
}

func decode(body []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("backend: decode response: %w", err)
	}
	return nil
}
