// Package httpx is the bounded HTTP JSON client every real source fetcher
// goes through: per-request timeout, retry with exponential backoff, a
// circuit breaker per host, and a global outbound throttle. The reference
// system had no fetch timeout at all; a hung source could hang a whole run.
// Bounding the call here keeps a dead provider a per-source warning instead.
package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/signalmesh/signalmesh/internal/ratelimit"
)

// Config tunes the client.
type Config struct {
	RequestTimeout time.Duration
	MaxRetries     int
	BackoffBase    time.Duration
	BackoffMax     time.Duration
	UserAgent      string
	GlobalRPS      float64
	GlobalBurst    int
}

// DefaultConfig returns production defaults. The 10s request timeout is the
// documented bound on any single outbound call.
func DefaultConfig() Config {
	return Config{
		RequestTimeout: 10 * time.Second,
		MaxRetries:     2,
		BackoffBase:    500 * time.Millisecond,
		BackoffMax:     5 * time.Second,
		UserAgent:      "signalmesh/1.0",
		GlobalRPS:      20,
		GlobalBurst:    40,
	}
}

// Client performs JSON GET requests with retries and circuit breaking.
type Client struct {
	cfg      Config
	http     *http.Client
	throttle *ratelimit.Throttle

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// New creates a client from config.
func New(cfg Config) *Client {
	return &Client{
		cfg:      cfg,
		http:     &http.Client{Timeout: cfg.RequestTimeout},
		throttle: ratelimit.NewThrottle(cfg.GlobalRPS, cfg.GlobalBurst),
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

func (c *Client) breakerFor(host string) *gobreaker.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cb, ok := c.breakers[host]; ok {
		return cb
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    host,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("host", name).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	})
	c.breakers[host] = cb
	return cb
}

// GetJSON fetches rawURL with the given query params and headers and decodes
// the response body into out.
func (c *Client) GetJSON(ctx context.Context, rawURL string, params url.Values, headers map[string]string, out any) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	if len(params) > 0 {
		q := u.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	if err := c.throttle.Wait(ctx); err != nil {
		return err
	}

	cb := c.breakerFor(u.Host)
	body, err := cb.Execute(func() (any, error) {
		return c.doWithRetries(ctx, u.String(), headers)
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body.([]byte), out); err != nil {
		return fmt.Errorf("decode response from %s: %w", u.Host, err)
	}
	return nil
}

func (c *Client) doWithRetries(ctx context.Context, fullURL string, headers map[string]string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.cfg.BackoffBase << (attempt - 1)
			if backoff > c.cfg.BackoffMax {
				backoff = c.cfg.BackoffMax
			}
			log.Debug().Str("url", fullURL).Int("attempt", attempt).Dur("backoff", backoff).
				Msg("retrying request")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		body, retryable, err := c.doOnce(ctx, fullURL, headers)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return nil, lastErr
}

func (c *Client) doOnce(ctx context.Context, fullURL string, headers map[string]string) (body []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		io.Copy(io.Discard, resp.Body)
		return nil, true, fmt.Errorf("HTTP %d from %s", resp.StatusCode, req.URL.Host)
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, false, fmt.Errorf("HTTP %d from %s", resp.StatusCode, req.URL.Host)
	}

	body, err = io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, true, err
	}
	return body, false, nil
}
