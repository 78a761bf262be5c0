package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient() *Client {
	cfg := DefaultConfig()
	cfg.BackoffBase = time.Millisecond
	cfg.BackoffMax = 5 * time.Millisecond
	cfg.GlobalRPS = 1000
	cfg.GlobalBurst = 1000
	return New(cfg)
}

func TestGetJSONDecodesAndSendsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
		assert.Equal(t, "BTC", r.URL.Query().Get("symbol"))
		w.Write([]byte(`{"price": 50000}`))
	}))
	defer srv.Close()

	var out struct {
		Price float64 `json:"price"`
	}
	err := testClient().GetJSON(context.Background(), srv.URL,
		url.Values{"symbol": {"BTC"}},
		map[string]string{"X-API-Key": "secret"},
		&out)
	require.NoError(t, err)
	assert.Equal(t, 50000.0, out.Price)
}

func TestGetJSONRetriesServerErrors(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	var out struct {
		OK bool `json:"ok"`
	}
	err := testClient().GetJSON(context.Background(), srv.URL, nil, nil, &out)
	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.EqualValues(t, 3, calls.Load())
}

func TestGetJSONDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	err := testClient().GetJSON(context.Background(), srv.URL, nil, nil, &struct{}{})
	require.Error(t, err)
	assert.EqualValues(t, 1, calls.Load())
}

func TestGetJSONOpensBreakerAfterConsecutiveFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := testClient()
	for i := 0; i < 5; i++ {
		_ = c.GetJSON(context.Background(), srv.URL, nil, nil, &struct{}{})
	}
	err := c.GetJSON(context.Background(), srv.URL, nil, nil, &struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker is open")
}
