// Package bots contains the shared bot framework and the 8 bot variants.
// Every bot wraps a pre-filtered subset of registry sources, fetches from
// them concurrently behind the shared rate limiter, falls back to heuristic
// estimates when no real source produced data, and emits one standardized
// output record per invocation.
package bots

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/signalmesh/signalmesh/internal/cache"
	"github.com/signalmesh/signalmesh/internal/gating"
	"github.com/signalmesh/signalmesh/internal/metrics"
	"github.com/signalmesh/signalmesh/internal/ratelimit"
	"github.com/signalmesh/signalmesh/internal/registry"
	"github.com/signalmesh/signalmesh/internal/signal"
)

// ErrNoAssets is returned when a bot is invoked with an empty asset list.
var ErrNoAssets = errors.New("bots: empty asset list")

// Options carries the per-run parameters relevant to individual bots.
type Options struct {
	TransactionUSD float64
	Chains         []string
	Lookback       time.Duration
	Horizon        string
}

// Bot is the uniform contract all 8 variants implement.
type Bot interface {
	ID() string
	Kind() signal.BotKind
	Fetch(ctx context.Context, symbols []string, opts Options) (*signal.BotOutput, error)
	ClearCache()
}

// Deps bundles the services every bot is constructed with. The limiter is
// the process-wide instance shared by all bots; the cache store may be
// shared too, but each bot only ever touches its own key namespace.
type Deps struct {
	Limiter  *ratelimit.Limiter
	Cache    cache.Store
	Keys     map[string]string // API keys by env var name; absence is non-fatal
	Metrics  *metrics.Collector
	CacheTTL time.Duration
}

func (d Deps) withDefaults() Deps {
	if d.Limiter == nil {
		d.Limiter = ratelimit.New()
	}
	if d.Cache == nil {
		d.Cache = cache.NewMemory()
	}
	if d.Metrics == nil {
		d.Metrics = metrics.NewCollector(nil)
	}
	if d.CacheTTL == 0 {
		d.CacheTTL = cache.DefaultTTL
	}
	return d
}

// helper is the composed plumbing each bot holds: cache get/set, source
// iteration with rate limiting, gating validation.
type helper struct {
	id      string
	label   string
	kind    signal.BotKind
	sources []registry.Source
	deps    Deps
}

func newHelper(id, label string, kind signal.BotKind, sources []registry.Source, deps Deps) *helper {
	return &helper{
		id:      id,
		label:   label,
		kind:    kind,
		sources: sources,
		deps:    deps.withDefaults(),
	}
}

func (h *helper) cacheKey(symbols []string, extra ...string) string {
	parts := append([]string{h.id, strings.Join(symbols, ",")}, extra...)
	return cache.Key(parts...)
}

func (h *helper) cached(ctx context.Context, key string) (*signal.BotOutput, bool) {
	data, ok := h.deps.Cache.Get(ctx, key)
	if !ok {
		return nil, false
	}
	var out signal.BotOutput
	if err := json.Unmarshal(data, &out); err != nil {
		h.deps.Cache.Delete(ctx, key)
		return nil, false
	}
	h.deps.Metrics.ObserveCacheHit(h.id)
	log.Debug().Str("bot", h.id).Str("key", key).Msg("cache hit")
	return &out, true
}

func (h *helper) newOutput(symbols []string, opts Options) *signal.BotOutput {
	return &signal.BotOutput{
		BotID:      h.id,
		Kind:       h.kind,
		Timestamp:  time.Now().UTC(),
		Horizon:    opts.Horizon,
		Assets:     append([]string(nil), symbols...),
		Confidence: signal.ConfidenceLow,
	}
}

// finish runs the gating validator, caches the output and returns it. The
// validator panics on a secondary-signal leak; that panic must propagate.
func (h *helper) finish(ctx context.Context, key string, out *signal.BotOutput) *signal.BotOutput {
	gating.Validate(h.sources, out)
	if data, err := json.Marshal(out); err == nil {
		h.deps.Cache.Set(ctx, key, data, h.deps.CacheTTL)
	}
	return out
}

// ClearCache drops every cached entry owned by this bot.
func (h *helper) ClearCache() {
	h.deps.Cache.Clear(context.Background(), h.id+"|")
}

// usableSources returns the enabled sources the bot can actually call: a
// source requiring an API key that is not configured is skipped silently.
func (h *helper) usableSources() []registry.Source {
	var out []registry.Source
	for _, s := range h.sources {
		if !s.Enabled {
			continue
		}
		if s.APIKeyEnv != "" && h.deps.Keys[s.APIKeyEnv] == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

// fetchEach runs fn once per usable source concurrently, acquiring a
// rate-limiter slot for the source first. Per-source failures are downgraded
// to warning strings and never abort the bot; the returned slice holds them.
// All attempted fetches complete before fetchEach returns.
func (h *helper) fetchEach(ctx context.Context, fn func(ctx context.Context, src registry.Source) error) []string {
	var (
		mu       sync.Mutex
		warnings []string
	)
	warn := func(src registry.Source, err error) {
		mu.Lock()
		warnings = append(warnings, fmt.Sprintf("%s: %v", src.ID, err))
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, src := range h.usableSources() {
		src := src
		g.Go(func() error {
			if err := h.deps.Limiter.WaitForSlot(gctx, src.ID, src.RateLimit, src.RateWindow); err != nil {
				warn(src, err)
				return nil
			}
			start := time.Now()
			err := fn(gctx, src)
			h.deps.Metrics.ObserveFetch(src.ID, time.Since(start), err)
			if err != nil {
				log.Warn().Str("bot", h.id).Str("source", src.ID).Err(err).Msg("source fetch failed")
				warn(src, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return warnings
}
