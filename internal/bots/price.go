package bots

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/signalmesh/signalmesh/internal/assets"
	"github.com/signalmesh/signalmesh/internal/registry"
	"github.com/signalmesh/signalmesh/internal/signal"
)

// ErrNoPriceData is the one hard failure in the bot layer: pricing must be
// sourced, so the price bot fails outright when no source returns a quote.
var ErrNoPriceData = errors.New("price: no source returned data")

// PriceBot aggregates per-source price quotes for the primary requested
// asset. Canonical price is the median quote; volatility is the cross-source
// dispersion of the quotes, not a time-series statistic.
type PriceBot struct {
	h     *helper
	fetch QuoteFetcher
}

// NewPriceBot builds the bot from every enabled source carrying the
// core_pricing role.
func NewPriceBot(reg *registry.Registry, deps Deps, fetch QuoteFetcher) *PriceBot {
	sources := reg.Filter(registry.WithRole(registry.RoleCorePricing))
	return &PriceBot{
		h:     newHelper("price", "PriceBot", signal.KindPrice, sources, deps),
		fetch: fetch,
	}
}

func (b *PriceBot) ID() string           { return b.h.id }
func (b *PriceBot) Kind() signal.BotKind { return b.h.kind }
func (b *PriceBot) ClearCache()          { b.h.ClearCache() }

func (b *PriceBot) Fetch(ctx context.Context, symbols []string, opts Options) (*signal.BotOutput, error) {
	if len(symbols) == 0 {
		return nil, ErrNoAssets
	}
	key := b.h.cacheKey(symbols)
	if out, ok := b.h.cached(ctx, key); ok {
		return out, nil
	}

	out := b.h.newOutput(symbols, opts)
	primary := strings.ToUpper(symbols[0])

	var (
		mu     sync.Mutex
		quotes []Quote
	)
	out.Warnings = b.h.fetchEach(ctx, func(ctx context.Context, src registry.Source) error {
		qs, err := b.fetch(ctx, src, symbols)
		if err != nil {
			return err
		}
		mu.Lock()
		quotes = append(quotes, qs...)
		mu.Unlock()
		return nil
	})

	var prices, volumes []float64
	for _, q := range quotes {
		if q.Asset == primary && q.Price > 0 {
			prices = append(prices, q.Price)
			if q.Volume24hUSD > 0 {
				volumes = append(volumes, q.Volume24hUSD)
			}
		}
	}

	if len(prices) == 0 {
		// The only estimate the price bot allows itself is a known peg.
		// Anything else must come from a real source.
		if !assets.IsStablecoin(primary) {
			return nil, fmt.Errorf("%w for %s", ErrNoPriceData, primary)
		}
		out.AddMetric(signal.MetricPrice, 1.0)
		out.AddMetric(signal.MetricVolatility, heuristicVolatility(primary))
		out.Warn(fmt.Sprintf("no live quotes for %s; using pegged estimate", primary))
		out.Confidence = signal.ConfidenceLow
		return b.h.finish(ctx, key, out), nil
	}

	out.AddMetric(signal.MetricPrice, median(prices))
	out.AddMetric(signal.MetricVolatility, dispersion(prices))
	if len(volumes) > 0 {
		out.AddMetric(signal.MetricVolume, mean(volumes))
	}

	if lo, hi := minMax(prices); lo > 0 && (hi-lo)/lo > 0.05 {
		out.Secondary.AnomalyDetected = true
		out.Secondary.EventFlags = append(out.Secondary.EventFlags, signal.EventFlag{
			Type:        signal.EventOther,
			Severity:    signal.SeverityMedium,
			Assets:      []string{primary},
			Timestamp:   out.Timestamp,
			Source:      b.h.label,
			Description: fmt.Sprintf("cross-source price divergence %.1f%% for %s", (hi-lo)/lo*100, primary),
		})
	}

	out.Confidence = signal.ConfidenceFromSourceCount(len(prices))
	return b.h.finish(ctx, key, out), nil
}
