package bots

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/signalmesh/signalmesh/internal/registry"
	"github.com/signalmesh/signalmesh/internal/signal"
)

// defaultNotionalUSD sizes the liquidity score when the caller supplies no
// transaction amount.
const defaultNotionalUSD = 10_000

// LiquidityBot combines order-book depth and spread across exchange sources.
// Best (minimum) spread, deepest (maximum) book and mean slippage win.
type LiquidityBot struct {
	h     *helper
	fetch BookFetcher
}

// NewLiquidityBot builds the bot from exchange sources carrying constraint
// authority.
func NewLiquidityBot(reg *registry.Registry, deps Deps, fetch BookFetcher) *LiquidityBot {
	sources := reg.Filter(
		registry.InCategory(registry.CategoryExchangeMarketData),
		registry.WithRole(registry.RoleParetoConstraints),
	)
	return &LiquidityBot{
		h:     newHelper("liquidity", "LiquidityBot", signal.KindLiquidity, sources, deps),
		fetch: fetch,
	}
}

func (b *LiquidityBot) ID() string           { return b.h.id }
func (b *LiquidityBot) Kind() signal.BotKind { return b.h.kind }
func (b *LiquidityBot) ClearCache()          { b.h.ClearCache() }

func (b *LiquidityBot) Fetch(ctx context.Context, symbols []string, opts Options) (*signal.BotOutput, error) {
	if len(symbols) == 0 {
		return nil, ErrNoAssets
	}
	key := b.h.cacheKey(symbols, fmt.Sprintf("tx=%.0f", opts.TransactionUSD))
	if out, ok := b.h.cached(ctx, key); ok {
		return out, nil
	}

	out := b.h.newOutput(symbols, opts)
	primary := strings.ToUpper(symbols[0])
	notional := opts.TransactionUSD
	if notional <= 0 {
		notional = defaultNotionalUSD
	}

	var (
		mu    sync.Mutex
		books []BookStats
	)
	out.Warnings = b.h.fetchEach(ctx, func(ctx context.Context, src registry.Source) error {
		bs, err := b.fetch(ctx, src, symbols, notional)
		if err != nil {
			return err
		}
		mu.Lock()
		books = append(books, bs...)
		mu.Unlock()
		return nil
	})

	var primaryBooks []BookStats
	for _, bk := range books {
		if bk.Asset == primary && bk.DepthUSD > 0 {
			primaryBooks = append(primaryBooks, bk)
		}
	}

	sourceCount := len(primaryBooks)
	if sourceCount == 0 {
		primaryBooks = []BookStats{heuristicBook(primary)}
		out.Warn(fmt.Sprintf("no live order book for %s; using heuristic estimate", primary))
	}

	var spreads, depths, slips, volumes []float64
	for _, bk := range primaryBooks {
		spreads = append(spreads, bk.SpreadPct)
		depths = append(depths, bk.DepthUSD)
		slips = append(slips, bk.SlippagePct)
		if bk.Volume24hUSD > 0 {
			volumes = append(volumes, bk.Volume24hUSD)
		}
	}

	bestSpread, _ := minMax(spreads)
	_, maxDepth := minMax(depths)

	out.AddMetric(signal.MetricSpread, bestSpread)
	out.AddMetric(signal.MetricDepth, maxDepth)
	out.AddMetric(signal.MetricLiquidity, clamp01(maxDepth/(2*notional)))
	if len(volumes) > 0 {
		out.AddMetric(signal.MetricVolume, mean(volumes))
	}

	feasible := maxDepth >= 2*notional
	out.Raw = map[string]any{
		"feasible":    feasible,
		"slippagePct": mean(slips),
	}
	if opts.TransactionUSD > 0 && !feasible {
		out.Secondary.EventFlags = append(out.Secondary.EventFlags, signal.EventFlag{
			Type:        signal.EventOther,
			Severity:    signal.SeverityMedium,
			Assets:      []string{primary},
			Timestamp:   out.Timestamp,
			Source:      b.h.label,
			Description: fmt.Sprintf("insufficient depth for %s: $%.0f available vs $%.0f required", primary, maxDepth, 2*opts.TransactionUSD),
		})
	}

	out.Confidence = signal.ConfidenceFromSourceCount(sourceCount)
	return b.h.finish(ctx, key, out), nil
}
