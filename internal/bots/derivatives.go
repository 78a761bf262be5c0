package bots

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/signalmesh/signalmesh/internal/registry"
	"github.com/signalmesh/signalmesh/internal/signal"
)

// Tail-risk trigger thresholds.
const (
	extremeFundingPct = 0.1  // |funding| above this magnitude, percent
	liqToOIRatio      = 0.05 // 24h liquidations over open interest
	elevatedIVPct     = 100  // annualized implied volatility, percent
)

// DerivativesBot computes a tail-risk assessment from funding extremity,
// liquidation pressure and implied volatility. Secondary-signal only: it
// never populates core metrics.
type DerivativesBot struct {
	h     *helper
	fetch DerivFetcher
}

// NewDerivativesBot builds the bot from every enabled derivatives source.
func NewDerivativesBot(reg *registry.Registry, deps Deps, fetch DerivFetcher) *DerivativesBot {
	sources := reg.Filter(registry.InCategory(registry.CategoryOptionsDerivatives))
	return &DerivativesBot{
		h:     newHelper("derivatives", "DerivativesBot", signal.KindDerivatives, sources, deps),
		fetch: fetch,
	}
}

func (b *DerivativesBot) ID() string           { return b.h.id }
func (b *DerivativesBot) Kind() signal.BotKind { return b.h.kind }
func (b *DerivativesBot) ClearCache()          { b.h.ClearCache() }

func (b *DerivativesBot) Fetch(ctx context.Context, symbols []string, opts Options) (*signal.BotOutput, error) {
	if len(symbols) == 0 {
		return nil, ErrNoAssets
	}
	key := b.h.cacheKey(symbols)
	if out, ok := b.h.cached(ctx, key); ok {
		return out, nil
	}

	out := b.h.newOutput(symbols, opts)

	var (
		mu    sync.Mutex
		stats []DerivStats
	)
	out.Warnings = b.h.fetchEach(ctx, func(ctx context.Context, src registry.Source) error {
		sts, err := b.fetch(ctx, src, symbols)
		if err != nil {
			return err
		}
		mu.Lock()
		stats = append(stats, sts...)
		mu.Unlock()
		return nil
	})

	sourceSet := make(map[string]bool)
	// One flag per asset naming every tripped metric, so the per-output
	// dedup key (type, asset set) never collapses distinct triggers.
	triggers := make(map[string][]string)
	for _, st := range stats {
		sourceSet[st.Source] = true
		var tripped []string
		if st.FundingRatePct > extremeFundingPct || st.FundingRatePct < -extremeFundingPct {
			tripped = append(tripped, fmt.Sprintf("extreme funding rate %.3f%%", st.FundingRatePct))
		}
		if st.OpenInterestUSD > 0 && st.LiquidationsUSD/st.OpenInterestUSD > liqToOIRatio {
			tripped = append(tripped, fmt.Sprintf("liquidations %.1f%% of open interest", st.LiquidationsUSD/st.OpenInterestUSD*100))
		}
		if st.ImpliedVolPct > elevatedIVPct {
			tripped = append(tripped, fmt.Sprintf("elevated implied volatility %.0f%%", st.ImpliedVolPct))
		}
		if len(tripped) > 0 {
			triggers[st.Asset] = append(triggers[st.Asset], tripped...)
		}
	}

	for _, sym := range symbols {
		sym = strings.ToUpper(sym)
		tripped, ok := triggers[sym]
		if !ok {
			continue
		}
		out.Secondary.EventFlags = append(out.Secondary.EventFlags, signal.EventFlag{
			Type:        signal.EventOther,
			Severity:    signal.SeverityHigh,
			Confirmed:   true, // directly measured, not reported
			Assets:      []string{sym},
			Timestamp:   out.Timestamp,
			Source:      b.h.label,
			Description: "derivatives tail risk: " + strings.Join(tripped, "; "),
		})
	}

	if len(stats) == 0 {
		out.Warn("no derivatives data available")
	}
	out.Confidence = signal.ConfidenceFromSourceCount(len(sourceSet))
	return b.h.finish(ctx, key, out), nil
}
