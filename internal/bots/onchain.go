package bots

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/signalmesh/signalmesh/internal/assets"
	"github.com/signalmesh/signalmesh/internal/registry"
	"github.com/signalmesh/signalmesh/internal/signal"
)

// congestionScore maps explorer congestion levels to the fixed numeric scale
// used for core metrics.
func congestionScore(level string) float64 {
	switch level {
	case "low":
		return 0.2
	case "high":
		return 0.9
	default:
		return 0.5
	}
}

// OnChainBot fetches gas/fee and congestion per supported chain. Fees
// average across chains, congestion takes the worst observed level.
type OnChainBot struct {
	h     *helper
	fetch ChainFetcher
}

// NewOnChainBot builds the bot from every enabled chain explorer source.
func NewOnChainBot(reg *registry.Registry, deps Deps, fetch ChainFetcher) *OnChainBot {
	sources := reg.Filter(registry.InCategory(registry.CategoryChainExplorer))
	return &OnChainBot{
		h:     newHelper("onchain", "OnChainBot", signal.KindOnChain, sources, deps),
		fetch: fetch,
	}
}

func (b *OnChainBot) ID() string           { return b.h.id }
func (b *OnChainBot) Kind() signal.BotKind { return b.h.kind }
func (b *OnChainBot) ClearCache()          { b.h.ClearCache() }

// chainsFor resolves the chain list: explicit option first, then inference
// from the requested assets, then ethereum as the fallback venue.
func chainsFor(symbols []string, opts Options) []string {
	if len(opts.Chains) > 0 {
		return opts.Chains
	}
	seen := make(map[string]bool)
	var chains []string
	for _, sym := range symbols {
		if chain := assets.ChainOf(sym); chain != "" && !seen[chain] {
			seen[chain] = true
			chains = append(chains, chain)
		}
	}
	if len(chains) == 0 {
		chains = []string{"ethereum"}
	}
	return chains
}

func (b *OnChainBot) Fetch(ctx context.Context, symbols []string, opts Options) (*signal.BotOutput, error) {
	if len(symbols) == 0 {
		return nil, ErrNoAssets
	}
	chains := chainsFor(symbols, opts)
	key := b.h.cacheKey(symbols, "chains="+strings.Join(chains, ","))
	if out, ok := b.h.cached(ctx, key); ok {
		return out, nil
	}

	out := b.h.newOutput(symbols, opts)

	var (
		mu       sync.Mutex
		statuses []ChainStatus
	)
	out.Warnings = b.h.fetchEach(ctx, func(ctx context.Context, src registry.Source) error {
		sts, err := b.fetch(ctx, src, chains)
		if err != nil {
			return err
		}
		mu.Lock()
		statuses = append(statuses, sts...)
		mu.Unlock()
		return nil
	})

	sourceSet := make(map[string]bool)
	for _, st := range statuses {
		sourceSet[st.Source] = true
	}
	sourceCount := len(sourceSet)

	if len(statuses) == 0 {
		for _, chain := range chains {
			statuses = append(statuses, heuristicChain(chain))
		}
		out.Warn("no live chain data; using heuristic estimates")
	}

	var fees, failures []float64
	worst := 0.0
	worstLevel := "low"
	var congested []string
	for _, st := range statuses {
		fees = append(fees, st.FeeUSD)
		failures = append(failures, st.FailureRate)
		if score := congestionScore(st.Congestion); score > worst {
			worst = score
			worstLevel = st.Congestion
		}
		if st.Congestion == "high" {
			congested = append(congested, st.Chain)
		}
	}

	out.AddMetric(signal.MetricFees, mean(fees))
	out.AddMetric(signal.MetricCongestion, worst)
	out.AddMetric(signal.MetricFailureRate, mean(failures))
	out.Raw = map[string]any{"chains": chains, "worstCongestion": worstLevel}

	if len(congested) > 0 {
		out.Secondary.EventFlags = append(out.Secondary.EventFlags, signal.EventFlag{
			Type:        signal.EventOutage,
			Severity:    signal.SeverityMedium,
			Assets:      append([]string(nil), symbols...),
			Timestamp:   out.Timestamp,
			Source:      b.h.label,
			Description: fmt.Sprintf("high congestion on %s", strings.Join(congested, ", ")),
		})
	}

	out.Confidence = signal.ConfidenceFromSourceCount(sourceCount)
	return b.h.finish(ctx, key, out), nil
}
