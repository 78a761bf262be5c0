package bots

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/signalmesh/signalmesh/internal/registry"
	"github.com/signalmesh/signalmesh/internal/signal"
)

// Anomaly trigger thresholds.
const (
	divergenceMovePct  = 10.0 // absolute 24h price move, percent
	divergenceVolRatio = 0.5  // volume below this fraction of normal
	unusualSpreadPct   = 2.0
)

// AnomalyBot screens exchange tickers for price-volume divergence and
// unusual spreads. Built exclusively on secondary-only screening feeds, so
// it can never contribute core metrics. Absence of anomalies is itself a
// confident signal.
type AnomalyBot struct {
	h     *helper
	fetch QuoteFetcher
}

// NewAnomalyBot builds the bot from exchange sources that grant no core
// authority.
func NewAnomalyBot(reg *registry.Registry, deps Deps, fetch QuoteFetcher) *AnomalyBot {
	sources := reg.Filter(
		registry.InCategory(registry.CategoryExchangeMarketData),
		registry.IsSecondaryOnly,
	)
	return &AnomalyBot{
		h:     newHelper("anomaly", "AnomalyBot", signal.KindAnomaly, sources, deps),
		fetch: fetch,
	}
}

func (b *AnomalyBot) ID() string           { return b.h.id }
func (b *AnomalyBot) Kind() signal.BotKind { return b.h.kind }
func (b *AnomalyBot) ClearCache()          { b.h.ClearCache() }

func (b *AnomalyBot) Fetch(ctx context.Context, symbols []string, opts Options) (*signal.BotOutput, error) {
	if len(symbols) == 0 {
		return nil, ErrNoAssets
	}
	key := b.h.cacheKey(symbols)
	if out, ok := b.h.cached(ctx, key); ok {
		return out, nil
	}

	out := b.h.newOutput(symbols, opts)

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

	if len(quotes) == 0 {
		out.Warn("no ticker data; anomaly screen skipped")
		out.Confidence = signal.ConfidenceLow
		return b.h.finish(ctx, key, out), nil
	}

	// confidence weight per detected anomaly; divergence is the stronger tell
	var anomalyWeights []float64
	for _, q := range quotes {
		var findings []string
		if abs(q.ChangePct24h) > divergenceMovePct && q.VolumeRatio24h > 0 && q.VolumeRatio24h < divergenceVolRatio {
			findings = append(findings, fmt.Sprintf("%.1f%% price move on %.0f%% of normal volume", q.ChangePct24h, q.VolumeRatio24h*100))
			anomalyWeights = append(anomalyWeights, 0.8)
		}
		if q.SpreadPct > unusualSpreadPct {
			findings = append(findings, fmt.Sprintf("unusual spread %.2f%%", q.SpreadPct))
			anomalyWeights = append(anomalyWeights, 0.6)
		}
		if len(findings) == 0 {
			continue
		}
		out.Secondary.EventFlags = append(out.Secondary.EventFlags, signal.EventFlag{
			Type:        signal.EventOther,
			Severity:    signal.SeverityMedium,
			Assets:      []string{strings.ToUpper(q.Asset)},
			Timestamp:   out.Timestamp,
			Source:      b.h.label,
			Description: "anomaly: " + strings.Join(findings, "; "),
		})
	}
	out.Secondary.AnomalyDetected = len(anomalyWeights) > 0

	switch {
	case len(anomalyWeights) == 0:
		out.Confidence = signal.ConfidenceHigh
	case mean(anomalyWeights) >= 0.7:
		out.Confidence = signal.ConfidenceLow
	default:
		out.Confidence = signal.ConfidenceMedium
	}
	return b.h.finish(ctx, key, out), nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
