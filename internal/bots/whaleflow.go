package bots

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/signalmesh/signalmesh/internal/registry"
	"github.com/signalmesh/signalmesh/internal/signal"
)

// netFlowFlagUSD is the absolute net flow above which a pressure flag fires.
const netFlowFlagUSD = 10_000_000

// WhaleFlowBot nets exchange inflow against outflow per asset from a
// whale-transfer feed. It contributes only event flags and the raw activity
// list, so it is architecturally incapable of dominating scoring.
type WhaleFlowBot struct {
	h     *helper
	fetch WhaleFetcher
}

// NewWhaleFlowBot builds the bot from every enabled whale-tracking source.
func NewWhaleFlowBot(reg *registry.Registry, deps Deps, fetch WhaleFetcher) *WhaleFlowBot {
	sources := reg.Filter(registry.InCategory(registry.CategoryWhaleTracking))
	return &WhaleFlowBot{
		h:     newHelper("whaleflow", "WhaleFlowBot", signal.KindWhaleFlow, sources, deps),
		fetch: fetch,
	}
}

func (b *WhaleFlowBot) ID() string           { return b.h.id }
func (b *WhaleFlowBot) Kind() signal.BotKind { return b.h.kind }
func (b *WhaleFlowBot) ClearCache()          { b.h.ClearCache() }

func (b *WhaleFlowBot) Fetch(ctx context.Context, symbols []string, opts Options) (*signal.BotOutput, error) {
	if len(symbols) == 0 {
		return nil, ErrNoAssets
	}
	lookback := opts.Lookback
	if lookback <= 0 {
		lookback = defaultLookback
	}
	key := b.h.cacheKey(symbols, fmt.Sprintf("lookback=%s", lookback))
	if out, ok := b.h.cached(ctx, key); ok {
		return out, nil
	}

	out := b.h.newOutput(symbols, opts)

	var (
		mu        sync.Mutex
		transfers []WhaleTransfer
	)
	out.Warnings = b.h.fetchEach(ctx, func(ctx context.Context, src registry.Source) error {
		trs, err := b.fetch(ctx, src, symbols, lookback)
		if err != nil {
			return err
		}
		mu.Lock()
		transfers = append(transfers, trs...)
		mu.Unlock()
		return nil
	})

	sourceSet := make(map[string]bool)
	netUSD := make(map[string]float64)
	for _, tr := range transfers {
		sourceSet[tr.Source] = true
		activity := signal.WhaleActivity{
			Amount:    tr.Amount,
			AmountUSD: tr.AmountUSD,
			Asset:     tr.Asset,
			Timestamp: tr.Timestamp,
			Source:    tr.Source,
		}
		switch tr.Direction {
		case "inflow":
			activity.Type = signal.WhaleInflow
			netUSD[tr.Asset] += tr.AmountUSD
		case "outflow":
			activity.Type = signal.WhaleOutflow
			netUSD[tr.Asset] -= tr.AmountUSD
		default:
			// Wallet-to-wallet transfers carry no exchange pressure either way.
			activity.Type = signal.WhaleLargeTransfer
		}
		out.Secondary.WhaleActivity = append(out.Secondary.WhaleActivity, activity)
	}

	flagged := make([]string, 0, len(netUSD))
	for asset, net := range netUSD {
		if abs(net) > netFlowFlagUSD {
			flagged = append(flagged, asset)
		}
	}
	sort.Strings(flagged)
	for _, asset := range flagged {
		net := netUSD[asset]
		desc := fmt.Sprintf("whale accumulation: net exchange outflow $%.1fM for %s", abs(net)/1e6, asset)
		if net > 0 {
			desc = fmt.Sprintf("whale selling pressure: net exchange inflow $%.1fM for %s", net/1e6, asset)
		}
		out.Secondary.EventFlags = append(out.Secondary.EventFlags, signal.EventFlag{
			Type:        signal.EventOther,
			Severity:    signal.SeverityMedium,
			Assets:      []string{strings.ToUpper(asset)},
			Timestamp:   out.Timestamp,
			Source:      b.h.label,
			Description: desc,
		})
	}

	if len(transfers) == 0 {
		out.Warn("no whale transfers in lookback window")
	}
	out.Confidence = signal.ConfidenceFromSourceCount(len(sourceSet))
	return b.h.finish(ctx, key, out), nil
}
