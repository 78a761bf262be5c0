package bots

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/signalmesh/signalmesh/internal/registry"
	"github.com/signalmesh/signalmesh/internal/signal"
)

// RegulatoryLists are the static sanction and enforcement sets the bot
// checks. Live feeds, when reachable, are merged on top.
type RegulatoryLists struct {
	Sanctioned []string
	SECActions []string
}

// DefaultRegulatoryLists returns the built-in lists.
func DefaultRegulatoryLists() RegulatoryLists {
	return RegulatoryLists{
		Sanctioned: []string{"TORN"},
		SECActions: []string{"XRP", "BNB", "SOL", "ADA"},
	}
}

// RegulatoryBot is the sole hard-block authority in the system. A sanctioned
// asset sets hardBlock and the blocked level; an SEC-action asset without a
// sanction sets the high level with no hard block. Secondary-signal only.
type RegulatoryBot struct {
	h     *helper
	lists RegulatoryLists
	fetch ListFetcher
}

// NewRegulatoryBot builds the bot from every enabled regulatory source.
func NewRegulatoryBot(reg *registry.Registry, deps Deps, lists RegulatoryLists, fetch ListFetcher) *RegulatoryBot {
	sources := reg.Filter(registry.InCategory(registry.CategoryRegulatory))
	return &RegulatoryBot{
		h:     newHelper("regulatory", "RegulatoryBot", signal.KindRegulatory, sources, deps),
		lists: lists,
		fetch: fetch,
	}
}

func (b *RegulatoryBot) ID() string           { return b.h.id }
func (b *RegulatoryBot) Kind() signal.BotKind { return b.h.kind }
func (b *RegulatoryBot) ClearCache()          { b.h.ClearCache() }

func (b *RegulatoryBot) Fetch(ctx context.Context, symbols []string, opts Options) (*signal.BotOutput, error) {
	if len(symbols) == 0 {
		return nil, ErrNoAssets
	}
	key := b.h.cacheKey(symbols)
	if out, ok := b.h.cached(ctx, key); ok {
		return out, nil
	}

	out := b.h.newOutput(symbols, opts)

	sanctioned := toSet(b.lists.Sanctioned)
	secActions := toSet(b.lists.SECActions)

	if b.fetch != nil {
		var mu sync.Mutex
		out.Warnings = b.h.fetchEach(ctx, func(ctx context.Context, src registry.Source) error {
			lists, err := b.fetch(ctx, src)
			if err != nil {
				return err
			}
			mu.Lock()
			for _, sym := range lists.Sanctioned {
				sanctioned[strings.ToUpper(sym)] = true
			}
			for _, sym := range lists.SECActions {
				secActions[strings.ToUpper(sym)] = true
			}
			mu.Unlock()
			return nil
		})
	}

	var blocked, actioned []string
	var reasons []string
	for _, sym := range symbols {
		sym = strings.ToUpper(sym)
		switch {
		case sanctioned[sym]:
			blocked = append(blocked, sym)
			reasons = append(reasons, fmt.Sprintf("%s is on the sanctions list", sym))
		case secActions[sym]:
			actioned = append(actioned, sym)
			reasons = append(reasons, fmt.Sprintf("%s is named in an SEC enforcement action", sym))
		}
	}

	switch {
	case len(blocked) > 0:
		out.Secondary.RegulatoryRisk = &signal.RegulatoryRisk{
			Level:     signal.RiskBlocked,
			Reasons:   reasons,
			Assets:    append(append([]string(nil), blocked...), actioned...),
			HardBlock: true,
		}
		out.Secondary.EventFlags = append(out.Secondary.EventFlags, signal.EventFlag{
			Type:        signal.EventRegulatory,
			Severity:    signal.SeverityHigh,
			Confirmed:   true,
			Assets:      blocked,
			Timestamp:   out.Timestamp,
			Source:      b.h.label,
			Description: "sanctioned assets: " + strings.Join(blocked, ", "),
		})
	case len(actioned) > 0:
		out.Secondary.RegulatoryRisk = &signal.RegulatoryRisk{
			Level:   signal.RiskHigh,
			Reasons: reasons,
			Assets:  actioned,
		}
		out.Secondary.EventFlags = append(out.Secondary.EventFlags, signal.EventFlag{
			Type:        signal.EventRegulatory,
			Severity:    signal.SeverityMedium,
			Confirmed:   true,
			Assets:      actioned,
			Timestamp:   out.Timestamp,
			Source:      b.h.label,
			Description: "SEC enforcement exposure: " + strings.Join(actioned, ", "),
		})
	}

	// List membership is deterministic; confidence does not hinge on live
	// feed reachability.
	out.Confidence = signal.ConfidenceHigh
	return b.h.finish(ctx, key, out), nil
}

func toSet(symbols []string) map[string]bool {
	set := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		set[strings.ToUpper(s)] = true
	}
	return set
}
