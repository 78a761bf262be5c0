package bots

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/signalmesh/signalmesh/internal/classifier"
	"github.com/signalmesh/signalmesh/internal/registry"
	"github.com/signalmesh/signalmesh/internal/signal"
)

const defaultLookback = 24 * time.Hour

// NewsBot runs fetched articles through the event classifier, keeps only
// confirmed or high-severity events, and emits a non-scoring news impact
// summary. Secondary-signal only.
type NewsBot struct {
	h     *helper
	cls   *classifier.Classifier
	fetch ArticleFetcher
}

// NewNewsBot builds the bot from every enabled news source.
func NewNewsBot(reg *registry.Registry, deps Deps, cls *classifier.Classifier, fetch ArticleFetcher) *NewsBot {
	sources := reg.Filter(registry.InCategory(registry.CategoryNewsMedia))
	return &NewsBot{
		h:     newHelper("news", "NewsBot", signal.KindNews, sources, deps),
		cls:   cls,
		fetch: fetch,
	}
}

func (b *NewsBot) ID() string           { return b.h.id }
func (b *NewsBot) Kind() signal.BotKind { return b.h.kind }
func (b *NewsBot) ClearCache()          { b.h.ClearCache() }

func (b *NewsBot) Fetch(ctx context.Context, symbols []string, opts Options) (*signal.BotOutput, error) {
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
		mu       sync.Mutex
		articles []Article
	)
	out.Warnings = b.h.fetchEach(ctx, func(ctx context.Context, src registry.Source) error {
		as, err := b.fetch(ctx, src, symbols, lookback)
		if err != nil {
			return err
		}
		mu.Lock()
		articles = append(articles, as...)
		mu.Unlock()
		return nil
	})

	sourceSet := make(map[string]bool)
	seen := make(map[string]bool)
	var positive, negative, classified int
	var keywords []string

	for _, a := range articles {
		cls, ok := b.cls.Classify(a.Title, a.Body)
		if !ok {
			continue
		}
		classified++
		switch cls.Sentiment {
		case "positive":
			positive++
		case "negative":
			negative++
		}
		for _, kw := range cls.Keywords {
			if len(keywords) < 10 {
				keywords = append(keywords, kw)
			}
		}
		if cls.Severity == signal.SeverityLow {
			continue
		}
		if !cls.Confirmed && cls.Severity != signal.SeverityHigh {
			continue
		}
		flag := signal.EventFlag{
			Type:        cls.Type,
			Severity:    cls.Severity,
			Confirmed:   cls.Confirmed,
			Assets:      cls.Assets,
			Timestamp:   out.Timestamp,
			Source:      a.Source,
			Description: a.Title,
		}
		if seen[flag.DedupKey()] {
			continue
		}
		seen[flag.DedupKey()] = true
		sourceSet[a.Source] = true
		out.Secondary.EventFlags = append(out.Secondary.EventFlags, flag)
	}

	if len(articles) > 0 {
		sentiment := "neutral"
		switch {
		case negative > positive:
			sentiment = "negative"
		case positive > negative:
			sentiment = "positive"
		}
		score := float64(positive-negative) / float64(len(articles))
		out.Secondary.Sentiment = &score
		out.Secondary.NewsImpact = &signal.NewsImpact{
			Sentiment: sentiment,
			Relevance: clamp01(float64(classified) / float64(len(articles))),
			Keywords:  keywords,
			Summary: fmt.Sprintf("%d articles, %d classified events, %d flagged",
				len(articles), classified, len(out.Secondary.EventFlags)),
			Source:    b.h.label,
			Timestamp: out.Timestamp,
		}
	} else {
		out.Warn("no articles returned for lookback window")
	}

	// Confidence follows article volume rather than flag count: a quiet news
	// cycle with real coverage is still a confident read.
	switch {
	case len(articles) >= 20:
		out.Confidence = signal.ConfidenceHigh
	case len(articles) > 0:
		out.Confidence = signal.ConfidenceMedium
	default:
		out.Confidence = signal.ConfidenceLow
	}
	return b.h.finish(ctx, key, out), nil
}
