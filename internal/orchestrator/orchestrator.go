// Package orchestrator fans out to all 8 bots concurrently, tolerates
// individual bot failure, merges core metrics from exactly the three
// authorized bots, merges secondary signals from all bots in fixed order,
// applies the exclusion policy and computes overall confidence.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/signalmesh/signalmesh/internal/bots"
	"github.com/signalmesh/signalmesh/internal/metrics"
	"github.com/signalmesh/signalmesh/internal/signal"
)

var (
	// ErrNoAssets rejects an empty asset list before any fetch is dispatched.
	ErrNoAssets = errors.New("orchestrator: empty asset list")
	// ErrInvalidAmount rejects a negative transaction amount.
	ErrInvalidAmount = errors.New("orchestrator: transaction amount must not be negative")
	// ErrWrongBots rejects construction with anything but the 8 bots in
	// canonical fetch order.
	ErrWrongBots = errors.New("orchestrator: expected the 8 bots in canonical order")
)

// Request is the inbound call contract.
type Request struct {
	Assets         []string
	TransactionUSD float64  // optional; 0 means not specified
	Chains         []string // optional; inferred from assets when empty
	LookbackHours  int      // optional; defaults to 24
}

// Exclusion records one removed asset, in discovery order.
type Exclusion struct {
	Asset  string `json:"asset"`
	Reason string `json:"reason"`
	Source string `json:"source"`
}

// CoreMetrics are the merged per-asset maps. Only the price, liquidity and
// onchain bots feed these, by construction.
type CoreMetrics struct {
	Price      map[string]float64 `json:"price"`
	Volatility map[string]float64 `json:"volatility"`
	Liquidity  map[string]float64 `json:"liquidity"`
	Spread     map[string]float64 `json:"spread"`
	Fees       map[string]float64 `json:"fees"`
	Congestion map[string]float64 `json:"congestion"`
}

// ConfidenceReport is the overall level plus the per-bot map kept verbatim
// for audit.
type ConfidenceReport struct {
	Overall signal.Confidence            `json:"overall"`
	PerBot  map[string]signal.Confidence `json:"perBot"`
}

// Output is the single consistent decision snapshot returned per run.
// Constructed fresh on every Run call and never mutated after return.
type Output struct {
	RunID       string                       `json:"runId"`
	Timestamp   time.Time                    `json:"timestamp"`
	Assets      []string                     `json:"assets"`
	CoreMetrics CoreMetrics                  `json:"coreMetrics"`
	Secondary   signal.SecondarySignals      `json:"secondarySignals"`
	Excluded    []Exclusion                  `json:"excludedAssets"`
	BotOutputs  map[string]*signal.BotOutput `json:"botOutputs"`
	Confidence  ConfidenceReport             `json:"confidence"`
}

// Orchestrator coordinates the 8 bots.
type Orchestrator struct {
	bots    []bots.Bot
	metrics *metrics.Collector
}

// WithMetrics attaches a collector recording per-bot run outcomes.
func (o *Orchestrator) WithMetrics(m *metrics.Collector) *Orchestrator {
	o.metrics = m
	return o
}

// New requires the 8 bots in canonical fetch order: price, liquidity,
// onchain, derivatives, news, regulatory, anomaly, whaleflow. Merge order is
// defined by this order, not by completion order.
func New(bs ...bots.Bot) (*Orchestrator, error) {
	if len(bs) != len(signal.KindOrder) {
		return nil, fmt.Errorf("%w: got %d bots", ErrWrongBots, len(bs))
	}
	for i, b := range bs {
		if b.Kind() != signal.KindOrder[i] {
			return nil, fmt.Errorf("%w: position %d is %s, want %s", ErrWrongBots, i, b.Kind(), signal.KindOrder[i])
		}
	}
	return &Orchestrator{bots: bs}, nil
}

// Run produces one decision snapshot. No single bot failure may prevent an
// output; a failed bot contributes a degraded stub with low confidence.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Output, error) {
	if len(req.Assets) == 0 {
		return nil, ErrNoAssets
	}
	if req.TransactionUSD < 0 {
		return nil, ErrInvalidAmount
	}
	lookback := req.LookbackHours
	if lookback <= 0 {
		lookback = 24
	}
	opts := bots.Options{
		TransactionUSD: req.TransactionUSD,
		Chains:         req.Chains,
		Lookback:       time.Duration(lookback) * time.Hour,
	}

	symbols := make([]string, len(req.Assets))
	for i, a := range req.Assets {
		symbols[i] = strings.ToUpper(a)
	}

	runID := uuid.NewString()
	log.Info().Str("run", runID).Strs("assets", symbols).Msg("orchestrator run started")

	results := make([]*signal.BotOutput, len(o.bots))
	var wg sync.WaitGroup
	for i, b := range o.bots {
		wg.Add(1)
		go func(i int, b bots.Bot) {
			defer wg.Done()
			out, err := b.Fetch(ctx, symbols, opts)
			if o.metrics != nil {
				o.metrics.ObserveBotRun(b.ID(), err)
			}
			if err != nil {
				log.Warn().Str("run", runID).Str("bot", b.ID()).Err(err).Msg("bot fetch failed")
				out = stubOutput(b, symbols, err)
			}
			results[i] = out
		}(i, b)
	}
	wg.Wait()

	out := &Output{
		RunID:      runID,
		Timestamp:  time.Now().UTC(),
		Assets:     symbols,
		BotOutputs: make(map[string]*signal.BotOutput, len(results)),
	}
	for i, res := range results {
		out.BotOutputs[o.bots[i].ID()] = res
	}

	o.mergeCoreMetrics(out, results, symbols)
	o.mergeSecondary(out, results)
	o.applyExclusions(out, symbols)
	o.computeConfidence(out, results)

	log.Info().Str("run", runID).
		Int("excluded", len(out.Excluded)).
		Str("confidence", string(out.Confidence.Overall)).
		Msg("orchestrator run finished")
	return out, nil
}

func stubOutput(b bots.Bot, symbols []string, err error) *signal.BotOutput {
	return &signal.BotOutput{
		BotID:      b.ID(),
		Kind:       b.Kind(),
		Timestamp:  time.Now().UTC(),
		Assets:     append([]string(nil), symbols...),
		Confidence: signal.ConfidenceLow,
		Errors:     []string{err.Error()},
	}
}

// mergeCoreMetrics keys each authorized bot's representative figures by
// requested asset. Only price, liquidity and onchain are inputs here; the
// restriction is enforced by construction, not by checking roles again.
func (o *Orchestrator) mergeCoreMetrics(out *Output, results []*signal.BotOutput, symbols []string) {
	out.CoreMetrics = CoreMetrics{
		Price:      make(map[string]float64),
		Volatility: make(map[string]float64),
		Liquidity:  make(map[string]float64),
		Spread:     make(map[string]float64),
		Fees:       make(map[string]float64),
		Congestion: make(map[string]float64),
	}
	assign := func(dst map[string]float64, src map[string]float64, metric string) {
		v, ok := src[metric]
		if !ok {
			return
		}
		for _, sym := range symbols {
			dst[sym] = v
		}
	}
	for i, kind := range signal.KindOrder {
		m := results[i].CoreMetrics
		switch kind {
		case signal.KindPrice:
			assign(out.CoreMetrics.Price, m, signal.MetricPrice)
			assign(out.CoreMetrics.Volatility, m, signal.MetricVolatility)
		case signal.KindLiquidity:
			assign(out.CoreMetrics.Liquidity, m, signal.MetricLiquidity)
			assign(out.CoreMetrics.Spread, m, signal.MetricSpread)
		case signal.KindOnChain:
			assign(out.CoreMetrics.Fees, m, signal.MetricFees)
			assign(out.CoreMetrics.Congestion, m, signal.MetricCongestion)
		}
	}
}

// mergeSecondary concatenates in the fixed fetch order.
func (o *Orchestrator) mergeSecondary(out *Output, results []*signal.BotOutput) {
	for i, kind := range signal.KindOrder {
		sec := results[i].Secondary
		out.Secondary.EventFlags = append(out.Secondary.EventFlags, sec.EventFlags...)
		out.Secondary.AnomalyDetected = out.Secondary.AnomalyDetected || sec.AnomalyDetected
		switch kind {
		case signal.KindNews:
			out.Secondary.NewsImpact = sec.NewsImpact
			out.Secondary.Sentiment = sec.Sentiment
		case signal.KindRegulatory:
			out.Secondary.RegulatoryRisk = sec.RegulatoryRisk
		case signal.KindWhaleFlow:
			out.Secondary.WhaleActivity = sec.WhaleActivity
		}
	}
}

// excludableTypes are the confirmed high-severity event types that remove an
// asset in phase 2.
var excludableTypes = map[signal.EventType]bool{
	signal.EventExploit:    true,
	signal.EventInsolvency: true,
	signal.EventDelisting:  true,
}

// applyExclusions runs the strict two-phase priority order: regulatory hard
// block first, then confirmed high-severity events. An asset is excluded at
// most once; everything else passes (allow-by-default at this layer).
func (o *Orchestrator) applyExclusions(out *Output, symbols []string) {
	requested := make(map[string]bool, len(symbols))
	for _, sym := range symbols {
		requested[sym] = true
	}
	excluded := make(map[string]bool)

	if risk := out.Secondary.RegulatoryRisk; risk != nil && risk.HardBlock {
		for _, asset := range risk.Assets {
			asset = strings.ToUpper(asset)
			if !requested[asset] || excluded[asset] {
				continue
			}
			excluded[asset] = true
			out.Excluded = append(out.Excluded, Exclusion{
				Asset:  asset,
				Reason: "Regulatory hard block",
				Source: "RegulatoryBot",
			})
		}
	}

	for _, flag := range out.Secondary.EventFlags {
		if !flag.Confirmed || flag.Severity != signal.SeverityHigh || !excludableTypes[flag.Type] {
			continue
		}
		for _, asset := range flag.Assets {
			asset = strings.ToUpper(asset)
			if !requested[asset] || excluded[asset] {
				continue
			}
			excluded[asset] = true
			out.Excluded = append(out.Excluded, Exclusion{
				Asset:  asset,
				Reason: fmt.Sprintf("Confirmed %s: %s", flag.Type, flag.Description),
				Source: flag.Source,
			})
		}
	}
}

// computeConfidence averages the per-bot levels unweighted and thresholds
// back to a level.
func (o *Orchestrator) computeConfidence(out *Output, results []*signal.BotOutput) {
	perBot := make(map[string]signal.Confidence, len(results))
	total := 0
	for i, res := range results {
		perBot[o.bots[i].ID()] = res.Confidence
		total += res.Confidence.Score()
	}
	out.Confidence = ConfidenceReport{
		Overall: signal.ConfidenceFromScore(float64(total) / float64(len(results))),
		PerBot:  perBot,
	}
}
