// Package signal defines the universal record every bot produces and the
// secondary-signal bundle the orchestrator merges. Core metrics and secondary
// signals are kept in strictly separate structures so the gating layer can
// enforce the no-leak invariant on the type, not on convention.
package signal

import (
	"sort"
	"strings"
	"time"
)

// BotKind identifies one of the 8 bot variants.
type BotKind string

const (
	KindPrice       BotKind = "price"
	KindLiquidity   BotKind = "liquidity"
	KindOnChain     BotKind = "onchain"
	KindDerivatives BotKind = "derivatives"
	KindNews        BotKind = "news"
	KindRegulatory  BotKind = "regulatory"
	KindAnomaly     BotKind = "anomaly"
	KindWhaleFlow   BotKind = "whaleflow"
)

// KindOrder is the fixed fetch/merge order. Orchestrator merging follows this
// order regardless of actual completion order, because it defines dedup and
// exclusion tie-breaking.
var KindOrder = []BotKind{
	KindPrice,
	KindLiquidity,
	KindOnChain,
	KindDerivatives,
	KindNews,
	KindRegulatory,
	KindAnomaly,
	KindWhaleFlow,
}

// Core metric keys. An individual bot computes these for a representative
// asset; the orchestrator re-keys them per requested asset at merge time.
const (
	MetricPrice       = "price"
	MetricVolatility  = "volatility"
	MetricLiquidity   = "liquidity"
	MetricSpread      = "spread"
	MetricDepth       = "depth"
	MetricVolume      = "volume"
	MetricFees        = "fees"
	MetricCongestion  = "congestion"
	MetricFailureRate = "failureRate"
)

// EventType classifies an event flag.
type EventType string

const (
	EventExploit    EventType = "exploit"
	EventRegulatory EventType = "regulatory"
	EventDepeg      EventType = "depeg"
	EventDelisting  EventType = "delisting"
	EventOutage     EventType = "outage"
	EventInsolvency EventType = "insolvency"
	EventOther      EventType = "other"
)

// Severity of an event flag.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// EventFlag is an ephemeral per-fetch event record. Confirmed defaults to
// false; unverified reports stay unconfirmed.
type EventFlag struct {
	Type        EventType `json:"type"`
	Severity    Severity  `json:"severity"`
	Confirmed   bool      `json:"confirmed"`
	Assets      []string  `json:"assets"`
	Timestamp   time.Time `json:"timestamp"`
	Source      string    `json:"source"`
	Description string    `json:"description"`
}

// DedupKey is the composite identity used to deduplicate flags within a
// single bot output: event type plus the affected asset set.
func (f EventFlag) DedupKey() string {
	assets := append([]string(nil), f.Assets...)
	sort.Strings(assets)
	return string(f.Type) + "|" + strings.Join(assets, ",")
}

// RiskLevel for the regulatory risk record.
type RiskLevel string

const (
	RiskNone    RiskLevel = "none"
	RiskLow     RiskLevel = "low"
	RiskMedium  RiskLevel = "medium"
	RiskHigh    RiskLevel = "high"
	RiskBlocked RiskLevel = "blocked"
)

// RegulatoryRisk carries the only field in the system with override authority
// over everything else: HardBlock is true iff an affected asset is sanctioned.
type RegulatoryRisk struct {
	Level     RiskLevel `json:"level"`
	Reasons   []string  `json:"reasons"`
	Assets    []string  `json:"assets"`
	HardBlock bool      `json:"hardBlock"`
}

// WhaleFlowType tags a whale activity record.
type WhaleFlowType string

const (
	WhaleInflow        WhaleFlowType = "inflow"
	WhaleOutflow       WhaleFlowType = "outflow"
	WhaleLargeTransfer WhaleFlowType = "large_transfer"
)

// WhaleActivity is a single observed whale transfer.
type WhaleActivity struct {
	Type      WhaleFlowType `json:"type"`
	Amount    float64       `json:"amount"`
	AmountUSD float64       `json:"amountUsd"`
	Asset     string        `json:"asset"`
	Timestamp time.Time     `json:"timestamp"`
	Source    string        `json:"source"`
}

// NewsImpact is an explainability-only summary. It is never a scoring input.
type NewsImpact struct {
	Sentiment string    `json:"sentiment"` // positive|neutral|negative
	Relevance float64   `json:"relevance"` // [0,1]
	Keywords  []string  `json:"keywords"`  // up to 10
	Summary   string    `json:"summary"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

// SecondarySignals may veto or annotate a recommendation but must never feed
// the numeric score.
type SecondarySignals struct {
	EventFlags      []EventFlag     `json:"eventFlags,omitempty"`
	Sentiment       *float64        `json:"sentiment,omitempty"`
	WhaleActivity   []WhaleActivity `json:"whaleActivity,omitempty"`
	RegulatoryRisk  *RegulatoryRisk `json:"regulatoryRisk,omitempty"`
	AnomalyDetected bool            `json:"anomalyDetected"`
	NewsImpact      *NewsImpact     `json:"newsImpact,omitempty"`
}

// BotOutput is the standardized record every bot emits per invocation.
type BotOutput struct {
	BotID       string             `json:"botId"`
	Kind        BotKind            `json:"kind"`
	Timestamp   time.Time          `json:"timestamp"`
	Horizon     string             `json:"horizon,omitempty"`
	Assets      []string           `json:"assets"`
	Venue       string             `json:"venue,omitempty"`
	Confidence  Confidence         `json:"confidence"`
	CoreMetrics map[string]float64 `json:"coreMetrics,omitempty"`
	Secondary   SecondarySignals   `json:"secondarySignals"`
	Raw         map[string]any     `json:"raw,omitempty"` // debug/audit only
	Errors      []string           `json:"errors,omitempty"`
	Warnings    []string           `json:"warnings,omitempty"`
}

// AddMetric lazily initializes the core metrics map.
func (o *BotOutput) AddMetric(key string, value float64) {
	if o.CoreMetrics == nil {
		o.CoreMetrics = make(map[string]float64)
	}
	o.CoreMetrics[key] = value
}

// Warnf appends a formatted warning string.
func (o *BotOutput) Warn(msg string) {
	o.Warnings = append(o.Warnings, msg)
}
