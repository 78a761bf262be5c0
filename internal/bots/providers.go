package bots

import (
	"context"
	"time"

	"github.com/signalmesh/signalmesh/internal/registry"
)

// Quote is one source's view of a market ticker.
type Quote struct {
	Source         string
	Asset          string
	Price          float64
	Volume24hUSD   float64
	SpreadPct      float64 // quoted spread, percent (0.5 means 0.5%)
	ChangePct24h   float64 // signed 24h price change, percent
	VolumeRatio24h float64 // 24h volume relative to trailing average; 1.0 = normal
}

// BookStats summarizes one source's order book for an asset.
type BookStats struct {
	Source       string
	Asset        string
	SpreadPct    float64
	DepthUSD     float64
	SlippagePct  float64
	Volume24hUSD float64
}

// ChainStatus is one explorer's view of a chain.
type ChainStatus struct {
	Source      string
	Chain       string
	FeeUSD      float64
	Congestion  string // low | medium | high
	FailureRate float64
}

// DerivStats is one source's derivatives snapshot for an asset.
type DerivStats struct {
	Source          string
	Asset           string
	FundingRatePct  float64 // current funding rate, percent per interval
	OpenInterestUSD float64
	LiquidationsUSD float64 // 24h liquidations
	ImpliedVolPct   float64 // annualized, percent
}

// Article is one fetched news item.
type Article struct {
	Source      string
	Title       string
	Body        string
	PublishedAt time.Time
}

// WhaleTransfer is one observed large transfer.
type WhaleTransfer struct {
	Source    string
	Asset     string
	Direction string // inflow | outflow | transfer
	Amount    float64
	AmountUSD float64
	Timestamp time.Time
}

// RegLists are live regulatory lists fetched from a source.
type RegLists struct {
	Source     string
	Sanctioned []string
	SECActions []string
}

// Fetcher function types. Each bot is constructed with the fetcher for its
// category; tests inject fakes, production wiring injects the HTTP-backed
// implementations from http.go.
type (
	QuoteFetcher   func(ctx context.Context, src registry.Source, symbols []string) ([]Quote, error)
	BookFetcher    func(ctx context.Context, src registry.Source, symbols []string, notionalUSD float64) ([]BookStats, error)
	ChainFetcher   func(ctx context.Context, src registry.Source, chains []string) ([]ChainStatus, error)
	DerivFetcher   func(ctx context.Context, src registry.Source, symbols []string) ([]DerivStats, error)
	ArticleFetcher func(ctx context.Context, src registry.Source, symbols []string, lookback time.Duration) ([]Article, error)
	WhaleFetcher   func(ctx context.Context, src registry.Source, symbols []string, lookback time.Duration) ([]WhaleTransfer, error)
	ListFetcher    func(ctx context.Context, src registry.Source) (RegLists, error)
)
