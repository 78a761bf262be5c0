package bots

import (
	"github.com/signalmesh/signalmesh/internal/assets"
)

// Heuristic fallbacks used when every real source failed or none is
// configured. Values are asset-class-aware defaults: stablecoins get
// near-zero spread and volatility, majors get tighter spreads than
// long-tail assets.

const heuristicSource = "heuristic"

func heuristicBook(symbol string) BookStats {
	b := BookStats{Source: heuristicSource, Asset: symbol}
	switch assets.ClassOf(symbol) {
	case assets.ClassStablecoin:
		b.SpreadPct = 0.02
		b.DepthUSD = 5_000_000
		b.SlippagePct = 0.01
		b.Volume24hUSD = 50_000_000
	case assets.ClassMajor:
		b.SpreadPct = 0.1
		b.DepthUSD = 2_000_000
		b.SlippagePct = 0.05
		b.Volume24hUSD = 500_000_000
	default:
		b.SpreadPct = 0.8
		b.DepthUSD = 150_000
		b.SlippagePct = 0.4
		b.Volume24hUSD = 5_000_000
	}
	return b
}

func heuristicVolatility(symbol string) float64 {
	switch assets.ClassOf(symbol) {
	case assets.ClassStablecoin:
		return 0.001
	case assets.ClassMajor:
		return 0.02
	default:
		return 0.08
	}
}

var heuristicChains = map[string]ChainStatus{
	"ethereum": {Source: heuristicSource, Chain: "ethereum", FeeUSD: 2.50, Congestion: "medium", FailureRate: 0.02},
	"bitcoin":  {Source: heuristicSource, Chain: "bitcoin", FeeUSD: 1.50, Congestion: "low", FailureRate: 0.01},
	"solana":   {Source: heuristicSource, Chain: "solana", FeeUSD: 0.01, Congestion: "medium", FailureRate: 0.05},
	"polygon":  {Source: heuristicSource, Chain: "polygon", FeeUSD: 0.02, Congestion: "low", FailureRate: 0.02},
	"bsc":      {Source: heuristicSource, Chain: "bsc", FeeUSD: 0.15, Congestion: "low", FailureRate: 0.02},
}

func heuristicChain(chain string) ChainStatus {
	if st, ok := heuristicChains[chain]; ok {
		return st
	}
	return ChainStatus{Source: heuristicSource, Chain: chain, FeeUSD: 0.50, Congestion: "medium", FailureRate: 0.03}
}
