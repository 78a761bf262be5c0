package bots

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalmesh/signalmesh/internal/registry"
	"github.com/signalmesh/signalmesh/internal/signal"
)

func TestCongestionScore(t *testing.T) {
	assert.Equal(t, 0.2, congestionScore("low"))
	assert.Equal(t, 0.5, congestionScore("medium"))
	assert.Equal(t, 0.9, congestionScore("high"))
	assert.Equal(t, 0.5, congestionScore("unknown"))
}

func TestChainsFor(t *testing.T) {
	// explicit option wins
	assert.Equal(t, []string{"polygon"}, chainsFor([]string{"BTC"}, Options{Chains: []string{"polygon"}}))
	// inferred from assets, deduplicated
	assert.Equal(t, []string{"bitcoin", "ethereum"}, chainsFor([]string{"BTC", "ETH", "USDC"}, Options{}))
	// unknown assets fall back to ethereum
	assert.Equal(t, []string{"ethereum"}, chainsFor([]string{"ZZZ"}, Options{}))
}

func TestOnChainBotAggregatesAcrossChains(t *testing.T) {
	fetch := func(ctx context.Context, src registry.Source, chains []string) ([]ChainStatus, error) {
		if src.ID != "etherscan" {
			return nil, errors.New("source unavailable")
		}
		return []ChainStatus{
			{Source: "etherscan", Chain: "bitcoin", FeeUSD: 1.0, Congestion: "low", FailureRate: 0.01},
			{Source: "etherscan", Chain: "ethereum", FeeUSD: 3.0, Congestion: "high", FailureRate: 0.03},
		}, nil
	}
	b := NewOnChainBot(testRegistry(t), testDeps(), fetch)

	out, err := b.Fetch(context.Background(), []string{"BTC", "ETH"}, Options{})
	require.NoError(t, err)

	assert.Equal(t, 2.0, out.CoreMetrics[signal.MetricFees])
	// worst chain wins, not the average
	assert.Equal(t, 0.9, out.CoreMetrics[signal.MetricCongestion])
	assert.InDelta(t, 0.02, out.CoreMetrics[signal.MetricFailureRate], 1e-9)
	assert.Equal(t, "high", out.Raw["worstCongestion"])
	require.Len(t, out.Secondary.EventFlags, 1)
	assert.Equal(t, signal.EventOutage, out.Secondary.EventFlags[0].Type)
	assert.Contains(t, out.Secondary.EventFlags[0].Description, "ethereum")
	assert.Equal(t, signal.ConfidenceMedium, out.Confidence)
}

func TestOnChainBotNoOutageFlagWhenCalm(t *testing.T) {
	fetch := func(ctx context.Context, src registry.Source, chains []string) ([]ChainStatus, error) {
		return []ChainStatus{
			{Source: src.ID, Chain: "ethereum", FeeUSD: 2.0, Congestion: "medium", FailureRate: 0.02},
		}, nil
	}
	b := NewOnChainBot(testRegistry(t), testDeps(), fetch)

	out, err := b.Fetch(context.Background(), []string{"ETH"}, Options{})
	require.NoError(t, err)

	assert.Equal(t, 0.5, out.CoreMetrics[signal.MetricCongestion])
	assert.Empty(t, out.Secondary.EventFlags)
	assert.Equal(t, signal.ConfidenceHigh, out.Confidence)
}

func TestOnChainBotHeuristicFallback(t *testing.T) {
	fetch := func(ctx context.Context, src registry.Source, chains []string) ([]ChainStatus, error) {
		return nil, errors.New("source unavailable")
	}
	b := NewOnChainBot(testRegistry(t), testDeps(), fetch)

	out, err := b.Fetch(context.Background(), []string{"SOL"}, Options{})
	require.NoError(t, err)

	// solana heuristic: cheap fees, medium congestion
	assert.Equal(t, 0.01, out.CoreMetrics[signal.MetricFees])
	assert.Equal(t, 0.5, out.CoreMetrics[signal.MetricCongestion])
	assert.Equal(t, signal.ConfidenceLow, out.Confidence)
	require.NotEmpty(t, out.Warnings)
}
