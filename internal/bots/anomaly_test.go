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

func anomalyFetcher(quotes []Quote) QuoteFetcher {
	return func(ctx context.Context, src registry.Source, symbols []string) ([]Quote, error) {
		if quotes == nil {
			return nil, errors.New("source unavailable")
		}
		return quotes, nil
	}
}

func TestAnomalyBotDetectsPriceVolumeDivergence(t *testing.T) {
	b := NewAnomalyBot(testRegistry(t), testDeps(), anomalyFetcher([]Quote{
		{Source: "dexscreener", Asset: "SOL", Price: 150, ChangePct24h: -12, VolumeRatio24h: 0.3, SpreadPct: 0.2},
	}))

	out, err := b.Fetch(context.Background(), []string{"SOL"}, Options{})
	require.NoError(t, err)

	assert.True(t, out.Secondary.AnomalyDetected)
	require.Len(t, out.Secondary.EventFlags, 1)
	flag := out.Secondary.EventFlags[0]
	assert.Equal(t, []string{"SOL"}, flag.Assets)
	assert.Contains(t, flag.Description, "price move")
	// divergence is the strong tell, so confidence in the read drops
	assert.Equal(t, signal.ConfidenceLow, out.Confidence)
	assert.Empty(t, out.CoreMetrics)
}

func TestAnomalyBotDetectsUnusualSpread(t *testing.T) {
	b := NewAnomalyBot(testRegistry(t), testDeps(), anomalyFetcher([]Quote{
		{Source: "dexscreener", Asset: "LINK", Price: 14, ChangePct24h: 1, VolumeRatio24h: 1, SpreadPct: 2.5},
	}))

	out, err := b.Fetch(context.Background(), []string{"LINK"}, Options{})
	require.NoError(t, err)

	assert.True(t, out.Secondary.AnomalyDetected)
	require.Len(t, out.Secondary.EventFlags, 1)
	assert.Contains(t, out.Secondary.EventFlags[0].Description, "unusual spread")
	assert.Equal(t, signal.ConfidenceMedium, out.Confidence)
}

func TestAnomalyBotCleanMarketIsHighConfidence(t *testing.T) {
	b := NewAnomalyBot(testRegistry(t), testDeps(), anomalyFetcher([]Quote{
		{Source: "dexscreener", Asset: "BTC", Price: 50000, ChangePct24h: 2, VolumeRatio24h: 1.1, SpreadPct: 0.05},
		{Source: "dexscreener", Asset: "ETH", Price: 3000, ChangePct24h: -1, VolumeRatio24h: 0.9, SpreadPct: 0.08},
	}))

	out, err := b.Fetch(context.Background(), []string{"BTC", "ETH"}, Options{})
	require.NoError(t, err)

	// absence of anomalies is a confident read, not a missing one
	assert.False(t, out.Secondary.AnomalyDetected)
	assert.Empty(t, out.Secondary.EventFlags)
	assert.Equal(t, signal.ConfidenceHigh, out.Confidence)
}

func TestAnomalyBotNoDataIsLowConfidence(t *testing.T) {
	b := NewAnomalyBot(testRegistry(t), testDeps(), anomalyFetcher(nil))

	out, err := b.Fetch(context.Background(), []string{"BTC"}, Options{})
	require.NoError(t, err)

	assert.False(t, out.Secondary.AnomalyDetected)
	assert.Equal(t, signal.ConfidenceLow, out.Confidence)
	require.NotEmpty(t, out.Warnings)
}
