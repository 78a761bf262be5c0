package bots

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalmesh/signalmesh/internal/registry"
	"github.com/signalmesh/signalmesh/internal/signal"
)

func secondaryOnlySource(id string) registry.Source {
	return registry.Source{
		ID:         id,
		Category:   registry.CategoryExchangeMarketData,
		Enabled:    true,
		Roles:      registry.RoleSecondarySignal,
		RateLimit:  100,
		RateWindow: time.Second,
	}
}

func TestFinishPanicsOnCoreMetricLeak(t *testing.T) {
	h := newHelper("anomaly", "AnomalyBot", signal.KindAnomaly, []registry.Source{secondaryOnlySource("dexscreener")}, testDeps())
	out := h.newOutput([]string{"BTC"}, Options{})
	out.AddMetric(signal.MetricPrice, 50000)

	assert.Panics(t, func() {
		h.finish(context.Background(), "anomaly|BTC", out)
	})
}

func TestFinishAllowsSecondarySignals(t *testing.T) {
	h := newHelper("anomaly", "AnomalyBot", signal.KindAnomaly, []registry.Source{secondaryOnlySource("dexscreener")}, testDeps())
	out := h.newOutput([]string{"BTC"}, Options{})
	out.Secondary.AnomalyDetected = true

	assert.NotPanics(t, func() {
		h.finish(context.Background(), "anomaly|BTC", out)
	})
}

func TestUsableSourcesSkipsKeyedWithoutKey(t *testing.T) {
	keyed := secondaryOnlySource("coinglass")
	keyed.APIKeyEnv = "COINGLASS_API_KEY"
	disabled := secondaryOnlySource("stale")
	disabled.Enabled = false
	open := secondaryOnlySource("dexscreener")

	h := newHelper("anomaly", "AnomalyBot", signal.KindAnomaly, []registry.Source{keyed, disabled, open}, testDeps())
	usable := h.usableSources()
	require.Len(t, usable, 1)
	assert.Equal(t, "dexscreener", usable[0].ID)

	// configuring the key readmits the source
	deps := testDeps()
	deps.Keys = map[string]string{"COINGLASS_API_KEY": "secret"}
	h = newHelper("anomaly", "AnomalyBot", signal.KindAnomaly, []registry.Source{keyed, disabled, open}, deps)
	assert.Len(t, h.usableSources(), 2)
}

func TestFetchEachDowngradesFailuresToWarnings(t *testing.T) {
	h := newHelper("anomaly", "AnomalyBot", signal.KindAnomaly, []registry.Source{
		secondaryOnlySource("a"),
		secondaryOnlySource("b"),
	}, testDeps())

	warnings := h.fetchEach(context.Background(), func(ctx context.Context, src registry.Source) error {
		if src.ID == "b" {
			return errors.New("boom")
		}
		return nil
	})

	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "b: boom")
}
