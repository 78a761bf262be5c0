package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalmesh/signalmesh/internal/bots"
	"github.com/signalmesh/signalmesh/internal/signal"
)

type fakeBot struct {
	kind signal.BotKind
	out  *signal.BotOutput
	err  error
}

func (f *fakeBot) ID() string           { return string(f.kind) }
func (f *fakeBot) Kind() signal.BotKind { return f.kind }
func (f *fakeBot) ClearCache()          {}

func (f *fakeBot) Fetch(ctx context.Context, symbols []string, opts bots.Options) (*signal.BotOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := *f.out
	out.BotID = f.ID()
	out.Kind = f.kind
	out.Assets = symbols
	out.Timestamp = time.Now().UTC()
	return &out, nil
}

// healthyBots returns one fake per kind, all medium confidence and empty
// signals, in canonical order.
func healthyBots() []*fakeBot {
	fakes := make([]*fakeBot, len(signal.KindOrder))
	for i, kind := range signal.KindOrder {
		fakes[i] = &fakeBot{
			kind: kind,
			out:  &signal.BotOutput{Confidence: signal.ConfidenceMedium},
		}
	}
	return fakes
}

func newOrchestrator(t *testing.T, fakes []*fakeBot) *Orchestrator {
	t.Helper()
	bs := make([]bots.Bot, len(fakes))
	for i, f := range fakes {
		bs[i] = f
	}
	o, err := New(bs...)
	require.NoError(t, err)
	return o
}

func TestNewRejectsWrongBotSet(t *testing.T) {
	fakes := healthyBots()

	_, err := New()
	assert.ErrorIs(t, err, ErrWrongBots)

	// swap price and liquidity
	fakes[0], fakes[1] = fakes[1], fakes[0]
	bs := make([]bots.Bot, len(fakes))
	for i, f := range fakes {
		bs[i] = f
	}
	_, err = New(bs...)
	assert.ErrorIs(t, err, ErrWrongBots)
}

func TestRunValidatesRequest(t *testing.T) {
	o := newOrchestrator(t, healthyBots())

	_, err := o.Run(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrNoAssets)

	_, err = o.Run(context.Background(), Request{Assets: []string{"BTC"}, TransactionUSD: -1})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestRunSurvivesPartialBotFailure(t *testing.T) {
	// every count of failing bots short of all 8 must still yield an output
	for failures := 1; failures <= 7; failures++ {
		t.Run(fmt.Sprintf("%d_failing", failures), func(t *testing.T) {
			fakes := healthyBots()
			for i := 0; i < failures; i++ {
				fakes[i].err = errors.New("upstream down")
			}
			o := newOrchestrator(t, fakes)

			out, err := o.Run(context.Background(), Request{Assets: []string{"BTC"}})
			require.NoError(t, err)
			require.Len(t, out.BotOutputs, 8)

			for i := 0; i < failures; i++ {
				stub := out.BotOutputs[fakes[i].ID()]
				require.NotNil(t, stub)
				assert.Equal(t, signal.ConfidenceLow, stub.Confidence)
				assert.Empty(t, stub.CoreMetrics)
				require.Len(t, stub.Errors, 1)
				assert.Contains(t, stub.Errors[0], "upstream down")
			}
		})
	}
}

func TestRunMergesCoreMetricsFromAuthorizedBots(t *testing.T) {
	fakes := healthyBots()
	fakes[0].out.CoreMetrics = map[string]float64{
		signal.MetricPrice:      50000,
		signal.MetricVolatility: 0.02,
	}
	fakes[1].out.CoreMetrics = map[string]float64{
		signal.MetricLiquidity: 0.9,
		signal.MetricSpread:    0.1,
	}
	fakes[2].out.CoreMetrics = map[string]float64{
		signal.MetricFees:       2.5,
		signal.MetricCongestion: 0.5,
	}
	o := newOrchestrator(t, fakes)

	out, err := o.Run(context.Background(), Request{Assets: []string{"btc", "ETH"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"BTC", "ETH"}, out.Assets)
	for _, sym := range []string{"BTC", "ETH"} {
		assert.Equal(t, 50000.0, out.CoreMetrics.Price[sym])
		assert.Equal(t, 0.02, out.CoreMetrics.Volatility[sym])
		assert.Equal(t, 0.9, out.CoreMetrics.Liquidity[sym])
		assert.Equal(t, 0.1, out.CoreMetrics.Spread[sym])
		assert.Equal(t, 2.5, out.CoreMetrics.Fees[sym])
		assert.Equal(t, 0.5, out.CoreMetrics.Congestion[sym])
	}
	assert.NotEmpty(t, out.RunID)
}

func TestRunMergesSecondaryInFixedOrder(t *testing.T) {
	fakes := healthyBots()
	fakes[4].out.Secondary.EventFlags = []signal.EventFlag{
		{Type: signal.EventOutage, Severity: signal.SeverityMedium, Assets: []string{"SOL"}},
	}
	fakes[4].out.Secondary.NewsImpact = &signal.NewsImpact{Sentiment: "negative"}
	fakes[6].out.Secondary.AnomalyDetected = true
	fakes[6].out.Secondary.EventFlags = []signal.EventFlag{
		{Type: signal.EventOther, Severity: signal.SeverityMedium, Assets: []string{"BTC"}},
	}
	fakes[7].out.Secondary.WhaleActivity = []signal.WhaleActivity{
		{Type: signal.WhaleInflow, Asset: "BTC", AmountUSD: 12e6},
	}
	o := newOrchestrator(t, fakes)

	out, err := o.Run(context.Background(), Request{Assets: []string{"BTC", "SOL"}})
	require.NoError(t, err)

	require.Len(t, out.Secondary.EventFlags, 2)
	// news (position 4) precedes anomaly (position 6) regardless of timing
	assert.Equal(t, signal.EventOutage, out.Secondary.EventFlags[0].Type)
	assert.Equal(t, signal.EventOther, out.Secondary.EventFlags[1].Type)
	assert.True(t, out.Secondary.AnomalyDetected)
	require.NotNil(t, out.Secondary.NewsImpact)
	assert.Equal(t, "negative", out.Secondary.NewsImpact.Sentiment)
	require.Len(t, out.Secondary.WhaleActivity, 1)
}

func TestRunExcludesHardBlockedAssets(t *testing.T) {
	fakes := healthyBots()
	fakes[5].out.Secondary.RegulatoryRisk = &signal.RegulatoryRisk{
		Level:     signal.RiskBlocked,
		Assets:    []string{"TORN"},
		HardBlock: true,
	}
	o := newOrchestrator(t, fakes)

	out, err := o.Run(context.Background(), Request{Assets: []string{"BTC", "TORN"}})
	require.NoError(t, err)

	require.Len(t, out.Excluded, 1)
	assert.Equal(t, "TORN", out.Excluded[0].Asset)
	assert.Equal(t, "Regulatory hard block", out.Excluded[0].Reason)
	assert.Equal(t, "RegulatoryBot", out.Excluded[0].Source)
}

func TestRunExcludesConfirmedHighSeverityEvents(t *testing.T) {
	fakes := healthyBots()
	fakes[4].out.Secondary.EventFlags = []signal.EventFlag{
		{
			Type:        signal.EventExploit,
			Severity:    signal.SeverityHigh,
			Confirmed:   true,
			Assets:      []string{"SOL"},
			Source:      "cryptopanic",
			Description: "bridge drained for $40M",
		},
		// unconfirmed high severity must not exclude
		{
			Type:      signal.EventInsolvency,
			Severity:  signal.SeverityHigh,
			Confirmed: false,
			Assets:    []string{"BNB"},
		},
		// confirmed but medium severity must not exclude
		{
			Type:      signal.EventDelisting,
			Severity:  signal.SeverityMedium,
			Confirmed: true,
			Assets:    []string{"ADA"},
		},
	}
	o := newOrchestrator(t, fakes)

	out, err := o.Run(context.Background(), Request{Assets: []string{"SOL", "BNB", "ADA"}})
	require.NoError(t, err)

	require.Len(t, out.Excluded, 1)
	assert.Equal(t, "SOL", out.Excluded[0].Asset)
	assert.Equal(t, "Confirmed exploit: bridge drained for $40M", out.Excluded[0].Reason)
	assert.Equal(t, "cryptopanic", out.Excluded[0].Source)
}

func TestRunNeverExcludesTwice(t *testing.T) {
	fakes := healthyBots()
	fakes[4].out.Secondary.EventFlags = []signal.EventFlag{
		{
			Type:        signal.EventExploit,
			Severity:    signal.SeverityHigh,
			Confirmed:   true,
			Assets:      []string{"TORN"},
			Description: "mixer contract exploited",
		},
	}
	fakes[5].out.Secondary.RegulatoryRisk = &signal.RegulatoryRisk{
		Level:     signal.RiskBlocked,
		Assets:    []string{"TORN"},
		HardBlock: true,
	}
	o := newOrchestrator(t, fakes)

	out, err := o.Run(context.Background(), Request{Assets: []string{"TORN"}})
	require.NoError(t, err)

	// hard block wins; the exploit flag must not produce a second entry
	require.Len(t, out.Excluded, 1)
	assert.Equal(t, "Regulatory hard block", out.Excluded[0].Reason)
}

func TestRunIgnoresExclusionsForUnrequestedAssets(t *testing.T) {
	fakes := healthyBots()
	fakes[5].out.Secondary.RegulatoryRisk = &signal.RegulatoryRisk{
		Level:     signal.RiskBlocked,
		Assets:    []string{"TORN"},
		HardBlock: true,
	}
	o := newOrchestrator(t, fakes)

	out, err := o.Run(context.Background(), Request{Assets: []string{"BTC"}})
	require.NoError(t, err)
	assert.Empty(t, out.Excluded)
}

func TestRunSECActionDoesNotExclude(t *testing.T) {
	fakes := healthyBots()
	fakes[5].out.Secondary.RegulatoryRisk = &signal.RegulatoryRisk{
		Level:   signal.RiskHigh,
		Reasons: []string{"XRP is named in an SEC enforcement action"},
		Assets:  []string{"XRP"},
	}
	fakes[5].out.Secondary.EventFlags = []signal.EventFlag{
		{
			Type:      signal.EventRegulatory,
			Severity:  signal.SeverityMedium,
			Confirmed: true,
			Assets:    []string{"XRP"},
		},
	}
	o := newOrchestrator(t, fakes)

	out, err := o.Run(context.Background(), Request{Assets: []string{"XRP"}})
	require.NoError(t, err)

	assert.Empty(t, out.Excluded)
	require.NotNil(t, out.Secondary.RegulatoryRisk)
	assert.Equal(t, signal.RiskHigh, out.Secondary.RegulatoryRisk.Level)
	assert.False(t, out.Secondary.RegulatoryRisk.HardBlock)
	assert.Contains(t, out.Secondary.RegulatoryRisk.Assets, "XRP")
}

func TestRunConfidenceAveraging(t *testing.T) {
	cases := []struct {
		name   string
		levels []signal.Confidence
		want   signal.Confidence
	}{
		{
			name: "boundary_mean_2_5_is_high",
			levels: []signal.Confidence{
				signal.ConfidenceVeryHigh, signal.ConfidenceVeryHigh,
				signal.ConfidenceHigh, signal.ConfidenceHigh,
				signal.ConfidenceMedium, signal.ConfidenceMedium,
				signal.ConfidenceLow, signal.ConfidenceLow,
			},
			want: signal.ConfidenceHigh,
		},
		{
			name: "all_very_high",
			levels: []signal.Confidence{
				signal.ConfidenceVeryHigh, signal.ConfidenceVeryHigh,
				signal.ConfidenceVeryHigh, signal.ConfidenceVeryHigh,
				signal.ConfidenceVeryHigh, signal.ConfidenceVeryHigh,
				signal.ConfidenceVeryHigh, signal.ConfidenceVeryHigh,
			},
			want: signal.ConfidenceVeryHigh,
		},
		{
			name: "all_low",
			levels: []signal.Confidence{
				signal.ConfidenceLow, signal.ConfidenceLow,
				signal.ConfidenceLow, signal.ConfidenceLow,
				signal.ConfidenceLow, signal.ConfidenceLow,
				signal.ConfidenceLow, signal.ConfidenceLow,
			},
			want: signal.ConfidenceLow,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fakes := healthyBots()
			for i, lvl := range tc.levels {
				fakes[i].out.Confidence = lvl
			}
			o := newOrchestrator(t, fakes)

			out, err := o.Run(context.Background(), Request{Assets: []string{"BTC"}})
			require.NoError(t, err)
			assert.Equal(t, tc.want, out.Confidence.Overall)
			assert.Len(t, out.Confidence.PerBot, 8)
		})
	}
}

func TestRunFailedBotsDragConfidenceDown(t *testing.T) {
	fakes := healthyBots()
	for _, f := range fakes {
		f.out.Confidence = signal.ConfidenceVeryHigh
	}
	for i := 0; i < 6; i++ {
		fakes[i].err = errors.New("timeout")
	}
	o := newOrchestrator(t, fakes)

	out, err := o.Run(context.Background(), Request{Assets: []string{"BTC"}})
	require.NoError(t, err)
	// 6 stubs at 1 plus two at 4: mean 14/8 = 1.75, medium
	assert.Equal(t, signal.ConfidenceMedium, out.Confidence.Overall)
}
