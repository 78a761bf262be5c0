package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfidenceScoreRoundTrip(t *testing.T) {
	for _, c := range []Confidence{ConfidenceLow, ConfidenceMedium, ConfidenceHigh, ConfidenceVeryHigh} {
		assert.Equal(t, c, ConfidenceFromScore(float64(c.Score())))
	}
}

func TestConfidenceFromScoreBoundariesAreInclusive(t *testing.T) {
	assert.Equal(t, ConfidenceVeryHigh, ConfidenceFromScore(3.5))
	assert.Equal(t, ConfidenceHigh, ConfidenceFromScore(3.49))
	assert.Equal(t, ConfidenceHigh, ConfidenceFromScore(2.5))
	assert.Equal(t, ConfidenceMedium, ConfidenceFromScore(2.49))
	assert.Equal(t, ConfidenceMedium, ConfidenceFromScore(1.5))
	assert.Equal(t, ConfidenceLow, ConfidenceFromScore(1.49))
}

func TestConfidenceFromSourceCount(t *testing.T) {
	assert.Equal(t, ConfidenceLow, ConfidenceFromSourceCount(0))
	assert.Equal(t, ConfidenceMedium, ConfidenceFromSourceCount(1))
	assert.Equal(t, ConfidenceHigh, ConfidenceFromSourceCount(2))
	assert.Equal(t, ConfidenceVeryHigh, ConfidenceFromSourceCount(3))
	assert.Equal(t, ConfidenceVeryHigh, ConfidenceFromSourceCount(7))
}

func TestEventFlagDedupKeyIsOrderInsensitive(t *testing.T) {
	a := EventFlag{Type: EventExploit, Assets: []string{"ETH", "BTC"}}
	b := EventFlag{Type: EventExploit, Assets: []string{"BTC", "ETH"}}
	assert.Equal(t, a.DedupKey(), b.DedupKey())

	c := EventFlag{Type: EventOutage, Assets: []string{"BTC", "ETH"}}
	assert.NotEqual(t, a.DedupKey(), c.DedupKey())
}
