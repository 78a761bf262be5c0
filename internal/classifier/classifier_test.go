package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalmesh/signalmesh/internal/signal"
)

func TestClassifyExploit(t *testing.T) {
	c := New()
	cls, ok := c.Classify(
		"Ethereum bridge hacked, $120 million drained",
		"The team confirmed the exploit in an official statement. ETH fell sharply.",
	)
	require.True(t, ok)
	assert.Equal(t, signal.EventExploit, cls.Type)
	assert.Equal(t, signal.SeverityHigh, cls.Severity)
	assert.True(t, cls.Confirmed, "official confirmation language present")
	assert.Contains(t, cls.Assets, "ETH")
	assert.Equal(t, "negative", cls.Sentiment)
}

func TestClassifyRumorStaysUnconfirmed(t *testing.T) {
	c := New()
	cls, ok := c.Classify(
		"Rumor: exchange allegedly insolvent",
		"Unconfirmed reports suggest withdrawals frozen. Bitcoin holders concerned.",
	)
	require.True(t, ok)
	assert.Equal(t, signal.EventInsolvency, cls.Type)
	assert.False(t, cls.Confirmed, "rumor language must keep the conservative default")
	assert.Contains(t, cls.Assets, "BTC", "display name matching")
}

func TestClassifyRegulatory(t *testing.T) {
	c := New()
	cls, ok := c.Classify("SEC files lawsuit over XRP sales", "The regulator announced the enforcement action.")
	require.True(t, ok)
	assert.Equal(t, signal.EventRegulatory, cls.Type)
	assert.Equal(t, signal.SeverityMedium, cls.Severity)
	assert.Contains(t, cls.Assets, "XRP")
}

func TestClassifyDownplayedOutage(t *testing.T) {
	c := New()
	cls, ok := c.Classify("Solana suffers brief outage", "A minor degraded service window affected SOL transactions.")
	require.True(t, ok)
	assert.Equal(t, signal.EventOutage, cls.Type)
	assert.Equal(t, signal.SeverityLow, cls.Severity)
}

func TestClassifyUnrelatedTextRejected(t *testing.T) {
	c := New()
	_, ok := c.Classify("Market update", "Prices moved sideways today with low volume.")
	assert.False(t, ok)
}

func TestSentimentPositive(t *testing.T) {
	c := New()
	assert.Equal(t, "positive", c.Sentiment("etf approval drives record high and strong inflow"))
	assert.Equal(t, "neutral", c.Sentiment("prices unchanged"))
}
