package assets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupIsCaseInsensitive(t *testing.T) {
	info, ok := Lookup("btc")
	require.True(t, ok)
	assert.Equal(t, "BTC", info.Symbol)
	assert.Equal(t, ClassMajor, info.Class)
	assert.Equal(t, "bitcoin", info.Chain)

	_, ok = Lookup("NOPE")
	assert.False(t, ok)
}

func TestClassOfDefaultsToAlt(t *testing.T) {
	assert.Equal(t, ClassStablecoin, ClassOf("USDC"))
	assert.Equal(t, ClassMajor, ClassOf("ETH"))
	assert.Equal(t, ClassAlt, ClassOf("SOL"))
	assert.Equal(t, ClassAlt, ClassOf("UNKNOWN"))
}

func TestIsStablecoin(t *testing.T) {
	assert.True(t, IsStablecoin("usdt"))
	assert.True(t, IsStablecoin("DAI"))
	assert.False(t, IsStablecoin("BTC"))
}

func TestChainOf(t *testing.T) {
	assert.Equal(t, "solana", ChainOf("SOL"))
	assert.Equal(t, "", ChainOf("UNKNOWN"))
}

func TestFromTextMatchesSymbolsAndNames(t *testing.T) {
	found := FromText("Bitcoin and ETH rally while Solana stalls")
	assert.Equal(t, []string{"BTC", "ETH", "SOL"}, found)
}

func TestFromTextMatchesMultiWordNames(t *testing.T) {
	found := FromText("Treasury sanctions Tornado Cash mixer")
	assert.Contains(t, found, "TORN")
}

func TestFromTextDeduplicates(t *testing.T) {
	found := FromText("BTC btc Bitcoin")
	assert.Equal(t, []string{"BTC"}, found)
}
