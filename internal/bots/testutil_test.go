package bots

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/signalmesh/signalmesh/internal/registry"
)

// testRegistry is a compact source set covering every category, keyless so no
// source is skipped.
func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	window := time.Second
	pricing := registry.RoleCorePricing | registry.RoleParetoConstraints | registry.RoleSecondarySignal
	reg, err := registry.New([]registry.Source{
		{ID: "kraken", Category: registry.CategoryExchangeMarketData, Enabled: true, Roles: pricing, RateLimit: 100, RateWindow: window},
		{ID: "binance", Category: registry.CategoryExchangeMarketData, Enabled: true, Roles: pricing, RateLimit: 100, RateWindow: window},
		{ID: "coingecko", Category: registry.CategoryExchangeMarketData, Enabled: true, Roles: pricing, RateLimit: 100, RateWindow: window},
		{ID: "dexscreener", Category: registry.CategoryExchangeMarketData, Enabled: true, Roles: registry.RoleSecondarySignal, RateLimit: 100, RateWindow: window},
		{ID: "etherscan", Category: registry.CategoryChainExplorer, Enabled: true, Roles: registry.RoleParetoConstraints | registry.RoleSecondarySignal, RateLimit: 100, RateWindow: window},
		{ID: "blockchair", Category: registry.CategoryChainExplorer, Enabled: true, Roles: registry.RoleParetoConstraints | registry.RoleSecondarySignal, RateLimit: 100, RateWindow: window},
		{ID: "coinglass", Category: registry.CategoryOptionsDerivatives, Enabled: true, Roles: registry.RoleSecondarySignal, RateLimit: 100, RateWindow: window},
		{ID: "deribit", Category: registry.CategoryOptionsDerivatives, Enabled: true, Roles: registry.RoleSecondarySignal, RateLimit: 100, RateWindow: window},
		{ID: "cryptopanic", Category: registry.CategoryNewsMedia, Enabled: true, Roles: registry.RoleSecondarySignal, RateLimit: 100, RateWindow: window},
		{ID: "ofac_sdn", Category: registry.CategoryRegulatory, Enabled: true, Roles: registry.RoleSecondarySignal, RateLimit: 100, RateWindow: window},
		{ID: "whale_alert", Category: registry.CategoryWhaleTracking, Enabled: true, Roles: registry.RoleSecondarySignal, RateLimit: 100, RateWindow: window},
	})
	require.NoError(t, err)
	return reg
}

// testDeps uses in-process defaults for every service.
func testDeps() Deps { return Deps{} }
