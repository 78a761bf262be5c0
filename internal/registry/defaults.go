package registry

import "time"

// Default returns the built-in source set used when no config file is given.
// Exchange sources grant core pricing and constraint authority; explorers
// grant constraint authority only; everything else is secondary-signal only.
func Default() *Registry {
	reg, err := New([]Source{
		{
			ID: "kraken", Name: "Kraken", Category: CategoryExchangeMarketData,
			Enabled: true, CostTier: "free",
			Roles:     RoleCorePricing | RoleParetoConstraints | RoleSecondarySignal,
			RateLimit: 15, RateWindow: 10 * time.Second,
			BaseURL: "https://api.kraken.com",
		},
		{
			ID: "binance", Name: "Binance", Category: CategoryExchangeMarketData,
			Enabled: true, CostTier: "free",
			Roles:     RoleCorePricing | RoleParetoConstraints | RoleSecondarySignal,
			RateLimit: 20, RateWindow: time.Second,
			BaseURL: "https://api.binance.com",
		},
		{
			ID: "coingecko", Name: "CoinGecko", Category: CategoryExchangeMarketData,
			Enabled: true, CostTier: "free",
			Roles:     RoleCorePricing | RoleParetoConstraints | RoleSecondarySignal,
			RateLimit: 10, RateWindow: time.Minute,
			BaseURL: "https://api.coingecko.com/api/v3",
		},
		{
			ID: "dexscreener", Name: "DEXScreener", Category: CategoryExchangeMarketData,
			Enabled: true, CostTier: "free",
			Roles:     RoleSecondarySignal, // ticker screening feed, never a pricing input
			RateLimit: 30, RateWindow: time.Minute,
			BaseURL: "https://api.dexscreener.com",
		},
		{
			ID: "etherscan", Name: "Etherscan", Category: CategoryChainExplorer,
			Enabled: true, CostTier: "keyed",
			Roles:     RoleParetoConstraints | RoleSecondarySignal,
			RateLimit: 5, RateWindow: time.Second,
			BaseURL: "https://api.etherscan.io/api", APIKeyEnv: "ETHERSCAN_API_KEY",
		},
		{
			ID: "blockchair", Name: "Blockchair", Category: CategoryChainExplorer,
			Enabled: true, CostTier: "free",
			Roles:     RoleParetoConstraints | RoleSecondarySignal,
			RateLimit: 30, RateWindow: time.Minute,
			BaseURL: "https://api.blockchair.com",
		},
		{
			ID: "coinglass", Name: "Coinglass", Category: CategoryOptionsDerivatives,
			Enabled: true, CostTier: "keyed",
			Roles:     RoleSecondarySignal | RoleContextualBandit,
			RateLimit: 30, RateWindow: time.Minute,
			BaseURL: "https://open-api.coinglass.com", APIKeyEnv: "COINGLASS_API_KEY",
		},
		{
			ID: "deribit", Name: "Deribit Analytics", Category: CategoryOptionsDerivatives,
			Enabled: true, CostTier: "free",
			Roles:     RoleSecondarySignal,
			RateLimit: 20, RateWindow: time.Second,
			BaseURL: "https://www.deribit.com/api/v2",
		},
		{
			ID: "cryptopanic", Name: "CryptoPanic", Category: CategoryNewsMedia,
			Enabled: true, CostTier: "keyed",
			Roles:     RoleSecondarySignal | RoleContextualBandit,
			RateLimit: 5, RateWindow: time.Second,
			BaseURL: "https://cryptopanic.com/api/v1", APIKeyEnv: "CRYPTOPANIC_API_KEY",
		},
		{
			ID: "newsfeed", Name: "Crypto News Aggregator", Category: CategoryNewsMedia,
			Enabled: true, CostTier: "free",
			Roles:     RoleSecondarySignal,
			RateLimit: 10, RateWindow: time.Minute,
			BaseURL: "https://api.cryptonewsfeed.example.com",
		},
		{
			ID: "ofac_sdn", Name: "OFAC SDN List", Category: CategoryRegulatory,
			Enabled: true, CostTier: "free",
			Roles:     RoleSecondarySignal,
			RateLimit: 2, RateWindow: time.Minute,
			BaseURL: "https://sanctionslist.ofac.treas.gov",
		},
		{
			ID: "whale_alert", Name: "Whale Alert", Category: CategoryWhaleTracking,
			Enabled: true, CostTier: "keyed",
			Roles:     RoleSecondarySignal,
			RateLimit: 10, RateWindow: time.Minute,
			BaseURL: "https://api.whale-alert.io/v1", APIKeyEnv: "WHALE_ALERT_API_KEY",
		},
	})
	if err != nil {
		panic(err) // defaults are compiled in, a bad set is a build defect
	}
	return reg
}
