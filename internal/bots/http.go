package bots

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/signalmesh/signalmesh/internal/httpx"
	"github.com/signalmesh/signalmesh/internal/registry"
)

// Fetchers bundles the production fetcher implementations.
type Fetchers struct {
	Quotes   QuoteFetcher
	Books    BookFetcher
	Chains   ChainFetcher
	Derivs   DerivFetcher
	Articles ArticleFetcher
	Whales   WhaleFetcher
	Lists    ListFetcher
}

// HTTPFetchers builds fetchers that call each source's REST endpoint through
// the shared bounded client. Sources requiring an API key send it as a
// header; the bot layer never calls a keyed source without a key.
func HTTPFetchers(client *httpx.Client, keys map[string]string) Fetchers {
	return Fetchers{
		Quotes:   httpQuotes(client, keys),
		Books:    httpBooks(client, keys),
		Chains:   httpChains(client, keys),
		Derivs:   httpDerivs(client, keys),
		Articles: httpArticles(client, keys),
		Whales:   httpWhales(client, keys),
		Lists:    httpLists(client, keys),
	}
}

func keyHeaders(src registry.Source, keys map[string]string) map[string]string {
	if src.APIKeyEnv == "" {
		return nil
	}
	key := keys[src.APIKeyEnv]
	if key == "" {
		return nil
	}
	return map[string]string{"X-API-Key": key}
}

func endpoint(src registry.Source, path string) string {
	return strings.TrimRight(src.BaseURL, "/") + path
}

func httpQuotes(client *httpx.Client, keys map[string]string) QuoteFetcher {
	return func(ctx context.Context, src registry.Source, symbols []string) ([]Quote, error) {
		var resp struct {
			Markets []struct {
				Symbol         string  `json:"symbol"`
				Price          float64 `json:"price"`
				Volume24hUSD   float64 `json:"volume_24h_usd"`
				SpreadPct      float64 `json:"spread_pct"`
				ChangePct24h   float64 `json:"change_pct_24h"`
				VolumeRatio24h float64 `json:"volume_ratio_24h"`
			} `json:"markets"`
		}
		params := url.Values{"symbols": {strings.Join(symbols, ",")}}
		if err := client.GetJSON(ctx, endpoint(src, "/v1/markets"), params, keyHeaders(src, keys), &resp); err != nil {
			return nil, err
		}
		quotes := make([]Quote, 0, len(resp.Markets))
		for _, m := range resp.Markets {
			quotes = append(quotes, Quote{
				Source:         src.ID,
				Asset:          strings.ToUpper(m.Symbol),
				Price:          m.Price,
				Volume24hUSD:   m.Volume24hUSD,
				SpreadPct:      m.SpreadPct,
				ChangePct24h:   m.ChangePct24h,
				VolumeRatio24h: m.VolumeRatio24h,
			})
		}
		return quotes, nil
	}
}

func httpBooks(client *httpx.Client, keys map[string]string) BookFetcher {
	return func(ctx context.Context, src registry.Source, symbols []string, notionalUSD float64) ([]BookStats, error) {
		var resp struct {
			Books []struct {
				Symbol       string  `json:"symbol"`
				SpreadPct    float64 `json:"spread_pct"`
				DepthUSD     float64 `json:"depth_usd"`
				SlippagePct  float64 `json:"slippage_pct"`
				Volume24hUSD float64 `json:"volume_24h_usd"`
			} `json:"books"`
		}
		params := url.Values{
			"symbols":  {strings.Join(symbols, ",")},
			"notional": {fmt.Sprintf("%.0f", notionalUSD)},
		}
		if err := client.GetJSON(ctx, endpoint(src, "/v1/orderbook/summary"), params, keyHeaders(src, keys), &resp); err != nil {
			return nil, err
		}
		books := make([]BookStats, 0, len(resp.Books))
		for _, b := range resp.Books {
			books = append(books, BookStats{
				Source:       src.ID,
				Asset:        strings.ToUpper(b.Symbol),
				SpreadPct:    b.SpreadPct,
				DepthUSD:     b.DepthUSD,
				SlippagePct:  b.SlippagePct,
				Volume24hUSD: b.Volume24hUSD,
			})
		}
		return books, nil
	}
}

func httpChains(client *httpx.Client, keys map[string]string) ChainFetcher {
	return func(ctx context.Context, src registry.Source, chains []string) ([]ChainStatus, error) {
		var resp struct {
			Chains []struct {
				Chain       string  `json:"chain"`
				FeeUSD      float64 `json:"fee_usd"`
				Congestion  string  `json:"congestion"`
				FailureRate float64 `json:"failure_rate"`
			} `json:"chains"`
		}
		params := url.Values{"chains": {strings.Join(chains, ",")}}
		if err := client.GetJSON(ctx, endpoint(src, "/v1/chains/status"), params, keyHeaders(src, keys), &resp); err != nil {
			return nil, err
		}
		statuses := make([]ChainStatus, 0, len(resp.Chains))
		for _, c := range resp.Chains {
			statuses = append(statuses, ChainStatus{
				Source:      src.ID,
				Chain:       strings.ToLower(c.Chain),
				FeeUSD:      c.FeeUSD,
				Congestion:  strings.ToLower(c.Congestion),
				FailureRate: c.FailureRate,
			})
		}
		return statuses, nil
	}
}

func httpDerivs(client *httpx.Client, keys map[string]string) DerivFetcher {
	return func(ctx context.Context, src registry.Source, symbols []string) ([]DerivStats, error) {
		var resp struct {
			Stats []struct {
				Symbol          string  `json:"symbol"`
				FundingRatePct  float64 `json:"funding_rate_pct"`
				OpenInterestUSD float64 `json:"open_interest_usd"`
				LiquidationsUSD float64 `json:"liquidations_24h_usd"`
				ImpliedVolPct   float64 `json:"implied_vol_pct"`
			} `json:"stats"`
		}
		params := url.Values{"symbols": {strings.Join(symbols, ",")}}
		if err := client.GetJSON(ctx, endpoint(src, "/v1/derivatives"), params, keyHeaders(src, keys), &resp); err != nil {
			return nil, err
		}
		stats := make([]DerivStats, 0, len(resp.Stats))
		for _, s := range resp.Stats {
			stats = append(stats, DerivStats{
				Source:          src.ID,
				Asset:           strings.ToUpper(s.Symbol),
				FundingRatePct:  s.FundingRatePct,
				OpenInterestUSD: s.OpenInterestUSD,
				LiquidationsUSD: s.LiquidationsUSD,
				ImpliedVolPct:   s.ImpliedVolPct,
			})
		}
		return stats, nil
	}
}

func httpArticles(client *httpx.Client, keys map[string]string) ArticleFetcher {
	return func(ctx context.Context, src registry.Source, symbols []string, lookback time.Duration) ([]Article, error) {
		var resp struct {
			Articles []struct {
				Title       string    `json:"title"`
				Body        string    `json:"body"`
				PublishedAt time.Time `json:"published_at"`
			} `json:"articles"`
		}
		params := url.Values{
			"assets": {strings.Join(symbols, ",")},
			"hours":  {fmt.Sprintf("%.0f", lookback.Hours())},
		}
		if err := client.GetJSON(ctx, endpoint(src, "/v1/news"), params, keyHeaders(src, keys), &resp); err != nil {
			return nil, err
		}
		articles := make([]Article, 0, len(resp.Articles))
		for _, a := range resp.Articles {
			articles = append(articles, Article{
				Source:      src.ID,
				Title:       a.Title,
				Body:        a.Body,
				PublishedAt: a.PublishedAt,
			})
		}
		return articles, nil
	}
}

func httpWhales(client *httpx.Client, keys map[string]string) WhaleFetcher {
	return func(ctx context.Context, src registry.Source, symbols []string, lookback time.Duration) ([]WhaleTransfer, error) {
		var resp struct {
			Transfers []struct {
				Symbol    string    `json:"symbol"`
				Direction string    `json:"direction"`
				Amount    float64   `json:"amount"`
				AmountUSD float64   `json:"amount_usd"`
				Timestamp time.Time `json:"timestamp"`
			} `json:"transfers"`
		}
		params := url.Values{
			"assets": {strings.Join(symbols, ",")},
			"hours":  {fmt.Sprintf("%.0f", lookback.Hours())},
		}
		if err := client.GetJSON(ctx, endpoint(src, "/v1/transfers"), params, keyHeaders(src, keys), &resp); err != nil {
			return nil, err
		}
		transfers := make([]WhaleTransfer, 0, len(resp.Transfers))
		for _, tr := range resp.Transfers {
			transfers = append(transfers, WhaleTransfer{
				Source:    src.ID,
				Asset:     strings.ToUpper(tr.Symbol),
				Direction: strings.ToLower(tr.Direction),
				Amount:    tr.Amount,
				AmountUSD: tr.AmountUSD,
				Timestamp: tr.Timestamp,
			})
		}
		return transfers, nil
	}
}

func httpLists(client *httpx.Client, keys map[string]string) ListFetcher {
	return func(ctx context.Context, src registry.Source) (RegLists, error) {
		var resp struct {
			Sanctioned []string `json:"sanctioned"`
			SECActions []string `json:"sec_actions"`
		}
		if err := client.GetJSON(ctx, endpoint(src, "/v1/lists"), nil, keyHeaders(src, keys), &resp); err != nil {
			return RegLists{}, err
		}
		return RegLists{Source: src.ID, Sanctioned: resp.Sanctioned, SECActions: resp.SECActions}, nil
	}
}
