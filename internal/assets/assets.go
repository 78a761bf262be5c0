// Package assets is the single shared read-only lookup table for asset
// metadata. Bots never carry their own symbol maps; drift between per-bot
// copies was the failure mode this table exists to prevent.
package assets

import "strings"

// Class buckets drive heuristic defaults: stablecoins get near-zero spread
// and volatility, majors get tighter spreads than long-tail assets.
type Class int

const (
	ClassAlt Class = iota
	ClassMajor
	ClassStablecoin
)

func (c Class) String() string {
	switch c {
	case ClassStablecoin:
		return "stablecoin"
	case ClassMajor:
		return "major"
	default:
		return "alt"
	}
}

// Info describes one known asset.
type Info struct {
	Symbol string
	Name   string
	Class  Class
	Chain  string
}

var table = map[string]Info{
	"BTC":   {Symbol: "BTC", Name: "Bitcoin", Class: ClassMajor, Chain: "bitcoin"},
	"ETH":   {Symbol: "ETH", Name: "Ethereum", Class: ClassMajor, Chain: "ethereum"},
	"USDT":  {Symbol: "USDT", Name: "Tether", Class: ClassStablecoin, Chain: "ethereum"},
	"USDC":  {Symbol: "USDC", Name: "USD Coin", Class: ClassStablecoin, Chain: "ethereum"},
	"DAI":   {Symbol: "DAI", Name: "Dai", Class: ClassStablecoin, Chain: "ethereum"},
	"TUSD":  {Symbol: "TUSD", Name: "TrueUSD", Class: ClassStablecoin, Chain: "ethereum"},
	"SOL":   {Symbol: "SOL", Name: "Solana", Class: ClassAlt, Chain: "solana"},
	"XRP":   {Symbol: "XRP", Name: "XRP", Class: ClassAlt, Chain: "xrpl"},
	"ADA":   {Symbol: "ADA", Name: "Cardano", Class: ClassAlt, Chain: "cardano"},
	"DOGE":  {Symbol: "DOGE", Name: "Dogecoin", Class: ClassAlt, Chain: "dogecoin"},
	"DOT":   {Symbol: "DOT", Name: "Polkadot", Class: ClassAlt, Chain: "polkadot"},
	"MATIC": {Symbol: "MATIC", Name: "Polygon", Class: ClassAlt, Chain: "polygon"},
	"LINK":  {Symbol: "LINK", Name: "Chainlink", Class: ClassAlt, Chain: "ethereum"},
	"AVAX":  {Symbol: "AVAX", Name: "Avalanche", Class: ClassAlt, Chain: "avalanche"},
	"LTC":   {Symbol: "LTC", Name: "Litecoin", Class: ClassAlt, Chain: "litecoin"},
	"BNB":   {Symbol: "BNB", Name: "BNB", Class: ClassAlt, Chain: "bsc"},
	"TORN":  {Symbol: "TORN", Name: "Tornado Cash", Class: ClassAlt, Chain: "ethereum"},
	"XLM":   {Symbol: "XLM", Name: "Stellar", Class: ClassAlt, Chain: "stellar"},
	"UNI":   {Symbol: "UNI", Name: "Uniswap", Class: ClassAlt, Chain: "ethereum"},
	"ATOM":  {Symbol: "ATOM", Name: "Cosmos", Class: ClassAlt, Chain: "cosmos"},
}

// nameIndex maps lowercase display names to symbols for text matching.
var nameIndex = func() map[string]string {
	idx := make(map[string]string, len(table))
	for sym, info := range table {
		idx[strings.ToLower(info.Name)] = sym
	}
	return idx
}()

// Lookup returns metadata for a symbol, case-insensitive.
func Lookup(symbol string) (Info, bool) {
	info, ok := table[strings.ToUpper(symbol)]
	return info, ok
}

// ClassOf returns the asset class, defaulting unknown symbols to long-tail.
func ClassOf(symbol string) Class {
	if info, ok := Lookup(symbol); ok {
		return info.Class
	}
	return ClassAlt
}

// ChainOf returns the asset's home chain, or empty for unknown symbols.
func ChainOf(symbol string) string {
	if info, ok := Lookup(symbol); ok {
		return info.Chain
	}
	return ""
}

// IsStablecoin reports whether the symbol is a known stablecoin.
func IsStablecoin(symbol string) bool {
	return ClassOf(symbol) == ClassStablecoin
}

// FromText extracts known asset symbols mentioned in free text, matching
// either the symbol itself or the display name. Order of first mention is
// preserved and each symbol appears once.
func FromText(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
	seen := make(map[string]bool)
	var found []string
	for _, w := range words {
		sym := ""
		if _, ok := table[strings.ToUpper(w)]; ok {
			sym = strings.ToUpper(w)
		} else if s, ok := nameIndex[w]; ok {
			sym = s
		}
		if sym != "" && !seen[sym] {
			seen[sym] = true
			found = append(found, sym)
		}
	}
	// Multi-word names ("usd coin", "tornado cash") are missed by the word
	// scan; check them against the whole text.
	lower := strings.ToLower(text)
	for name, sym := range nameIndex {
		if strings.Contains(name, " ") && strings.Contains(lower, name) && !seen[sym] {
			seen[sym] = true
			found = append(found, sym)
		}
	}
	return found
}
