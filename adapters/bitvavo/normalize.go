package bitvavo

import "strings"

// SplitMarket converts "BTC-EUR" -> ("BTC", "EUR").
func SplitMarket(market string) (base, quote string, ok bool) {
	base, quote, ok = strings.Cut(market, "-")
	if !ok || base == "" || quote == "" {
		return "", "", false
	}
	return base, quote, true
}

// HasQuote reports whether the market settles in quote (case-insensitive).
func HasQuote(market, quote string) bool {
	_, q, ok := SplitMarket(market)
	return ok && strings.EqualFold(q, quote)
}
