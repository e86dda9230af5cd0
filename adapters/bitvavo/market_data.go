package bitvavo

import (
	"context"

	"github.com/shopspring/decimal"

	"dipwatch/internal/market"
)

var hundred = decimal.NewFromInt(100)

// toSnapshot maps a raw ticker row; the 24h change is derived from open/last
// because the endpoint does not report it.
func toSnapshot(exchange string, ts tickerStats) market.Snapshot {
	s := market.Snapshot{
		Exchange:  exchange,
		Market:    ts.Market,
		Last:      ts.Last.NullDecimal,
		High24h:   ts.High.NullDecimal,
		Low24h:    ts.Low.NullDecimal,
		Volume24h: ts.Volume.NullDecimal,
	}
	if ts.Open.Valid && ts.Last.Valid {
		chg := ts.Last.Decimal.Sub(ts.Open.Decimal)
		s.Change24h = decimal.NewNullDecimal(chg)
		if !ts.Open.Decimal.IsZero() {
			s.Change24hPc = decimal.NewNullDecimal(chg.Div(ts.Open.Decimal).Mul(hundred))
		}
	}
	return s
}

// FetchMarkets lists every market settling in the client's quote currency.
func (c *Client) FetchMarkets(ctx context.Context) ([]market.Snapshot, error) {
	var rows []tickerStats
	if err := c.fetchJSON(ctx, "/ticker/24h", nil, &rows); err != nil {
		return nil, err
	}
	out := make([]market.Snapshot, 0, len(rows))
	for _, ts := range rows {
		if !HasQuote(ts.Market, c.Quote) {
			continue
		}
		out = append(out, toSnapshot(c.Name(), ts))
	}
	return out, nil
}
