package bitvavo

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// flexDecimal accepts quoted or bare numbers; anything else (null, "",
// garbage) decodes as undefined instead of failing the whole payload.
type flexDecimal struct {
	decimal.NullDecimal
}

func (f *flexDecimal) UnmarshalJSON(b []byte) error {
	f.NullDecimal = parseNumber(b)
	return nil
}

func parseNumber(b []byte) decimal.NullDecimal {
	b = bytes.Trim(bytes.TrimSpace(b), `"`)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return decimal.NullDecimal{}
	}
	v, err := decimal.NewFromString(string(b))
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(v)
}

// /ticker/24h row
type tickerStats struct {
	Market      string      `json:"market"`
	Open        flexDecimal `json:"open"`
	High        flexDecimal `json:"high"`
	Low         flexDecimal `json:"low"`
	Last        flexDecimal `json:"last"`
	Volume      flexDecimal `json:"volume"`
	VolumeQuote flexDecimal `json:"volumeQuote"`
	Timestamp   int64       `json:"timestamp"`
}

// /{market}/candles rows: [timestamp, "open", "high", "low", "close", "volume"]
type candleRows [][]json.RawMessage
