package market

import (
	"time"

	"github.com/shopspring/decimal"

	"dipwatch/internal/types"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func nd(s string) decimal.NullDecimal { return decimal.NewNullDecimal(d(s)) }

// history builds hourly candles from closes; NaN-like gaps are passed as "".
func history(closes ...string) []types.Candle {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]types.Candle, len(closes))
	for i, c := range closes {
		out[i] = types.Candle{T: t0.Add(time.Duration(i) * time.Hour)}
		if c != "" {
			out[i].C = nd(c)
		}
	}
	return out
}

// oversold: 30 closes, last equals the window low, RSI(14) ≈ 20.
func oversold() []types.Candle {
	closes := make([]string, 0, 30)
	for i := 0; i < 16; i++ {
		closes = append(closes, "100")
	}
	closes = append(closes, "101", "99", "100", "98", "96", "94")
	for len(closes) < 30 {
		closes = append(closes, "94")
	}
	return history(closes...)
}
