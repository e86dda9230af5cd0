package indicators

import "github.com/shopspring/decimal"

const DefaultRSIPeriod = 14

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)

	// Epsilon keeps the gain/loss ratio finite when the loss window is all zero.
	Epsilon = decimal.New(1, -12)
)

// RSI computes the relative-strength oscillator over a strict rolling window
// (simple moving average of gains and losses, no Wilder smoothing).
// Output is aligned to closes; the first `period` entries are undefined.
// A difference touching an undefined close counts as neither gain nor loss.
func RSI(closes []decimal.NullDecimal, period int) []decimal.NullDecimal {
	if period <= 0 {
		return nil
	}
	out := make([]decimal.NullDecimal, len(closes))
	gains, losses := NewWindow(period), NewWindow(period)

	for i := 1; i < len(closes); i++ {
		up, down := decimal.Zero, decimal.Zero
		if closes[i].Valid && closes[i-1].Valid {
			d := closes[i].Decimal.Sub(closes[i-1].Decimal)
			if d.IsPositive() {
				up = d
			} else if d.IsNegative() {
				down = d.Neg()
			}
		}
		gains.Push(up)
		losses.Push(down)

		avgGain, avgLoss := gains.Mean(), losses.Mean()
		if !avgGain.Valid || !avgLoss.Valid {
			continue
		}
		rs := avgGain.Decimal.Div(avgLoss.Decimal.Add(Epsilon))
		out[i] = decimal.NewNullDecimal(hundred.Sub(hundred.Div(one.Add(rs))))
	}
	return out
}

// LastRSI returns the most recent oscillator value, undefined if there is
// not enough history.
func LastRSI(closes []decimal.NullDecimal, period int) decimal.NullDecimal {
	r := RSI(closes, period)
	if len(r) == 0 {
		return decimal.NullDecimal{}
	}
	return r[len(r)-1]
}
