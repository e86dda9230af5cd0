package market

import (
	"fmt"

	"github.com/shopspring/decimal"

	"dipwatch/internal/indicators"
	"dipwatch/internal/types"
)

var hundred = decimal.NewFromInt(100)

// Passes applies the screening predicate: near-low is inclusive, the
// oscillator ceiling is exclusive and an undefined oscillator never passes.
func Passes(pctAboveLow decimal.Decimal, rsi decimal.NullDecimal, th Thresholds) (bool, string) {
	if !rsi.Valid {
		return false, "rsi undefined"
	}
	if pctAboveLow.GreaterThan(th.NearLowPct) {
		return false, fmt.Sprintf("%s%% above low > %s%%", pctAboveLow.StringFixed(2), th.NearLowPct)
	}
	if !rsi.Decimal.LessThan(th.RSIMax) {
		return false, fmt.Sprintf("rsi %s >= %s", rsi.Decimal.StringFixed(1), th.RSIMax)
	}
	return true, ""
}

// WindowLow returns the minimum defined close.
func WindowLow(history []types.Candle) (decimal.Decimal, bool) {
	var low decimal.Decimal
	found := false
	for _, c := range history {
		if !c.C.Valid {
			continue
		}
		if !found || c.C.Decimal.LessThan(low) {
			low, found = c.C.Decimal, true
		}
	}
	return low, found
}

// PctAboveLow is (last-low)/max(low, eps)*100.
func PctAboveLow(last, low decimal.Decimal) decimal.Decimal {
	den := decimal.Max(low, indicators.Epsilon)
	return last.Sub(low).Div(den).Mul(hundred)
}

// Evaluate screens one market's history. Missing or degenerate data is a
// skip (ok=false with a reason), never an error.
func Evaluate(s Snapshot, history []types.Candle, th Thresholds) (Candidate, bool, string) {
	if len(history) == 0 {
		return Candidate{}, false, "no candles"
	}
	low, found := WindowLow(history)
	if !found {
		return Candidate{}, false, "no defined closes"
	}
	lastC := history[len(history)-1].C
	if !lastC.Valid {
		return Candidate{}, false, "last close undefined"
	}
	last := lastC.Decimal
	pct := PctAboveLow(last, low)

	period := th.RSIPeriod
	if period <= 0 {
		period = indicators.DefaultRSIPeriod
	}
	rsi := indicators.LastRSI(types.Closes(history), period)

	if ok, reason := Passes(pct, rsi, th); !ok {
		return Candidate{}, false, reason
	}
	return Candidate{
		Market:      s.Market,
		Last:        last,
		WindowLow:   low,
		RSI:         rsi.Decimal,
		Volume24h:   s.Volume24h,
		PctAboveLow: pct,
	}, true, ""
}
