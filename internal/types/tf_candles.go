// dipwatch/internal/types/tf_candles.go
package types

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ---- Intervals ----

type TF string

const (
	TF1m  TF = "1m"
	TF5m  TF = "5m"
	TF15m TF = "15m"
	TF30m TF = "30m"
	TF1h  TF = "1h"
	TF2h  TF = "2h"
	TF4h  TF = "4h"
	TF6h  TF = "6h"
	TF8h  TF = "8h"
	TF12h TF = "12h"
	TF1d  TF = "1d"
)

func (tf TF) String() string { return string(tf) }

func ParseTF(s string) (TF, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1m", "m1":
		return TF1m, true
	case "5m", "m5":
		return TF5m, true
	case "15m", "m15":
		return TF15m, true
	case "30m", "m30":
		return TF30m, true
	case "1h", "h1":
		return TF1h, true
	case "2h", "h2":
		return TF2h, true
	case "4h", "h4":
		return TF4h, true
	case "6h", "h6":
		return TF6h, true
	case "8h", "h8":
		return TF8h, true
	case "12h", "h12":
		return TF12h, true
	case "1d", "d1", "1day", "day":
		return TF1d, true
	default:
		return TF(""), false
	}
}

func (tf TF) Duration() time.Duration {
	switch tf {
	case TF1m:
		return time.Minute
	case TF5m:
		return 5 * time.Minute
	case TF15m:
		return 15 * time.Minute
	case TF30m:
		return 30 * time.Minute
	case TF1h:
		return time.Hour
	case TF2h:
		return 2 * time.Hour
	case TF4h:
		return 4 * time.Hour
	case TF6h:
		return 6 * time.Hour
	case TF8h:
		return 8 * time.Hour
	case TF12h:
		return 12 * time.Hour
	case TF1d:
		return 24 * time.Hour
	default:
		return 0
	}
}

// ---- Candle types ----

// Candle is one OHLCV interval. Any price or volume field may be undefined
// when the upstream row carried a non-numeric value.
type Candle struct {
	T time.Time           `json:"t"`
	O decimal.NullDecimal `json:"o"`
	H decimal.NullDecimal `json:"h"`
	L decimal.NullDecimal `json:"l"`
	C decimal.NullDecimal `json:"c"`
	V decimal.NullDecimal `json:"v"`
}

// EnsureSorted returns a copy sorted by time (ascending) if needed.
func EnsureSorted(cs []Candle) []Candle {
	if len(cs) < 2 {
		return cs
	}
	sorted := true
	for i := 1; i < len(cs); i++ {
		if cs[i].T.Before(cs[i-1].T) {
			sorted = false
			break
		}
	}
	if sorted {
		return cs
	}
	out := make([]Candle, len(cs))
	copy(out, cs)
	for i := 1; i < len(out); i++ {
		j := i
		for j > 0 && out[j].T.Before(out[j-1].T) {
			out[j], out[j-1] = out[j-1], out[j]
			j--
		}
	}
	return out
}

// Dedupe drops candles whose timestamp equals the previous one. Input must be sorted.
func Dedupe(cs []Candle) []Candle {
	if len(cs) < 2 {
		return cs
	}
	out := cs[:1]
	for _, c := range cs[1:] {
		if c.T.Equal(out[len(out)-1].T) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Closes extracts the close series, keeping undefined entries in place.
func Closes(cs []Candle) []decimal.NullDecimal {
	out := make([]decimal.NullDecimal, len(cs))
	for i, c := range cs {
		out[i] = c.C
	}
	return out
}
