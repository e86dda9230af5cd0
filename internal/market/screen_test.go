package market

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestPassesBoundaries(t *testing.T) {
	th := DefaultThresholds()
	cases := []struct {
		name string
		pct  string
		rsi  decimal.NullDecimal
		want bool
	}{
		{"inside", "1.5", nd("20"), true},
		{"pct at threshold is included", "3", nd("20"), true},
		{"pct just above", "3.0001", nd("20"), false},
		{"rsi at ceiling is excluded", "1", nd("35"), false},
		{"rsi just below ceiling", "1", nd("34.9999"), true},
		{"rsi undefined", "0", decimal.NullDecimal{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, reason := Passes(d(tc.pct), tc.rsi, th)
			if got != tc.want {
				t.Fatalf("Passes(%s, %+v) = %v (%s) want %v", tc.pct, tc.rsi, got, reason, tc.want)
			}
			if !got && reason == "" {
				t.Fatal("rejection must carry a reason")
			}
		})
	}
}

func TestPctAboveLowExactAtThreshold(t *testing.T) {
	got := PctAboveLow(d("103"), d("100"))
	if !got.Equal(d("3")) {
		t.Fatalf("expected exactly 3, got %s", got)
	}
	if ok, _ := Passes(got, nd("10"), DefaultThresholds()); !ok {
		t.Fatal("pct == NEAR_LOW_PCT must pass")
	}
}

func TestPctAboveLowNeverNegative(t *testing.T) {
	hist := history("5", "3", "9", "4", "7", "3.5", "12", "2", "8")
	low, ok := WindowLow(hist)
	if !ok {
		t.Fatal("expected a low")
	}
	for _, c := range hist {
		if c.C.Decimal.LessThan(low) {
			t.Fatalf("close %s below window low %s", c.C.Decimal, low)
		}
		if PctAboveLow(c.C.Decimal, low).IsNegative() {
			t.Fatalf("negative pct for %s", c.C.Decimal)
		}
	}
}

func TestEvaluateOversoldNearLow(t *testing.T) {
	snap := Snapshot{Market: "B-EUR", Volume24h: nd("1200")}
	c, ok, reason := Evaluate(snap, oversold(), DefaultThresholds())
	if !ok {
		t.Fatalf("expected candidate, rejected: %s", reason)
	}
	if c.Market != "B-EUR" || !c.Last.Equal(d("94")) || !c.WindowLow.Equal(d("94")) {
		t.Fatalf("unexpected candidate: %+v", c)
	}
	if !c.PctAboveLow.IsZero() {
		t.Fatalf("pct should be 0, got %s", c.PctAboveLow)
	}
	if r := c.RSI.InexactFloat64(); r < 19.99 || r > 20.01 {
		t.Fatalf("rsi ≈ 20 expected, got %v", r)
	}
	if !c.Volume24h.Valid || !c.Volume24h.Decimal.Equal(d("1200")) {
		t.Fatalf("volume not carried: %+v", c.Volume24h)
	}
}

func TestEvaluateRisingIsRejected(t *testing.T) {
	closes := make([]string, 30)
	for i := range closes {
		closes[i] = decimal.NewFromInt(int64(100 + i)).String()
	}
	if _, ok, _ := Evaluate(Snapshot{Market: "A-EUR"}, history(closes...), DefaultThresholds()); ok {
		t.Fatal("rising market must not be a candidate")
	}
}

func TestEvaluateDegenerateHistory(t *testing.T) {
	th := DefaultThresholds()
	if _, ok, reason := Evaluate(Snapshot{Market: "C-EUR"}, nil, th); ok || reason == "" {
		t.Fatal("empty history must be skipped with a reason")
	}
	if _, ok, _ := Evaluate(Snapshot{Market: "C-EUR"}, history("", "", ""), th); ok {
		t.Fatal("all-undefined closes must be skipped")
	}
	if _, ok, _ := Evaluate(Snapshot{Market: "C-EUR"}, history("1", "2", "3"), th); ok {
		t.Fatal("short history has undefined rsi and must be skipped")
	}
	h := oversold()
	h[len(h)-1].C.Valid = false
	if _, ok, _ := Evaluate(Snapshot{Market: "C-EUR"}, h, th); ok {
		t.Fatal("undefined last close must be skipped")
	}
}
