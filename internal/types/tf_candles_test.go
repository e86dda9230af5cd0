package types

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func mkAt(sec int64, c float64) Candle {
	return Candle{T: time.Unix(sec, 0).UTC(), C: decimal.NewNullDecimal(decimal.NewFromFloat(c))}
}

func TestParseTF(t *testing.T) {
	cases := map[string]TF{"1h": TF1h, "H1": TF1h, "15m": TF15m, "day": TF1d, "12h": TF12h}
	for in, want := range cases {
		got, ok := ParseTF(in)
		if !ok || got != want {
			t.Fatalf("ParseTF(%q) = %q,%v want %q", in, got, ok, want)
		}
	}
	if _, ok := ParseTF("3h"); ok {
		t.Fatal("3h should not parse")
	}
	if TF1h.Duration() != time.Hour {
		t.Fatalf("1h duration: %v", TF1h.Duration())
	}
}

func TestEnsureSortedAndDedupe(t *testing.T) {
	in := []Candle{mkAt(3, 3), mkAt(1, 1), mkAt(2, 2), mkAt(2, 2)}
	out := Dedupe(EnsureSorted(in))
	if len(out) != 3 {
		t.Fatalf("expected 3 candles got %d", len(out))
	}
	for i := 1; i < len(out); i++ {
		if !out[i].T.After(out[i-1].T) {
			t.Fatalf("not strictly ascending at %d", i)
		}
	}
	if in[0].T.Unix() != 3 {
		t.Fatal("EnsureSorted must not reorder its input")
	}
}

func TestClosesKeepsUndefined(t *testing.T) {
	cs := []Candle{mkAt(1, 10), {T: time.Unix(2, 0)}, mkAt(3, 12)}
	cl := Closes(cs)
	if len(cl) != 3 || cl[1].Valid || !cl[2].Valid {
		t.Fatalf("unexpected closes: %+v", cl)
	}
}
