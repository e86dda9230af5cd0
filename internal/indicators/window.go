package indicators

import "github.com/shopspring/decimal"

// Window is a fixed-size rolling accumulator. Mean stays undefined until
// the window has seen p samples.
type Window struct {
	p    int
	buf  []decimal.Decimal
	next int
	n    int
	sum  decimal.Decimal
}

func NewWindow(p int) *Window {
	if p <= 0 {
		p = 1
	}
	return &Window{p: p, buf: make([]decimal.Decimal, p)}
}

// Push adds x, evicting the oldest sample once full.
func (w *Window) Push(x decimal.Decimal) {
	if w.n == w.p {
		w.sum = w.sum.Sub(w.buf[w.next])
	} else {
		w.n++
	}
	w.buf[w.next] = x
	w.sum = w.sum.Add(x)
	w.next = (w.next + 1) % w.p
}

func (w *Window) Full() bool { return w.n == w.p }

// Mean over the last p samples; invalid during warmup.
func (w *Window) Mean() decimal.NullDecimal {
	if !w.Full() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(w.sum.Div(decimal.NewFromInt(int64(w.p))))
}
