package market

import "github.com/shopspring/decimal"

// Snapshot is one listed market as reported by the 24h ticker. Numeric
// fields are undefined when the exchange sent nothing parseable.
type Snapshot struct {
	Exchange    string
	Market      string // e.g. "BTC-EUR"
	Last        decimal.NullDecimal
	High24h     decimal.NullDecimal
	Low24h      decimal.NullDecimal
	Volume24h   decimal.NullDecimal
	Change24h   decimal.NullDecimal
	Change24hPc decimal.NullDecimal
}

// Candidate is a market that passed the near-low and oversold screen.
type Candidate struct {
	Market      string              `json:"market"`
	Last        decimal.Decimal     `json:"last"`
	WindowLow   decimal.Decimal     `json:"windowLow"`
	RSI         decimal.Decimal     `json:"rsi"`
	Volume24h   decimal.NullDecimal `json:"volume24h"`
	PctAboveLow decimal.Decimal     `json:"pctAboveLow"`
}

// Result of one screening run. Best is nil when nothing passed.
type Result struct {
	Best       *Candidate  `json:"best"`
	Candidates []Candidate `json:"candidates"`
	Scanned    int         `json:"scanned"`
}

// Alternates returns the runner-ups at rank 2 and 3.
func (r Result) Alternates() []Candidate {
	if len(r.Candidates) < 2 {
		return nil
	}
	end := len(r.Candidates)
	if end > 1+MaxAlternates {
		end = 1 + MaxAlternates
	}
	return r.Candidates[1:end]
}

// Thresholds drive both the screen and the alert text.
type Thresholds struct {
	NearLowPct decimal.Decimal
	RSIMax     decimal.Decimal
	RSIPeriod  int
	WindowTag  string // e.g. "30d"
}

const MaxAlternates = 2

var (
	DefaultNearLowPct = decimal.NewFromFloat(3.0)
	DefaultRSIMax     = decimal.NewFromFloat(35.0)
)

func DefaultThresholds() Thresholds {
	return Thresholds{
		NearLowPct: DefaultNearLowPct,
		RSIMax:     DefaultRSIMax,
		RSIPeriod:  14,
		WindowTag:  "30d",
	}
}
