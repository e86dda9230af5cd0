package market

import (
	"fmt"
	"html"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AlertMeta carries the presentation context of an alert.
type AlertMeta struct {
	Exchange string // display name, e.g. "Bitvavo"
	Quote    string // settlement currency, e.g. "EUR"
	Loc      *time.Location
}

func currencySymbol(quote string) string {
	switch strings.ToUpper(quote) {
	case "EUR":
		return "€"
	case "USD", "USDT", "USDC":
		return "$"
	case "GBP":
		return "£"
	case "":
		return ""
	default:
		return strings.ToUpper(quote) + " "
	}
}

func dateIn(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return now.In(loc).Format("2006-01-02")
}

// FormatNoCandidate is the single-line message for an empty run.
func FormatNoCandidate(now time.Time, meta AlertMeta, th Thresholds) string {
	return fmt.Sprintf("🕘 %s — No candidate (≤%s%% above %s-low & RSI<%s).",
		dateIn(now, meta.Loc), th.NearLowPct.String(), th.WindowTag, th.RSIMax.String())
}

// FormatAlert renders the run result as a Telegram-HTML message.
func FormatAlert(now time.Time, meta AlertMeta, r Result, th Thresholds) string {
	if r.Best == nil {
		return FormatNoCandidate(now, meta, th)
	}
	cur := currencySymbol(meta.Quote)
	top := r.Best
	lines := []string{
		fmt.Sprintf("🕘 %s — <b>Daily %s signal</b> (not financial advice)", dateIn(now, meta.Loc), html.EscapeString(meta.Exchange)),
		fmt.Sprintf("• Market: <b>%s</b>", html.EscapeString(top.Market)),
		fmt.Sprintf("• Last price: %s%s", cur, top.Last.StringFixed(6)),
		fmt.Sprintf("• %s low: %s%s (now %s%% above)", th.WindowTag, cur, top.WindowLow.StringFixed(6), top.PctAboveLow.StringFixed(2)),
		fmt.Sprintf("• RSI(%d): %s", th.RSIPeriod, top.RSI.StringFixed(1)),
	}
	for _, alt := range r.Alternates() {
		lines = append(lines, FormatAlternate(alt, th))
	}
	return strings.Join(lines, "\n")
}

// ◦ Alternative: MKT (RSI x.x, +y.yy% vs 30d-low)
func FormatAlternate(c Candidate, th Thresholds) string {
	return fmt.Sprintf("◦ Alternative: %s (RSI %s, +%s%% vs %s-low)",
		html.EscapeString(c.Market), c.RSI.StringFixed(1), c.PctAboveLow.StringFixed(2), th.WindowTag)
}

// HumanAmount abbreviates large quantities: 1.23K, 4.56M, 7.89B.
func HumanAmount(x decimal.NullDecimal) string {
	if !x.Valid {
		return "-"
	}
	f := x.Decimal.InexactFloat64()
	ax := math.Abs(f)
	switch {
	case ax >= 1_000_000_000:
		return fmt.Sprintf("%.2fB", f/1_000_000_000)
	case ax >= 1_000_000:
		return fmt.Sprintf("%.2fM", f/1_000_000)
	case ax >= 1_000:
		return fmt.Sprintf("%.2fK", f/1_000)
	default:
		return fmt.Sprintf("%.0f", f)
	}
}
