// Package screener runs the near-low / oversold scan over an exchange's
// most liquid markets.
package screener

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"dipwatch/internal/market"
	"dipwatch/internal/metrics"
	"dipwatch/internal/types"
)

const (
	DefaultTopN     = 80
	DefaultLookback = 30 * 24 * time.Hour
	DefaultPause    = 120 * time.Millisecond
)

type MarketSource interface {
	FetchMarkets(ctx context.Context) ([]market.Snapshot, error)
}

type CandleSource interface {
	LoadCandlesRange(ctx context.Context, mkt string, tf types.TF, start, end time.Time) ([]types.Candle, error)
}

type Config struct {
	TopN       int
	Interval   types.TF
	Lookback   time.Duration
	Pause      time.Duration
	Thresholds market.Thresholds
}

func DefaultConfig() Config {
	return Config{
		TopN:       DefaultTopN,
		Interval:   types.TF1h,
		Lookback:   DefaultLookback,
		Pause:      DefaultPause,
		Thresholds: market.DefaultThresholds(),
	}
}

type Screener struct {
	markets MarketSource
	candles CandleSource
	cfg     Config
	log     *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(*Screener)

func WithLogger(l *slog.Logger) Option { return func(s *Screener) { s.log = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(s *Screener) { s.metrics = m } }

func WithClock(now func() time.Time) Option { return func(s *Screener) { s.now = now } }

func New(ms MarketSource, cs CandleSource, cfg Config, opts ...Option) *Screener {
	if cfg.TopN <= 0 {
		cfg.TopN = DefaultTopN
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = DefaultLookback
	}
	if cfg.Interval == "" {
		cfg.Interval = types.TF1h
	}
	s := &Screener{markets: ms, candles: cs, cfg: cfg, log: slog.Default(), now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run lists the markets and screens the most liquid ones. Any upstream
// failure aborts the run with no partial result.
func (s *Screener) Run(ctx context.Context) (market.Result, error) {
	t0 := time.Now()
	snaps, err := s.markets.FetchMarkets(ctx)
	s.observe("ticker", t0)
	if err != nil {
		return market.Result{}, fmt.Errorf("fetch markets: %w", err)
	}
	s.log.InfoContext(ctx, "markets listed", "count", len(snaps))
	return s.Screen(ctx, snaps)
}

// Screen evaluates the top-N markets of universe one at a time, pausing
// between candle requests, and ranks the candidates once all are in.
func (s *Screener) Screen(ctx context.Context, universe []market.Snapshot) (market.Result, error) {
	selected := market.Universe(universe, s.cfg.TopN)
	end := s.now()
	start := end.Add(-s.cfg.Lookback)

	limit := rate.Inf
	if s.cfg.Pause > 0 {
		limit = rate.Every(s.cfg.Pause)
	}
	pacer := rate.NewLimiter(limit, 1)

	var cands []market.Candidate
	skipped := 0
	for _, snap := range selected {
		if err := pacer.Wait(ctx); err != nil {
			return market.Result{}, fmt.Errorf("pace %s: %w", snap.Market, err)
		}
		t0 := time.Now()
		hist, err := s.candles.LoadCandlesRange(ctx, snap.Market, s.cfg.Interval, start, end)
		s.observe("candles", t0)
		if err != nil {
			return market.Result{}, fmt.Errorf("candles %s: %w", snap.Market, err)
		}

		c, ok, reason := market.Evaluate(snap, hist, s.cfg.Thresholds)
		if !ok {
			skipped++
			s.log.DebugContext(ctx, "market skipped", "market", snap.Market, "candles", len(hist), "reason", reason)
			continue
		}
		s.log.InfoContext(ctx, "candidate",
			"market", c.Market,
			"rsi", c.RSI.StringFixed(1),
			"pct_above_low", c.PctAboveLow.StringFixed(2),
		)
		cands = append(cands, c)
	}

	res := market.NewResult(cands, len(selected))
	if s.metrics != nil {
		s.metrics.MarketsScanned.Set(float64(len(selected)))
		s.metrics.MarketsSkipped.Add(float64(skipped))
		s.metrics.CandidatesFound.Set(float64(len(res.Candidates)))
	}
	return res, nil
}

func (s *Screener) observe(endpoint string, t0 time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.FetchDuration.With(prometheus.Labels{"endpoint": endpoint}).Observe(time.Since(t0).Seconds())
}
