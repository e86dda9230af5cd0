package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"dipwatch/adapters/kafkasink"
	"dipwatch/adapters/telegram"
	"dipwatch/internal/config"
	"dipwatch/internal/market"
	"dipwatch/internal/metrics"
	"dipwatch/internal/notify"
	"dipwatch/internal/screener"
	"dipwatch/internal/status"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newSink builds the configured alert sink. Missing credentials fail here,
// before any exchange traffic.
func newSink(cfg *config.Config, log *slog.Logger) (notify.Sender, io.Closer, error) {
	switch cfg.Notify.Sink {
	case "telegram":
		s, err := telegram.New(telegram.Options{
			Token:   cfg.Notify.Telegram.Token,
			ChatID:  cfg.Notify.Telegram.ChatID,
			BaseURL: cfg.Notify.Telegram.BaseURL,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, nopCloser{}, nil
	case "kafka":
		s, err := kafkasink.New(kafkaOptions(cfg))
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case "log":
		return notify.NewLogSender(log), nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown sink %q", notify.ErrNotConfigured, cfg.Notify.Sink)
	}
}

func kafkaOptions(cfg *config.Config) kafkasink.Options {
	return kafkasink.Options{
		Brokers: cfg.Notify.Kafka.Brokers,
		Topic:   cfg.Notify.Kafka.Topic,
		Target:  cfg.Notify.Kafka.Target,
	}
}

type app struct {
	markets  screener.MarketSource
	candles  screener.CandleSource
	exchange string
	scfg     screener.Config
	meta     market.AlertMeta
	sink     notify.Sender
	store    *status.Store
	metrics  *metrics.Metrics
	log      *slog.Logger
	now      func() time.Time
}

// runOnce screens, sends exactly one message and records the outcome.
// Nothing is sent when the screen fails.
func (a *app) runOnce(ctx context.Context) error {
	runID := uuid.NewString()
	log := a.log.With("run_id", runID)
	t0 := time.Now()
	log.InfoContext(ctx, "run started", "exchange", a.exchange, "top_n", a.scfg.TopN, "interval", a.scfg.Interval)

	sc := screener.New(a.markets, a.candles, a.scfg,
		screener.WithLogger(log),
		screener.WithMetrics(a.metrics),
		screener.WithClock(a.now),
	)
	res, err := sc.Run(ctx)
	if err != nil {
		return a.fail(ctx, log, runID, t0, fmt.Errorf("screen: %w", err))
	}

	msg := market.FormatAlert(a.now(), a.meta, res, a.scfg.Thresholds)
	if err := a.sink.Send(ctx, msg); err != nil {
		return a.fail(ctx, log, runID, t0, fmt.Errorf("send via %s: %w", a.sink.Name(), err))
	}

	dur := time.Since(t0)
	if a.metrics != nil {
		a.metrics.AlertsSent.With(prometheus.Labels{"sink": a.sink.Name()}).Inc()
		a.metrics.RunsTotal.With(prometheus.Labels{"outcome": "ok"}).Inc()
		a.metrics.RunDuration.Observe(dur.Seconds())
		a.metrics.LastSuccess.SetToCurrentTime()
	}
	a.store.SetSnap(status.Snapshot{
		RunID:     runID,
		Generated: a.now(),
		Duration:  dur,
		Exchange:  a.exchange,
		Result:    res,
		Message:   msg,
	})
	best := ""
	if res.Best != nil {
		best = res.Best.Market
	}
	log.InfoContext(ctx, "run finished", "scanned", res.Scanned, "candidates", len(res.Candidates), "best", best, "took", dur.Round(time.Millisecond))
	return nil
}

func (a *app) fail(ctx context.Context, log *slog.Logger, runID string, t0 time.Time, err error) error {
	dur := time.Since(t0)
	if a.metrics != nil {
		a.metrics.RunsTotal.With(prometheus.Labels{"outcome": "error"}).Inc()
		a.metrics.RunDuration.Observe(dur.Seconds())
	}
	a.store.SetSnap(status.Snapshot{
		RunID:     runID,
		Generated: a.now(),
		Duration:  dur,
		Exchange:  a.exchange,
		Result:    market.NewResult(nil, 0),
		Err:       err.Error(),
	})
	log.ErrorContext(ctx, "run failed", "error", err)
	return err
}

// loop runs every interval until ctx is done. Failed runs are logged and
// the next tick proceeds.
func (a *app) loop(ctx context.Context, every time.Duration) {
	tick := time.NewTicker(every)
	defer tick.Stop()
	for {
		_ = a.runOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}
	}
}

// serve runs the schedule loop alongside tasks and returns only once all of
// them have stopped. A failing task cancels the others.
func (a *app) serve(ctx context.Context, every time.Duration, tasks ...func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		task := task
		g.Go(func() error { return task(gctx) })
	}
	g.Go(func() error {
		a.loop(gctx, every)
		return nil
	})
	return g.Wait()
}
