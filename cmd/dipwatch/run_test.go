package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"

	"dipwatch/internal/config"
	"dipwatch/internal/market"
	"dipwatch/internal/metrics"
	"dipwatch/internal/notify"
	"dipwatch/internal/screener"
	"dipwatch/internal/status"
	"dipwatch/internal/types"
)

var fixedNow = time.Date(2024, 5, 1, 7, 0, 0, 0, time.UTC)

type stubMarkets struct {
	snaps []market.Snapshot
	err   error
}

func (s stubMarkets) FetchMarkets(context.Context) ([]market.Snapshot, error) { return s.snaps, s.err }

type stubCandles map[string][]types.Candle

func (s stubCandles) LoadCandlesRange(_ context.Context, mkt string, _ types.TF, _, _ time.Time) ([]types.Candle, error) {
	return s[mkt], nil
}

type recorder struct {
	sent []string
	err  error
}

func (r *recorder) Name() string { return "test" }

func (r *recorder) Send(_ context.Context, text string) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, text)
	return nil
}

func oversold() []types.Candle {
	v := make([]int64, 0, 30)
	for i := 0; i < 16; i++ {
		v = append(v, 100)
	}
	v = append(v, 101, 99, 100, 98, 96, 94)
	for len(v) < 30 {
		v = append(v, 94)
	}
	out := make([]types.Candle, len(v))
	for i, x := range v {
		out[i] = types.Candle{
			T: fixedNow.Add(time.Duration(i-len(v)) * time.Hour),
			C: decimal.NewNullDecimal(decimal.NewFromInt(x)),
		}
	}
	return out
}

func newApp(ms screener.MarketSource, sink notify.Sender) *app {
	scfg := screener.DefaultConfig()
	scfg.Pause = 0
	return &app{
		markets:  ms,
		candles:  stubCandles{"ADA-EUR": oversold()},
		exchange: "Bitvavo",
		scfg:     scfg,
		meta:     market.AlertMeta{Exchange: "Bitvavo", Quote: "EUR", Loc: time.UTC},
		sink:     sink,
		store:    status.NewStore(),
		metrics:  metrics.New(),
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      func() time.Time { return fixedNow },
	}
}

func TestRunOnceSendsOneAlert(t *testing.T) {
	rec := &recorder{}
	a := newApp(stubMarkets{snaps: []market.Snapshot{{
		Market:    "ADA-EUR",
		Volume24h: decimal.NewNullDecimal(decimal.NewFromInt(1000)),
	}}}, rec)

	if err := a.runOnce(context.Background()); err != nil {
		t.Fatalf("runOnce: %v", err)
	}
	if len(rec.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(rec.sent))
	}
	if !strings.Contains(rec.sent[0], "<b>ADA-EUR</b>") || !strings.HasPrefix(rec.sent[0], "🕘 2024-05-01") {
		t.Fatalf("unexpected alert:\n%s", rec.sent[0])
	}
	snap := a.store.Snap()
	if !snap.OK() || snap.RunID == "" || snap.Result.Best == nil {
		t.Fatalf("status not recorded: %+v", snap)
	}
	if got := testutil.ToFloat64(a.metrics.RunsTotal.WithLabelValues("ok")); got != 1 {
		t.Fatalf("runs ok = %v", got)
	}
	if got := testutil.ToFloat64(a.metrics.AlertsSent.WithLabelValues("test")); got != 1 {
		t.Fatalf("alerts sent = %v", got)
	}
}

func TestRunOnceNoCandidateStillSends(t *testing.T) {
	rec := &recorder{}
	a := newApp(stubMarkets{}, rec)
	if err := a.runOnce(context.Background()); err != nil {
		t.Fatalf("runOnce: %v", err)
	}
	if len(rec.sent) != 1 || !strings.Contains(rec.sent[0], "No candidate") {
		t.Fatalf("expected the no-candidate line, got %q", rec.sent)
	}
}

func TestRunOnceUpstreamFailureSendsNothing(t *testing.T) {
	rec := &recorder{}
	boom := errors.New("status 500")
	a := newApp(stubMarkets{err: boom}, rec)

	err := a.runOnce(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if len(rec.sent) != 0 {
		t.Fatal("no message may be sent on failure")
	}
	if a.store.Snap().OK() {
		t.Fatal("status should record the failure")
	}
	if got := testutil.ToFloat64(a.metrics.RunsTotal.WithLabelValues("error")); got != 1 {
		t.Fatalf("runs error = %v", got)
	}
}

func TestRunOnceSendFailure(t *testing.T) {
	rec := &recorder{err: errors.New("chat not found")}
	a := newApp(stubMarkets{}, rec)
	if err := a.runOnce(context.Background()); err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("expected send error, got %v", err)
	}
	if _, ok := a.store.LastSuccess(); ok {
		t.Fatal("failed send is not a success")
	}
}

func TestNewSink(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := &config.Config{}
	cfg.Notify.Sink = "telegram"
	if _, _, err := newSink(cfg, log); !errors.Is(err, notify.ErrNotConfigured) {
		t.Fatalf("telegram without credentials: %v", err)
	}

	cfg.Notify.Telegram.Token = "123:abc"
	cfg.Notify.Telegram.ChatID = "42"
	s, c, err := newSink(cfg, log)
	if err != nil || s.Name() != "telegram" {
		t.Fatalf("telegram sink: %v", err)
	}
	_ = c.Close()

	cfg.Notify.Sink = "kafka"
	if _, _, err := newSink(cfg, log); !errors.Is(err, notify.ErrNotConfigured) {
		t.Fatalf("kafka without brokers: %v", err)
	}

	cfg.Notify.Kafka.Brokers = []string{"localhost:9092"}
	cfg.Notify.Kafka.Topic = "alerts"
	s, c, err = newSink(cfg, log)
	if err != nil || s.Name() != "kafka" {
		t.Fatalf("kafka sink: %v", err)
	}
	_ = c.Close()

	cfg.Notify.Sink = "log"
	if s, _, err := newSink(cfg, log); err != nil || s.Name() != "log" {
		t.Fatalf("log sink: %v", err)
	}
}

func TestKafkaKeyComesFromKafkaConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Notify.Telegram.ChatID = "42"
	cfg.Notify.Kafka.Brokers = []string{"localhost:9092"}
	cfg.Notify.Kafka.Topic = "alerts"
	cfg.Notify.Kafka.Target = "ops-desk"

	opts := kafkaOptions(cfg)
	if opts.Target != "ops-desk" || opts.Topic != "alerts" || len(opts.Brokers) != 1 {
		t.Fatalf("unexpected kafka options: %+v", opts)
	}
}

func TestLoopStopsOnCancel(t *testing.T) {
	rec := &recorder{}
	a := newApp(stubMarkets{}, rec)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.loop(ctx, time.Hour)
		close(done)
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}
	if len(rec.sent) < 1 {
		t.Fatal("loop should run immediately")
	}
}

func TestServeWaitsForTasksToStop(t *testing.T) {
	a := newApp(stubMarkets{}, &recorder{})
	var drained atomic.Bool
	slowShutdown := func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(100 * time.Millisecond)
		drained.Store(true)
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)
	if err := a.serve(ctx, time.Hour, slowShutdown); err != nil {
		t.Fatalf("serve: %v", err)
	}
	if !drained.Load() {
		t.Fatal("serve returned before the task finished shutting down")
	}
}

func TestServeTaskFailureStopsLoop(t *testing.T) {
	a := newApp(stubMarkets{}, &recorder{})
	boom := errors.New("listen tcp: address already in use")
	done := make(chan error, 1)
	go func() {
		done <- a.serve(context.Background(), time.Hour, func(context.Context) error { return boom })
	}()
	select {
	case err := <-done:
		if !errors.Is(err, boom) {
			t.Fatalf("expected task error, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("loop kept running after a task failed")
	}
}
