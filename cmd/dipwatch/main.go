// Command dipwatch screens the most liquid exchange markets for ones trading
// near their recent low while oversold, and sends one alert per run.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"dipwatch/adapters/bitvavo"
	"dipwatch/internal/config"
	"dipwatch/internal/logger"
	"dipwatch/internal/market"
	"dipwatch/internal/metrics"
	"dipwatch/internal/screener"
	"dipwatch/internal/server"
	"dipwatch/internal/status"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "dipwatch:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := config.Flags()
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	cfg, err := config.Load(flags)
	if err != nil {
		return err
	}
	log, closer, err := logger.Init(cfg.Logger())
	if err != nil {
		return err
	}
	defer closer.Close()

	sink, sinkCloser, err := newSink(cfg, log)
	if err != nil {
		return err
	}
	defer sinkCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := bitvavo.New(bitvavo.Options{
		BaseURL:   cfg.Exchange.BaseURL,
		Quote:     cfg.Exchange.Quote,
		Timeout:   cfg.Exchange.Timeout,
		Retries:   cfg.Exchange.Retries,
		PageLimit: cfg.Exchange.PageLimit,
	})
	a := &app{
		markets:  client,
		candles:  client,
		exchange: client.Name(),
		scfg: screener.Config{
			TopN:       cfg.Screen.TopN,
			Interval:   cfg.Interval(),
			Lookback:   cfg.Screen.Lookback,
			Pause:      cfg.Screen.Pause,
			Thresholds: cfg.Thresholds(),
		},
		meta:    market.AlertMeta{Exchange: client.Name(), Quote: cfg.Exchange.Quote, Loc: cfg.Location()},
		sink:    sink,
		store:   status.NewStore(),
		metrics: metrics.New(),
		log:     log,
		now:     time.Now,
	}

	if cfg.Schedule.Every == 0 {
		return a.runOnce(ctx)
	}

	var tasks []func(context.Context) error
	if cfg.Server.Addr != "" {
		srv := server.New(cfg.Server.Addr, server.NewEngine(a.store, a.metrics))
		log.Info("http server listening", "addr", cfg.Server.Addr)
		tasks = append(tasks, srv.Run)
	}
	log.Info("scheduled mode", "every", cfg.Schedule.Every, "sink", sink.Name())
	if err := a.serve(ctx, cfg.Schedule.Every, tasks...); err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
