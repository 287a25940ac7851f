// Command rxstream streams system load samples to WebSocket clients.
// 演示程序：热序列推送系统负载采样，冷序列为每个连接独立计数
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/xinjiayu/rxcore"
)

func main() {
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(w io.Writer, args []string) error {
	config, err := SetupConfig(w, args)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if config.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := rxcore.NewMetrics("rxstream")
	if err := metrics.Register(registry); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	// 采样器独占一个goroutine，冷计数器在工作窃取调度器上运行
	hotScheduler := rxcore.NewMonitoredScheduler(rxcore.NewThreadScheduler, "new_thread", metrics)
	pool := rxcore.NewWorkStealingScheduler(config.Workers, rxcore.WithLogger(logger))
	defer pool.Dispose()
	coldScheduler := rxcore.NewMonitoredScheduler(pool, "work_stealing", metrics)

	sampler := NewSampler(config.Interval, logger)
	hot := rxcore.NewHot[Sample](sampler.Work, hotScheduler,
		rxcore.WithName("samples"),
		rxcore.WithLogger(logger),
		rxcore.WithMetrics(metrics),
		rxcore.WithReplayBufferSize(config.Replay),
	)
	defer hot.Dispose()

	server := NewServer(hot, coldScheduler, metrics, registry, config.ColdInterval, logger)
	httpServer := &http.Server{
		Addr:              config.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("rxstream: listening", "addr", config.Addr, "interval", config.Interval,
			"replay", config.Replay, "workers", pool.Workers())
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("rxstream: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	err = httpServer.Shutdown(shutdownCtx)
	server.Close()
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
