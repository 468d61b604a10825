package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	audioimpl "github.com/foxseedlab/kikitori/external/audio"
	configloader "github.com/foxseedlab/kikitori/external/config"
	repositoryimpl "github.com/foxseedlab/kikitori/external/repository"
	transcriberimpl "github.com/foxseedlab/kikitori/external/transcriber"
	webhookimpl "github.com/foxseedlab/kikitori/external/webhook"
	"github.com/foxseedlab/kikitori/internal/audio"
	"github.com/foxseedlab/kikitori/internal/config"
	"github.com/foxseedlab/kikitori/internal/metrics"
	"github.com/foxseedlab/kikitori/internal/repository"
	"github.com/foxseedlab/kikitori/internal/session"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/do/v2"
)

const (
	dispatchDrainTimeout = 10 * time.Second
	historyTimeout       = 10 * time.Second
	stopTimeout          = 5 * time.Second
)

type exhaustible interface {
	Exhausted() bool
}

func main() {
	history := flag.Int("history", 0, "print the N most recent utterances and exit")
	flag.Parse()

	slog.Info("startup: loading configuration")
	cfg := mustLoadConfig()
	initLogger(cfg)
	slog.Info("startup: configuration loaded", "env", cfg.Env, "strategy", cfg.Strategy, "backend", cfg.TranscriptionBackend)

	slog.Info("startup: building dependency graph")
	injector := setupDI(cfg)

	var err error
	if *history > 0 {
		err = printHistory(injector, *history)
	} else {
		if cfg.MetricsAddr != "" {
			go serveMetrics(cfg.MetricsAddr)
		}
		slog.Info("startup: entering capture loop")
		err = run(cfg, injector)
	}
	shutdown(injector)
	if err != nil {
		slog.Error("exiting with error", "error", err)
		os.Exit(1)
	}
}

func mustLoadConfig() *config.Config {
	cfg, err := configloader.Load()
	if err != nil {
		slog.Error("config validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

func initLogger(cfg *config.Config) {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() || strings.EqualFold(cfg.LogLevel, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	metrics.RegisterDI(injector)
	repositoryimpl.RegisterDI(injector)
	audioimpl.RegisterDI(injector)
	transcriberimpl.RegisterDI(injector)
	webhookimpl.RegisterDI(injector)
	session.RegisterDI(injector)

	return injector
}

func shutdown(injector do.Injector) {
	if report := injector.Shutdown(); report != nil && len(report.Errors) > 0 {
		slog.Error("shutdown reported errors", "error", report.Error())
	}
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	slog.Info("metrics server listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("metrics server failed", "error", err)
	}
}

func printHistory(injector do.Injector, limit int) error {
	repo, err := do.Invoke[repository.Repository](injector)
	if err != nil {
		return fmt.Errorf("resolve repository: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
	defer cancel()

	utterances, err := repo.ListRecentUtterances(ctx, limit)
	if err != nil {
		return fmt.Errorf("list utterance history: %w", err)
	}
	for _, u := range utterances {
		line := u.Text
		if u.Status != repository.UtteranceStatusTranscribed {
			line = fmt.Sprintf("[%s] %s", u.Status, u.ErrorMessage)
		}
		fmt.Printf("%s\t%s\t%dms\t%s\n", u.StartedAt.Local().Format(time.DateTime), u.Strategy, u.DurationMillis, line)
	}
	return nil
}

func run(cfg *config.Config, injector do.Injector) error {
	source, err := do.Invoke[audio.Source](injector)
	if err != nil {
		return fmt.Errorf("resolve audio source: %w", err)
	}
	defer func() {
		if err := source.Close(); err != nil {
			slog.Warn("audio source close failed", "error", err)
		}
	}()
	manager, err := do.Invoke[*session.Manager](injector)
	if err != nil {
		return fmt.Errorf("resolve session manager: %w", err)
	}
	dispatcher, err := do.Invoke[*session.Dispatcher](injector)
	if err != nil {
		return fmt.Errorf("resolve dispatcher: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchDrainTimeout)
		defer cancel()
		if err := dispatcher.Wait(ctx); err != nil {
			slog.Warn("pending deliveries abandoned", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	finalizeCh := make(chan os.Signal, 1)
	signal.Notify(finalizeCh, syscall.SIGUSR1)

	ticker := time.NewTicker(cfg.TickInterval)
	defer ticker.Stop()

	var (
		idleSince time.Time
		started   bool
	)
	for {
		select {
		case <-stopCh:
			slog.Info("shutting down")
			stopCtx, stopCancel := context.WithTimeout(context.Background(), stopTimeout)
			manager.Stop(stopCtx)
			stopCancel()
			return nil
		case <-finalizeCh:
			if err := manager.Finalize(); err != nil {
				slog.Warn("finalize request ignored", "error", err)
			}
		case now := <-ticker.C:
			if manager.State() != session.StateIdle {
				manager.Tick(ctx)
				if manager.State() == session.StateIdle {
					idleSince = now
				}
				continue
			}
			if src, ok := source.(exhaustible); ok && src.Exhausted() {
				slog.Info("audio source exhausted")
				return nil
			}
			if started && !cfg.AutoListen {
				return nil
			}
			if started && now.Sub(idleSince) < cfg.RestartDelay {
				continue
			}
			if err := manager.Start(ctx); err != nil {
				if errors.Is(err, session.ErrBufferExhausted) {
					return fmt.Errorf("start recording: %w", err)
				}
				slog.Debug("recording not started", "error", err)
				continue
			}
			started = true
		}
	}
}
