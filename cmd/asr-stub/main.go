package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	configloader "github.com/foxseedlab/kikitori/external/config"
	"github.com/foxseedlab/kikitori/internal/stubasr"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})))

	addr := ":8787"
	apiKey := os.Getenv("ASR_API_KEY")
	if cfg, err := configloader.Load(); err == nil {
		addr = cfg.StubListenAddr
		apiKey = cfg.ASRAPIKey
	} else {
		slog.Warn("config not loaded; using stub defaults", "error", err)
	}

	server := stubasr.NewServer(apiKey)
	go func() {
		if err := server.Listen(addr); err != nil {
			slog.Error("stub asr server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	if err := server.Shutdown(); err != nil {
		slog.Error("stub asr shutdown failed", "error", err)
	}
}
