// vibintail connects to a Vibin server and prints every published event to
// the console.
// Usage: go run ./cmd/vibintail --url ws://vibin.local:8080/ws
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rickgao/weevibin/internal/config"
	"github.com/rickgao/weevibin/internal/connection"
	"github.com/rickgao/weevibin/internal/state"
	"github.com/rickgao/weevibin/internal/ui"
	"github.com/rickgao/weevibin/internal/version"
)

func main() {
	url := flag.String("url", "", "Vibin WebSocket URL (overrides config)")
	configPath := flag.String("config", "", "optional path to config file")
	verbose := flag.Bool("verbose", false, "print full event JSON")
	flag.Parse()

	// Setup logger
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadAndValidate(*configPath)
		if err != nil {
			logger.Error("failed to load config", "error", err)
			os.Exit(1)
		}
	}
	if *url != "" {
		cfg.Vibin.URL = *url
	}
	if cfg.Vibin.URL == "" {
		logger.Error("no vibin url; pass --url or set vibin.url in --config")
		os.Exit(2)
	}
	if _, err := connection.ParseEndpoint(cfg.Vibin.URL); err != nil {
		logger.Error("bad vibin url", "error", err)
		os.Exit(2)
	}

	logger.Info("starting vibintail", version.LogAttrs()...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	// Events are queued so publishing never waits on the terminal.
	events := ui.NewQueue[consoleEvent](64, 10000)
	pub := &queuePublisher{queue: events}

	mgr := connection.NewManager(cfg.ManagerConfig(), pub, logger)

	printerDone := make(chan struct{})
	go func() {
		defer close(printerDone)
		printEvents(os.Stdout, events, *verbose)
	}()

	logger.Info("connecting", "url", cfg.Vibin.URL)
	if err := mgr.Start(ctx); err != nil {
		logger.Error("failed to start connection manager", "error", err)
		os.Exit(1)
	}

	// Stats printer
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stats := mgr.Stats()
				logger.Info("stats",
					"state", stats.State.String(),
					"attempts", stats.Attempts,
					"ever_connected", stats.EverConnected,
					"queued", events.Len(),
					"dropped", events.Stats().Dropped,
				)
			}
		}
	}()

	// Exit once the manager gives up instead of waiting for a signal.
	go func() {
		if waitForRunEnd(ctx, mgr.Stats, 250*time.Millisecond) {
			logger.Info("connection manager stopped; exiting")
			cancel()
		}
	}()

	logger.Info("streaming started - press Ctrl+C to stop")

	// Wait for shutdown
	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	logger.Info("shutting down...")
	if err := mgr.Shutdown(shutdownCtx); err != nil {
		logger.Warn("connection manager shutdown", "error", err)
	}

	events.Close()
	<-printerDone

	logger.Info("shutdown complete")
}

// waitForRunEnd polls stats until the manager run has ended. It returns true
// when the run ended and false when ctx was cancelled first.
func waitForRunEnd(ctx context.Context, stats func() connection.ManagerStats, interval time.Duration) bool {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if !stats().Started {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}

// queuePublisher adapts a Queue to state.Publisher.
type queuePublisher struct {
	queue *ui.Queue[consoleEvent]
}

func (p *queuePublisher) PublishAppState(s state.AppState) {
	p.queue.Send(consoleEvent{kind: state.MessageAppState, payload: s, at: time.Now()})
}

func (p *queuePublisher) PublishVibinState(s state.VibinState) {
	p.queue.Send(consoleEvent{kind: state.MessageVibinState, payload: s, at: time.Now()})
}

func (p *queuePublisher) PublishPosition(pos state.Position) {
	p.queue.Send(consoleEvent{kind: state.MessagePosition, payload: pos, at: time.Now()})
}

func (p *queuePublisher) PublishError(e state.AppError) {
	p.queue.Send(consoleEvent{kind: state.MessageError, payload: e, at: time.Now()})
}
