// weevibin keeps a live connection to a Vibin music server and serves its
// state to a UI over HTTP and WebSocket.
// Usage: go run ./cmd/weevibin --config configs/weevibin.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/weevibin/internal/config"
	"github.com/rickgao/weevibin/internal/connection"
	"github.com/rickgao/weevibin/internal/state"
	"github.com/rickgao/weevibin/internal/ui"
	"github.com/rickgao/weevibin/internal/version"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults only when empty)")
	url := flag.String("url", "", "Vibin WebSocket URL (overrides config)")
	listen := flag.String("listen", "", "UI listen address (overrides config)")
	watch := flag.Bool("watch", true, "reload the config file when it changes")
	flag.Parse()

	if err := run(*configPath, *url, *listen, *watch); err != nil {
		fmt.Fprintf(os.Stderr, "weevibin: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, url, listen string, watch bool) error {
	cfg, err := loadConfig(configPath, url, listen)
	if err != nil {
		return err
	}

	// Set up structured logging
	logger, err := cfg.Log.NewLogger(os.Stdout)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	logger.Info("starting weevibin", append(version.LogAttrs(), "config", configPath)...)

	// Create context with cancellation
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	bridge := ui.NewBridge(cfg.BridgeConfig(), logger.With("component", "ui"))
	pub := state.Tee(state.NewLogPublisher(logger.With("component", "events")), bridge)

	mgr := connection.NewManager(cfg.ManagerConfig(), pub, logger.With("component", "manager"))

	ln, err := net.Listen("tcp", cfg.UI.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.UI.Listen, err)
	}

	server := &http.Server{
		Handler:           bridge.Handler(ctx, mgr),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting ui server", "addr", ln.Addr().String())
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("ui server: %w", err)
		}
		return nil
	})

	if watch && configPath != "" {
		g.Go(func() error {
			return config.Watch(gctx, configPath, logger.With("component", "config"), func(next *config.Config) {
				onConfigChange(gctx, mgr, url, next, logger)
			})
		})
	}

	g.Go(func() error {
		<-gctx.Done()

		logger.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := mgr.Shutdown(shutdownCtx); err != nil {
			logger.Warn("connection manager shutdown", "error", err)
		}
		bridge.Close()
		return server.Shutdown(shutdownCtx)
	})

	// The UI normally starts the connection with /ready; a configured URL
	// starts it straight away.
	if cfg.Vibin.URL != "" {
		if err := mgr.Start(ctx); err != nil {
			logger.Warn("connection manager not started", "error", err)
		}
	} else {
		logger.Info("no vibin url configured; waiting for the ui to set one")
	}

	err = g.Wait()
	logger.Info("weevibin stopped")
	return err
}

func loadConfig(path, url, listen string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		cfg, err = config.LoadAndValidate(path)
		if err != nil {
			return nil, err
		}
	}

	if url != "" {
		cfg.Vibin.URL = url
	}
	if listen != "" {
		cfg.UI.Listen = listen
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// onConfigChange switches endpoints when vibin.url changes. Other settings
// take effect on restart. A --url flag pins the endpoint.
func onConfigChange(ctx context.Context, mgr connection.Manager, pinned string, next *config.Config, logger *slog.Logger) {
	if pinned != "" {
		return
	}
	if next.Vibin.URL == "" || next.Vibin.URL == mgr.Endpoint() {
		return
	}

	logger.Info("vibin url changed in config", "from", mgr.Endpoint(), "to", next.Vibin.URL)
	if err := mgr.SetEndpoint(ctx, next.Vibin.URL); err != nil {
		logger.Warn("failed to switch vibin url", "error", err)
	}
}
