package main

import (
	"context"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/websocket"

	"github.com/liveserve/liveserve/internal/broadcast"
	"github.com/liveserve/liveserve/internal/config"
	"github.com/liveserve/liveserve/internal/content"
	"github.com/liveserve/liveserve/internal/metrics"
	"github.com/liveserve/liveserve/internal/watch"
	"github.com/liveserve/liveserve/internal/ws"
)

func main() {
	configPath := flag.String("config", "", "path to config file; built-in defaults apply when empty")
	addr := flag.String("addr", "", "listen address override (host:port)")
	root := flag.String("root", "", "site root override")
	noReload := flag.Bool("no-reload", false, "serve without file watching or live reload")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			slog.Error("failed to load config", "err", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *root != "" {
		cfg.Server.Root = *root
	}
	if *noReload {
		cfg.LiveReload.Enabled = false
	}
	listenAddr := cfg.Server.Addr()
	if *addr != "" {
		listenAddr = *addr
	}

	slog.Info("liveserve starting",
		"addr", listenAddr,
		"root", cfg.Server.Root,
		"live_reload", cfg.LiveReload.Enabled,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// One broadcaster per process; every reload session subscribes to it.
	bc := broadcast.New()
	hub := ws.New(bc)
	go hub.Run(ctx)

	reloadPath := ""
	if cfg.LiveReload.Enabled {
		reloadPath = ws.Path
		bridge, err := watch.New(cfg.Server.Root, bc, cfg.LiveReload.Debounce())
		if err != nil {
			slog.Error("failed to start filesystem watcher", "err", err)
			os.Exit(1)
		}
		go bridge.Run(ctx)
	}

	responder := content.New(cfg.Server.Root, reloadPath)
	m := metrics.New(bc, hub)

	mux := http.NewServeMux()
	mux.Handle("/__status", m)
	mux.HandleFunc(ws.Path, func(w http.ResponseWriter, r *http.Request) {
		// Upgrade requests become reload sessions; anything else on this
		// path falls through to the content responder.
		if cfg.LiveReload.Enabled && websocket.IsWebSocketUpgrade(r) {
			hub.ServeHTTP(w, r)
			return
		}
		responder.ServeHTTP(w, r)
	})
	mux.Handle("/", responder)

	lis, err := net.Listen("tcp", listenAddr)
	if err != nil {
		slog.Error("failed to listen", "addr", listenAddr, "err", err)
		os.Exit(1)
	}

	srv := &http.Server{Handler: m.Middleware(mux)}
	go func() {
		slog.Info("http server listening", "addr", lis.Addr().String())
		if err := srv.Serve(lis); err != nil && err != http.ErrServerClosed {
			slog.Error("http server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("liveserve shutting down")
	srv.Shutdown(context.Background()) //nolint:errcheck
}
