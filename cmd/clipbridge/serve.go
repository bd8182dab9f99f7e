package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipbridge/internal/access"
	"go.klb.dev/clipbridge/internal/clip"
	"go.klb.dev/clipbridge/internal/config"
	"go.klb.dev/clipbridge/internal/httpapi"
	"go.klb.dev/clipbridge/internal/ipc"
	"go.klb.dev/clipbridge/internal/localpeer"
	"go.klb.dev/clipbridge/internal/remotepeer"
	"go.klb.dev/clipbridge/internal/state"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
)

func newServeCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the sync daemon (HTTP API + local clipboard poller)",
		Long: `Starts the clipbridge daemon. It serves the HTTP API for the peer, samples
the local clipboard and pushes each new value to the peer.

Config file search order:
  /etc/clipbridge/clipbridge.toml
  $HOME/.config/clipbridge/clipbridge.toml
  path supplied via --config

Precedence (lowest → highest): defaults → config file → CLIPBRIDGE_* env vars → flags`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, _ []string) error {
			setupLogging(v)
			cfg := config.FromViper(v)
			if cfg.Source == "" {
				cfg.Source = defaultSource()
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			backend, err := clip.New(cfg.Clipboard)
			if err != nil {
				return fmt.Errorf("clipboard backend %q: %w", cfg.Clipboard, err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			ln, err := net.Listen("tcp", cfg.Listen)
			if err != nil {
				backend.Close()
				return fmt.Errorf("listen %s: %w", cfg.Listen, err)
			}
			return runServe(ctx, cfg, backend, ln)
		},
	}

	addDaemonFlags(cmd)
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

// runServe runs the daemon on ln until ctx is cancelled. It owns backend and
// ln and closes both on return.
func runServe(ctx context.Context, cfg config.Config, backend clip.Backend, ln net.Listener) error {
	defer backend.Close()
	defer ln.Close()

	peer, err := remotepeer.New(cfg.PeerAddr(),
		remotepeer.WithTimeout(cfg.PushTimeout),
		remotepeer.WithSource(cfg.Source),
	)
	if err != nil {
		return fmt.Errorf("peer: %w", err)
	}

	store := state.New()
	svc := httpapi.New(store, backend, httpapi.Info{
		Version: Version,
		Source:  cfg.Source,
		Peer:    peer.Addr(),
	}, cfg.MaxBodyBytes)

	allow := access.NewAllowList(cfg.Allow)
	if allow.Open() {
		slog.Warn("allow list is empty: every caller may use the API")
	}

	slog.Info("clipbridge starting",
		"version", Version,
		"listen", ln.Addr().String(),
		"peer", peer.Addr(),
		"clipboard", backend.Name(),
		"allow", allow.Prefixes(),
	)

	var (
		wg      sync.WaitGroup
		servers []*http.Server
		errc    = make(chan error, 2)
	)

	serve := func(name string, srv *http.Server, l net.Listener) {
		servers = append(servers, srv)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- fmt.Errorf("%s: %w", name, err)
			}
		}()
	}

	serve("http", &http.Server{
		Handler:           allow.Wrap(svc.Handler()),
		ReadHeaderTimeout: readHeaderTimeout,
	}, ln)

	if cfg.IPC {
		ipcLn, err := ipc.Listen()
		if err != nil {
			slog.Warn("IPC socket unavailable", "err", err)
		} else {
			slog.Info("IPC socket listening", "path", ipc.SocketPath())
			serve("ipc", &http.Server{Handler: svc.LocalHandler(), ReadHeaderTimeout: readHeaderTimeout}, ipcLn)
		}
	}

	pollCtx, cancelPoll := context.WithCancel(ctx)
	poller := localpeer.New(backend, store, peer, localpeer.Options{
		Interval: cfg.PollInterval,
		Seed:     cfg.SeedOnStart,
	})
	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Run(pollCtx)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case runErr = <-errc:
		slog.Error("server failed", "err", runErr)
	}
	cancelPoll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("shutdown incomplete", "err", err)
		}
	}
	wg.Wait()
	return runErr
}
