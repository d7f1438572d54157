package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"remotejobs-engine/internal/config"
	"remotejobs-engine/internal/events"
	"remotejobs-engine/internal/httpapi"
	"remotejobs-engine/internal/scrape/remoteok"
	"remotejobs-engine/internal/store"
)

const shutdownTimeout = 5 * time.Second

func (a *app) serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the job board API on localhost",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port == 0 {
				port = a.cfg.App.Port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, cmd, fmt.Sprintf("127.0.0.1:%d", port))
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default app.port from config)")
	return cmd
}

func (a *app) serve(ctx context.Context, cmd *cobra.Command, addr string) error {
	cfg := a.cfg

	var cfgVal atomic.Value // stores config.Config
	cfgVal.Store(cfg)

	hub := events.NewHub()
	board := store.NewBoard(
		remoteok.New(cfg.ScraperConfig()),
		remoteok.Parse,
		store.WithCacheTTL(cfg.CacheTTL()),
		store.WithOnChange(func(o store.Outcome) {
			if msg, ok := events.FromOutcome("", o); ok {
				n := hub.Publish(msg)
				slog.Debug("event published", "kind", o.Kind, "subscribers", n)
			}
		}),
	)

	handler := httpapi.Handler(httpapi.Deps{
		Board:          board,
		Hub:            hub,
		CfgVal:         &cfgVal,
		UserCfgPath:    a.cfgPath,
		LoadCfg:        func() (config.Config, error) { return config.Load(a.cfgPath) },
		RefreshLimiter: httpapi.NewRefreshLimiter(cfg.HTTP.RefreshPerMinute, cfg.HTTP.RefreshBurst),
	})

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		// Cancels open SSE streams once shutdown starts.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	pterm.Info.WithWriter(cmd.OutOrStdout()).Printfln("remotejobs listening on http://%s (config=%s)", ln.Addr(), a.cfgPath)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		// Warm the board so the first dashboard load is fast. Failures are
		// already logged and kept in the board status.
		board.Refresh(gctx, false)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down", "addr", ln.Addr().String())
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
