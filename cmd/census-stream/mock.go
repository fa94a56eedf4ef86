package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"goa.design/clue/log"

	"github.com/ps2-census/census-stream/internal/fakepush"
)

func mockCmd(g *globals) *cobra.Command {
	var (
		addr      string
		interval  time.Duration
		perTick   int
		heartbeat time.Duration
		seed      int64
	)

	cmd := &cobra.Command{
		Use:   "mock",
		Short: "Run a local push service that emits generated events",
		Long: `Serve a plain-text websocket push endpoint at ` + fakepush.Path + ` that
answers subscriptions like the real service and publishes generated events.

Point a client at it with
--insecure --endpoint ws://localhost:8089/streaming.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMock(g, addr, interval, perTick, heartbeat, seed)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8089", "Listen address")
	cmd.Flags().DurationVar(&interval, "interval", 500*time.Millisecond, "Time between event batches")
	cmd.Flags().IntVar(&perTick, "per-tick", 3, "Events per batch")
	cmd.Flags().DurationVar(&heartbeat, "heartbeat", 5*time.Second, "Heartbeat interval (0 disables)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (0 picks one from the clock)")

	return cmd
}

func runMock(g *globals, addr string, interval time.Duration, perTick int, heartbeat time.Duration, seed int64) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()
	ctx, closeLog, err := g.logContext(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer closeLog()

	if interval <= 0 || perTick < 1 {
		return errors.New("--interval and --per-tick must be positive")
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	server := fakepush.New(ctx, fakepush.Config{HeartbeatInterval: heartbeat})
	defer server.Close()
	fakepush.NewGenerator(server, interval, perTick, seed).Start(ctx)

	mux := http.NewServeMux()
	mux.Handle(fakepush.Path, server)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info(ctx, log.KV{K: "msg", V: "mock push service listening"},
		log.KV{K: "addr", V: addr},
		log.KV{K: "seed", V: seed})
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
