package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"goa.design/clue/log"

	"github.com/ps2-census/census-stream/internal/config"
	"github.com/ps2-census/census-stream/internal/metrics"
	"github.com/ps2-census/census-stream/pkg/stream"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

// globals are the flags shared by every command.
type globals struct {
	configPath  string
	debug       bool
	metricsAddr string
	env         string
	serviceID   string
	endpoint    string
	insecure    bool
	logFile     string
}

func main() {
	var g globals

	rootCmd := &cobra.Command{
		Use:   "census-stream",
		Short: "Client for the PlanetSide 2 census event push service",
		Long: `census-stream connects to the census event push service, keeps the
connection alive across drops and decodes the events it delivers.

Configuration is read from an optional YAML file, then CENSUS_* environment
variables, then flags.

Examples:
  census-stream tail --service-id example
  census-stream watch --env ps4eu
  census-stream mock --addr :8089
  census-stream tail --insecure --endpoint ws://localhost:8089/streaming`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "", "Path to YAML config file")
	pf.BoolVar(&g.debug, "debug", false, "Enable debug logs")
	pf.StringVar(&g.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	pf.StringVar(&g.env, "env", "", "Push environment (pc, ps4us, ps4eu)")
	pf.StringVar(&g.serviceID, "service-id", "", "Census service id")
	pf.StringVar(&g.endpoint, "endpoint", "", "Push endpoint URL")
	pf.BoolVar(&g.insecure, "insecure", false, "Allow plain ws:// endpoints")
	pf.StringVar(&g.logFile, "log-file", "", "Write logs to this file instead of stderr")

	rootCmd.AddCommand(
		watchCmd(&g),
		tailCmd(&g),
		mockCmd(&g),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %s\n", color.RedString("Error:"), err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("census-stream %s (%s)\n", version, commit)
		},
	}
}

// load reads the configuration and applies flag overrides.
func (g *globals) load() (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	if g.debug {
		cfg.Log.Debug = true
	}
	if g.metricsAddr != "" {
		cfg.Metrics.Addr = g.metricsAddr
	}
	if g.env != "" {
		cfg.Census.Environment = g.env
	}
	if g.serviceID != "" {
		cfg.Census.ServiceID = g.serviceID
	}
	if g.endpoint != "" {
		cfg.Census.Endpoint = g.endpoint
	}
	if g.insecure {
		cfg.Census.Insecure = true
	}
	return cfg, nil
}

// logContext builds the root context carrying the logger. The returned
// close func releases the log file, if one was opened.
func (g *globals) logContext(ctx context.Context, cfg *config.Config, quiet bool) (context.Context, func(), error) {
	var out io.Writer = os.Stderr
	closer := func() {}
	switch {
	case g.logFile != "":
		f, err := os.OpenFile(g.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		out, closer = f, func() { _ = f.Close() }
	case quiet:
		// The terminal UI owns the screen.
		out = io.Discard
	}

	format := log.FormatJSON
	switch cfg.Log.Format {
	case "terminal":
		format = log.FormatTerminal
	case "auto":
		if g.logFile == "" && log.IsTerminal() {
			format = log.FormatTerminal
		}
	}
	ctx = log.Context(ctx, log.WithFormat(format), log.WithOutput(out))
	if cfg.Log.Debug {
		ctx = log.Context(ctx, log.WithDebug())
		log.Debugf(ctx, "debug logs enabled")
	}
	return ctx, closer, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// serveMetrics exposes the default registry until ctx is done.
func serveMetrics(ctx context.Context, addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info(ctx, log.KV{K: "msg", V: "serving metrics"}, log.KV{K: "addr", V: addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, err, log.KV{K: "msg", V: "metrics server"})
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

// connect validates cfg, opens a client and sends the configured
// subscription.
func connect(ctx context.Context, cfg *config.Config) (*stream.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts := []stream.Option{
		stream.WithDialer(cfg.Dialer()),
		stream.WithLogger(ctx),
	}
	if cfg.Metrics.Addr != "" {
		opts = append(opts, stream.WithMetrics(metrics.New()))
		serveMetrics(ctx, cfg.Metrics.Addr)
	}

	c, err := stream.Connect(ctx, cfg.Environment(), cfg.Census.ServiceID, opts...)
	if err != nil {
		return nil, err
	}
	if err := c.Send(ctx, cfg.Subscribe()); err != nil {
		_ = c.Close()
		return nil, err
	}
	log.Info(ctx, log.KV{K: "msg", V: "subscribed"},
		log.KV{K: "session", V: c.ID()},
		log.KV{K: "environment", V: string(cfg.Environment())})
	return c, nil
}
