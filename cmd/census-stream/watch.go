package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/ps2-census/census-stream/internal/app"
)

func watchCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Browse the live event stream in a terminal UI",
		Long: `Open a full-screen view of the live event stream with connection
health, reconnect weight and per-event detail.

Logs are discarded unless --log-file is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(g)
		},
	}
}

func runWatch(g *globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()
	ctx, closeLog, err := g.logContext(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer closeLog()

	c, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	m := app.New(c, cfg.Environment(), cfg.Reconnect.MaxWeight)
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if ctx.Err() != nil {
		// Interrupted by a signal.
		return nil
	}
	return err
}
