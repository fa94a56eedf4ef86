package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"goa.design/clue/log"

	"github.com/ps2-census/census-stream/internal/app"
	"github.com/ps2-census/census-stream/internal/render"
	"github.com/ps2-census/census-stream/pkg/events"
)

func tailCmd(g *globals) *cobra.Command {
	var (
		asJSON bool
		count  int
	)

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print events as they arrive",
		Long: `Print one line per event until interrupted.

Examples:
  census-stream tail
  census-stream tail --json | jq .
  census-stream tail -n 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTail(g, cmd.OutOrStdout(), asJSON, count)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print one JSON object per event")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "Stop after this many events (0 means no limit)")

	return cmd
}

func runTail(g *globals, out io.Writer, asJSON bool, count int) error {
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

	c, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	p := newPrinter(out, asJSON)
	for n := 0; count == 0 || n < count; {
		ev, err := c.NextEvent(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if app.Fatal(err) {
				return err
			}
			log.Error(ctx, err, log.KV{K: "msg", V: "frame skipped"})
			continue
		}
		if err := p.print(ev); err != nil {
			return err
		}
		n++
	}
	return nil
}

type printer struct {
	out    io.Writer
	json   bool
	colors map[events.Family]*color.Color
}

func newPrinter(out io.Writer, asJSON bool) *printer {
	p := &printer{out: out, json: asJSON}
	if f, ok := out.(*os.File); !ok || !isatty.IsTerminal(f.Fd()) {
		return p
	}
	p.colors = map[events.Family]*color.Color{
		events.FamilyCharacter:  color.New(color.FgCyan),
		events.FamilyConnection: color.New(color.FgMagenta),
		events.FamilyWorld:      color.New(color.FgYellow),
		events.FamilyStatus:     color.New(color.FgGreen),
	}
	return p
}

func (p *printer) print(ev events.Event) error {
	if p.json {
		data, err := render.JSON(ev)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(p.out, string(data))
		return err
	}
	line := render.Line(ev)
	if c, ok := p.colors[events.FamilyOf(ev.EventName())]; ok {
		line = c.Sprint(line)
	}
	_, err := fmt.Fprintln(p.out, line)
	return err
}
