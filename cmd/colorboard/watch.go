package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/colorboard"
	"github.com/mklimuk/colorboard/board"
	"github.com/mklimuk/colorboard/cmd/colorboard/console"
)

const barWidth = 64

var watchCmd = cli.Command{
	Name:  "watch",
	Usage: "display live readings as bars",
	Flags: []cli.Flag{
		&cli.DurationFlag{
			Name:  "refresh",
			Usage: "display refresh interval",
			Value: 200 * time.Millisecond,
		},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		if !c.IsSet("sampling") {
			cfg.Sampling = board.SamplingBackground.String()
		}
		ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		b, cleanup, err := openBoard(ctx, cfg)
		if err != nil {
			return failure("could not open board", err)
		}
		defer cleanup()
		if err := b.WaitReady(ctx); err != nil {
			return failure("no readings", err)
		}
		ticker := time.NewTicker(c.Duration("refresh"))
		defer ticker.Stop()
		for {
			snap, err := b.Colors(ctx)
			switch {
			case errors.Is(err, context.Canceled):
				return nil
			case err != nil:
				console.Warnf("could not read colors: %s", err)
			default:
				console.ClearScreen()
				renderBars(console.Output(), snap)
			}
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	},
}

func renderBars(w io.Writer, snap colorboard.Snapshot) {
	if snap.Generation > 0 {
		_, _ = fmt.Fprintf(w, "%s generation %d at %s\n", console.PictoSensor, snap.Generation, snap.Time.Format(time.TimeOnly))
	}
	for i, c := range snap.Sensors {
		_, _ = fmt.Fprintf(w, "%s\n", console.Bold(fmt.Sprintf("sensor %d", i)))
		_, _ = fmt.Fprintf(w, " R %s %5d\n", console.Red(console.Bar(c.Red, barWidth)), c.Red)
		_, _ = fmt.Fprintf(w, " G %s %5d\n", console.Green(console.Bar(c.Green, barWidth)), c.Green)
		_, _ = fmt.Fprintf(w, " B %s %5d\n", console.Blue(console.Bar(c.Blue, barWidth)), c.Blue)
		_, _ = fmt.Fprintf(w, " C %s %5d\n", console.White(console.Bar(c.Clear, barWidth)), c.Clear)
	}
}
