package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/mklimuk/colorboard"
	"github.com/mklimuk/colorboard/board"
	"github.com/mklimuk/colorboard/cmd/colorboard/console"
)

// Output formats
const (
	formatTable = "table"
	formatYAML  = "yaml"
	formatJSON  = "json"
)

// operator runs board operations and prints their results. It backs both the
// commands and the interactive shell.
type operator struct {
	b      *board.Board
	w      io.Writer
	format string
}

func (o *operator) id(ctx context.Context) error {
	id, err := o.b.DeviceID(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(o.w, "%s (%#x) ir filter: %t\n", console.White(id), byte(id), id.HasIRFilter())
	return nil
}

func (o *operator) brightness(ctx context.Context, center, sides int) error {
	if err := o.b.SetBrightness(ctx, center, sides); err != nil {
		return err
	}
	cfg, _ := o.b.LastConfig()
	_, _ = fmt.Fprintf(o.w, "brightness center: %s sides: %s\n", console.White(cfg.CenterBrightness), console.White(cfg.SideBrightness))
	return nil
}

func (o *operator) gain(ctx context.Context, gain int) error {
	if err := o.b.SetGain(ctx, gain); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(o.w, "gain: %sx\n", console.White(gain))
	return nil
}

func (o *operator) timing(ctx context.Context, cycles int) error {
	if err := o.b.SetTiming(ctx, cycles); err != nil {
		return err
	}
	cfg, _ := o.b.LastConfig()
	_, _ = fmt.Fprintf(o.w, "timing: %s cycles\n", console.White(cfg.TimingCycles))
	return nil
}

// read prints all sensors, a single sensor (sensor >= 0) or a single channel (channel != "").
func (o *operator) read(ctx context.Context, channel string, sensor int) error {
	switch {
	case channel != "":
		ch, err := colorboard.ParseChannel(channel)
		if err != nil {
			return err
		}
		values, err := o.b.Channel(ctx, ch)
		if err != nil {
			return err
		}
		return o.print(map[string][colorboard.SensorCount]uint16{ch.String(): values}, func(w io.Writer) {
			_, _ = fmt.Fprintf(w, "SENSOR\t%s\n", strings.ToUpper(ch.String()))
			for i, v := range values {
				_, _ = fmt.Fprintf(w, "%d\t%d\n", i, v)
			}
		})
	case sensor >= 0:
		c, err := o.b.SensorColor(ctx, sensor)
		if err != nil {
			return err
		}
		return o.print(c, func(w io.Writer) {
			printHeader(w)
			printColor(w, sensor, c)
		})
	}
	snap, err := o.b.Colors(ctx)
	if err != nil {
		return err
	}
	return o.print(snap, func(w io.Writer) {
		printHeader(w)
		for i, c := range snap.Sensors {
			printColor(w, i, c)
		}
	})
}

func (o *operator) pins(ctx context.Context) error {
	analog, err := o.b.AnalogPins(ctx)
	if err != nil {
		return err
	}
	digital, err := o.b.DigitalPins(ctx)
	if err != nil {
		return err
	}
	pins := struct {
		Analog  colorboard.AnalogPins  `json:"analog" yaml:"analog"`
		Digital colorboard.DigitalPins `json:"digital" yaml:"digital"`
	}{analog, digital}
	return o.print(pins, func(w io.Writer) {
		_, _ = fmt.Fprintf(w, "PIN\tANALOG\tDIGITAL\n")
		for i := range analog {
			_, _ = fmt.Fprintf(w, "%d\t%d\t%t\n", i, analog[i], digital[i])
		}
	})
}

func (o *operator) print(v interface{}, table func(w io.Writer)) error {
	switch o.format {
	case formatYAML:
		enc := yaml.NewEncoder(o.w)
		defer enc.Close()
		return enc.Encode(v)
	case formatJSON:
		enc := json.NewEncoder(o.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatTable, "":
		w := tabwriter.NewWriter(o.w, 8, 0, 2, ' ', 0)
		table(w)
		return w.Flush()
	}
	return fmt.Errorf("%w: unknown format %q", colorboard.ErrInvalidArgument, o.format)
}

func printHeader(w io.Writer) {
	_, _ = fmt.Fprintf(w, "SENSOR\tRED\tGREEN\tBLUE\tCLEAR\n")
}

func printColor(w io.Writer, sensor int, c colorboard.Color) {
	_, _ = fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%d\n", sensor, c.Red, c.Green, c.Blue, c.Clear)
}

const shellHelp = `commands:
  id                          read sensor type
  brightness <center> <sides> set LED brightness (0-255)
  gain <1|4|16|60>            set sensor gain
  timing <cycles>             set integration cycles (1-256)
  read [sensor|channel]       read all sensors, one sensor (0-4) or one channel (r,g,b,c)
  pins                        read the pin header
  stats                       show sampler statistics
  help                        show this help
  exit                        leave the shell
`

// exec runs a single shell line.
func (o *operator) exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	args := fields[1:]
	ints, err := atoi(args)
	switch fields[0] {
	case "id":
		return o.id(ctx)
	case "brightness", "br":
		if len(ints) != 2 || err != nil {
			return usageError("brightness <center> <sides>")
		}
		return o.brightness(ctx, ints[0], ints[1])
	case "gain":
		if len(ints) != 1 || err != nil {
			return usageError("gain <1|4|16|60>")
		}
		return o.gain(ctx, ints[0])
	case "timing":
		if len(ints) != 1 || err != nil {
			return usageError("timing <cycles>")
		}
		return o.timing(ctx, ints[0])
	case "read", "rd":
		switch {
		case len(args) == 0:
			return o.read(ctx, "", -1)
		case err == nil && len(ints) == 1:
			return o.read(ctx, "", ints[0])
		case len(args) == 1:
			return o.read(ctx, args[0], -1)
		}
		return usageError("read [sensor|channel]")
	case "pins":
		return o.pins(ctx)
	case "stats":
		s := o.b.Sampler()
		if s == nil {
			_, _ = fmt.Fprintln(o.w, "on-demand sampling, no statistics")
			return nil
		}
		stats := s.Stats()
		_, _ = fmt.Fprintf(o.w, "cycles: %d failures: %d last error: %v\n", stats.Cycles, stats.Failures, stats.LastError)
		return nil
	case "help", "?":
		_, _ = fmt.Fprint(o.w, shellHelp)
		return nil
	}
	return fmt.Errorf("%w: unknown command %q, try help", colorboard.ErrInvalidArgument, fields[0])
}

func usageError(usage string) error {
	return fmt.Errorf("%w: usage: %s", colorboard.ErrInvalidArgument, usage)
}

func atoi(args []string) ([]int, error) {
	out := make([]int, 0, len(args))
	for _, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
