package main

import (
	"context"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/colorboard/cmd/colorboard/console"
)

var formatFlag = &cli.StringFlag{
	Name:    "format",
	Aliases: []string{"f"},
	Usage:   "output format: table, yaml or json",
	Value:   formatTable,
}

// withOperator opens the board for the duration of a single command.
func withOperator(c *cli.Context, fn func(ctx context.Context, o *operator) error) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	b, cleanup, err := openBoard(c.Context, cfg)
	if err != nil {
		return failure("could not open board", err)
	}
	defer cleanup()
	if err := b.WaitReady(c.Context); err != nil {
		return failure("no readings", err)
	}
	format := formatTable
	if c.IsSet("format") {
		format = c.String("format")
	}
	return fn(c.Context, &operator{b: b, w: console.Output(), format: format})
}

var idCmd = cli.Command{
	Name:  "id",
	Usage: "read the type of the color sensors",
	Action: func(c *cli.Context) error {
		return withOperator(c, func(ctx context.Context, o *operator) error {
			if err := o.id(ctx); err != nil {
				return failure("could not read device id", err)
			}
			return nil
		})
	},
}

var setCmd = cli.Command{
	Name:  "set",
	Usage: "configure the board",
	Subcommands: []*cli.Command{
		&setBrightnessCmd,
		&setGainCmd,
		&setTimingCmd,
	},
}

var setBrightnessCmd = cli.Command{
	Name:      "brightness",
	Aliases:   []string{"br"},
	Usage:     "set LED brightness (0-255) of the center and side sensors",
	ArgsUsage: "<center> <sides>",
	Action: func(c *cli.Context) error {
		args, err := intArgs(c, 2)
		if err != nil {
			return err
		}
		return withOperator(c, func(ctx context.Context, o *operator) error {
			if err := o.brightness(ctx, args[0], args[1]); err != nil {
				return failure("could not set brightness", err)
			}
			return nil
		})
	},
}

var setGainCmd = cli.Command{
	Name:      "gain",
	Usage:     "set sensor gain: 1, 4, 16 or 60",
	ArgsUsage: "<gain>",
	Action: func(c *cli.Context) error {
		args, err := intArgs(c, 1)
		if err != nil {
			return err
		}
		return withOperator(c, func(ctx context.Context, o *operator) error {
			if err := o.gain(ctx, args[0]); err != nil {
				return failure("could not set gain", err)
			}
			return nil
		})
	},
}

var setTimingCmd = cli.Command{
	Name:      "timing",
	Usage:     "set the number of integration cycles (1-256)",
	ArgsUsage: "<cycles>",
	Action: func(c *cli.Context) error {
		args, err := intArgs(c, 1)
		if err != nil {
			return err
		}
		return withOperator(c, func(ctx context.Context, o *operator) error {
			if err := o.timing(ctx, args[0]); err != nil {
				return failure("could not set timing", err)
			}
			return nil
		})
	},
}

var readCmd = cli.Command{
	Name:    "read",
	Aliases: []string{"rd"},
	Usage:   "read colors of all sensors, one sensor or one channel",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "channel",
			Usage: "read a single channel of all sensors: red, green, blue or clear",
		},
		&cli.IntFlag{
			Name:  "sensor",
			Usage: "read a single sensor (0-4)",
			Value: -1,
		},
		formatFlag,
	},
	Action: func(c *cli.Context) error {
		if c.IsSet("channel") && c.IsSet("sensor") {
			return console.Exit(console.ExitUsage, "--channel and --sensor are exclusive")
		}
		return withOperator(c, func(ctx context.Context, o *operator) error {
			if err := o.read(ctx, c.String("channel"), c.Int("sensor")); err != nil {
				return failure("could not read colors", err)
			}
			return nil
		})
	},
}

var pinsCmd = cli.Command{
	Name:  "pins",
	Usage: "read the analog and digital inputs of the pin header",
	Flags: []cli.Flag{formatFlag},
	Action: func(c *cli.Context) error {
		return withOperator(c, func(ctx context.Context, o *operator) error {
			if err := o.pins(ctx); err != nil {
				return failure("could not read pins", err)
			}
			return nil
		})
	},
}

var configCmd = cli.Command{
	Name:  "config",
	Usage: "print the effective configuration",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		if err := cfg.Write(console.Output()); err != nil {
			return console.Exit(console.ExitFailure, "%s", console.Red(err))
		}
		return nil
	},
}

func intArgs(c *cli.Context, n int) ([]int, error) {
	if c.NArg() != n {
		return nil, console.Exit(console.ExitUsage, "usage: %s %s", c.Command.FullName(), c.Command.ArgsUsage)
	}
	out := make([]int, n)
	for i := range out {
		v, err := strconv.Atoi(c.Args().Get(i))
		if err != nil {
			return nil, console.Exit(console.ExitUsage, "invalid argument %q: %s", c.Args().Get(i), console.Red(err))
		}
		out[i] = v
	}
	return out, nil
}
