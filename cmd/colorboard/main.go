package main

import (
	"errors"
	"log/slog"
	"os"
	"time"

	chlog "github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/colorboard"
	"github.com/mklimuk/colorboard/cmd/colorboard/console"
	"github.com/mklimuk/colorboard/pkg/config"
	"github.com/mklimuk/colorboard/snsctx"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	app := cli.NewApp()
	app.Name = "colorboard"
	app.EnableBashCompletion = true
	app.Version = config.BuildInfo()
	app.Usage = "color board cli"
	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "enable verbose logging",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML configuration file",
			EnvVars: []string{"COLORBOARD_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "adapter",
			Aliases: []string{"a"},
			Usage:   "bus adapter: mcp2221, generic, nanopi or emulator",
		},
		&cli.StringFlag{
			Name:  "device",
			Usage: "I2C bus name for the generic adapter",
		},
		&cli.IntFlag{
			Name:  "bus",
			Usage: "I2C bus number for the nanopi adapter",
		},
		&cli.UintFlag{
			Name:  "addr",
			Usage: "board I2C address",
		},
		&cli.StringFlag{
			Name:  "sampling",
			Usage: "on-demand or background",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "bus transaction timeout (default depends on the adapter)",
		},
	}
	app.Before = func(c *cli.Context) error {
		charm := chlog.NewWithOptions(os.Stderr, chlog.Options{
			ReportCaller:    true,
			ReportTimestamp: true,
			TimeFormat:      time.DateTime,
		})
		charm.SetColorProfile(termenv.TrueColor)
		charm.SetLevel(chlog.InfoLevel)
		if c.Bool("verbose") {
			charm.SetLevel(chlog.DebugLevel)
		}
		logger := slog.New(charm)
		slog.SetDefault(logger)
		c.Context = snsctx.WithLogger(snsctx.SetVerbose(c.Context, c.Bool("verbose")), logger)
		return nil
	}
	app.Commands = cli.Commands{
		&idCmd,
		&setCmd,
		&readCmd,
		&pinsCmd,
		&watchCmd,
		&publishCmd,
		&shellCmd,
		&configCmd,
		&mcp2221Cmd,
		&usbCmd,
	}
	err := app.Run(args)
	if err != nil {
		var exerr cli.ExitCoder
		if errors.As(err, &exerr) {
			slog.Error("command failed", "error", err)
			return exerr.ExitCode()
		}
		slog.Error("unexpected error", "error", err)
		return console.ExitFailure
	}
	return 0
}

// loadConfig reads the configuration file and applies global flag overrides.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cfg, console.Exit(console.ExitUsage, "configuration error: %s", console.Red(err))
	}
	if c.IsSet("adapter") {
		cfg.Adapter = c.String("adapter")
	}
	if c.IsSet("device") {
		cfg.Device = c.String("device")
	}
	if c.IsSet("bus") {
		cfg.Bus = c.Int("bus")
	}
	if c.IsSet("addr") {
		cfg.Address = uint8(c.Uint("addr"))
	}
	if c.IsSet("sampling") {
		cfg.Sampling = c.String("sampling")
	}
	if c.IsSet("timeout") {
		cfg.Timeout = c.Duration("timeout")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, console.Exit(console.ExitUsage, "configuration error: %s", console.Red(err))
	}
	return cfg, nil
}

// failure maps err to an exit error with a code telling bus failures from usage errors.
func failure(msg string, err error) error {
	switch {
	case errors.Is(err, colorboard.ErrInvalidArgument):
		return console.Exit(console.ExitUsage, "%s: %s", msg, console.Red(err))
	case errors.Is(err, colorboard.ErrBus):
		return console.Exit(console.ExitBus, "%s: %s", msg, console.Red(err))
	}
	return console.Exit(console.ExitFailure, "%s: %s", msg, console.Red(err))
}
