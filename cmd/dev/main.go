package main

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/mklimuk/colorboard/cmd/dev/cmd"
)

const (
	groupBuild   = "build"
	groupQuality = "quality"
)

func main() {
	var debug bool
	rootCmd := &cobra.Command{
		Use:   "dev",
		Short: "Development tool of the colorboard driver and cli",
		Long: `Development tool of the colorboard driver and cli.

The cli links the MCP2221 USB adapter through cgo, so builds for another
platform (e.g. the NanoPi) run in a docker image with cross toolchains.
Integration tests talk to a real board and are kept apart from unit tests.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(newLogger(os.Stdout, debug))
		},
	}
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddGroup(
		&cobra.Group{ID: groupBuild, Title: "Build and release:"},
		&cobra.Group{ID: groupQuality, Title: "Quality checks:"},
	)
	addToGroup(rootCmd, groupBuild, cmd.BuildCmd(), cmd.ChangelogCmd())
	addToGroup(rootCmd, groupQuality, cmd.TestCmd(), cmd.LintCmd(), cmd.IntegrationTestCmd(), cmd.CheckCmd())

	if err := rootCmd.Execute(); err != nil {
		slog.Error("dev command failed", "error", err)
		os.Exit(1)
	}
}

func addToGroup(root *cobra.Command, group string, cmds ...*cobra.Command) {
	for _, c := range cmds {
		c.GroupID = group
		root.AddCommand(c)
	}
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	charm := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Prefix:          "colorboard/dev",
		Level:           log.InfoLevel,
	})
	charm.SetColorProfile(termenv.TrueColor)
	if debug {
		charm.SetLevel(log.DebugLevel)
		charm.SetReportCaller(true)
	}
	return slog.New(charm)
}
