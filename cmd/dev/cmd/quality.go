package cmd

import (
	"fmt"
	"log/slog"

	"github.com/gophertribe/devtool/test"
	"github.com/spf13/cobra"
)

func TestCmd() *cobra.Command {
	return step("test", "Run unit tests", func() error { return test.Test() })
}

func LintCmd() *cobra.Command {
	return step("lint", "Run linters", func() error { return test.Lint() })
}

// IntegrationTestCmd runs the integration tests. They need a board on a real bus.
func IntegrationTestCmd() *cobra.Command {
	return step("integration-test", "Run integration tests", func() error { return test.Integ() })
}

// CheckCmd runs lint and unit tests, stopping at the first failure.
func CheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run lint and unit tests",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, s := range []*cobra.Command{LintCmd(), TestCmd()} {
				slog.Info("running", "step", s.Name())
				if err := s.RunE(cmd, args); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func step(use, short string, run func() error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := run(); err != nil {
				return fmt.Errorf("%s failed: %w", use, err)
			}
			return nil
		},
	}
}
