package main

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/colorboard/cmd/colorboard/console"
)

var shellCompleter = readline.NewPrefixCompleter(
	readline.PcItem("id"),
	readline.PcItem("brightness"),
	readline.PcItem("gain",
		readline.PcItem("1"), readline.PcItem("4"), readline.PcItem("16"), readline.PcItem("60"),
	),
	readline.PcItem("timing"),
	readline.PcItem("read",
		readline.PcItem("red"), readline.PcItem("green"), readline.PcItem("blue"), readline.PcItem("clear"),
	),
	readline.PcItem("pins"),
	readline.PcItem("stats"),
	readline.PcItem("help"),
	readline.PcItem("exit"),
)

var shellCmd = cli.Command{
	Name:  "shell",
	Usage: "interactive session keeping the board open",
	Flags: []cli.Flag{formatFlag},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		b, cleanup, err := openBoard(c.Context, cfg)
		if err != nil {
			return failure("could not open board", err)
		}
		defer cleanup()

		history := ""
		if home, err := os.UserHomeDir(); err == nil {
			history = filepath.Join(home, ".colorboard_history")
		}
		rl, err := readline.NewEx(&readline.Config{
			Prompt:          console.Bold("colorboard> "),
			HistoryFile:     history,
			AutoComplete:    shellCompleter,
			InterruptPrompt: "^C",
			EOFPrompt:       "exit",
		})
		if err != nil {
			return console.Exit(console.ExitFailure, "could not start shell: %s", console.Red(err))
		}
		defer rl.Close()

		o := &operator{b: b, w: rl.Stdout(), format: c.String("format")}
		for {
			line, err := rl.Readline()
			if errors.Is(err, readline.ErrInterrupt) {
				if line == "" {
					return nil
				}
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return console.Exit(console.ExitFailure, "%s", console.Red(err))
			}
			line = strings.TrimSpace(line)
			if line == "exit" || line == "quit" {
				return nil
			}
			if err := o.exec(c.Context, line); err != nil {
				console.Errorf("%s", err)
			}
		}
	},
}
