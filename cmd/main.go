package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/hypertrack/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	runner := NewRunner(RunnerOpts{Logger: logger})
	defer runner.Close()

	if err := newApp(runner).Run(context.Background(), os.Args); err != nil {
		switch {
		case errors.Is(err, shared.ErrNotAuthenticated):
			logger.Fatal(err.Error() + " (run `hypertrack auth login`)")
		default:
			logger.Fatal(runner.describe(err))
		}
	}
}

// newApp builds the root command over runner.
func newApp(runner *Runner) *cli.Command {
	return &cli.Command{
		Name:     "hypertrack",
		Usage:    "Track which playlists your artists appear on",
		Version:  "0.3.0",
		Flags:    globalFlags(),
		Before:   runner.Init,
		Commands: runner.register(),
	}
}
