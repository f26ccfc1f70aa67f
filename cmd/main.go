package main

import (
	"context"
	"os"

	"github.com/desertthunder/ytmigrate/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	if err := runner.app().Run(context.Background(), os.Args); err != nil {
		runner.logger.Fatal("ytmigrate failed", "error", err)
	}
}
