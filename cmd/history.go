package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ytmigrate/internal/formatter"
	"github.com/desertthunder/ytmigrate/internal/repositories"
	"github.com/desertthunder/ytmigrate/internal/shared"
)

// History lists journaled runs, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	if r.config.Database.Path == "" {
		return fmt.Errorf("%w: database.path is empty, the run journal is disabled", shared.ErrInvalidConfig)
	}

	db, err := shared.OpenJournal(ctx, r.config.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := repositories.NewRunRepository(db).List(ctx, cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(records, true)
	}
	if len(records) == 0 {
		return r.writePlain("No runs recorded in %s\n", r.config.Database.Path)
	}
	return r.writePlain("%s\n", formatter.HistoryTable(records, formatter.IsTerminal(r.output)))
}
