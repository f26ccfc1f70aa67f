package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ytmigrate/internal/models"
	"github.com/desertthunder/ytmigrate/internal/tasks"
	"github.com/desertthunder/ytmigrate/internal/ui"
)

// logs are redirected here while the TUI owns the terminal
const tuiLogPath = "./tmp/ytmigrate-tui.log"

// TUI runs a transfer with the interactive terminal view.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	return r.transfer(ctx, cmd, true)
}

func (r *Runner) runTUI(ctx context.Context, engine *tasks.TransferEngine, ref, name string) (*models.TransferOutcome, error) {
	title := fmt.Sprintf("Transferring %s → %s", ref, name)
	model := ui.NewModel(ctx, title, func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*models.TransferOutcome, error) {
		return engine.Run(ctx, ref, name, progress)
	})

	if _, err := tea.NewProgram(model, tea.WithContext(ctx)).Run(); err != nil {
		return model.Outcome(), fmt.Errorf("error running TUI: %w", err)
	}
	return model.Outcome(), model.Err()
}
