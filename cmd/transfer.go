package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ytmigrate/internal/formatter"
	"github.com/desertthunder/ytmigrate/internal/models"
	"github.com/desertthunder/ytmigrate/internal/repositories"
	"github.com/desertthunder/ytmigrate/internal/services"
	"github.com/desertthunder/ytmigrate/internal/shared"
	"github.com/desertthunder/ytmigrate/internal/tasks"
)

// Transfer copies the source playlist into a new destination playlist.
func (r *Runner) Transfer(ctx context.Context, cmd *cli.Command) error {
	return r.transfer(ctx, cmd, cmd.Bool("tui"))
}

func (r *Runner) transfer(ctx context.Context, cmd *cli.Command, useTUI bool) error {
	ref, name := cmd.Args().Get(0), cmd.Args().Get(1)
	if ref == "" || name == "" {
		return fmt.Errorf("%w: usage: ytmigrate transfer <source-ref> <destination-name>", shared.ErrMissingArgument)
	}

	r.applyFlags(cmd)
	if err := r.checkTransferConfig(); err != nil {
		return err
	}

	var reportFormat formatter.Format
	writeReport := cmd.IsSet("report") || cmd.IsSet("report-format")
	if writeReport {
		f, err := formatter.ParseFormat(cmd.String("report-format"))
		if err != nil {
			return err
		}
		reportFormat = f
	}

	lock, err := shared.AcquireRunLock(shared.LockPath(r.config.Credentials.YouTube.AuthFile))
	if err != nil {
		return err
	}
	defer lock.Release()

	if useTUI {
		fileLogger, closer, err := shared.NewFileLogger(tuiLogPath)
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		defer closer.Close()
		fileLogger.SetLevel(r.logger.GetLevel())
		r.SetLogger(fileLogger)
	}

	src, dst, err := r.connect(ctx)
	if err != nil {
		return err
	}
	engine := r.newEngine(src, dst)

	r.logger.Info("starting transfer", "source", ref, "destination", name)

	var outcome *models.TransferOutcome
	var runErr error
	if useTUI {
		outcome, runErr = r.runTUI(ctx, engine, ref, name)
	} else {
		outcome, runErr = r.runPlain(ctx, engine, ref, name)
	}
	if outcome == nil {
		return runErr
	}

	r.printSummary(outcome)

	if writeReport {
		path, err := formatter.WriteReport(outcome, reportFormat, cmd.String("report"))
		if err != nil {
			r.logger.Error("failed to write report", "error", err)
		} else {
			r.writePlain("Report written to %s\n", path)
		}
	}

	r.journal(context.WithoutCancel(ctx), outcome)
	return runErr
}

// checkTransferConfig reports configuration errors before any catalog is contacted.
func (r *Runner) checkTransferConfig() error {
	if err := r.config.Validate(); err != nil {
		return err
	}
	if err := r.config.RequireSpotify(); err != nil {
		return err
	}
	return r.config.RequireAuthFile()
}

// connect builds both catalog clients and verifies they are reachable.
func (r *Runner) connect(ctx context.Context) (services.SourceCatalog, services.DestinationCatalog, error) {
	src, err := r.newSource(r.config, r.logger)
	if err != nil {
		return nil, nil, err
	}
	dst, err := r.newDestination(r.config, r.logger)
	if err != nil {
		return nil, nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, r.config.Timeouts.Call.Duration)
	defer cancel()

	if err := src.Connect(callCtx); err != nil {
		return nil, nil, fmt.Errorf("connecting to %s: %w", src.Name(), err)
	}
	if err := dst.Connect(callCtx); err != nil {
		return nil, nil, fmt.Errorf("connecting to %s: %w", dst.Name(), err)
	}
	return src, dst, nil
}

func (r *Runner) newEngine(src services.SourceCatalog, dst services.DestinationCatalog) *tasks.TransferEngine {
	c := r.config
	return tasks.NewTransferEngine(src, dst,
		tasks.WithWorkers(c.Resolve.Workers),
		tasks.WithThreshold(c.Resolve.Threshold),
		tasks.WithSearchLimit(c.Resolve.SearchLimit),
		tasks.WithCallTimeout(c.Timeouts.Call.Duration),
		tasks.WithDescription(c.Destination.Description),
		tasks.WithLogger(r.logger),
	)
}

// runPlain runs the engine while printing progress lines to the output.
func (r *Runner) runPlain(ctx context.Context, engine *tasks.TransferEngine, ref, name string) (*models.TransferOutcome, error) {
	r.writePlain("Starting playlist transfer...\n")
	r.writePlain("Source: %s\n", ref)
	r.writePlain("Destination: %s\n\n", name)

	progressCh := make(chan tasks.ProgressUpdate, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			r.printProgress(update)
		}
	}()

	outcome, err := engine.Run(ctx, ref, name, progressCh)
	close(progressCh)
	<-done
	return outcome, err
}

func (r *Runner) printProgress(update tasks.ProgressUpdate) {
	switch update.Phase {
	case tasks.Extracting, tasks.Fetching:
		r.writePlain("📥 %s\n", update.Message)
	case tasks.Resolving:
		if _, ok := update.Data.(tasks.Resolution); ok || r.logger.GetLevel() <= log.DebugLevel {
			r.writePlain("   %s\n", update.Message)
		}
	case tasks.Creating:
		r.writePlain("\n📝 %s\n", update.Message)
	case tasks.Populating:
		r.writePlain("   %s\n", update.Message)
	}
}

// printSummary writes the final counts and the unresolved tracks.
func (r *Runner) printSummary(o *models.TransferOutcome) {
	r.writePlain("\n")
	if o.Success {
		r.writePlainHeader("Transfer Complete!")
	} else {
		r.writePlainHeader("Transfer Failed")
		if o.Err != nil {
			r.writePlain("Error: %v\n", o.Err)
		}
	}

	source := o.SourceRef
	if o.SourceID != "" {
		source = o.SourceID
	}
	r.writePlain("Source: %s (%d tracks)\n", source, o.Total)
	if o.PlaylistID != "" {
		r.writePlain("Destination: %s (%s)\n", o.DestinationName, o.PlaylistID)
	} else {
		r.writePlain("Destination: %s (not created)\n", o.DestinationName)
	}
	r.writePlain("Resolved: %d/%d\n", len(o.Resolved), o.Total)
	r.writePlain("Added: %d\n", o.Added)

	if len(o.AddFailures) > 0 {
		r.writePlain("\nFailed to add %d tracks:\n", len(o.AddFailures))
		for _, f := range o.AddFailures {
			r.writePlain("  - %s: %s\n", f.Track.Descriptor.Label(), f.Reason)
		}
	}

	if len(o.Unresolved) > 0 {
		r.writePlain("\nCould not match %d tracks:\n", len(o.Unresolved))
		r.writePlain("%s\n", formatter.UnresolvedTable(o, formatter.IsTerminal(r.output)))
	}
}

// journal records the outcome when a database path is configured. Journal errors never fail a run.
func (r *Runner) journal(ctx context.Context, o *models.TransferOutcome) {
	if r.config.Database.Path == "" {
		return
	}

	db, err := shared.OpenJournal(ctx, r.config.Database)
	if err != nil {
		r.logger.Warn("run journal unavailable", "error", err)
		return
	}
	defer db.Close()

	if err := repositories.NewRunRepository(db).Save(ctx, o); err != nil {
		r.logger.Warn("failed to journal run", "run_id", o.RunID, "error", err)
		return
	}
	r.logger.Debug("run journaled", "run_id", o.RunID, "path", r.config.Database.Path)
}
