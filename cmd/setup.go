package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ytmigrate/internal/repositories"
	"github.com/desertthunder/ytmigrate/internal/shared"
)

// SetupConfig writes config.toml from the embedded template.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Configuration written to %s\n", path)
	r.writePlain("\nNext steps:\n")
	r.writePlain("1. Set credentials.spotify.client_id and client_secret (or %s / %s)\n",
		shared.EnvSpotifyClientID, shared.EnvSpotifyClientSecret)
	r.writePlain("2. Run 'ytmigrate setup youtube --curl-file request.sh' to create the YouTube Music auth file\n")
	return nil
}

// SetupDatabase creates the run journal and applies migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	if r.config.Database.Path == "" {
		return fmt.Errorf("%w: database.path is empty, the run journal is disabled", shared.ErrInvalidConfig)
	}

	r.logger.Info("running database migrations", "path", r.config.Database.Path)
	db, err := shared.OpenJournal(ctx, r.config.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	count, err := repositories.NewRunRepository(db).Count(ctx)
	if err != nil {
		return err
	}

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	r.writePlain("✓ Run journal ready at %s (%d runs recorded)\n", r.config.Database.Path, count)
	return nil
}

// SetupYouTube builds the YouTube Music auth file from a browser "Copy as cURL" request.
func (r *Runner) SetupYouTube(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")
	outputPath := cmd.String("output")

	if curlCmd == "" && curlFile == "" {
		return fmt.Errorf("%w: either --curl or --curl-file must be provided", shared.ErrMissingArgument)
	}

	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidArgument)
	}

	var headers *shared.BrowserHeaders
	var err error

	if curlFile != "" {
		headers, err = shared.ParseCurlFile(curlFile)
		if err != nil {
			return fmt.Errorf("failed to parse cURL file: %w", err)
		}
		r.logger.Info("parsed cURL from file", "file", curlFile)
	} else {
		headers, err = shared.ParseCurlCommand(curlCmd)
		if err != nil {
			return fmt.Errorf("failed to parse cURL command: %w", err)
		}
		r.logger.Info("parsed cURL command")
	}
	r.logger.Debug("captured headers", "count", len(headers.Headers))

	if outputPath == "" {
		outputPath = r.config.Credentials.YouTube.AuthFile
	}
	if outputPath == "" {
		return fmt.Errorf("%w: pass --output or set credentials.youtube.auth_file", shared.ErrMissingArgument)
	}

	if err := headers.WriteAuthFile(outputPath); err != nil {
		return err
	}
	r.logger.Info("auth file saved", "path", outputPath)

	r.writePlain("✓ YouTube Music authentication configured successfully\n")
	r.writePlain("Auth file saved to: %s\n", outputPath)
	r.writePlain("\nNext steps:\n")
	r.writePlain("1. Set credentials.youtube.auth_file = \"%s\" in config.toml (or %s)\n", outputPath, shared.EnvYTMusicAuthFile)
	r.writePlain("2. Run 'ytmigrate resolve \"your song\" --artist \"artist\"' to test the proxy\n")
	return nil
}
