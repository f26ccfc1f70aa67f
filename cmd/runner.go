package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ytmigrate/internal/services"
	"github.com/desertthunder/ytmigrate/internal/shared"
)

// SourceFactory builds the source catalog client from the loaded configuration.
type SourceFactory func(cfg *shared.Config, logger *log.Logger) (services.SourceCatalog, error)

// DestinationFactory builds the destination catalog client from the loaded configuration.
type DestinationFactory func(cfg *shared.Config, logger *log.Logger) (services.DestinationCatalog, error)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config         *shared.Config
	logger         *log.Logger
	output         io.Writer
	getenv         func(string) string
	newSource      SourceFactory
	newDestination DestinationFactory
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config         *shared.Config
	Logger         *log.Logger
	Output         io.Writer
	Getenv         func(string) string
	NewSource      SourceFactory
	NewDestination DestinationFactory
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Getenv == nil {
		opts.Getenv = os.Getenv
	}
	if opts.NewSource == nil {
		opts.NewSource = spotifySource
	}
	if opts.NewDestination == nil {
		opts.NewDestination = youtubeDestination
	}

	return &Runner{
		config:         opts.Config,
		logger:         opts.Logger,
		output:         opts.Output,
		getenv:         opts.Getenv,
		newSource:      opts.NewSource,
		newDestination: opts.NewDestination,
	}
}

// SetLogger replaces the logger used by subsequent command steps.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		transferCommand, resolveCommand, setupCommand, historyCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// before loads configuration and applies the global logging flags.
//
// Precedence, lowest first: embedded defaults, config file, .env and environment, command line flags.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	if err := shared.SetLogFormat(r.logger, shared.LogFormat(cmd.String("log-format"))); err != nil {
		return ctx, err
	}

	path := cmd.String("config")
	config, err := shared.LoadConfigOrDefault(path)
	if err != nil {
		return ctx, err
	}

	if err := shared.LoadDotEnv(".env"); err != nil {
		r.logger.Warn("ignoring .env", "error", err)
	}
	config.ApplyEnv(r.getenv)

	r.config = config
	r.logger.Debug("configuration loaded", "path", path)
	return ctx, nil
}

// applyFlags copies command line overrides into the loaded configuration.
// Flags a command does not define are never reported as set.
func (r *Runner) applyFlags(cmd *cli.Command) {
	c := r.config
	for flag, dst := range map[string]*string{
		"spotify-client-id":     &c.Credentials.Spotify.ClientID,
		"spotify-client-secret": &c.Credentials.Spotify.ClientSecret,
		"ytmusic-auth":          &c.Credentials.YouTube.AuthFile,
		"proxy-url":             &c.Credentials.YouTube.ProxyURL,
		"description":           &c.Destination.Description,
	} {
		if cmd.IsSet(flag) {
			*dst = strings.TrimSpace(cmd.String(flag))
		}
	}

	if cmd.IsSet("threshold") {
		c.Resolve.Threshold = cmd.Float("threshold")
	}
	if cmd.IsSet("search-limit") {
		c.Resolve.SearchLimit = cmd.Int("search-limit")
	}
	if cmd.IsSet("workers") {
		c.Resolve.Workers = cmd.Int("workers")
	}
	if cmd.Bool("public") {
		c.Destination.Privacy = "PUBLIC"
	}
}

func spotifySource(cfg *shared.Config, logger *log.Logger) (services.SourceCatalog, error) {
	creds := cfg.Credentials.Spotify
	src, err := services.NewSpotifySource(creds.ClientID, creds.ClientSecret,
		services.WithSpotifyLogger(shared.WithLogger(logger, "component", "spotify")))
	if err != nil {
		return nil, err
	}
	return src, nil
}

func youtubeDestination(cfg *shared.Config, logger *log.Logger) (services.DestinationCatalog, error) {
	yt := cfg.Credentials.YouTube
	policy := services.DefaultRetryPolicy()
	policy.MaxAttempts = cfg.Destination.MaxAttempts

	return services.NewYouTubeDestination(yt.ProxyURL, yt.AuthFile,
		services.WithPrivacy(cfg.Destination.Privacy),
		services.WithRateLimit(cfg.Destination.RateLimit),
		services.WithRetryPolicy(policy),
		services.WithYouTubeLogger(shared.WithLogger(logger, "component", "ytmusic")),
	), nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	if _, err := fmt.Fprintf(r.output, format, args...); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
