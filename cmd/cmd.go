// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// app builds the root command. Running it with a source and destination and no subcommand is a transfer.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:      "ytmigrate",
		Usage:     "Copy a Spotify playlist into a new YouTube Music playlist",
		Version:   "0.6.0",
		ArgsUsage: "<source-ref> <destination-name>",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log format (text or json)",
				Value: "text",
			},
		}, localFlags(transferFlags())...),
		Before:   r.before,
		Action:   r.Transfer,
		Commands: r.register(),
	}
}

// localFlags keeps the root's transfer flags from being inherited by subcommands that define their own.
func localFlags(flags []cli.Flag) []cli.Flag {
	for _, f := range flags {
		switch f := f.(type) {
		case *cli.StringFlag:
			f.Local = true
		case *cli.BoolFlag:
			f.Local = true
		case *cli.IntFlag:
			f.Local = true
		case *cli.FloatFlag:
			f.Local = true
		}
	}
	return flags
}

func transferFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "spotify-client-id",
			Usage: "Spotify app client ID (overrides SPOTIFY_CLIENT_ID)",
		},
		&cli.StringFlag{
			Name:  "spotify-client-secret",
			Usage: "Spotify app client secret (overrides SPOTIFY_CLIENT_SECRET)",
		},
		&cli.StringFlag{
			Name:  "ytmusic-auth",
			Usage: "Path to the YouTube Music auth file (overrides YTMUSIC_AUTH_FILE)",
		},
		&cli.StringFlag{
			Name:  "proxy-url",
			Usage: "Base URL of the ytmusicapi proxy (overrides YTMUSIC_PROXY_URL)",
		},
		&cli.StringFlag{
			Name:  "description",
			Usage: "Description of the created playlist",
		},
		&cli.FloatFlag{
			Name:  "threshold",
			Usage: "Score a candidate must exceed to be accepted",
		},
		&cli.IntFlag{
			Name:  "search-limit",
			Usage: "Candidates requested per search",
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Tracks resolved concurrently",
		},
		&cli.BoolFlag{
			Name:  "public",
			Usage: "Create the playlist as public instead of private",
		},
		&cli.StringFlag{
			Name:  "report",
			Usage: "Write a report of the run to this path",
		},
		&cli.StringFlag{
			Name:  "report-format",
			Usage: "Report format (json, csv, markdown, txt)",
			Value: "json",
		},
		&cli.BoolFlag{
			Name:  "tui",
			Usage: "Show progress in an interactive terminal view",
		},
	}
}

// transferCommand runs one playlist transfer.
func transferCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "transfer",
		Usage:     "Transfer a Spotify playlist to a new YouTube Music playlist",
		ArgsUsage: "<source-ref> <destination-name>",
		Flags:     transferFlags(),
		Action:    r.Transfer,
	}
}

// resolveCommand scores destination candidates for a single track.
func resolveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "Search YouTube Music for one track and show how candidates score",
		ArgsUsage: "<title>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "title"},
		},
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "artist",
				Aliases: []string{"a"},
				Usage:   "Track artist (repeatable)",
			},
			&cli.StringFlag{
				Name:  "album",
				Usage: "Track album",
			},
			&cli.IntFlag{
				Name:  "duration-ms",
				Usage: "Track length in milliseconds",
			},
			&cli.StringFlag{
				Name:  "ytmusic-auth",
				Usage: "Path to the YouTube Music auth file",
			},
			&cli.StringFlag{
				Name:  "proxy-url",
				Usage: "Base URL of the ytmusicapi proxy",
			},
			&cli.FloatFlag{
				Name:  "threshold",
				Usage: "Score a candidate must exceed to be accepted",
			},
			&cli.IntFlag{
				Name:  "search-limit",
				Usage: "Candidates requested",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Resolve,
	}
}

// setupCommand handles configuration and authentication setup.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config.toml from the built-in template",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Create the run journal and apply migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:    "youtube",
				Aliases: []string{"yt", "ytmusic"},
				Usage:   "Create the YouTube Music auth file from browser headers",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command from browser DevTools (Copy as cURL)",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to a file containing the cURL command",
					},
					&cli.StringFlag{
						Name:  "output",
						Usage: "Output path for the auth file (default: credentials.youtube.auth_file)",
					},
				},
				Action: r.SetupYouTube,
			},
		},
	}
}

// historyCommand lists journaled runs.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List previous transfer runs",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of runs to show",
				Value:   20,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.History,
	}
}

// tuiCommand returns the top-level TUI command, a transfer that always uses the terminal view.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "tui",
		Aliases:   []string{"interactive", "ui"},
		Usage:     "Transfer a playlist with the interactive terminal view",
		ArgsUsage: "<source-ref> <destination-name>",
		Flags:     transferFlags(),
		Action:    r.TUI,
	}
}
