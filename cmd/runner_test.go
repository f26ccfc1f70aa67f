package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/ytmigrate/internal/models"
	"github.com/desertthunder/ytmigrate/internal/repositories"
	"github.com/desertthunder/ytmigrate/internal/services"
	"github.com/desertthunder/ytmigrate/internal/shared"
	tu "github.com/desertthunder/ytmigrate/internal/testing"
)

type harness struct {
	runner *Runner
	output *bytes.Buffer
	src    *tu.FakeSource
	dst    *tu.FakeDestination
	auth   string
	built  int
}

// newHarness runs each test in its own directory with fake catalogs and an empty environment.
func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)

	auth := filepath.Join(dir, "ytmusic_auth.json")
	if err := os.WriteFile(auth, []byte(`{"cookie": "SID=x"}`), 0o600); err != nil {
		t.Fatalf("failed to write auth file: %v", err)
	}

	h := &harness{
		output: &bytes.Buffer{},
		auth:   auth,
		src: &tu.FakeSource{Playlists: map[string][][]services.SourceItem{
			"abc": {
				{tu.Track("s1", "Under Pressure", 248000, "Queen", "David Bowie")},
				{tu.Track("s2", "Obscure Song", 200000, "Nobody")},
			},
		}},
		dst: &tu.FakeDestination{
			PlaylistID: "PLyt",
			Results: map[string][]models.Candidate{
				"Under Pressure Queen, David Bowie": {tu.Song("vUP", "Under Pressure", 248, "Queen", "David Bowie")},
				"Obscure Song Nobody":               {tu.Song("vX", "Something Else", 500, "Other")},
				"Under Pressure Queen":              {tu.Song("vUP", "Under Pressure", 248, "Queen", "David Bowie"), tu.Song("vL", "Under Pressure (Live)", 300, "Queen")},
			},
		},
	}

	h.runner = NewRunner(RunnerOpts{
		Logger: log.New(io.Discard),
		Output: h.output,
		Getenv: func(string) string { return "" },
		NewSource: func(*shared.Config, *log.Logger) (services.SourceCatalog, error) {
			h.built++
			return h.src, nil
		},
		NewDestination: func(*shared.Config, *log.Logger) (services.DestinationCatalog, error) {
			h.built++
			return h.dst, nil
		},
	})
	return h
}

func (h *harness) run(args ...string) error {
	app := h.runner.app()
	app.Writer = h.output
	app.ErrWriter = h.output
	return app.Run(context.Background(), append([]string{"ytmigrate"}, args...))
}

// withCreds prefixes args with valid credential flags.
func (h *harness) withCreds(args ...string) []string {
	creds := []string{
		"--spotify-client-id", "id",
		"--spotify-client-secret", "secret",
		"--ytmusic-auth", h.auth,
	}
	return append(creds, args...)
}

func (h *harness) transfer(args ...string) error {
	return h.run(append([]string{"transfer"}, h.withCreds(args...)...)...)
}

func journaled(t *testing.T) []models.RunRecord {
	t.Helper()
	ctx := context.Background()
	db, err := shared.OpenJournal(ctx, shared.DatabaseConfig{Path: "ytmigrate.db"})
	if err != nil {
		t.Fatalf("failed to open journal: %v", err)
	}
	defer db.Close()

	records, err := repositories.NewRunRepository(db).List(ctx, 0)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	return records
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}

			runner := NewRunner(RunnerOpts{
				Config: config,
				Logger: logger,
				Output: output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.newSource == nil || runner.newDestination == nil {
				t.Error("expected default catalog factories")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			// channels cannot be marshaled to JSON
			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: tu.NewLimitedWriter(1, &bytes.Buffer{})})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		commands := NewRunner(RunnerOpts{}).register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}
		for _, want := range []string{"transfer", "resolve", "setup", "history", "tui"} {
			if !names[want] {
				t.Errorf("expected %q to be registered", want)
			}
		}
	})
}

func TestConfigPrecedence(t *testing.T) {
	h := newHarness(t)
	conf := `
[credentials.spotify]
client_id = "from-file"
client_secret = "file-secret"

[resolve]
threshold = 0.5
workers = 2

[database]
path = ""
`
	if err := os.WriteFile("custom.toml", []byte(conf), 0o644); err != nil {
		t.Fatal(err)
	}
	h.runner.getenv = func(key string) string {
		if key == shared.EnvSpotifyClientID {
			return "from-env"
		}
		return ""
	}

	err := h.run("--config", "custom.toml", "transfer",
		"--ytmusic-auth", h.auth, "--workers", "8", "--public", "abc", "Road Trip")
	if err != nil {
		t.Fatalf("transfer failed: %v", err)
	}

	c := h.runner.config
	tests := []struct {
		name string
		got  any
		want any
	}{
		{"env overrides file", c.Credentials.Spotify.ClientID, "from-env"},
		{"file overrides defaults", c.Credentials.Spotify.ClientSecret, "file-secret"},
		{"file threshold", c.Resolve.Threshold, 0.5},
		{"flag overrides file", c.Resolve.Workers, 8},
		{"defaults fill gaps", c.Resolve.SearchLimit, 5},
		{"public flag", c.Destination.Privacy, "PUBLIC"},
		{"auth flag", c.Credentials.YouTube.AuthFile, h.auth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}

	if _, err := os.Stat("ytmigrate.db"); err == nil {
		t.Error("expected the journal to be disabled by an empty database.path")
	}
}

func TestTransfer(t *testing.T) {
	t.Run("transfers and journals the run", func(t *testing.T) {
		h := newHarness(t)

		err := h.transfer("--report", "report.md", "--report-format", "markdown",
			"https://open.spotify.com/playlist/abc?si=1", "Road Trip")
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}

		out := h.output.String()
		for _, want := range []string{"Transfer Complete!", "Destination: Road Trip (PLyt)", "Resolved: 1/2", "Obscure Song", "Report written to report.md"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q\n%s", want, out)
			}
		}

		if added := h.dst.Added(); len(added) != 1 || added[0] != "vUP" {
			t.Errorf("unexpected adds %v", added)
		}
		if created := h.dst.Created(); len(created) != 1 || created[0] != "Road Trip" {
			t.Errorf("unexpected playlists %v", created)
		}

		tu.AssertFileExists(t, "report.md")
		if report := tu.MustReadFile(t, "report.md"); !strings.Contains(report, "Under Pressure") {
			t.Errorf("report missing resolved track:\n%s", report)
		}

		records := journaled(t)
		if len(records) != 1 {
			t.Fatalf("expected 1 journaled run, got %d", len(records))
		}
		if r := records[0]; r.SourceID != "abc" || r.DestinationID != "PLyt" || r.Added != 1 || r.Unresolved != 1 || r.State != "done" {
			t.Errorf("unexpected record %+v", r)
		}
	})

	t.Run("root command runs a transfer", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run(h.withCreds("spotify:playlist:abc", "Road Trip")...); err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if len(h.dst.Added()) != 1 {
			t.Errorf("expected one add, got %v", h.dst.Added())
		}
	})

	t.Run("failed run still prints a summary and exits with an error", func(t *testing.T) {
		h := newHarness(t)
		h.dst.CreateErr = errors.New("quota exceeded")

		err := h.transfer("abc", "Road Trip")
		if !errors.Is(err, shared.ErrPlaylistCreateFailed) {
			t.Fatalf("expected ErrPlaylistCreateFailed, got %v", err)
		}

		out := h.output.String()
		if !strings.Contains(out, "Transfer Failed") || !strings.Contains(out, "not created") {
			t.Errorf("expected a failure summary, got\n%s", out)
		}
		if records := journaled(t); len(records) != 1 || records[0].State != "failed" {
			t.Errorf("expected a failed run in the journal, got %+v", records)
		}
	})

	t.Run("unrecognized reference", func(t *testing.T) {
		h := newHarness(t)

		err := h.transfer("not a playlist!", "Road Trip")
		if !errors.Is(err, shared.ErrUnrecognizedReference) {
			t.Errorf("expected ErrUnrecognizedReference, got %v", err)
		}
		if len(h.dst.Created()) != 0 {
			t.Error("expected no playlist to be created")
		}
	})

	t.Run("configuration errors stop before connecting", func(t *testing.T) {
		tests := []struct {
			name string
			args func(h *harness) []string
			want error
		}{
			{
				name: "missing arguments",
				args: func(h *harness) []string { return append([]string{"transfer"}, h.withCreds("abc")...) },
				want: shared.ErrMissingArgument,
			},
			{
				name: "missing spotify credentials",
				args: func(h *harness) []string {
					return []string{"transfer", "--ytmusic-auth", h.auth, "abc", "Road Trip"}
				},
				want: shared.ErrMissingCredentials,
			},
			{
				name: "missing auth file",
				args: func(h *harness) []string {
					return []string{"transfer", "--spotify-client-id", "id", "--spotify-client-secret", "s",
						"--ytmusic-auth", "missing.json", "abc", "Road Trip"}
				},
				want: shared.ErrMissingAuthFile,
			},
			{
				name: "threshold out of range",
				args: func(h *harness) []string {
					return append([]string{"transfer"}, h.withCreds("--threshold", "1.5", "abc", "Road Trip")...)
				},
				want: shared.ErrInvalidConfig,
			},
			{
				name: "unknown report format",
				args: func(h *harness) []string {
					return append([]string{"transfer"}, h.withCreds("--report-format", "xml", "abc", "Road Trip")...)
				},
				want: shared.ErrInvalidFlag,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				h := newHarness(t)
				err := h.run(tt.args(h)...)
				if !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
				if h.built != 0 {
					t.Error("expected no catalog clients to be built")
				}
			})
		}
	})

	t.Run("connect failure", func(t *testing.T) {
		h := newHarness(t)
		h.dst.ConnectErr = shared.ErrAuthFailed

		err := h.transfer("abc", "Road Trip")
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
		if h.src.Calls() != 0 {
			t.Error("expected no source pages to be fetched")
		}
	})

	t.Run("a held run lock refuses a second transfer", func(t *testing.T) {
		h := newHarness(t)
		lock, err := shared.AcquireRunLock(shared.LockPath(h.auth))
		if err != nil {
			t.Fatalf("failed to take lock: %v", err)
		}
		defer lock.Release()

		err = h.transfer("abc", "Road Trip")
		if !errors.Is(err, shared.ErrRunInProgress) {
			t.Errorf("expected ErrRunInProgress, got %v", err)
		}
	})
}

func TestResolve(t *testing.T) {
	t.Run("prints scored candidates", func(t *testing.T) {
		h := newHarness(t)

		err := h.run("resolve", "--artist", "Queen", "--duration-ms", "248000", "Under Pressure")
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}

		out := h.output.String()
		for _, want := range []string{"Query: Under Pressure Queen", "vUP", "vL", "✓ Accepted Under Pressure (vUP)"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q\n%s", want, out)
			}
		}
	})

	t.Run("reports the nearest miss", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run("resolve", "--artist", "Nobody", "Obscure Song"); err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		out := h.output.String()
		if !strings.Contains(out, "No candidate scored above") || !strings.Contains(out, "Nearest:") {
			t.Errorf("expected a nearest miss, got\n%s", out)
		}
	})

	t.Run("json output", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run("resolve", "--json", "--artist", "Queen", "Under Pressure"); err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		out := h.output.String()
		if !strings.Contains(out, `"accepted"`) || !strings.Contains(out, `"video_id": "vUP"`) {
			t.Errorf("unexpected JSON\n%s", out)
		}
	})

	t.Run("missing title", func(t *testing.T) {
		h := newHarness(t)
		if err := h.run("resolve"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestHistory(t *testing.T) {
	t.Run("empty journal", func(t *testing.T) {
		h := newHarness(t)
		if err := h.run("history"); err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if !strings.Contains(h.output.String(), "No runs recorded") {
			t.Errorf("unexpected output %q", h.output.String())
		}
	})

	t.Run("lists previous runs", func(t *testing.T) {
		h := newHarness(t)
		if err := h.transfer("abc", "Road Trip"); err != nil {
			t.Fatalf("transfer failed: %v", err)
		}
		h.output.Reset()

		if err := h.run("history", "--limit", "5"); err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		out := h.output.String()
		if !strings.Contains(out, "Road Trip (PLyt)") || !strings.Contains(out, "1/2") {
			t.Errorf("unexpected history\n%s", out)
		}
	})
}

func TestSetup(t *testing.T) {
	t.Run("config", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run("--config", "new.toml", "setup", "config"); err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		tu.AssertFileExists(t, "new.toml")
		if _, err := shared.LoadConfig("new.toml"); err != nil {
			t.Errorf("written config does not load: %v", err)
		}

		if err := h.run("--config", "new.toml", "setup", "config"); err == nil {
			t.Error("expected an error when the file already exists")
		}
	})

	t.Run("database", func(t *testing.T) {
		h := newHarness(t)
		if err := h.run("setup", "database"); err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		tu.AssertFileExists(t, "ytmigrate.db")
		if !strings.Contains(h.output.String(), "0 runs recorded") {
			t.Errorf("unexpected output %q", h.output.String())
		}
	})

	t.Run("youtube", func(t *testing.T) {
		curl := `curl 'https://music.youtube.com/youtubei/v1/browse' \
  -H 'x-goog-authuser: 0' \
  -H 'user-agent: Mozilla/5.0' \
  -H 'cookie: SID=abc; HSID=def'`

		t.Run("writes the auth file from --curl", func(t *testing.T) {
			h := newHarness(t)
			out := filepath.Join("auth", "browser.json")

			if err := h.run("setup", "youtube", "--curl", curl, "--output", out); err != nil {
				t.Fatalf("expected success, got %v", err)
			}
			content := tu.MustReadFile(t, out)
			if !strings.Contains(content, `"cookie": "SID=abc; HSID=def"`) || !strings.Contains(content, `"x-goog-authuser": "0"`) {
				t.Errorf("unexpected auth file\n%s", content)
			}
		})

		t.Run("reads --curl-file", func(t *testing.T) {
			h := newHarness(t)
			if err := os.WriteFile("request.sh", []byte(curl), 0o644); err != nil {
				t.Fatal(err)
			}

			if err := h.run("setup", "youtube", "--curl-file", "request.sh", "--output", "browser.json"); err != nil {
				t.Fatalf("expected success, got %v", err)
			}
			tu.AssertFileExists(t, "browser.json")
		})

		t.Run("argument errors", func(t *testing.T) {
			tests := []struct {
				name string
				args []string
				want error
			}{
				{"neither source", []string{"setup", "youtube"}, shared.ErrMissingArgument},
				{"both sources", []string{"setup", "youtube", "--curl", curl, "--curl-file", "x.sh"}, shared.ErrInvalidArgument},
				{"signed out request", []string{"setup", "youtube", "--curl", `curl 'https://music.youtube.com' -H 'x-goog-authuser: 0'`}, shared.ErrMissingCredentials},
			}
			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					h := newHarness(t)
					if err := h.run(tt.args...); !errors.Is(err, tt.want) {
						t.Errorf("expected %v, got %v", tt.want, err)
					}
				})
			}
		})
	})
}
