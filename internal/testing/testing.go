// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/ytmigrate/internal/models"
	"github.com/desertthunder/ytmigrate/internal/services"
)

// FakeSource is a test double for [services.SourceCatalog].
// Each playlist is a list of pages; cursors are page indexes.
type FakeSource struct {
	Playlists  map[string][][]services.SourceItem
	ConnectErr error
	PageErr    map[int]error // fail when the page at this index is requested

	mu    sync.Mutex
	calls int
}

func (f *FakeSource) Name() string { return "fake-source" }

func (f *FakeSource) Connect(ctx context.Context) error { return f.ConnectErr }

func (f *FakeSource) PlaylistPage(ctx context.Context, playlistID, cursor string) (*services.SourcePage, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	pages, ok := f.Playlists[playlistID]
	if !ok {
		return nil, fmt.Errorf("playlist %s not found", playlistID)
	}

	idx := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil {
			return nil, fmt.Errorf("bad cursor %q", cursor)
		}
		idx = n
	}
	if err := f.PageErr[idx]; err != nil {
		return nil, err
	}
	if idx >= len(pages) {
		return &services.SourcePage{}, nil
	}

	total := 0
	for _, p := range pages {
		total += len(p)
	}
	page := &services.SourcePage{Items: pages[idx], Total: total}
	if idx+1 < len(pages) {
		page.Next = strconv.Itoa(idx + 1)
	}
	return page, nil
}

// Calls returns how many pages were requested.
func (f *FakeSource) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// Track builds a [services.KindTrack] item.
func Track(id, title string, durationMS int, artists ...string) services.SourceItem {
	return services.SourceItem{
		Kind: services.KindTrack,
		Track: models.TrackDescriptor{
			SourceID:   id,
			Title:      title,
			Artists:    artists,
			DurationMS: durationMS,
		},
	}
}

// Song builds a destination candidate. A negative duration means the catalog gave none.
func Song(videoID, title string, seconds float64, artists ...string) models.Candidate {
	c := models.Candidate{VideoID: videoID, Title: title, Artists: artists}
	if seconds >= 0 {
		c.DurationSeconds = &seconds
	}
	return c
}

// FakeDestination is a test double for [services.DestinationCatalog].
// Search results, errors and delays are keyed by the exact query string.
type FakeDestination struct {
	Results     map[string][]models.Candidate
	SearchErr   map[string]error
	SearchDelay map[string]time.Duration
	ConnectErr  error
	CreateErr   error
	PlaylistID  string
	AddErr      map[string]error // keyed by video id

	mu           sync.Mutex
	searches     []string
	created      []string
	descriptions []string
	added        []string
}

func (f *FakeDestination) Name() string { return "fake-destination" }

func (f *FakeDestination) Connect(ctx context.Context) error { return f.ConnectErr }

func (f *FakeDestination) SearchSongs(ctx context.Context, query string, limit int) ([]models.Candidate, error) {
	f.mu.Lock()
	f.searches = append(f.searches, query)
	f.mu.Unlock()

	if d := f.SearchDelay[query]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := f.SearchErr[query]; err != nil {
		return nil, err
	}
	res := f.Results[query]
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (f *FakeDestination) CreatePlaylist(ctx context.Context, name, description string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, name)
	f.descriptions = append(f.descriptions, description)
	if f.CreateErr != nil {
		return "", f.CreateErr
	}
	if f.PlaylistID == "" {
		return "PLfake", nil
	}
	return f.PlaylistID, nil
}

func (f *FakeDestination) AddPlaylistItem(ctx context.Context, playlistID, videoID string) error {
	if err := f.AddErr[videoID]; err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, videoID)
	return nil
}

// Searches returns the queries received, in arrival order.
func (f *FakeDestination) Searches() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.searches...)
}

// Created returns the names of the playlists created.
func (f *FakeDestination) Created() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.created...)
}

// Descriptions returns the descriptions passed to CreatePlaylist.
func (f *FakeDestination) Descriptions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.descriptions...)
}

// Added returns the video ids added, in order.
func (f *FakeDestination) Added() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.added...)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites int, target io.Writer) *LimitedWriter {
	return &LimitedWriter{maxWrites: maxWrites, target: target}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
