// package services defines the catalog interfaces a transfer reads from and writes to
//
// Spotify (source), YouTube Music via proxy (destination)
package services

import (
	"context"

	"github.com/desertthunder/ytmigrate/internal/models"
)

// SourceCatalog reads playlists page by page from the catalog a transfer starts from.
type SourceCatalog interface {
	// Name returns the name of the catalog (e.g., "Spotify")
	Name() string

	// Connect establishes an authenticated session.
	// Returns [shared.ErrMissingCredentials] or [shared.ErrAuthFailed] when it cannot.
	Connect(ctx context.Context) error

	// PlaylistPage returns the page of playlist items at cursor. The empty cursor is the first page.
	// The returned page's Next is empty when no pages remain.
	PlaylistPage(ctx context.Context, playlistID, cursor string) (*SourcePage, error)
}

// DestinationCatalog searches and writes playlists in the catalog a transfer ends in.
type DestinationCatalog interface {
	// Name returns the name of the catalog (e.g., "YouTube Music")
	Name() string

	// Connect verifies the destination is reachable and its auth artifact is usable.
	Connect(ctx context.Context) error

	// SearchSongs returns at most limit song candidates for query, in catalog order.
	SearchSongs(ctx context.Context, query string, limit int) ([]models.Candidate, error)

	// CreatePlaylist creates an empty playlist and returns its id.
	CreatePlaylist(ctx context.Context, name, description string) (string, error)

	// AddPlaylistItem appends a single item to the playlist.
	AddPlaylistItem(ctx context.Context, playlistID, videoID string) error
}

// ItemKind classifies one raw playlist entry.
type ItemKind int

const (
	KindTrack   ItemKind = iota // a catalog track with metadata
	KindEpisode                 // a podcast episode
	KindLocal                   // a local file the catalog cannot serve
	KindMissing                 // a removed or unavailable item (null payload, no artists)
)

func (k ItemKind) String() string {
	switch k {
	case KindTrack:
		return "track"
	case KindEpisode:
		return "episode"
	case KindLocal:
		return "local"
	case KindMissing:
		return "missing"
	default:
		return "unknown"
	}
}

// SourceItem is one raw playlist entry. Track is only meaningful when Kind is [KindTrack].
type SourceItem struct {
	Kind  ItemKind
	Track models.TrackDescriptor
}

// SourcePage is one page of a source playlist.
type SourcePage struct {
	Items []SourceItem
	Next  string // cursor for the following page; empty on the last page
	Total int    // total entries in the playlist, as reported by the catalog
}
