package tasks

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync/atomic"

	"github.com/desertthunder/ytmigrate/internal/models"
	"github.com/desertthunder/ytmigrate/internal/services"
	"github.com/desertthunder/ytmigrate/internal/shared"
)

var errPagesConsumed = errors.New("page sequence already consumed")

// Pages returns a lazy, single-use sequence over a source playlist's pages.
// Each page is requested only when the consumer asks for it; iteration stops
// after the page without a next cursor, or after the first error.
func Pages(ctx context.Context, src services.SourceCatalog, playlistID string) iter.Seq2[*services.SourcePage, error] {
	var used atomic.Bool
	return func(yield func(*services.SourcePage, error) bool) {
		if used.Swap(true) {
			yield(nil, errPagesConsumed)
			return
		}

		cursor := ""
		for {
			page, err := src.PlaylistPage(ctx, playlistID, cursor)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(page, nil) || page.Next == "" {
				return
			}
			if page.Next == cursor {
				yield(nil, fmt.Errorf("source returned the same page cursor twice: %s", cursor))
				return
			}
			cursor = page.Next
		}
	}
}

// FetchStats counts what the fetcher dropped.
type FetchStats struct {
	Pages      int
	Skipped    int // episodes, local files, removed items
	Duplicates int
}

// FetchTracks walks every page of the playlist and returns its playable tracks in order,
// keeping only the first occurrence of each source id.
//
// Any page failure discards what was gathered and returns an error wrapping [shared.ErrSourceFetchFailed].
func FetchTracks(ctx context.Context, src services.SourceCatalog, playlistID string) ([]models.TrackDescriptor, FetchStats, error) {
	return fetchTracks(ctx, src, playlistID, nil)
}

func fetchTracks(
	ctx context.Context,
	src services.SourceCatalog,
	playlistID string,
	onPage func(fetched int),
) ([]models.TrackDescriptor, FetchStats, error) {
	var (
		stats  FetchStats
		tracks []models.TrackDescriptor
		seen   = make(map[string]struct{})
	)

	for page, err := range Pages(ctx, src, playlistID) {
		if err != nil {
			return nil, FetchStats{}, fmt.Errorf("%w: %s: %v", shared.ErrSourceFetchFailed, playlistID, err)
		}
		stats.Pages++

		for _, item := range page.Items {
			if item.Kind != services.KindTrack || item.Track.SourceID == "" {
				stats.Skipped++
				continue
			}
			if _, dup := seen[item.Track.SourceID]; dup {
				stats.Duplicates++
				continue
			}
			seen[item.Track.SourceID] = struct{}{}
			tracks = append(tracks, item.Track)
		}

		if onPage != nil {
			onPage(len(tracks))
		}
	}
	return tracks, stats, nil
}
