package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/ytmigrate/internal/models"
	"github.com/desertthunder/ytmigrate/internal/services"
	"github.com/desertthunder/ytmigrate/internal/shared"
)

const DefaultDescription = "Transferred from Spotify playlist"

// PlaylistBuilder creates the destination playlist and fills it one item at a time.
type PlaylistBuilder struct {
	dst     services.DestinationCatalog
	timeout time.Duration
	logger  *log.Logger
}

// NewPlaylistBuilder creates a builder for dst.
func NewPlaylistBuilder(dst services.DestinationCatalog, timeout time.Duration, logger *log.Logger) *PlaylistBuilder {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &PlaylistBuilder{dst: dst, timeout: timeout, logger: logger}
}

// Create makes an empty playlist named name and returns its id.
// An empty description uses [DefaultDescription].
func (b *PlaylistBuilder) Create(ctx context.Context, name, description string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("%w: playlist name is required", shared.ErrPlaylistCreateFailed)
	}
	if strings.TrimSpace(description) == "" {
		description = DefaultDescription
	}

	callCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	id, err := b.dst.CreatePlaylist(callCtx, name, description)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrPlaylistCreateFailed, err)
	}
	if id == "" {
		return "", fmt.Errorf("%w: destination returned no playlist id", shared.ErrPlaylistCreateFailed)
	}
	b.logger.Info("playlist created", "name", name, "playlist_id", id)
	return id, nil
}

// PopulateResult counts what made it into the playlist.
type PopulateResult struct {
	Added    int
	Failures []models.AddFailure
}

// Populate adds each track to playlistID in order, one request per item.
// A failed item is recorded and skipped.
// It returns [shared.ErrNoTracksAdded] only when tracks were given and none were added.
func (b *PlaylistBuilder) Populate(
	ctx context.Context,
	playlistID string,
	tracks []models.ResolvedTrack,
	onItem func(step int, t models.ResolvedTrack, err error),
) (PopulateResult, error) {
	var res PopulateResult
	for i, t := range tracks {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		err := b.add(ctx, playlistID, t.Match.VideoID)
		if err != nil {
			b.logger.Warn("add failed", "track", t.Descriptor.Label(), "video_id", t.Match.VideoID, "error", err)
			res.Failures = append(res.Failures, models.AddFailure{Track: t, Reason: err.Error()})
		} else {
			res.Added++
		}
		if onItem != nil {
			onItem(i+1, t, err)
		}
	}

	if len(tracks) > 0 && res.Added == 0 {
		return res, fmt.Errorf("%w: all %d additions failed", shared.ErrNoTracksAdded, len(tracks))
	}
	return res, nil
}

func (b *PlaylistBuilder) add(ctx context.Context, playlistID, videoID string) error {
	callCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	if err := b.dst.AddPlaylistItem(callCtx, playlistID, videoID); err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return err
		}
		return fmt.Errorf("%w: %v", shared.ErrAddItemFailed, err)
	}
	return nil
}
