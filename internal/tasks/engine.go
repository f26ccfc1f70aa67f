package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/ytmigrate/internal/models"
	"github.com/desertthunder/ytmigrate/internal/services"
	"github.com/desertthunder/ytmigrate/internal/shared"
)

const DefaultWorkers = 4

// TransferEngine moves one source playlist into a new destination playlist.
//
// Both catalogs must already be connected.
type TransferEngine struct {
	src         services.SourceCatalog
	dst         services.DestinationCatalog
	workers     int
	threshold   float64
	limit       int
	timeout     time.Duration
	description string
	logger      *log.Logger
	newID       func() string
	now         func() time.Time
}

// Option configures a [TransferEngine].
type Option func(*TransferEngine)

// WithWorkers bounds how many tracks are resolved concurrently.
func WithWorkers(n int) Option {
	return func(e *TransferEngine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithThreshold sets the score a candidate must strictly exceed.
func WithThreshold(t float64) Option {
	return func(e *TransferEngine) { e.threshold = t }
}

// WithSearchLimit sets how many candidates are requested per search.
func WithSearchLimit(n int) Option {
	return func(e *TransferEngine) { e.limit = n }
}

// WithCallTimeout bounds every catalog call.
func WithCallTimeout(d time.Duration) Option {
	return func(e *TransferEngine) { e.timeout = d }
}

// WithDescription sets the destination playlist description.
func WithDescription(s string) Option {
	return func(e *TransferEngine) { e.description = s }
}

// WithLogger sets the engine's logger.
func WithLogger(l *log.Logger) Option {
	return func(e *TransferEngine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithRunID makes every run use the id produced by fn.
func WithRunID(fn func() string) Option {
	return func(e *TransferEngine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// NewTransferEngine creates an engine reading from src and writing to dst.
func NewTransferEngine(src services.SourceCatalog, dst services.DestinationCatalog, opts ...Option) *TransferEngine {
	e := &TransferEngine{
		src:       src,
		dst:       dst,
		workers:   DefaultWorkers,
		threshold: DefaultThreshold,
		limit:     DefaultSearchLimit,
		timeout:   DefaultCallTimeout,
		logger:    shared.NewLogger(nil),
		newID:     shared.GenerateID,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// sendProgress sends a progress update through the channel without blocking.
func (e *TransferEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run performs a transfer of the playlist named by ref into a new destination playlist called name.
//
// The outcome is returned on every path, including failures, so the caller can always print a summary.
// The returned error is the outcome's Err.
func (e *TransferEngine) Run(ctx context.Context, ref, name string, progress chan<- ProgressUpdate) (*models.TransferOutcome, error) {
	if e.src == nil || e.dst == nil {
		return nil, fmt.Errorf("%w: transfer engine needs a source and a destination", shared.ErrServiceUnavailable)
	}

	out := &models.TransferOutcome{
		RunID:           e.newID(),
		SourceRef:       ref,
		DestinationName: name,
		Resolved:        []models.ResolvedTrack{},
		Unresolved:      []models.UnresolvedTrack{},
		StartedAt:       e.now(),
	}
	logger := shared.WithLogger(e.logger, "run_id", out.RunID)

	fail := func(err error) (*models.TransferOutcome, error) {
		out.State = Failed.String()
		out.Err = err
		out.FinishedAt = e.now()
		logger.Error("transfer failed", "error", err)
		e.sendProgress(progress, finishedUpdate(out, Failed))
		return out, err
	}

	e.sendProgress(progress, extractingUpdate(ref))
	id, err := services.ExtractPlaylistID(ref)
	if err != nil {
		return fail(err)
	}
	out.SourceID = id

	e.sendProgress(progress, fetchingUpdate(id, 0))
	tracks, stats, err := fetchTracks(ctx, e.src, id, func(n int) {
		e.sendProgress(progress, fetchingUpdate(id, n))
	})
	if err != nil {
		return fail(err)
	}
	if len(tracks) == 0 {
		return fail(fmt.Errorf("%w: %s", shared.ErrEmptyPlaylist, id))
	}
	out.Total = len(tracks)
	logger.Info("fetched source playlist", "playlist_id", id, "tracks", len(tracks),
		"pages", stats.Pages, "skipped", stats.Skipped, "duplicates", stats.Duplicates)
	e.sendProgress(progress, fetchedUpdate(len(tracks)))

	for _, r := range e.resolveAll(ctx, logger, tracks, progress) {
		if r.Resolved() {
			out.Resolved = append(out.Resolved, r.Track())
			continue
		}
		out.Unresolved = append(out.Unresolved, r.Unresolved())
	}
	for _, u := range out.Unresolved {
		logger.Warn("unresolved", "title", u.Descriptor.Title, "artists", u.Descriptor.ArtistLine(), "reason", u.Reason)
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	if len(out.Resolved) == 0 {
		return fail(fmt.Errorf("%w: none of %d tracks could be resolved", shared.ErrNoTracksAdded, out.Total))
	}

	builder := NewPlaylistBuilder(e.dst, e.timeout, logger)

	e.sendProgress(progress, creatingUpdate(name))
	playlistID, err := builder.Create(ctx, name, e.description)
	if err != nil {
		return fail(err)
	}
	out.PlaylistID = playlistID
	e.sendProgress(progress, createdUpdate(name, playlistID))

	total := len(out.Resolved)
	res, err := builder.Populate(ctx, playlistID, out.Resolved, func(step int, t models.ResolvedTrack, err error) {
		e.sendProgress(progress, populatingUpdate(step, total, t, err))
	})
	out.Added = res.Added
	out.AddFailures = res.Failures
	if err != nil {
		return fail(err)
	}

	out.State = Done.String()
	out.Success = true
	out.FinishedAt = e.now()
	logger.Info("transfer complete",
		"playlist_id", playlistID,
		"total", out.Total,
		"resolved", len(out.Resolved),
		"unresolved", len(out.Unresolved),
		"added", out.Added,
	)
	e.sendProgress(progress, finishedUpdate(out, Done))
	return out, nil
}

// resolveAll resolves tracks on a bounded worker pool.
// The returned slice is indexed like tracks regardless of completion order.
func (e *TransferEngine) resolveAll(
	ctx context.Context,
	logger *log.Logger,
	tracks []models.TrackDescriptor,
	progress chan<- ProgressUpdate,
) []Resolution {
	total := len(tracks)
	resolver := NewResolver(e.dst, ResolverOptions{
		Threshold: e.threshold,
		Limit:     e.limit,
		Timeout:   e.timeout,
		Logger:    logger,
	})

	workers := min(e.workers, total)
	results := make([]Resolution, total)
	jobs := make(chan int)
	done := make(chan int, total)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				logger.Info("searching", "step", i+1, "total", total, "track", tracks[i].Label())
				e.sendProgress(progress, resolvingUpdate(i+1, total, tracks[i]))

				r := resolver.Resolve(ctx, tracks[i])
				r.Index = i
				results[i] = r
				done <- i
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range tracks {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(done)
	}()

	finished := make([]bool, total)
	completed := 0
	for i := range done {
		finished[i] = true
		completed++
		e.sendProgress(progress, resolvedUpdate(completed, total, results[i]))
	}

	for i, ok := range finished {
		if !ok {
			results[i] = Resolution{
				Index:      i,
				Descriptor: tracks[i],
				Err:        fmt.Errorf("%w: %v", shared.ErrSearchFailed, context.Cause(ctx)),
			}
		}
	}
	return results
}

// IsFatal reports whether err stops a transfer, as opposed to a per-track failure that is recorded and skipped.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, shared.ErrNoMatchFound),
		errors.Is(err, shared.ErrSearchFailed),
		errors.Is(err, shared.ErrAddItemFailed):
		return false
	}
	return true
}
