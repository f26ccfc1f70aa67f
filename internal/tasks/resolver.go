package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/ytmigrate/internal/models"
	"github.com/desertthunder/ytmigrate/internal/services"
	"github.com/desertthunder/ytmigrate/internal/shared"
)

const (
	DefaultThreshold   = 0.3
	DefaultSearchLimit = 5
	DefaultCallTimeout = 20 * time.Second
)

// ScoredCandidate is a search result with its match score.
type ScoredCandidate struct {
	Candidate models.Candidate
	Score     float64
}

// Resolution is the outcome of resolving one descriptor.
type Resolution struct {
	Index      int
	Descriptor models.TrackDescriptor
	Candidates []ScoredCandidate // in search order
	Best       *ScoredCandidate  // nil when nothing cleared the threshold
	Nearest    *models.NearMiss  // closest rejected candidate, if any
	Err        error             // ErrSearchFailed or ErrNoMatchFound when Best is nil
}

// Resolved reports whether a candidate was accepted.
func (r Resolution) Resolved() bool {
	return r.Best != nil
}

// Track converts an accepted resolution to a [models.ResolvedTrack].
func (r Resolution) Track() models.ResolvedTrack {
	return models.ResolvedTrack{
		Index:      r.Index,
		Descriptor: r.Descriptor,
		Match:      r.Best.Candidate,
		Score:      r.Best.Score,
	}
}

// Unresolved converts a rejected resolution to a [models.UnresolvedTrack].
func (r Resolution) Unresolved() models.UnresolvedTrack {
	reason := ""
	if r.Err != nil {
		reason = r.Err.Error()
	}
	return models.UnresolvedTrack{
		Index:      r.Index,
		Descriptor: r.Descriptor,
		Reason:     reason,
		Nearest:    r.Nearest,
	}
}

// Resolver finds the best destination candidate for a source track.
type Resolver struct {
	dst       services.DestinationCatalog
	threshold float64
	limit     int
	timeout   time.Duration
	logger    *log.Logger
	metric    strutil.StringMetric
}

// ResolverOptions configures a [Resolver]. Zero values take the defaults,
// except Threshold, which is used as given unless it falls outside [0, 1).
type ResolverOptions struct {
	Threshold float64
	Limit     int
	Timeout   time.Duration
	Logger    *log.Logger
}

// NewResolver creates a resolver searching dst.
func NewResolver(dst services.DestinationCatalog, opts ResolverOptions) *Resolver {
	r := &Resolver{
		dst:       dst,
		threshold: opts.Threshold,
		limit:     opts.Limit,
		timeout:   opts.Timeout,
		logger:    opts.Logger,
		metric:    metrics.NewJaroWinkler(),
	}
	if r.threshold < 0 || r.threshold >= 1 {
		r.threshold = DefaultThreshold
	}
	if r.limit <= 0 {
		r.limit = DefaultSearchLimit
	}
	if r.timeout <= 0 {
		r.timeout = DefaultCallTimeout
	}
	if r.logger == nil {
		r.logger = shared.NewLogger(nil)
	}
	return r
}

// Threshold is the score a candidate must strictly exceed.
func (r *Resolver) Threshold() float64 { return r.threshold }

// Query builds the search text for d.
func Query(d models.TrackDescriptor) string {
	if len(d.Artists) == 0 {
		return d.Title
	}
	return d.Title + " " + d.ArtistLine()
}

// Resolve searches the destination for d and selects the first highest scoring candidate
// whose score is strictly greater than the threshold.
//
// A failed search never aborts the caller: it is reported through [Resolution.Err].
func (r *Resolver) Resolve(ctx context.Context, d models.TrackDescriptor) Resolution {
	res := Resolution{Descriptor: d}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	candidates, err := r.dst.SearchSongs(callCtx, Query(d), r.limit)
	if err != nil {
		r.logger.Warn("search failed", "track", d.Label(), "error", err)
		res.Err = fmt.Errorf("%w: %s: %v", shared.ErrSearchFailed, d.Label(), err)
		return res
	}

	res.Candidates = make([]ScoredCandidate, 0, len(candidates))
	best := -1
	bestScore := 0.0
	for i, c := range candidates {
		s := Score(d, c)
		res.Candidates = append(res.Candidates, ScoredCandidate{Candidate: c, Score: s})
		if s > bestScore && s > r.threshold {
			best, bestScore = i, s
		}
	}

	if best >= 0 {
		res.Best = &res.Candidates[best]
		r.logger.Debug("matched", "track", d.Label(), "video_id", res.Best.Candidate.VideoID, "score", bestScore)
		return res
	}

	res.Nearest = r.nearest(d, res.Candidates)
	res.Err = fmt.Errorf("%w: %s", shared.ErrNoMatchFound, d.Label())
	r.logger.Debug("no match", "track", d.Label(), "candidates", len(candidates))
	return res
}

// nearest picks the rejected candidate whose label reads most like the source track.
func (r *Resolver) nearest(d models.TrackDescriptor, scored []ScoredCandidate) *models.NearMiss {
	var near *models.NearMiss
	want := shared.Normalize(d.Label())
	for _, sc := range scored {
		sim := strutil.Similarity(want, shared.Normalize(sc.Candidate.Label()), r.metric)
		if near == nil || sim > near.Similarity {
			near = &models.NearMiss{Candidate: sc.Candidate, Score: sc.Score, Similarity: sim}
		}
	}
	return near
}
