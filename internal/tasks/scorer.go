package tasks

import (
	"math"
	"strings"

	"github.com/desertthunder/ytmigrate/internal/models"
	"github.com/desertthunder/ytmigrate/internal/shared"
)

// Signal weights. Popularity and album never contribute.
const (
	TitleWeight         = 0.4
	ArtistWeight        = 0.3
	DurationCloseWeight = 0.2
	DurationNearWeight  = 0.1

	DurationCloseWindow = 10.0 // seconds, exclusive
	DurationNearWindow  = 30.0 // seconds, exclusive

	MaxScore = TitleWeight + ArtistWeight + DurationCloseWeight
)

// ScoreBreakdown holds each signal's contribution to a match score.
type ScoreBreakdown struct {
	Title    float64
	Artist   float64
	Duration float64
}

// Total sums the signals.
func (b ScoreBreakdown) Total() float64 {
	return b.Title + b.Artist + b.Duration
}

// Score rates how well candidate c matches descriptor d, in [0, MaxScore].
func Score(d models.TrackDescriptor, c models.Candidate) float64 {
	return Breakdown(d, c).Total()
}

// Breakdown computes each signal independently.
// A source title or artist that normalizes to nothing is contained in every candidate string.
func Breakdown(d models.TrackDescriptor, c models.Candidate) ScoreBreakdown {
	var b ScoreBreakdown

	if strings.Contains(shared.Normalize(c.Title), shared.Normalize(d.Title)) {
		b.Title = TitleWeight
	}

	if artistsOverlap(d.Artists, c.Artists) {
		b.Artist = ArtistWeight
	}

	if c.DurationSeconds != nil {
		diff := math.Abs(d.DurationSeconds() - *c.DurationSeconds)
		switch {
		case diff < DurationCloseWindow:
			b.Duration = DurationCloseWeight
		case diff < DurationNearWindow:
			b.Duration = DurationNearWeight
		}
	}
	return b
}

// artistsOverlap reports whether any source artist contains, or is contained in, any candidate artist.
func artistsOverlap(source, candidate []string) bool {
	if len(candidate) == 0 {
		return false
	}
	normalized := shared.NormalizeAll(candidate)
	for _, sa := range source {
		sa = shared.Normalize(sa)
		for _, ca := range normalized {
			if strings.Contains(ca, sa) || strings.Contains(sa, ca) {
				return true
			}
		}
	}
	return false
}

