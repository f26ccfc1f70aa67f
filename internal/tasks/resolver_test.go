package tasks

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/ytmigrate/internal/models"
	"github.com/desertthunder/ytmigrate/internal/shared"
	th "github.com/desertthunder/ytmigrate/internal/testing"
)

func quietLogger() *log.Logger {
	return shared.NewLogger(io.Discard)
}

func TestQuery(t *testing.T) {
	tests := []struct {
		name string
		d    models.TrackDescriptor
		want string
	}{
		{"single artist", descriptor("Heroes", 0, "David Bowie"), "Heroes David Bowie"},
		{"several artists", descriptor("Under Pressure", 0, "Queen", "David Bowie"), "Under Pressure Queen, David Bowie"},
		{"no artists", descriptor("Untitled", 0), "Untitled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Query(tt.d); got != tt.want {
				t.Errorf("Query() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolver(t *testing.T) {
	ctx := context.Background()
	heroes := descriptor("Heroes", 371000, "David Bowie")
	query := Query(heroes)

	newResolver := func(dst *th.FakeDestination) *Resolver {
		return NewResolver(dst, ResolverOptions{Threshold: DefaultThreshold, Logger: quietLogger()})
	}

	t.Run("defaults", func(t *testing.T) {
		for _, threshold := range []float64{-0.1, 1, 1.5} {
			r := NewResolver(&th.FakeDestination{}, ResolverOptions{Threshold: threshold, Logger: quietLogger()})
			if r.Threshold() != DefaultThreshold {
				t.Errorf("threshold %v: expected default, got %v", threshold, r.Threshold())
			}
		}
		r := NewResolver(&th.FakeDestination{}, ResolverOptions{Logger: quietLogger()})
		if r.limit != DefaultSearchLimit || r.timeout != DefaultCallTimeout {
			t.Errorf("unexpected defaults limit=%d timeout=%v", r.limit, r.timeout)
		}
	})

	t.Run("picks the highest score", func(t *testing.T) {
		dst := &th.FakeDestination{Results: map[string][]models.Candidate{
			query: {
				th.Song("cover", "Heroes", 200, "Tribute Band"),
				th.Song("orig", "Heroes (2017 Remaster)", 372, "David Bowie"),
				th.Song("live", "Heroes (Live)", 420, "David Bowie"),
			},
		}}

		res := newResolver(dst).Resolve(ctx, heroes)
		if !res.Resolved() {
			t.Fatalf("expected a match, got %v", res.Err)
		}
		if res.Best.Candidate.VideoID != "orig" {
			t.Errorf("expected orig, got %s", res.Best.Candidate.VideoID)
		}
		if !approx(res.Best.Score, 0.9) {
			t.Errorf("expected score 0.9, got %v", res.Best.Score)
		}
		if len(res.Candidates) != 3 {
			t.Errorf("expected 3 scored candidates, got %d", len(res.Candidates))
		}
		if got := dst.Searches(); len(got) != 1 || got[0] != "Heroes David Bowie" {
			t.Errorf("unexpected searches %v", got)
		}
	})

	t.Run("first candidate wins a tie", func(t *testing.T) {
		dst := &th.FakeDestination{Results: map[string][]models.Candidate{
			query: {
				th.Song("first", "Heroes", 371, "David Bowie"),
				th.Song("second", "Heroes", 371, "David Bowie"),
			},
		}}
		res := newResolver(dst).Resolve(ctx, heroes)
		if !res.Resolved() || res.Best.Candidate.VideoID != "first" {
			t.Errorf("expected first, got %+v", res.Best)
		}
	})

	t.Run("threshold is exclusive", func(t *testing.T) {
		dst := &th.FakeDestination{Results: map[string][]models.Candidate{
			query: {th.Song("artist-only", "Changes", -1, "David Bowie")},
		}}
		res := newResolver(dst).Resolve(ctx, heroes)
		if res.Resolved() {
			t.Fatalf("a score equal to the threshold must not be accepted")
		}
		if !errors.Is(res.Err, shared.ErrNoMatchFound) {
			t.Errorf("expected ErrNoMatchFound, got %v", res.Err)
		}
		if res.Nearest == nil || res.Nearest.Candidate.VideoID != "artist-only" {
			t.Fatalf("expected a near miss, got %+v", res.Nearest)
		}
		if !approx(res.Nearest.Score, ArtistWeight) {
			t.Errorf("expected near miss score %v, got %v", ArtistWeight, res.Nearest.Score)
		}
	})

	t.Run("zero threshold accepts any positive score", func(t *testing.T) {
		dst := &th.FakeDestination{Results: map[string][]models.Candidate{
			query: {th.Song("long", "Changes", 380, "Blur")},
		}}
		r := NewResolver(dst, ResolverOptions{Threshold: 0, Logger: quietLogger()})
		if r.Threshold() != 0 {
			t.Fatalf("expected threshold 0 to be kept, got %v", r.Threshold())
		}
		res := r.Resolve(ctx, heroes)
		if !res.Resolved() || res.Best.Candidate.VideoID != "long" {
			t.Fatalf("expected long to be accepted, got %+v (%v)", res.Best, res.Err)
		}
		if !approx(res.Best.Score, DurationCloseWeight) {
			t.Errorf("expected score %v, got %v", DurationCloseWeight, res.Best.Score)
		}

		miss := NewResolver(&th.FakeDestination{Results: map[string][]models.Candidate{
			query: {th.Song("none", "Changes", -1, "Blur")},
		}}, ResolverOptions{Threshold: 0, Logger: quietLogger()}).Resolve(ctx, heroes)
		if miss.Resolved() {
			t.Errorf("a zero score must not clear a zero threshold")
		}
	})

	t.Run("near miss prefers the most similar label", func(t *testing.T) {
		dst := &th.FakeDestination{Results: map[string][]models.Candidate{
			query: {
				th.Song("far", "Completely Different", -1, "Someone"),
				th.Song("close", "Heros", -1, "Davd Bowi"),
			},
		}}
		res := NewResolver(dst, ResolverOptions{Threshold: 0.5, Logger: quietLogger()}).Resolve(ctx, heroes)
		if res.Resolved() {
			t.Fatalf("expected no match, got %+v", res.Best)
		}
		if res.Nearest == nil || res.Nearest.Candidate.VideoID != "close" {
			t.Errorf("expected close as nearest, got %+v", res.Nearest)
		}
		if res.Nearest.Similarity <= 0 || res.Nearest.Similarity > 1 {
			t.Errorf("similarity out of range: %v", res.Nearest.Similarity)
		}
	})

	t.Run("no candidates", func(t *testing.T) {
		res := newResolver(&th.FakeDestination{}).Resolve(ctx, heroes)
		if res.Resolved() || !errors.Is(res.Err, shared.ErrNoMatchFound) {
			t.Errorf("expected ErrNoMatchFound, got %v", res.Err)
		}
		if res.Nearest != nil {
			t.Errorf("expected no near miss, got %+v", res.Nearest)
		}
	})

	t.Run("search failure is recorded", func(t *testing.T) {
		dst := &th.FakeDestination{SearchErr: map[string]error{query: errors.New("proxy down")}}
		res := newResolver(dst).Resolve(ctx, heroes)
		if res.Resolved() {
			t.Fatal("expected no match")
		}
		if !errors.Is(res.Err, shared.ErrSearchFailed) {
			t.Errorf("expected ErrSearchFailed, got %v", res.Err)
		}
		if IsFatal(res.Err) {
			t.Errorf("search failures must not be fatal")
		}
	})

	t.Run("limit is passed to the search", func(t *testing.T) {
		cands := make([]models.Candidate, 0, 10)
		for range 10 {
			cands = append(cands, th.Song("x", "Nope", -1))
		}
		dst := &th.FakeDestination{Results: map[string][]models.Candidate{query: cands}}
		res := NewResolver(dst, ResolverOptions{Limit: 3, Logger: quietLogger()}).Resolve(ctx, heroes)
		if len(res.Candidates) != 3 {
			t.Errorf("expected 3 candidates, got %d", len(res.Candidates))
		}
	})

	t.Run("conversion", func(t *testing.T) {
		dst := &th.FakeDestination{Results: map[string][]models.Candidate{
			query: {th.Song("orig", "Heroes", 371, "David Bowie")},
		}}
		res := newResolver(dst).Resolve(ctx, heroes)
		res.Index = 7
		track := res.Track()
		if track.Index != 7 || track.Match.VideoID != "orig" || track.Descriptor.Title != "Heroes" {
			t.Errorf("unexpected resolved track %+v", track)
		}

		miss := newResolver(&th.FakeDestination{}).Resolve(ctx, heroes)
		u := miss.Unresolved()
		if u.Reason == "" || u.Descriptor.Title != "Heroes" {
			t.Errorf("unexpected unresolved track %+v", u)
		}
	})
}
