package models

import (
	"fmt"
	"strings"
	"time"
)

// TrackDescriptor is the source catalog's description of one track.
type TrackDescriptor struct {
	SourceID   string   `json:"source_id"`
	Title      string   `json:"title"`
	Artists    []string `json:"artists"`
	Album      string   `json:"album,omitempty"`
	DurationMS int      `json:"duration_ms"`
	Popularity int      `json:"popularity,omitempty"` // informational only
}

// DurationSeconds returns the track length in (fractional) seconds.
func (d TrackDescriptor) DurationSeconds() float64 {
	return float64(d.DurationMS) / 1000
}

// ArtistLine joins the artist names the way search queries and reports show them.
func (d TrackDescriptor) ArtistLine() string {
	return strings.Join(d.Artists, ", ")
}

// Label renders "Title by Artist, Artist".
func (d TrackDescriptor) Label() string {
	if len(d.Artists) == 0 {
		return d.Title
	}
	return fmt.Sprintf("%s by %s", d.Title, d.ArtistLine())
}

// Candidate is one destination search result.
type Candidate struct {
	VideoID         string   `json:"video_id"`
	Title           string   `json:"title"`
	Artists         []string `json:"artists"`
	Album           string   `json:"album,omitempty"`
	DurationSeconds *float64 `json:"duration_seconds,omitempty"` // nil when the catalog gave no duration
}

// HasDuration reports whether the candidate carries a usable duration.
func (c Candidate) HasDuration() bool {
	return c.DurationSeconds != nil
}

// Label renders "Title by Artist, Artist".
func (c Candidate) Label() string {
	if len(c.Artists) == 0 {
		return c.Title
	}
	return fmt.Sprintf("%s by %s", c.Title, strings.Join(c.Artists, ", "))
}

// ResolvedTrack pairs a descriptor with the accepted candidate and its score.
type ResolvedTrack struct {
	Index      int             `json:"index"`
	Descriptor TrackDescriptor `json:"descriptor"`
	Match      Candidate       `json:"match"`
	Score      float64         `json:"score"`
}

// NearMiss is the closest rejected candidate, kept for the operator report only.
type NearMiss struct {
	Candidate  Candidate `json:"candidate"`
	Score      float64   `json:"score"`
	Similarity float64   `json:"similarity"`
}

// UnresolvedTrack is a descriptor without an accepted candidate.
type UnresolvedTrack struct {
	Index      int             `json:"index"`
	Descriptor TrackDescriptor `json:"descriptor"`
	Reason     string          `json:"reason"`
	Nearest    *NearMiss       `json:"nearest,omitempty"`
}

// AddFailure records a resolved track whose insertion into the destination failed.
type AddFailure struct {
	Track  ResolvedTrack `json:"track"`
	Reason string        `json:"reason"`
}

// TransferOutcome is the full report of one transfer run.
type TransferOutcome struct {
	RunID           string            `json:"run_id"`
	SourceRef       string            `json:"source_ref"`
	SourceID        string            `json:"source_id,omitempty"`
	DestinationName string            `json:"destination_name"`
	PlaylistID      string            `json:"playlist_id,omitempty"`
	Total           int               `json:"total"`
	Resolved        []ResolvedTrack   `json:"resolved"`
	Unresolved      []UnresolvedTrack `json:"unresolved"`
	Added           int               `json:"added"`
	AddFailures     []AddFailure      `json:"add_failures,omitempty"`
	State           string            `json:"state"`
	Success         bool              `json:"success"`
	Err             error             `json:"-"`
	StartedAt       time.Time         `json:"started_at"`
	FinishedAt      time.Time         `json:"finished_at"`
}

// ResolvedIDs returns the destination ids of the resolved tracks in source order.
func (o *TransferOutcome) ResolvedIDs() []string {
	ids := make([]string, len(o.Resolved))
	for i, r := range o.Resolved {
		ids[i] = r.Match.VideoID
	}
	return ids
}

// ErrorText returns the run error text, or "" when the run had none.
func (o *TransferOutcome) ErrorText() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// Duration is the wall time the run took.
func (o *TransferOutcome) Duration() time.Duration {
	if o.FinishedAt.IsZero() {
		return 0
	}
	return o.FinishedAt.Sub(o.StartedAt)
}

// Record condenses the outcome into its journal row.
func (o *TransferOutcome) Record() RunRecord {
	return RunRecord{
		ID:              o.RunID,
		SourceRef:       o.SourceRef,
		SourceID:        o.SourceID,
		DestinationName: o.DestinationName,
		DestinationID:   o.PlaylistID,
		Total:           o.Total,
		Resolved:        len(o.Resolved),
		Unresolved:      len(o.Unresolved),
		Added:           o.Added,
		State:           o.State,
		Error:           o.ErrorText(),
		StartedAt:       o.StartedAt,
		FinishedAt:      o.FinishedAt,
	}
}

// RunRecord is one row of the run journal.
type RunRecord struct {
	ID              string
	SourceRef       string
	SourceID        string
	DestinationName string
	DestinationID   string
	Total           int
	Resolved        int
	Unresolved      int
	Added           int
	State           string
	Error           string
	StartedAt       time.Time
	FinishedAt      time.Time
}

// Validate checks the fields the journal requires.
func (r RunRecord) Validate() error {
	switch {
	case r.ID == "":
		return fmt.Errorf("run id is required")
	case r.SourceRef == "":
		return fmt.Errorf("source reference is required")
	case r.State == "":
		return fmt.Errorf("state is required")
	case r.StartedAt.IsZero():
		return fmt.Errorf("start time is required")
	}
	return nil
}
