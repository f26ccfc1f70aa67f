package tasks

import (
	"fmt"

	"github.com/desertthunder/ytmigrate/internal/models"
)

// ProgressUpdate represents a progress event during a transfer.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   State  // Transfer state the update belongs to
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// State is a step of the transfer state machine.
type State int

const (
	Idle State = iota
	Extracting
	Fetching
	Resolving
	Creating
	Populating
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Extracting:
		return "extracting"
	case Fetching:
		return "fetching"
	case Resolving:
		return "resolving"
	case Creating:
		return "creating"
	case Populating:
		return "populating"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return ""
	}
}

// Terminal reports whether no further transitions follow s.
func (s State) Terminal() bool {
	return s == Done || s == Failed
}

func extractingUpdate(ref string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Extracting,
		Message: fmt.Sprintf("Reading playlist reference %q...", ref),
	}
}

func fetchingUpdate(id string, fetched int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Fetching,
		Step:    fetched,
		Message: fmt.Sprintf("Fetching source playlist %s (%d tracks so far)...", id, fetched),
	}
}

func fetchedUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Fetching,
		Step:    total,
		Total:   total,
		Message: fmt.Sprintf("Found %d tracks", total),
	}
}

func resolvingUpdate(step, total int, d models.TrackDescriptor) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Resolving,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Searching: %s", step, total, d.Label()),
	}
}

func resolvedUpdate(step, total int, r Resolution) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] ✓ %s", step, total, r.Descriptor.Label())
	if !r.Resolved() {
		msg = fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, r.Descriptor.Label(), r.Err)
	}
	return ProgressUpdate{
		Phase:   Resolving,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    r,
	}
}

func creatingUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Creating,
		Message: fmt.Sprintf("Creating playlist %q on YouTube Music...", name),
	}
}

func createdUpdate(name, id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Creating,
		Message: fmt.Sprintf("Playlist created: %s (ID: %s)", name, id),
		Data:    id,
	}
}

func populatingUpdate(step, total int, r models.ResolvedTrack, err error) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] Added %s", step, total, r.Descriptor.Label())
	if err != nil {
		msg = fmt.Sprintf("[%d/%d] ✗ Could not add %s: %v", step, total, r.Descriptor.Label(), err)
	}
	return ProgressUpdate{
		Phase:   Populating,
		Step:    step,
		Total:   total,
		Message: msg,
	}
}

func finishedUpdate(o *models.TransferOutcome, s State) ProgressUpdate {
	msg := fmt.Sprintf("Transfer complete: %d/%d tracks added", o.Added, o.Total)
	if s == Failed {
		msg = fmt.Sprintf("Transfer failed: %v", o.Err)
	}
	return ProgressUpdate{
		Phase:   s,
		Step:    o.Added,
		Total:   o.Total,
		Message: msg,
		Data:    o,
	}
}
