// package formatter renders transfer outcomes and run history as reports (JSON, CSV, Markdown, plain text)
// and terminal tables
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/desertthunder/ytmigrate/internal/models"
	"github.com/desertthunder/ytmigrate/internal/shared"
)

// Format is a report file format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
)

// ParseFormat accepts a format name as typed on the command line.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown report format %q (json, csv, markdown, txt)", shared.ErrInvalidFlag, s)
	}
}

// Ext returns the file extension for f.
func (f Format) Ext() string {
	switch f {
	case FormatMarkdown:
		return "md"
	case FormatText:
		return "txt"
	case FormatCSV:
		return "csv"
	default:
		return "json"
	}
}

// Row status values in CSV and text reports.
const (
	StatusAdded      = "added"
	StatusAddFailed  = "add_failed"
	StatusResolved   = "resolved"
	StatusUnresolved = "unresolved"
)

// TrackRow is one source track in report order.
type TrackRow struct {
	Index      int
	Descriptor models.TrackDescriptor
	Status     string
	VideoID    string
	Match      string
	Score      float64
	Reason     string
}

// Rows merges resolved and unresolved tracks back into source order.
//
// A resolved track is "added" once the playlist exists and the item did not fail,
// and "resolved" when the run stopped before population.
func Rows(o *models.TransferOutcome) []TrackRow {
	failed := make(map[int]string, len(o.AddFailures))
	for _, f := range o.AddFailures {
		failed[f.Track.Index] = f.Reason
	}
	populated := o.PlaylistID != "" && (o.Added > 0 || len(o.AddFailures) > 0)

	rows := make([]TrackRow, 0, len(o.Resolved)+len(o.Unresolved))
	for _, r := range o.Resolved {
		row := TrackRow{
			Index:      r.Index,
			Descriptor: r.Descriptor,
			Status:     StatusResolved,
			VideoID:    r.Match.VideoID,
			Match:      r.Match.Label(),
			Score:      r.Score,
		}
		if reason, ok := failed[r.Index]; ok {
			row.Status = StatusAddFailed
			row.Reason = reason
		} else if populated {
			row.Status = StatusAdded
		}
		rows = append(rows, row)
	}
	for _, u := range o.Unresolved {
		row := TrackRow{Index: u.Index, Descriptor: u.Descriptor, Status: StatusUnresolved, Reason: u.Reason}
		if u.Nearest != nil {
			row.Match = u.Nearest.Candidate.Label()
			row.VideoID = u.Nearest.Candidate.VideoID
			row.Score = u.Nearest.Score
		}
		rows = append(rows, row)
	}
	slices.SortStableFunc(rows, func(a, b TrackRow) int { return a.Index - b.Index })
	return rows
}

// ExportToJSON renders the full outcome as indented JSON.
func ExportToJSON(o *models.TransferOutcome) ([]byte, error) {
	report := struct {
		*models.TransferOutcome
		Error    string `json:"error,omitempty"`
		Duration string `json:"duration"`
	}{o, o.ErrorText(), o.Duration().String()}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportToCSV converts an outcome to CSV with one row per source track:
// Position, Status, Title, Artists, Album, DurationMS, VideoID, Match, Score, Reason
func ExportToCSV(o *models.TransferOutcome) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "Status", "Title", "Artists", "Album", "DurationMS", "VideoID", "Match", "Score", "Reason"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range Rows(o) {
		record := []string{
			strconv.Itoa(row.Index + 1),
			row.Status,
			row.Descriptor.Title,
			row.Descriptor.ArtistLine(),
			row.Descriptor.Album,
			strconv.Itoa(row.Descriptor.DurationMS),
			row.VideoID,
			row.Match,
			strconv.FormatFloat(row.Score, 'f', 2, 64),
			row.Reason,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportToMarkdown converts an outcome to a Markdown report.
func ExportToMarkdown(o *models.TransferOutcome) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", o.DestinationName)
	fmt.Fprintf(&buf, "**Source**: %s\n", o.SourceRef)
	if o.PlaylistID != "" {
		fmt.Fprintf(&buf, "**Playlist ID**: %s\n", o.PlaylistID)
	}
	fmt.Fprintf(&buf, "**Status**: %s\n", o.State)
	if o.Err != nil {
		fmt.Fprintf(&buf, "**Error**: %s\n", o.Err)
	}
	fmt.Fprintf(&buf, "**Tracks**: %d total, %d resolved, %d unresolved, %d added\n\n",
		o.Total, len(o.Resolved), len(o.Unresolved), o.Added)

	if len(o.Resolved) > 0 {
		buf.WriteString("## Transferred\n\n")
		for _, row := range Rows(o) {
			if row.Status == StatusUnresolved {
				continue
			}
			mark := "x"
			if row.Status == StatusAddFailed {
				mark = " "
			}
			fmt.Fprintf(&buf, "- [%s] %s → %s (%.2f) [%s]\n",
				mark, row.Descriptor.Label(), row.Match, row.Score, FormatDuration(row.Descriptor.DurationMS))
		}
		buf.WriteString("\n")
	}

	if len(o.Unresolved) > 0 {
		buf.WriteString("## Unresolved\n\n")
		for _, u := range o.Unresolved {
			fmt.Fprintf(&buf, "%d. %s", u.Index+1, u.Descriptor.Label())
			if u.Nearest != nil {
				fmt.Fprintf(&buf, " (closest: %s, %.2f)", u.Nearest.Candidate.Label(), u.Nearest.Score)
			}
			buf.WriteString("\n")
		}
	}
	return buf.Bytes(), nil
}

// ExportToText converts an outcome to the plain text summary printed at the end of a run.
func ExportToText(o *models.TransferOutcome) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", o.DestinationName)
	if o.PlaylistID != "" {
		fmt.Fprintf(&buf, "Playlist ID: %s\n", o.PlaylistID)
	}
	fmt.Fprintf(&buf, "Status: %s\n", o.State)
	if o.Err != nil {
		fmt.Fprintf(&buf, "Error: %s\n", o.Err)
	}
	fmt.Fprintf(&buf, "Tracks: %d\n", o.Total)
	fmt.Fprintf(&buf, "Resolved: %d\n", len(o.Resolved))
	fmt.Fprintf(&buf, "Unresolved: %d\n", len(o.Unresolved))
	fmt.Fprintf(&buf, "Added: %d\n", o.Added)

	if len(o.Unresolved) > 0 {
		buf.WriteString("\nUnresolved tracks:\n")
		for _, u := range o.Unresolved {
			fmt.Fprintf(&buf, "%d. %s - %s\n", u.Index+1, u.Descriptor.ArtistLine(), u.Descriptor.Title)
		}
	}
	if len(o.AddFailures) > 0 {
		buf.WriteString("\nFailed to add:\n")
		for _, f := range o.AddFailures {
			fmt.Fprintf(&buf, "%d. %s - %s: %s\n", f.Track.Index+1, f.Track.Descriptor.ArtistLine(), f.Track.Descriptor.Title, f.Reason)
		}
	}
	return buf.Bytes(), nil
}

// Export renders o in format f.
func Export(o *models.TransferOutcome, f Format) ([]byte, error) {
	switch f {
	case FormatCSV:
		return ExportToCSV(o)
	case FormatMarkdown:
		return ExportToMarkdown(o)
	case FormatText:
		return ExportToText(o)
	default:
		return ExportToJSON(o)
	}
}

// WriteReport writes the outcome report to path, creating parent directories.
//
// Defaults to {run id}_report.{ext} as the filename.
func WriteReport(o *models.TransferOutcome, f Format, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_report.%s", o.RunID, f.Ext())
	}

	data, err := Export(o, f)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s report: %w", f, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}
	return path, nil
}

// FormatDuration renders milliseconds as m:ss.
func FormatDuration(ms int) string {
	secs := ms / 1000
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
