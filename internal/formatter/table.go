package formatter

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/desertthunder/ytmigrate/internal/models"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func renderTable(headers []string, rows [][]string, aligns []columnAlignment, rounded bool) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	if rounded {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleLight)
	}

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
			WidthMax:    48,
		})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

// UnresolvedTable lists unresolved tracks with their closest rejected candidate.
// Returns "" when every track resolved.
func UnresolvedTable(o *models.TransferOutcome, rounded bool) string {
	if len(o.Unresolved) == 0 {
		return ""
	}

	rows := make([][]string, 0, len(o.Unresolved))
	for _, u := range o.Unresolved {
		closest, score := "-", "-"
		if u.Nearest != nil {
			closest = u.Nearest.Candidate.Label()
			score = strconv.FormatFloat(u.Nearest.Score, 'f', 2, 64)
		}
		rows = append(rows, []string{
			strconv.Itoa(u.Index + 1),
			u.Descriptor.Title,
			u.Descriptor.ArtistLine(),
			closest,
			score,
		})
	}
	return renderTable(
		[]string{"#", "Title", "Artists", "Closest", "Score"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight},
		rounded,
	)
}

// CandidatesTable lists scored search results, marking the accepted one.
func CandidatesTable(candidates []models.Candidate, scores []float64, accepted int, rounded bool) string {
	rows := make([][]string, 0, len(candidates))
	for i, c := range candidates {
		dur := "-"
		if c.DurationSeconds != nil {
			dur = FormatDuration(int(*c.DurationSeconds * 1000))
		}
		mark := ""
		if i == accepted {
			mark = "✓"
		}
		score := ""
		if i < len(scores) {
			score = strconv.FormatFloat(scores[i], 'f', 2, 64)
		}
		rows = append(rows, []string{mark, c.VideoID, c.Title, strings.Join(c.Artists, ", "), dur, score})
	}
	return renderTable(
		[]string{"", "Video ID", "Title", "Artists", "Length", "Score"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
		rounded,
	)
}

// HistoryTable lists journaled runs, newest first as given.
func HistoryTable(records []models.RunRecord, rounded bool) string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		playlist := r.DestinationName
		if r.DestinationID != "" {
			playlist = fmt.Sprintf("%s (%s)", r.DestinationName, r.DestinationID)
		}
		rows = append(rows, []string{
			r.StartedAt.Local().Format(time.DateTime),
			r.SourceID,
			playlist,
			fmt.Sprintf("%d/%d", r.Added, r.Total),
			strconv.Itoa(r.Unresolved),
			r.State,
			r.Error,
		})
	}
	return renderTable(
		[]string{"Started", "Source", "Playlist", "Added", "Unresolved", "State", "Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
		rounded,
	)
}
