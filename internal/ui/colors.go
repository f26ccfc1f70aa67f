package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/ytmigrate/internal/tasks"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

// State picks the style a transfer state is rendered in.
func (p *Palette) State(s tasks.State) lipgloss.Style {
	switch s {
	case tasks.Done:
		return p.ok
	case tasks.Failed:
		return p.err
	case tasks.Creating, tasks.Populating:
		return p.warn
	default:
		return p.title.UnsetMarginBottom()
	}
}
