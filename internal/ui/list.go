package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/ytmigrate/internal/models"
)

var (
	_ list.Item = unresolvedItem{}
)

// unresolvedItem wraps [models.UnresolvedTrack] to implement [list.Item].
type unresolvedItem struct {
	track models.UnresolvedTrack
}

func (i unresolvedItem) FilterValue() string { return i.track.Descriptor.Title }
func (i unresolvedItem) Title() string {
	return fmt.Sprintf("%d. %s", i.track.Index+1, i.track.Descriptor.Title)
}
func (i unresolvedItem) Description() string {
	desc := strings.Join(i.track.Descriptor.Artists, ", ")
	if n := i.track.Nearest; n != nil {
		desc = fmt.Sprintf("%s • closest: %s (%.2f)", desc, n.Candidate.Label(), n.Score)
	}
	return desc
}

func newUnresolvedList(tracks []models.UnresolvedTrack, width, height int) list.Model {
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = unresolvedItem{track: t}
	}
	l := list.New(items, list.NewDefaultDelegate(), width, height)
	l.Title = fmt.Sprintf("Unresolved tracks (%d)", len(tracks))
	l.SetShowHelp(false)
	return l
}
