package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/ytmigrate/internal/models"
	"github.com/desertthunder/ytmigrate/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgProgressUpdate MsgKind = iota
	MsgTransferComplete
)

// transferResult carries the engine's return values back to the model.
type transferResult struct {
	outcome *models.TransferOutcome
	err     error
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// transferCompleteMsg is the constructor for [MsgTransferComplete]
func transferCompleteMsg(outcome *models.TransferOutcome, err error) Msg {
	return Msg{kind: MsgTransferComplete, data: transferResult{outcome, err}}
}
