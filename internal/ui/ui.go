package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/ytmigrate/internal/models"
	"github.com/desertthunder/ytmigrate/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	TransferView ViewState = iota
	ResultView
)

// RunFunc runs one transfer, reporting progress on the channel.
type RunFunc func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*models.TransferOutcome, error)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	cancel       context.CancelFunc
	view         ViewState
	title        string
	run          RunFunc
	width        int
	height       int
	spinner      spinner.Model
	unresolved   list.Model
	progressChan chan tasks.ProgressUpdate
	resultChan   chan transferResult
	progress     tasks.ProgressUpdate
	outcome      *models.TransferOutcome
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a TUI model that starts run as soon as the program starts.
func NewModel(ctx context.Context, title string, run RunFunc) *Model {
	ctx, cancel := context.WithCancel(ctx)
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.title.UnsetMarginBottom()
	h := help.New()
	h.Styles.ShortDesc = styles.help

	return &Model{
		ctx:     ctx,
		cancel:  cancel,
		view:    TransferView,
		title:   title,
		run:     run,
		spinner: s,
		help:    h,
		keys:    newKeyMap(),
	}
}

// Outcome returns the finished transfer's outcome, or nil while it is running.
func (m *Model) Outcome() *models.TransferOutcome { return m.outcome }

// Err returns the error the transfer finished with.
func (m *Model) Err() error { return m.err }

// Init starts the transfer and the spinner.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startTransfer())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.view == ResultView {
			m.unresolved.SetSize(m.listSize())
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case TransferView:
			return m.handleTransferKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case spinner.TickMsg:
		if m.view != TransferView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		switch msg.kind {
		case MsgProgressUpdate:
			m.progress = msg.data.(tasks.ProgressUpdate)
			return m, m.waitForProgress()
		case MsgTransferComplete:
			res := msg.data.(transferResult)
			m.outcome = res.outcome
			m.err = res.err
			m.view = ResultView
			if m.outcome != nil {
				w, h := m.listSize()
				m.unresolved = newUnresolvedList(m.outcome.Unresolved, w, h)
			}
			return m, nil
		}
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case TransferView:
		return m.renderTransfer()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleTransferKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.cancel) {
		m.cancel()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) {
		m.cancel()
		return m, tea.Quit
	}
	if m.outcome == nil || len(m.outcome.Unresolved) == 0 {
		return m, nil
	}

	var cmd tea.Cmd
	m.unresolved, cmd = m.unresolved.Update(msg)
	return m, cmd
}

func (m *Model) listSize() (int, int) {
	w, h := m.width-4, m.height-12
	if w < 20 {
		w = 80
	}
	if h < 5 {
		h = 10
	}
	return w, h
}

func (m *Model) startTransfer() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 64)
	m.resultChan = make(chan transferResult, 1)

	progress, results := m.progressChan, m.resultChan
	go func() {
		outcome, err := m.run(m.ctx, progress)
		results <- transferResult{outcome, err}
		close(progress)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, results := m.progressChan, m.resultChan
	return func() tea.Msg {
		update, ok := <-progress
		if !ok {
			res := <-results
			return transferCompleteMsg(res.outcome, res.err)
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderTransfer() string {
	title := styles.title.Render(m.title)

	phase := styles.State(m.progress.Phase).Render(phaseLabel(m.progress.Phase))
	counter := ""
	if m.progress.Total > 0 {
		counter = fmt.Sprintf(" (%d/%d)", m.progress.Step, m.progress.Total)
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.cancel})
	return fmt.Sprintf("%s\n%s %s%s\n%s\n\n%s", title, m.spinner.View(), phase, counter, m.progress.Message, helpView)
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.up, m.keys.down, m.keys.quit})

	if m.outcome == nil {
		msg := "No result available"
		if m.err != nil {
			msg = fmt.Sprintf("Transfer failed: %v", m.err)
		}
		return fmt.Sprintf("%s\n\n%s", styles.err.Render(msg), helpView)
	}

	var b strings.Builder
	o := m.outcome
	if o.Success {
		b.WriteString(styles.ok.Render("✓ Transfer Complete!"))
	} else {
		b.WriteString(styles.err.Render(fmt.Sprintf("✗ Transfer failed: %v", o.Err)))
	}
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Playlist: %s", o.DestinationName)
	if o.PlaylistID != "" {
		fmt.Fprintf(&b, " (%s)", o.PlaylistID)
	}
	fmt.Fprintf(&b, "\nResolved: %d/%d   Added: %d   Unresolved: %d\n",
		len(o.Resolved), o.Total, o.Added, len(o.Unresolved))
	if len(o.AddFailures) > 0 {
		b.WriteString(styles.warn.Render(fmt.Sprintf("Failed to add %d tracks", len(o.AddFailures))))
		b.WriteString("\n")
	}

	if len(o.Unresolved) > 0 {
		b.WriteString("\n")
		b.WriteString(m.unresolved.View())
	}

	b.WriteString("\n\n")
	b.WriteString(helpView)
	return b.String()
}

func phaseLabel(s tasks.State) string {
	switch s {
	case tasks.Idle:
		return "Starting..."
	case tasks.Extracting:
		return "Reading playlist reference..."
	case tasks.Fetching:
		return "Fetching source playlist..."
	case tasks.Resolving:
		return "Searching YouTube Music"
	case tasks.Creating:
		return "Creating playlist..."
	case tasks.Populating:
		return "Adding tracks"
	case tasks.Done:
		return "Done"
	case tasks.Failed:
		return "Failed"
	default:
		return "Processing..."
	}
}
