// Package ui provides the Bubbletea terminal interface shown while a track
// pair is being processed.
package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// StageNames lists the pipeline stages in execution order.
var StageNames = []string{"Analyzing", "Normalizing", "Attributing", "Reporting"}

// Model is the Bubbletea model for one processing run.
type Model struct {
	MicPath string
	SysPath string

	// Stage tracking
	Stage    int     // 1-based index of the active stage, 0 before start
	Progress float64 // progress of the active stage, 0.0 to 1.0

	// Live level meters (dBFS)
	MicDB float64
	SysDB float64

	// Non-fatal conditions surfaced during processing
	Warnings []string

	StartTime time.Time
	Done      bool
	Err       error

	// ProgressChan receives messages from the processing goroutine.
	ProgressChan chan tea.Msg

	Width  int
	Height int
}

// NewModel creates the UI model for a mic/system track pair.
func NewModel(micPath, sysPath string) Model {
	return Model{
		MicPath:      micPath,
		SysPath:      sysPath,
		MicDB:        -60.0,
		SysDB:        -60.0,
		StartTime:    time.Now(),
		ProgressChan: make(chan tea.Msg, 64),
	}
}

// Init starts listening for progress messages.
func (m Model) Init() tea.Cmd {
	return waitForProgress(m.ProgressChan)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case StageMsg:
		m.Stage = msg.Stage
		m.Progress = msg.Progress
		return m, waitForProgress(m.ProgressChan)

	case LevelMsg:
		m.MicDB = msg.MicDB
		m.SysDB = msg.SysDB
		return m, waitForProgress(m.ProgressChan)

	case WarningMsg:
		m.Warnings = append(m.Warnings, msg.Message)
		return m, waitForProgress(m.ProgressChan)

	case DoneMsg:
		m.Done = true
		m.Err = msg.Err
		return m, tea.Quit
	}

	return m, nil
}

// View renders the current state.
func (m Model) View() string {
	return renderProcessingView(m)
}

// waitForProgress returns a command that relays the next processing message.
func waitForProgress(ch chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}
