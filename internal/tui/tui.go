// Package tui provides the Bubble Tea operator console of the song library.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/handiism/ultrastar-library/internal/library"
	"github.com/handiism/ultrastar-library/internal/model"
	"github.com/handiism/ultrastar-library/internal/store"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))
)

// maxLogs is the number of engine events kept on screen.
const maxLogs = 10

// maxRows is the number of result rows rendered.
const maxRows = 30

// Operator is the part of the library the console drives.
// library.Engine implements it.
type Operator interface {
	Query(ctx context.Context, statement string) ([]model.Row, error)
	Update(ctx context.Context, sel library.Selection, field, value string) (library.UpdateResult, error)
	Refresh(ctx context.Context) (int, error)
	Fields(ctx context.Context) ([]store.Column, error)
	CreatePlaylist(ctx context.Context, sel library.Selection, name string) (string, error)
}

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateBusy
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   library.Level
}

// Model is the Bubble Tea model of the console.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	operator  Operator
	events    <-chan library.Event
	logs      []LogEntry
	verbose   bool

	// lastRows is the last query result, the target of :set and :playlist.
	lastRows []model.Row
	output   string
	err      error

	ctx    context.Context
	cancel context.CancelFunc

	width  int
	height int
}

// NewModel creates the console model. events delivers engine events and
// may be nil.
func NewModel(operator Operator, events <-chan library.Event, verbose bool) Model {
	ti := textinput.New()
	ti.Placeholder = "select * from songs where genre = 'UNKNOWN'"
	ti.Focus()
	ti.CharLimit = 1000
	ti.Width = 80

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:     StateInput,
		textInput: ti,
		spinner:   sp,
		operator:  operator,
		events:    events,
		verbose:   verbose,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.waitForEvent())
}

// Message types
type (
	// EventMsg carries an engine event.
	EventMsg struct {
		Event library.Event
	}

	// ResultMsg is sent when a console command completes.
	ResultMsg struct {
		// Rows replaces the last result when not nil.
		Rows   []model.Row
		Output string
		Err    error
		Quit   bool
	}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textInput.Width = max(msg.Width-4, 20)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit

		case "esc":
			if m.state == StateInput {
				return m, tea.Quit
			}

		case "enter":
			line := strings.TrimSpace(m.textInput.Value())
			if m.state == StateInput && line != "" {
				m.state = StateBusy
				m.err = nil
				m.textInput.SetValue("")
				return m, tea.Batch(m.execute(line), m.spinner.Tick)
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case EventMsg:
		if msg.Event.Level != library.LevelVerbose || m.verbose {
			m.logs = append(m.logs, LogEntry{Message: msg.Event.Message, Level: msg.Event.Level})
			if len(m.logs) > maxLogs {
				m.logs = m.logs[len(m.logs)-maxLogs:]
			}
		}
		cmds = append(cmds, m.waitForEvent())

	case ResultMsg:
		m.state = StateInput
		if msg.Quit {
			m.cancel()
			return m, tea.Quit
		}
		m.err = msg.Err
		if msg.Err == nil && msg.Rows != nil {
			m.lastRows = msg.Rows
		}
		// partial updates report both
		if msg.Err == nil || msg.Output != "" {
			m.output = msg.Output
		}
	}

	if m.state == StateInput {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// waitForEvent forwards the next engine event to the program.
func (m Model) waitForEvent() tea.Cmd {
	if m.events == nil {
		return nil
	}
	return func() tea.Msg {
		event, ok := <-m.events
		if !ok {
			return nil
		}
		return EventMsg{Event: event}
	}
}

// execute runs one console line. Lines starting with ':' are commands,
// anything else is SQL for the operator query.
func (m Model) execute(line string) tea.Cmd {
	ctx := m.ctx
	op := m.operator
	selection := library.RowSelection(m.lastRows)

	return func() tea.Msg {
		if !strings.HasPrefix(line, ":") {
			rows, err := op.Query(ctx, line)
			if err != nil {
				return ResultMsg{Err: err}
			}
			return ResultMsg{Rows: rows, Output: RenderRows(rows, maxRows)}
		}

		command, args, _ := strings.Cut(strings.TrimPrefix(line, ":"), " ")
		args = strings.TrimSpace(args)

		switch command {
		case "q", "quit":
			return ResultMsg{Quit: true}

		case "help":
			return ResultMsg{Output: helpText}

		case "refresh":
			count, err := op.Refresh(ctx)
			if err != nil {
				return ResultMsg{Err: err}
			}
			return ResultMsg{Output: fmt.Sprintf("library rebuilt with %d songs", count)}

		case "fields":
			columns, err := op.Fields(ctx)
			if err != nil {
				return ResultMsg{Err: err}
			}
			return ResultMsg{Output: RenderColumns(columns)}

		case "set":
			field, value, ok := strings.Cut(args, " ")
			if !ok || field == "" {
				return ResultMsg{Err: errors.New("usage: :set FIELD VALUE")}
			}
			if len(selection) == 0 {
				return ResultMsg{Err: errors.New("no rows selected, run a query first")}
			}
			result, err := op.Update(ctx, selection, field, strings.TrimSpace(value))
			if err != nil && result.Rows == 0 {
				return ResultMsg{Err: err}
			}
			return ResultMsg{Output: fmt.Sprintf("%s updated on %d of %d rows, %d files rewritten",
				field, result.Updated, result.Rows, len(result.Files)), Err: err}

		case "playlist":
			if args == "" {
				return ResultMsg{Err: errors.New("usage: :playlist NAME")}
			}
			if len(selection) == 0 {
				return ResultMsg{Err: errors.New("no rows selected, run a query first")}
			}
			path, err := op.CreatePlaylist(ctx, selection, args)
			if err != nil {
				return ResultMsg{Err: err}
			}
			return ResultMsg{Output: "playlist written to " + path}

		default:
			return ResultMsg{Err: fmt.Errorf("unknown command :%s, try :help", command)}
		}
	}
}

const helpText = `SQL            run a query, e.g. select id, title from songs
:set F VALUE   set field F on the rows of the last query
:playlist NAME store the rows of the last query as a playlist
:refresh       rescan the songs directory
:fields        list the columns of the songs table
:quit          leave the console`

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("♪ UltraStar Library"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("%d rows selected", len(m.lastRows))))
	b.WriteString("\n\n")

	if m.state == StateBusy {
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(subtitleStyle.Render("Working..."))
	} else {
		b.WriteString(m.textInput.View())
	}
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render("✗ " + m.err.Error()))
		b.WriteString("\n\n")
	} else if m.output != "" {
		b.WriteString(m.output)
		b.WriteString("\n\n")
	}

	b.WriteString(m.renderLogs())
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("enter: run • :help: commands • esc: quit"))

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case library.LevelError:
			style = errorStyle
			prefix = "✗"
		case library.LevelWarning:
			style = warningStyle
			prefix = "!"
		case library.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case library.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

// Run starts the console.
func Run(operator Operator, events <-chan library.Event, verbose bool) error {
	p := tea.NewProgram(NewModel(operator, events, verbose), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
