package tui

import (
	"fmt"
	"strings"

	"github.com/DonovanMods/mc-mod-manager/internal/core"
	"github.com/DonovanMods/mc-mod-manager/internal/domain"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// Controller is the part of a running batch the view can steer.
// *core.Batch satisfies it.
type Controller interface {
	Pause(actionID string) bool
	Resume(actionID string) bool
	Cancel()
}

// EventMsg carries one orchestrator event into the model
type EventMsg struct {
	Event core.ProgressEvent
}

// DoneMsg is sent once the event stream is closed
type DoneMsg struct{}

type row struct {
	id          string
	name        string
	fromVersion string
	toVersion   string
	state       core.ActionState
	attempt     int
	downloaded  int64
	total       int64
	reason      core.FailureReason
	err         error
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).MarginBottom(1)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	pausedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1)
)

// Progress renders a live view of an update batch
type Progress struct {
	ctrl   Controller
	events <-chan core.ProgressEvent
	keys   *KeyMap

	spinner spinner.Model
	bar     progress.Model

	rows   []row
	index  map[string]int
	cursor int

	showHelp  bool
	cancelled bool
	done      bool
	width     int
}

// NewProgress creates a progress view over a batch's actions and event stream.
// keyMode is "vim" or "standard".
func NewProgress(ctrl Controller, events <-chan core.ProgressEvent, actions []domain.UpdateAction, keyMode string) Progress {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	p := Progress{
		ctrl:    ctrl,
		events:  events,
		keys:    NewKeyMap(keyMode),
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(30)),
		index:   make(map[string]int, len(actions)),
		width:   80,
	}
	for _, a := range actions {
		p.index[a.ID] = len(p.rows)
		p.rows = append(p.rows, row{
			id:          a.ID,
			name:        a.Source.Name(),
			fromVersion: a.Source.Version,
			toVersion:   a.Candidate.Version,
			attempt:     1,
		})
	}
	return p
}

// Done reports whether the event stream has been fully consumed
func (p Progress) Done() bool {
	return p.done
}

// Cancelled reports whether the user cancelled the batch
func (p Progress) Cancelled() bool {
	return p.cancelled
}

// Selected returns the id of the highlighted action, or "" when there are none
func (p Progress) Selected() string {
	if len(p.rows) == 0 {
		return ""
	}
	return p.rows[p.cursor].id
}

// State returns the last known state of an action
func (p Progress) State(actionID string) (core.ActionState, bool) {
	i, ok := p.index[actionID]
	if !ok {
		return core.StateQueued, false
	}
	return p.rows[i].state, true
}

// Init implements tea.Model
func (p Progress) Init() tea.Cmd {
	return tea.Batch(p.spinner.Tick, p.waitForEvent())
}

func (p Progress) waitForEvent() tea.Cmd {
	events := p.events
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return DoneMsg{}
		}
		return EventMsg{Event: ev}
	}
}

// Update implements tea.Model
func (p Progress) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return p.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		p.width = msg.Width
		return p, nil

	case spinner.TickMsg:
		if p.done {
			return p, nil
		}
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(msg)
		return p, cmd

	case EventMsg:
		p.apply(msg.Event)
		return p, p.waitForEvent()

	case DoneMsg:
		p.done = true
		return p, tea.Quit
	}

	return p, nil
}

func (p Progress) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case p.keys.IsQuit(msg):
		if !p.done {
			p.cancel()
		}
		return p, tea.Quit

	case p.done:
		return p, tea.Quit

	case p.keys.IsHelp(msg):
		p.showHelp = !p.showHelp

	case p.keys.IsUp(msg):
		if p.cursor > 0 {
			p.cursor--
		}

	case p.keys.IsDown(msg):
		if p.cursor < len(p.rows)-1 {
			p.cursor++
		}

	case p.keys.IsHome(msg):
		p.cursor = 0

	case p.keys.IsEnd(msg):
		p.cursor = max(len(p.rows)-1, 0)

	case p.keys.IsTogglePause(msg):
		p.togglePause()

	case p.keys.IsCancel(msg):
		p.cancel()
	}
	return p, nil
}

func (p *Progress) cancel() {
	if p.cancelled || p.ctrl == nil {
		return
	}
	p.cancelled = true
	p.ctrl.Cancel()
}

// togglePause flips the selected download between downloading and paused.
// The row only changes once the batch confirms it with an event.
func (p *Progress) togglePause() {
	if p.ctrl == nil || len(p.rows) == 0 {
		return
	}
	r := p.rows[p.cursor]
	switch r.state {
	case core.StateDownloading:
		p.ctrl.Pause(r.id)
	case core.StatePaused:
		p.ctrl.Resume(r.id)
	}
}

func (p *Progress) apply(ev core.ProgressEvent) {
	i, ok := p.index[ev.ActionID]
	if !ok {
		p.index[ev.ActionID] = len(p.rows)
		i = len(p.rows)
		p.rows = append(p.rows, row{id: ev.ActionID, name: ev.ModID})
	}
	r := &p.rows[i]
	r.state = ev.State
	if ev.Attempt > 0 {
		r.attempt = ev.Attempt
	}
	if ev.Total > 0 || ev.Downloaded > 0 {
		r.downloaded = ev.Downloaded
		r.total = ev.Total
	}
	r.reason = ev.Reason
	r.err = ev.Err
	if ev.Record != nil && ev.Record.Version != "" {
		r.toVersion = ev.Record.Version
	}
}

func (p Progress) counts() (completed, failed int) {
	for _, r := range p.rows {
		switch r.state {
		case core.StateCompleted:
			completed++
		case core.StateFailed:
			failed++
		}
	}
	return completed, failed
}

// View implements tea.Model
func (p Progress) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("mcmm - updating mods"))
	b.WriteString("\n")

	completed, failed := p.counts()
	status := fmt.Sprintf("%d/%d completed", completed, len(p.rows))
	if failed > 0 {
		status += ", " + errStyle.Render(fmt.Sprintf("%d failed", failed))
	}
	switch {
	case p.done:
		status += "  " + mutedStyle.Render("finished")
	case p.cancelled:
		status += "  " + pausedStyle.Render("cancelling...")
	}
	b.WriteString(status)
	b.WriteString("\n\n")

	if len(p.rows) == 0 {
		b.WriteString(mutedStyle.Render("Nothing to update."))
		b.WriteString("\n")
	}
	for i, r := range p.rows {
		b.WriteString(p.renderRow(r, i == p.cursor))
		b.WriteString("\n")
	}

	if p.showHelp {
		b.WriteString("\n")
		b.WriteString(p.keys.FullHelp())
		b.WriteString("\n")
	}
	b.WriteString(footerStyle.Render(p.keys.NavigationHelp()))
	return b.String()
}

func (p Progress) renderRow(r row, selected bool) string {
	marker := "  "
	name := r.name
	if selected {
		marker = selectedStyle.Render("> ")
		name = selectedStyle.Render(r.name)
	}

	versions := r.toVersion
	if r.fromVersion != "" {
		versions = r.fromVersion + " -> " + r.toVersion
	}
	line := fmt.Sprintf("%s%s %s  ", marker, name, mutedStyle.Render(versions))
	if r.attempt > 1 {
		line += mutedStyle.Render(fmt.Sprintf("(attempt %d) ", r.attempt))
	}

	switch r.state {
	case core.StateQueued:
		return line + mutedStyle.Render("queued")
	case core.StatePreparing, core.StateVerifying:
		return line + p.spinner.View() + " " + r.state.String()
	case core.StateDownloading:
		return line + p.spinner.View() + " " + p.renderTransfer(r)
	case core.StatePaused:
		return line + pausedStyle.Render("paused") + " " + p.renderTransfer(r)
	case core.StateCompleted:
		return line + okStyle.Render("done")
	case core.StateFailed:
		msg := r.reason.String()
		if r.err != nil {
			msg = r.err.Error()
		}
		return line + errStyle.Render("failed: "+msg)
	default:
		return line + r.state.String()
	}
}

func (p Progress) renderTransfer(r row) string {
	if r.total <= 0 {
		return humanize.Bytes(uint64(max(r.downloaded, 0)))
	}
	pct := float64(r.downloaded) / float64(r.total)
	return fmt.Sprintf("%s %s/%s", p.bar.ViewAs(pct),
		humanize.Bytes(uint64(r.downloaded)), humanize.Bytes(uint64(r.total)))
}

// Run shows the progress view until the batch finishes or the user quits.
// Remaining events are drained before returning so the batch can complete.
func Run(ctrl Controller, events <-chan core.ProgressEvent, actions []domain.UpdateAction, keyMode string) error {
	model := NewProgress(ctrl, events, actions, keyMode)
	final, err := tea.NewProgram(model).Run()
	if m, ok := final.(Progress); !ok || !m.done {
		for range events {
		}
	}
	return err
}
