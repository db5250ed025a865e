package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-chat/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/sercha-chat/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/sercha-chat/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/sercha-chat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-chat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-chat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driving"
)

// App is the root Bubbletea model. It has two modes: typing a question
// and browsing the sources of the last answer.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap

	input     *input.QuestionInput
	sources   *list.PassageList
	statusBar *status.Bar

	question string
	answer   *domain.Answer
	err      error
	busy     bool
	browsing bool

	width  int
	height int
	ready  bool
}

// NewApp creates the TUI model.
func NewApp(ports *Ports) (*App, error) {
	if ports == nil {
		return nil, ErrMissingQueryService
	}
	if err := ports.Validate(); err != nil {
		return nil, err
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:     ports,
		ctx:       context.Background(),
		styles:    s,
		keymap:    km,
		input:     input.NewQuestionInput(s),
		sources:   list.NewPassageList(s),
		statusBar: status.NewBar(s, km),
	}, nil
}

// WithContext sets the context used for service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init loads the index status and starts the cursor.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("sercha-chat"),
		a.input.Init(),
		a.loadStatus(),
	)
}

// Update handles messages.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.input.SetWidth(msg.Width)
		a.sources.SetDimensions(msg.Width, max(msg.Height/2, 4))
		a.statusBar.SetWidth(msg.Width)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.AnswerReady:
		return a.handleAnswer(msg)

	case messages.SyncFinished:
		return a.handleSync(msg)

	case messages.StatusLoaded:
		if msg.Err != nil {
			a.statusBar.SetIndex(0, false)
			return a, nil
		}
		a.statusBar.SetIndex(msg.Status.Documents, msg.Status.Available)
		return a, nil
	}

	if a.input.Focused() {
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keymap.Quit):
		return a, tea.Quit
	case key.Matches(msg, a.keymap.Sync):
		return a, a.startSync()
	}

	if !a.browsing {
		switch {
		case key.Matches(msg, a.keymap.Ask):
			return a, a.ask()
		case key.Matches(msg, a.keymap.Back):
			if a.answer != nil {
				a.setBrowsing(true)
			}
			return a, nil
		}
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd
	}

	switch {
	case key.Matches(msg, a.keymap.Up):
		a.sources.MoveUp()
	case key.Matches(msg, a.keymap.Down):
		a.sources.MoveDown()
	case key.Matches(msg, a.keymap.NewQuestion):
		a.input.SetValue("")
		return a, a.setBrowsing(false)
	case key.Matches(msg, a.keymap.Back):
		return a, a.setBrowsing(false)
	}
	return a, nil
}

func (a *App) setBrowsing(browsing bool) tea.Cmd {
	a.browsing = browsing
	a.statusBar.SetBrowsing(browsing)
	if browsing {
		a.input.Blur()
		return nil
	}
	return a.input.Focus()
}

// ask sends the typed question to the query service.
func (a *App) ask() tea.Cmd {
	question := strings.TrimSpace(a.input.Value())
	if question == "" || a.busy {
		return nil
	}
	a.busy = true
	a.err = nil
	a.question = question
	a.statusBar.SetState(status.StateAsking)
	a.statusBar.SetMessage("")

	query := a.ports.Query
	ctx := a.ctx
	return func() tea.Msg {
		answer, err := query.Ask(ctx, question)
		return messages.AnswerReady{Question: question, Answer: answer, Err: err}
	}
}

func (a *App) handleAnswer(msg messages.AnswerReady) (tea.Model, tea.Cmd) {
	a.busy = false
	if msg.Err != nil {
		a.err = msg.Err
		a.statusBar.SetState(status.StateError)
		a.statusBar.SetMessage(describe(msg.Err))
		return a, nil
	}

	a.answer = msg.Answer
	a.sources.SetPassages(msg.Answer.Sources)
	a.statusBar.SetState(status.StateAnswered)
	a.statusBar.SetMessage(fmt.Sprintf("%d sources", len(msg.Answer.Sources)))
	if len(msg.Answer.Sources) > 0 {
		a.setBrowsing(true)
	}
	return a, nil
}

// startSync runs a sync through the runner. Progress notices go to the
// requester, so they never reach this screen.
func (a *App) startSync() tea.Cmd {
	if a.ports.Runner == nil {
		a.statusBar.SetState(status.StateError)
		a.statusBar.SetMessage("sync is not available")
		return nil
	}
	if a.busy {
		return nil
	}
	a.busy = true
	a.err = nil
	a.statusBar.SetState(status.StateSyncing)
	a.statusBar.SetMessage("")

	runner := a.ports.Runner
	req := driving.SyncRequest{Source: a.ports.Requester}
	ctx := a.ctx
	return func() tea.Msg {
		summary, err := runner.RunSync(ctx, req)
		return messages.SyncFinished{Summary: summary, Err: err}
	}
}

func (a *App) handleSync(msg messages.SyncFinished) (tea.Model, tea.Cmd) {
	a.busy = false
	if msg.Err != nil {
		a.err = msg.Err
		a.statusBar.SetState(status.StateError)
		a.statusBar.SetMessage(describe(msg.Err))
		return a, a.loadStatus()
	}

	a.statusBar.SetState(status.StateReady)
	if msg.Summary == nil || msg.Summary.Result.TotalCount == 0 {
		a.statusBar.SetMessage("No documents found")
	} else {
		r := msg.Summary.Result
		a.statusBar.SetMessage(fmt.Sprintf("Synced %d of %d documents", r.SuccessCount, r.TotalCount))
	}
	return a, a.loadStatus()
}

func (a *App) loadStatus() tea.Cmd {
	query := a.ports.Query
	ctx := a.ctx
	return func() tea.Msg {
		st, err := query.Status(ctx)
		return messages.StatusLoaded{Status: st, Err: err}
	}
}

func describe(err error) string {
	switch {
	case errors.Is(err, domain.ErrIndexEmpty):
		return "nothing is indexed yet, press ctrl+s to sync"
	case errors.Is(err, domain.ErrSyncInProgress):
		return "a sync is already running"
	default:
		return err.Error()
	}
}

// View renders the screen.
func (a *App) View() string {
	if !a.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(a.styles.Title.Render("sercha-chat"))
	b.WriteString("\n\n")
	b.WriteString(a.input.View())
	b.WriteString("\n\n")

	if a.answer != nil && a.err == nil {
		b.WriteString(a.styles.Muted.Render(a.question))
		b.WriteString("\n")
		b.WriteString(a.styles.Answer.Width(max(a.width-4, 20)).Render(a.answer.Text))
		b.WriteString("\n\n")
		b.WriteString(a.sources.View())
	}

	body := b.String()
	bar := a.statusBar.View()
	gap := max(a.height-lipgloss.Height(body)-lipgloss.Height(bar), 0)
	return body + strings.Repeat("\n", gap) + bar
}

// Run starts the program and blocks until the user quits.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && a.ctx.Err() != nil {
		return nil
	}
	return err
}

// Answer returns the last answer, if any.
func (a *App) Answer() *domain.Answer {
	return a.answer
}

// Err returns the last error shown.
func (a *App) Err() error {
	return a.err
}

// Busy reports whether a question or sync is in flight.
func (a *App) Busy() bool {
	return a.busy
}

// Browsing reports whether the sources list has focus.
func (a *App) Browsing() bool {
	return a.browsing
}

// Sources returns the source list component.
func (a *App) Sources() *list.PassageList {
	return a.sources
}

// StatusBar returns the status bar component.
func (a *App) StatusBar() *status.Bar {
	return a.statusBar
}

// Input returns the question input component.
func (a *App) Input() *input.QuestionInput {
	return a.input
}
