// Package status provides the status bar for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-chat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-chat/internal/adapters/driving/tui/styles"
)

// State is what the TUI is doing.
type State string

const (
	StateReady    State = "ready"
	StateAsking   State = "asking"
	StateAnswered State = "answered"
	StateSyncing  State = "syncing"
	StateError    State = "error"
)

// Bar displays the current state on the left and key hints on the right.
type Bar struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	state     State
	message   string
	documents int
	indexed   bool
	browsing  bool
	width     int
}

// NewBar creates a status bar.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &Bar{styles: s, keymap: km, state: StateReady, width: 80}
}

// View renders the bar.
func (b *Bar) View() string {
	left := b.renderLeft()
	right := b.renderRight()

	padding := max(b.width-2-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return b.styles.StatusBar.Width(b.width).Render(left + strings.Repeat(" ", padding) + right)
}

func (b *Bar) renderLeft() string {
	switch b.state {
	case StateAsking:
		return b.styles.Muted.Render("Thinking...")
	case StateSyncing:
		return b.styles.Muted.Render("Syncing...")
	case StateError:
		if b.message != "" {
			return b.styles.Error.Render("Error: " + b.message)
		}
		return b.styles.Error.Render("Error")
	case StateReady, StateAnswered:
	}
	if b.message != "" {
		return b.styles.Normal.Render(b.message)
	}
	if !b.indexed {
		return b.styles.Muted.Render("Index empty")
	}
	return b.styles.Muted.Render(fmt.Sprintf("%d documents indexed", b.documents))
}

func (b *Bar) renderRight() string {
	bindings := b.keymap.ShortHelp()
	if b.browsing {
		bindings = b.keymap.SourcesHelp()
	}
	hints := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		h := binding.Help()
		hints = append(hints, h.Key+": "+h.Desc)
	}
	return b.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (b *Bar) SetState(state State) {
	b.state = state
}

// State returns the current state.
func (b *Bar) State() State {
	return b.state
}

// SetMessage sets the text shown on the left.
func (b *Bar) SetMessage(message string) {
	b.message = message
}

// Message returns the current message.
func (b *Bar) Message() string {
	return b.message
}

// SetIndex records the index size shown when there is no message.
func (b *Bar) SetIndex(documents int, available bool) {
	b.documents = documents
	b.indexed = available
}

// SetBrowsing switches the hints between typing and browsing sources.
func (b *Bar) SetBrowsing(browsing bool) {
	b.browsing = browsing
}

// SetWidth sets the bar width.
func (b *Bar) SetWidth(width int) {
	b.width = width
}

// Hints returns the key bindings currently advertised.
func (b *Bar) Hints() []key.Binding {
	if b.browsing {
		return b.keymap.SourcesHelp()
	}
	return b.keymap.ShortHelp()
}
