// Package list provides the source passage list for the TUI.
package list

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-chat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-chat/internal/core/domain"
)

// PassageList displays the passages an answer cites, one entry per
// passage numbered the way the answer cites them.
type PassageList struct {
	passages []domain.Passage
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewPassageList creates an empty list.
func NewPassageList(s *styles.Styles) *PassageList {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &PassageList{styles: s, width: 80, height: 10}
}

// View renders the list.
func (p *PassageList) View() string {
	if len(p.passages) == 0 {
		return ""
	}

	lines := make([]string, 0, len(p.passages)*2+2)
	lines = append(lines, p.styles.Subtitle.Render(fmt.Sprintf("Sources (%d)", len(p.passages))), "")

	// Each entry takes two lines.
	visible := max((p.height-2)/2, 1)
	start := 0
	if p.selected >= visible {
		start = p.selected - visible + 1
	}
	end := min(start+visible, len(p.passages))

	for i := start; i < end; i++ {
		lines = append(lines, p.renderPassage(i))
	}
	return strings.Join(lines, "\n")
}

func (p *PassageList) renderPassage(i int) string {
	passage := p.passages[i]

	title := passage.Title
	if title == "" {
		title = passage.DocumentID.String()
	}
	maxTitle := max(p.width-20, 10)
	title = Truncate(title, maxTitle)

	label := fmt.Sprintf("[%d] %-*s", i+1, maxTitle, title)
	score := fmt.Sprintf("%.2f", float64(passage.Score))

	var titleLine string
	if i == p.selected {
		titleLine = p.styles.Selected.Render("> " + label + "  " + score)
	} else {
		titleLine = p.styles.Normal.Render("  "+label+"  ") + p.styles.Muted.Render(score)
	}

	preview := passage.SourceURL
	if preview == "" {
		preview = strings.Join(strings.Fields(passage.Content), " ")
	}
	preview = Truncate(preview, max(p.width-8, 20))

	return titleLine + "\n" + p.styles.Muted.Render("      "+preview)
}

// Truncate shortens s to at most n runes, ending in "..." when cut.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

// SetPassages replaces the list and selects the first entry.
func (p *PassageList) SetPassages(passages []domain.Passage) {
	p.passages = passages
	p.selected = 0
}

// Passages returns the current passages.
func (p *PassageList) Passages() []domain.Passage {
	return p.passages
}

// Selected returns the index of the selected passage.
func (p *PassageList) Selected() int {
	return p.selected
}

// SelectedPassage returns the selected passage, or nil when empty.
func (p *PassageList) SelectedPassage() *domain.Passage {
	if p.selected < 0 || p.selected >= len(p.passages) {
		return nil
	}
	return &p.passages[p.selected]
}

// MoveUp moves selection up.
func (p *PassageList) MoveUp() {
	if p.selected > 0 {
		p.selected--
	}
}

// MoveDown moves selection down.
func (p *PassageList) MoveDown() {
	if p.selected < len(p.passages)-1 {
		p.selected++
	}
}

// SetDimensions sets the space available to the list.
func (p *PassageList) SetDimensions(width, height int) {
	p.width = width
	p.height = height
}
