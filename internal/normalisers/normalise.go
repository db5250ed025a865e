package normalisers

import (
	"github.com/custodia-labs/sercha-chat/internal/normalisers/html"
	"github.com/custodia-labs/sercha-chat/internal/normalisers/markdown"
	"github.com/custodia-labs/sercha-chat/internal/normalisers/plaintext"
)

// Normalise returns the title and plain-text content of the file name.
// Text is empty when nothing readable remains.
func Normalise(name, content string) (title, text string) {
	switch {
	case markdown.IsMarkdown(name):
		return markdown.Normalise(name, content)
	case html.IsHTML(name):
		return html.Normalise(name, content)
	default:
		return plaintext.Normalise(name, content)
	}
}
