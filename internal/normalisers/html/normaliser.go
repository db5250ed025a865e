package html

import (
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/custodia-labs/sercha-chat/internal/normalisers/plaintext"
)

// skipped elements are removed together with their content.
const skipped = "head, title, script, style, noscript, template, svg"

// blocks start and end on their own line.
var blocks = map[string]bool{
	"p": true, "div": true, "br": true, "hr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"ul": true, "ol": true, "li": true, "dl": true, "dt": true, "dd": true,
	"table": true, "tr": true, "blockquote": true, "pre": true,
	"section": true, "article": true, "header": true, "footer": true,
	"nav": true, "main": true, "aside": true, "figure": true, "figcaption": true,
}

// cells are separated by a space within their row.
var cells = map[string]bool{"td": true, "th": true}

// IsHTML reports whether the file name has an HTML extension.
func IsHTML(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm", ".xhtml":
		return true
	}
	return false
}

// Normalise returns the title and text of an HTML document.
func Normalise(name, content string) (title, text string) {
	doc, err := parse(content)
	if err != nil {
		return plaintext.FileTitle(name), plaintext.Clean(content)
	}
	return titleOf(doc, name), textOf(doc)
}

// Title returns the <title>, else the first <h1>, else a title built from
// the file name.
func Title(content, name string) string {
	doc, err := parse(content)
	if err != nil {
		return plaintext.FileTitle(name)
	}
	return titleOf(doc, name)
}

// PlainText strips markup and returns one line per non-empty block.
func PlainText(content string) string {
	doc, err := parse(content)
	if err != nil {
		return plaintext.Clean(content)
	}
	return textOf(doc)
}

func parse(content string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(content))
}

func titleOf(doc *goquery.Document, name string) string {
	for _, selector := range []string{"title", "h1"} {
		if t := collapse(doc.Find(selector).First().Text()); t != "" {
			return t
		}
	}
	return plaintext.FileTitle(name)
}

// textOf removes skipped elements from doc, so it must run after titleOf.
func textOf(doc *goquery.Document) string {
	doc.Find(skipped).Remove()

	var b strings.Builder
	for _, n := range doc.Nodes {
		writeText(&b, n)
	}

	var lines []string
	for _, line := range strings.Split(plaintext.Clean(b.String()), "\n") {
		if line = collapse(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func writeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.CommentNode:
		return
	case html.ElementNode:
		if blocks[n.Data] {
			b.WriteByte('\n')
		} else if cells[n.Data] {
			b.WriteByte(' ')
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
	if n.Type == html.ElementNode && blocks[n.Data] {
		b.WriteByte('\n')
	}
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
