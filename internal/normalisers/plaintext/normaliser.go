// Package plaintext reads text files as they are.
package plaintext

import (
	"path/filepath"
	"strings"
)

// Normalise returns a title derived from the file name and the content
// with line endings normalised and surrounding whitespace removed.
func Normalise(name, content string) (title, text string) {
	return FileTitle(name), Clean(content)
}

// Clean converts CRLF and CR line endings to LF and trims the result.
func Clean(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	return strings.TrimSpace(content)
}

// FileTitle builds a readable title from a path: the base name without
// its extension, with underscores and dashes turned into spaces.
func FileTitle(name string) string {
	filename := filepath.Base(filepath.ToSlash(name))
	if ext := filepath.Ext(filename); ext != "" && ext != filename {
		filename = strings.TrimSuffix(filename, ext)
	}
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return filename
}
