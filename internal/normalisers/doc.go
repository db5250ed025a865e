// Package normalisers turns source files into a title and indexable plain
// text. The format is chosen from the file extension: markdown and HTML are
// stripped of markup, anything else is read as plain text.
package normalisers
