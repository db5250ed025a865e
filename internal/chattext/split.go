// Package chattext renders the bot's user-facing messages and splits long
// text into chunks that fit the chat platform's per-message limit.
package chattext

import "unicode/utf16"

const (
	// MessageLimit is the maximum length of one chat message, counted in
	// UTF-16 code units as the LINE API counts it.
	MessageLimit = 5000

	// MaxChunks is the maximum number of messages one reply may use.
	MaxChunks = 5

	// TruncationMarker is appended when text did not fit into MaxChunks.
	TruncationMarker = "\n…(truncated)"
)

// SplitLongMessage splits text with the platform limits.
func SplitLongMessage(text string) []string {
	return Split(text, MessageLimit, MaxChunks)
}

// Length returns the length of text in UTF-16 code units. Characters
// outside the Basic Multilingual Plane, such as most emoji, count as two.
func Length(text string) int {
	n := 0
	for _, r := range text {
		n += runeLen(r)
	}
	return n
}

// Split returns text as ordered chunks of at most limit UTF-16 code units.
// A character is never split across chunks.
//
// Chunks end at the last line break or sentence terminator inside the
// limit-sized window, inclusive; when the window has none (or only at its
// first character) the chunk is cut at the window's end. At most
// maxChunks chunks are returned. If text remains after that, the last chunk
// is trimmed as needed and TruncationMarker appended. Empty text returns an
// empty slice.
func Split(text string, limit, maxChunks int) []string {
	if text == "" || limit < 1 || maxChunks < 1 {
		return []string{}
	}
	if Length(text) <= limit {
		return []string{text}
	}

	chunks := make([]string, 0, maxChunks)
	remaining := []rune(text)
	for len(remaining) > 0 && len(chunks) < maxChunks {
		// A pair-encoded character wider than limit still makes progress.
		w := max(fit(remaining, limit), 1)
		if w == len(remaining) {
			chunks = append(chunks, string(remaining))
			remaining = nil
			break
		}

		cut := w
		if idx := lastBreak(remaining[:w]); idx > 0 {
			cut = idx + 1
		}
		chunks = append(chunks, string(remaining[:cut]))
		remaining = remaining[cut:]
	}

	if len(remaining) > 0 {
		last := []rune(chunks[len(chunks)-1])
		keep := max(limit-Length(TruncationMarker), 0)
		last = last[:fit(last, keep)]
		chunks[len(chunks)-1] = string(last) + TruncationMarker
	}

	return chunks
}

// fit returns how many leading runes of rs fit in limit code units.
func fit(rs []rune, limit int) int {
	units := 0
	for i, r := range rs {
		units += runeLen(r)
		if units > limit {
			return i
		}
	}
	return len(rs)
}

func runeLen(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	// Invalid runes are sent as U+FFFD.
	return 1
}
// lastBreak returns the index of the last break character in window, or -1.
func lastBreak(window []rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		if isBreak(window[i]) {
			return i
		}
	}
	return -1
}

func isBreak(r rune) bool {
	switch r {
	case '\n', '。', '！', '？', '.', '!', '?':
		return true
	}
	return false
}
