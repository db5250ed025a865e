package chattext

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitLongMessage_Empty(t *testing.T) {
	chunks := SplitLongMessage("")
	assert.NotNil(t, chunks)
	assert.Empty(t, chunks)
}

func TestSplitLongMessage_ExactlyAtLimit(t *testing.T) {
	text := strings.Repeat("A", 5000)
	chunks := SplitLongMessage(text)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestSplitLongMessage_OneOverLimit(t *testing.T) {
	text := strings.Repeat("A", 5001)
	chunks := SplitLongMessage(text)
	require.Len(t, chunks, 2)
	assert.Len(t, chunks[0], 5000)
	assert.Equal(t, "A", chunks[1])
}

func TestSplitLongMessage_TruncatesAfterMaxChunks(t *testing.T) {
	text := strings.Repeat("A", 30000)
	chunks := SplitLongMessage(text)
	require.Len(t, chunks, 5)
	for _, c := range chunks[:4] {
		assert.Equal(t, 5000, utf8.RuneCountInString(c))
	}
	assert.True(t, strings.HasSuffix(chunks[4], TruncationMarker))
	assert.LessOrEqual(t, utf8.RuneCountInString(chunks[4]), 5000)
}

func TestSplit_BreaksAfterLastTerminator(t *testing.T) {
	text := "First sentence. Second one! Third"
	chunks := Split(text, 20, 5)
	require.GreaterOrEqual(t, len(chunks), 2)
	assert.Equal(t, "First sentence.", chunks[0])
	assert.Equal(t, strings.Join(chunks, ""), text)
}

func TestSplit_PrefersLastBreakInWindow(t *testing.T) {
	text := "ab\ncd\nefghij"
	chunks := Split(text, 8, 5)
	assert.Equal(t, []string{"ab\ncd\n", "efghij"}, chunks)
}

func TestSplit_BreakAtPositionZeroForcesSplit(t *testing.T) {
	text := "\n" + strings.Repeat("x", 12)
	chunks := Split(text, 10, 5)
	require.Len(t, chunks, 2)
	assert.Equal(t, "\n"+strings.Repeat("x", 9), chunks[0])
	assert.Equal(t, "xxx", chunks[1])
}

func TestSplit_JapaneseTerminators(t *testing.T) {
	text := "これはテストです。次の文です。最後"
	chunks := Split(text, 12, 5)
	require.Len(t, chunks, 2)
	assert.Equal(t, "これはテストです。", chunks[0])
	assert.Equal(t, "次の文です。最後", chunks[1])
}

func TestSplit_NoMarkerWhenTextFitsBudget(t *testing.T) {
	text := strings.Repeat("B", 25)
	chunks := Split(text, 5, 5)
	require.Len(t, chunks, 5)
	for _, c := range chunks {
		assert.NotContains(t, c, "truncated")
		assert.Equal(t, "BBBBB", c)
	}
}

func TestSplit_MarkerFitsWithinLimit(t *testing.T) {
	text := strings.Repeat("C", 200)
	chunks := Split(text, 50, 2)
	require.Len(t, chunks, 2)
	last := chunks[1]
	assert.True(t, strings.HasSuffix(last, TruncationMarker))
	assert.Equal(t, 50, utf8.RuneCountInString(last))
}

func TestSplit_Properties(t *testing.T) {
	inputs := []string{
		"short",
		strings.Repeat("Lorem ipsum dolor sit amet. ", 1000),
		strings.Repeat("line\n", 3000),
		strings.Repeat("日本語の文章。", 2000),
		strings.Repeat("z", 12345),
	}
	for _, text := range inputs {
		chunks := SplitLongMessage(text)
		require.NotEmpty(t, chunks)
		assert.LessOrEqual(t, len(chunks), MaxChunks)
		for _, c := range chunks {
			assert.LessOrEqual(t, utf8.RuneCountInString(c), MessageLimit)
			assert.NotEmpty(t, c)
		}
	}
}

func TestLength_CountsUTF16Units(t *testing.T) {
	assert.Equal(t, 0, Length(""))
	assert.Equal(t, 3, Length("abc"))
	assert.Equal(t, 3, Length("日本語"))
	assert.Equal(t, 2, Length("😀"))
	assert.Equal(t, 5, Length("a😀😀"))
}

func TestSplitLongMessage_EmojiMeasuredInUTF16(t *testing.T) {
	// 3000 runes but 6000 UTF-16 units.
	text := strings.Repeat("😀", 3000)
	chunks := SplitLongMessage(text)
	require.Len(t, chunks, 2)
	assert.Equal(t, 2500, utf8.RuneCountInString(chunks[0]))
	assert.Equal(t, MessageLimit, Length(chunks[0]))
	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestSplit_NeverSplitsSurrogatePair(t *testing.T) {
	text := "abcd😀efgh"
	chunks := Split(text, 5, 5)
	assert.Equal(t, []string{"abcd", "😀efg", "h"}, chunks)
	for _, c := range chunks {
		assert.True(t, utf8.ValidString(c))
		assert.LessOrEqual(t, Length(c), 5)
	}
}

func TestSplit_WideCharacterOverTinyLimit(t *testing.T) {
	chunks := Split("😀😀", 1, 5)
	assert.Equal(t, []string{"😀", "😀"}, chunks)
}

func TestSplit_TruncationMeasuredInUTF16(t *testing.T) {
	text := strings.Repeat("😀", 200)
	chunks := Split(text, 50, 2)
	require.Len(t, chunks, 2)
	last := chunks[1]
	assert.True(t, strings.HasSuffix(last, TruncationMarker))
	assert.LessOrEqual(t, Length(last), 50)
	assert.True(t, utf8.ValidString(last))
}

func TestSplit_PropertiesWithEmoji(t *testing.T) {
	inputs := []string{
		strings.Repeat("Status 👍 ok. ", 1500),
		strings.Repeat("絵文字🎉の文。", 2000),
		strings.Repeat("x😀", 9000),
	}
	for _, text := range inputs {
		chunks := SplitLongMessage(text)
		require.NotEmpty(t, chunks)
		assert.LessOrEqual(t, len(chunks), MaxChunks)
		for _, c := range chunks {
			assert.LessOrEqual(t, Length(c), MessageLimit)
			assert.True(t, utf8.ValidString(c))
		}
	}
}
