package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-chat/internal/core/ports/driven"
)

func TestPromptStore_WritesDefaultsOnFirstLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "prompts")
	store, err := NewPromptStore(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "constructor must not touch disk")

	prompt, err := store.Load(driven.PromptAnswerSystem)
	require.NoError(t, err)
	assert.Equal(t, driven.DefaultAnswerSystemPrompt, prompt)

	data, err := os.ReadFile(filepath.Join(dir, driven.PromptAnswerSystem+".txt"))
	require.NoError(t, err)
	assert.Equal(t, driven.DefaultAnswerSystemPrompt+"\n", string(data))
}

func TestPromptStore_UserEditsAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, driven.PromptAnswerSystem+".txt")
	require.NoError(t, os.WriteFile(path, []byte("  Be terse.\n"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptAnswerSystem)
	require.NoError(t, err)
	assert.Equal(t, "Be terse.", prompt)

	require.NoError(t, os.WriteFile(path, []byte("Be verbose."), 0600))
	prompt, err = store.Load(driven.PromptAnswerSystem)
	require.NoError(t, err)
	assert.Equal(t, "Be terse.", prompt, "cached until reload")

	store.Reload()
	prompt, err = store.Load(driven.PromptAnswerSystem)
	require.NoError(t, err)
	assert.Equal(t, "Be verbose.", prompt)
}

func TestPromptStore_EmptyFileFallsBack(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, driven.PromptAnswerSystem+".txt"), []byte("\n"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptAnswerSystem)
	require.NoError(t, err)
	assert.Equal(t, driven.DefaultAnswerSystemPrompt, prompt)
}

func TestPromptStore_UnknownPrompt(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("nope")
	require.Error(t, err)
}
