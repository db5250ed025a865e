package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatCmd_Session(t *testing.T) {
	chat := &mockChatService{}
	runner := &mockSyncRunner{}
	src := testRequester(t)
	opts := useServices(t, &Services{Chat: chat, Runner: runner, Requester: src})

	out, err := execute(t, "hello\n\n  status  \nexit\nignored\n", "chat")

	require.NoError(t, err)
	require.Len(t, *opts, 1)
	assert.True(t, (*opts)[0].Console)

	require.Len(t, chat.events, 2)
	assert.Equal(t, "hello", chat.events[0].Text)
	assert.Equal(t, "status", chat.events[1].Text)
	assert.Equal(t, consoleReplyToken, chat.events[0].ReplyToken)
	assert.Equal(t, src, chat.events[0].Source)

	assert.Contains(t, out, "echo: hello")
	assert.Contains(t, out, "echo: status")
	assert.NotContains(t, out, "ignored")
	assert.True(t, runner.waited)
}

func TestChatCmd_EndsAtEOF(t *testing.T) {
	chat := &mockChatService{}
	useServices(t, &Services{Chat: chat, Requester: testRequester(t)})

	_, err := execute(t, "one\ntwo", "chat")

	require.NoError(t, err)
	assert.Len(t, chat.events, 2)
}

func TestChatCmd_HandlerErrorsDoNotEndSession(t *testing.T) {
	chat := &mockChatService{err: errors.New("reply failed")}
	useServices(t, &Services{Chat: chat, Requester: testRequester(t)})

	out, err := execute(t, "a\nb\nquit\n", "chat")

	require.NoError(t, err)
	assert.Len(t, chat.events, 2)
	assert.Contains(t, out, "Error: reply failed")
}
