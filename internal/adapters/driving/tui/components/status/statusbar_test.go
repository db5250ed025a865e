package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBar_Defaults(t *testing.T) {
	b := NewBar(nil, nil)
	assert.Equal(t, StateReady, b.State())
	assert.Contains(t, b.View(), "Index empty")
	assert.Contains(t, b.View(), "enter: ask")
}

func TestBar_States(t *testing.T) {
	tests := []struct {
		state   State
		message string
		want    string
	}{
		{StateAsking, "", "Thinking..."},
		{StateSyncing, "", "Syncing..."},
		{StateError, "boom", "Error: boom"},
		{StateError, "", "Error"},
		{StateAnswered, "2 sources", "2 sources"},
	}
	for _, tt := range tests {
		b := NewBar(nil, nil)
		b.SetWidth(120)
		b.SetState(tt.state)
		b.SetMessage(tt.message)
		assert.Contains(t, b.View(), tt.want, string(tt.state))
	}
}

func TestBar_Index(t *testing.T) {
	b := NewBar(nil, nil)
	b.SetWidth(120)
	b.SetIndex(7, true)
	assert.Contains(t, b.View(), "7 documents indexed")
}

func TestBar_Hints(t *testing.T) {
	b := NewBar(nil, nil)
	assert.Len(t, b.Hints(), 3)

	b.SetBrowsing(true)
	assert.Len(t, b.Hints(), 5)
	assert.Contains(t, b.View(), "n: new question")
}
