// Package console delivers chat messages to a terminal.
// It stands in for a chat platform when the bot is driven from the CLI.
package console

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driven"
)

// Ensure Sender implements the interface.
var _ driven.MessageSender = (*Sender)(nil)

// Sender writes messages to an io.Writer.
// Pushes are prefixed with their destination.
type Sender struct {
	mu  sync.Mutex
	out io.Writer
}

// NewSender creates a console sender writing to out.
func NewSender(out io.Writer) *Sender {
	return &Sender{out: out}
}

// Reply writes texts as an answer.
func (s *Sender) Reply(ctx context.Context, _ string, texts []string) error {
	return s.write(ctx, "", texts)
}

// Push writes texts addressed to dest.
func (s *Sender) Push(ctx context.Context, dest domain.Destination, texts []string) error {
	return s.write(ctx, fmt.Sprintf("[to %s] ", dest), texts)
}

func (s *Sender) write(ctx context.Context, prefix string, texts []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, text := range texts {
		if _, err := fmt.Fprintf(s.out, "%s%s\n", prefix, text); err != nil {
			return fmt.Errorf("write message: %w", err)
		}
	}
	return nil
}
