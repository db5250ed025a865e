package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-chat/internal/chattext"
	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-chat/internal/logger"
)

// Ensure ChatService implements the interfaces.
var (
	_ driving.ChatService = (*ChatService)(nil)
	_ driving.SyncRunner  = (*ChatService)(nil)
)

// Bot commands.
const (
	CommandSync   = "/sync"
	CommandStatus = "/status"
	CommandHelp   = "/help"
)

// ChatService routes chat messages to sync, status and question handling.
//
// At most one sync runs at a time. Syncs run in the background after the
// triggering message has been handled; call Wait before exiting.
type ChatService struct {
	syncer driving.SyncService
	query  driving.QueryService
	sender driven.MessageSender

	syncMu sync.Mutex
	wg     sync.WaitGroup
}

// NewChatService creates a new chat service.
func NewChatService(
	syncer driving.SyncService, query driving.QueryService, sender driven.MessageSender,
) *ChatService {
	return &ChatService{
		syncer: syncer,
		query:  query,
		sender: sender,
	}
}

// HandleText handles one text message.
func (s *ChatService) HandleText(ctx context.Context, event driving.MessageEvent) error {
	text := strings.TrimSpace(event.Text)
	if text == "" {
		return nil
	}

	switch cmd := command(text); cmd {
	case "":
		// Not a command, answered below
	case CommandSync:
		err := s.StartSync(ctx, driving.SyncRequest{ReplyToken: event.ReplyToken, Source: event.Source})
		if errors.Is(err, domain.ErrSyncInProgress) {
			return s.reply(ctx, event.ReplyToken, chattext.RenderSyncInProgress())
		}
		return err
	case CommandStatus:
		status, err := s.query.Status(ctx)
		if err != nil {
			logger.Error("Index status failed: %v", err)
			return s.reply(ctx, event.ReplyToken, chattext.RenderQueryError())
		}
		return s.reply(ctx, event.ReplyToken, chattext.RenderStatus(status))
	default:
		// Help and unknown commands
		logger.Debug("Command %s", cmd)
		return s.reply(ctx, event.ReplyToken, chattext.RenderHelp())
	}

	answer, err := s.query.Ask(ctx, text)
	switch {
	case errors.Is(err, domain.ErrIndexEmpty):
		return s.reply(ctx, event.ReplyToken, chattext.RenderNotSynced())
	case err != nil:
		logger.Error("Answering %q failed: %v", text, err)
		return s.reply(ctx, event.ReplyToken, chattext.RenderQueryError())
	}
	return s.reply(ctx, event.ReplyToken, chattext.RenderAnswer(*answer))
}

// StartSync acknowledges the request and rebuilds the index in the
// background. A failed acknowledgement is returned and starts nothing.
// Returns domain.ErrSyncInProgress if a sync is already running. The run
// outlives ctx cancellation; its outcome is reported by the notifier.
func (s *ChatService) StartSync(ctx context.Context, req driving.SyncRequest) error {
	if err := req.Source.Validate(); err != nil {
		return err
	}
	if !s.syncMu.TryLock() {
		return domain.ErrSyncInProgress
	}

	run, err := s.syncer.Begin(ctx, req)
	if err != nil {
		s.syncMu.Unlock()
		logger.Error("Sync for %s not started: %v", req.Source.Destination(), err)
		return err
	}

	runCtx := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.syncMu.Unlock()

		if _, err := run.Run(runCtx); err != nil {
			logger.Error("Background sync for %s failed: %v", req.Source.Destination(), err)
		}
	}()
	return nil
}

// RunSync runs a sync in the foreground, sharing the single-run guard
// with StartSync.
func (s *ChatService) RunSync(ctx context.Context, req driving.SyncRequest) (*domain.SyncSummary, error) {
	if err := req.Source.Validate(); err != nil {
		return nil, err
	}
	if !s.syncMu.TryLock() {
		return nil, domain.ErrSyncInProgress
	}
	defer s.syncMu.Unlock()
	return s.syncer.Sync(ctx, req)
}

// Wait blocks until background syncs have finished.
func (s *ChatService) Wait() {
	s.wg.Wait()
}

func (s *ChatService) reply(ctx context.Context, replyToken, text string) error {
	if err := s.sender.Reply(ctx, replyToken, chattext.SplitLongMessage(text)); err != nil {
		return fmt.Errorf("reply: %w", err)
	}
	return nil
}

// command returns the lower-cased command word of text, or "".
func command(text string) string {
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	return strings.ToLower(strings.Fields(text)[0])
}
