// Package app assembles adapters and core services from settings.
package app

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/custodia-labs/sercha-chat/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-chat/internal/adapters/driven/index/memory"
	"github.com/custodia-labs/sercha-chat/internal/adapters/driven/index/sqlite"
	"github.com/custodia-labs/sercha-chat/internal/adapters/driven/llm/anthropic"
	"github.com/custodia-labs/sercha-chat/internal/adapters/driven/llm/ollama"
	"github.com/custodia-labs/sercha-chat/internal/adapters/driven/messaging/console"
	"github.com/custodia-labs/sercha-chat/internal/adapters/driven/messaging/line"
	"github.com/custodia-labs/sercha-chat/internal/adapters/driven/notify"
	"github.com/custodia-labs/sercha-chat/internal/adapters/driven/source/filesystem"
	"github.com/custodia-labs/sercha-chat/internal/adapters/driven/source/github"
	"github.com/custodia-labs/sercha-chat/internal/config"
	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-chat/internal/core/services"
	"github.com/custodia-labs/sercha-chat/internal/logger"
)

// LocalRequester identifies syncs started from this machine when no chat
// destination is configured.
const LocalRequester = "cli"

// Options adjusts how an App is assembled.
type Options struct {
	// ForceConsole delivers messages to Out even when LINE is configured.
	ForceConsole bool

	// Out receives console messages. Defaults to os.Stdout.
	Out io.Writer

	// PromptDir overrides ~/.sercha-chat/prompts.
	PromptDir string
}

// index is what both index backends provide.
type index interface {
	driven.IndexBackend
	driven.Retriever
}

// App holds the wired services.
type App struct {
	Settings  config.Settings
	Source    driven.DocumentSource
	Sync      *services.SyncOrchestrator
	Query     *services.QueryService
	Chat      *services.ChatService
	Requester domain.EventSource

	closers []func() error
}

// New wires an App from settings.
func New(settings config.Settings, opts Options) (*App, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	a := &App{Settings: settings}

	source, err := newSource(settings)
	if err != nil {
		return nil, err
	}
	a.Source = source

	idx, closeIndex, err := newIndex(settings)
	if err != nil {
		return nil, err
	}
	if closeIndex != nil {
		a.closers = append(a.closers, closeIndex)
	}

	llm, err := newLLM(settings)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	sender, usesLINE, err := newSender(settings, opts)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	requester := LocalRequester
	var notifyOpts []notify.Option
	if usesLINE && settings.LINE.Destination != "" {
		requester = settings.LINE.Destination
		notifyOpts = append(notifyOpts, notify.WithFallbackDestination(domain.Destination(requester)))
	}
	a.Requester, err = domain.SourceFromID(requester)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.Sync = services.NewSyncOrchestrator(
		source, idx, notify.NewNotifier(sender, notifyOpts...),
		services.WithBatchSize(settings.Sync.BatchSize),
	)

	a.Query = services.NewQueryService(idx, idx, llm)
	if llm != nil {
		prompts, err := file.NewPromptStore(opts.PromptDir)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.Query.SetPromptStore(prompts)
	}

	a.Chat = services.NewChatService(a.Sync, a.Query, sender)

	logger.Debug("Wired source %s, %s index, llm %q, requester %s",
		source.Name(), settings.Index.Backend, settings.LLM.Provider, a.Requester.Destination())
	return a, nil
}

// Close waits for background syncs and releases resources.
func (a *App) Close() error {
	if a.Chat != nil {
		a.Chat.Wait()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// WatchRoot returns the directory watched for changes, or "" when the
// source is not a local directory.
func (a *App) WatchRoot() string {
	if fs, ok := a.Source.(*filesystem.Source); ok {
		return fs.Root()
	}
	return ""
}

func newSource(s config.Settings) (driven.DocumentSource, error) {
	switch s.Source.Type {
	case config.SourceGitHub:
		gh := s.Source.GitHub
		return github.New(github.Config{
			Owner:      gh.Owner,
			Repo:       gh.Repo,
			Ref:        gh.Ref,
			Token:      gh.Token,
			PathPrefix: gh.PathPrefix,
			Extensions: s.Source.Extensions,
			BaseURL:    gh.BaseURL,
			Retry:      s.Retry,
		})
	default:
		return filesystem.New(s.Source.Path, s.Source.Extensions...), nil
	}
}

func newIndex(s config.Settings) (index, func() error, error) {
	if s.Index.Backend == config.IndexMemory {
		return memory.NewIndex(), nil, nil
	}
	idx, err := sqlite.NewIndex(s.Index.Path, sqlite.WithRetryPolicy(s.Retry))
	if err != nil {
		return nil, nil, fmt.Errorf("open index: %w", err)
	}
	return idx, idx.Close, nil
}

// newLLM returns nil when answers should be extractive.
func newLLM(s config.Settings) (driven.LLMService, error) {
	switch s.LLM.Provider {
	case config.LLMAnthropic:
		return anthropic.NewLLMService(anthropic.Config{
			APIKey:  s.LLM.APIKey,
			BaseURL: s.LLM.BaseURL,
			Model:   s.LLM.Model,
			Retry:   s.Retry,
		})
	case config.LLMOllama:
		return ollama.NewLLMService(ollama.LLMConfig{
			BaseURL: s.LLM.BaseURL,
			Model:   s.LLM.Model,
			Retry:   s.Retry,
		})
	default:
		return nil, nil
	}
}

func newSender(s config.Settings, opts Options) (driven.MessageSender, bool, error) {
	if opts.ForceConsole || s.LINE.ChannelToken == "" {
		return console.NewSender(opts.Out), false, nil
	}
	sender, err := line.NewSender(line.Config{
		ChannelToken: s.LINE.ChannelToken,
		BaseURL:      s.LINE.BaseURL,
		Retry:        s.Retry,
	})
	if err != nil {
		return nil, false, err
	}
	return sender, true, nil
}
