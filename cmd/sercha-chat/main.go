// Command sercha-chat indexes a document source and answers questions
// about it in chat.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/sercha-chat/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-chat/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-chat/internal/app"
	"github.com/custodia-labs/sercha-chat/internal/config"
	"github.com/custodia-labs/sercha-chat/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	_ = godotenv.Load()

	store, err := file.NewConfigStore("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open config: %v\n", err)
		os.Exit(1)
	}

	cli.SetVersion(version)
	cli.SetConfigStore(store)
	cli.SetServiceFactory(func(opts cli.ServiceOptions) (*cli.Services, error) {
		return buildServices(store, opts)
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// buildServices loads settings and wires the application for one command.
func buildServices(store *file.ConfigStore, opts cli.ServiceOptions) (*cli.Services, error) {
	// Reload so edits made by an earlier command in the same process apply.
	if err := store.Load(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", store.Path(), err)
	}
	settings, err := config.Load(store, os.Getenv)
	if err != nil {
		return nil, err
	}

	a, err := app.New(settings, app.Options{ForceConsole: opts.Console, Out: opts.Out})
	if err != nil {
		return nil, err
	}
	logger.Debug("Source %s, index %s", a.Source.Name(), settings.Index.Backend)

	return &cli.Services{
		Query:     a.Query,
		Runner:    a.Chat,
		Sync:      a.Sync,
		Chat:      a.Chat,
		Requester: a.Requester,
		WatchRoot: a.WatchRoot(),
		Debounce:  settings.Watch.Debounce,
		Close:     a.Close,
	}, nil
}
