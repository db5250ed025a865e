// Package cli provides the sercha-chat command-line interface.
package cli

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-chat/internal/logger"
)

// Services are the driving ports a command runs against.
type Services struct {
	Query     driving.QueryService
	Runner    driving.SyncRunner
	Sync      driving.SyncService
	Chat      driving.ChatService
	Requester domain.EventSource

	// WatchRoot is the directory behind a filesystem source, empty otherwise.
	WatchRoot string
	Debounce  time.Duration

	// Close releases the services. May be nil.
	Close func() error
}

// ServiceOptions adjusts how services are built for a command.
type ServiceOptions struct {
	// Console delivers chat messages to Out instead of the chat platform.
	Console bool

	// Out receives console messages.
	Out io.Writer
}

// ServiceFactory builds services from the current configuration.
type ServiceFactory func(opts ServiceOptions) (*Services, error)

var (
	version = "dev"
	verbose bool

	newServices ServiceFactory
	configStore driven.ConfigStore
)

var rootCmd = &cobra.Command{
	Use:   "sercha-chat",
	Short: "Answer questions from your documents in chat",
	Long: `sercha-chat indexes a document source and answers questions about it,
either in a LINE chat or from the terminal.

Configuration is read from ~/.sercha-chat/config.toml and SERCHA_CHAT_*
environment variables. Run 'sercha-chat config show' to see every key.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetServiceFactory sets how commands obtain their services.
func SetServiceFactory(f ServiceFactory) {
	newServices = f
}

// SetConfigStore sets the store edited by the config command.
func SetConfigStore(s driven.ConfigStore) {
	configStore = s
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// openServices builds services for cmd. The returned func releases them.
func openServices(cmd *cobra.Command, opts ServiceOptions) (*Services, func(), error) {
	if newServices == nil {
		return nil, nil, errors.New("services not configured")
	}
	if opts.Out == nil {
		opts.Out = cmd.OutOrStdout()
	}
	svc, err := newServices(opts)
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		if svc.Close == nil {
			return
		}
		if err := svc.Close(); err != nil {
			logger.Warn("Closing services: %v", err)
		}
	}
	return svc, release, nil
}

// commandContext returns the command's context, or Background when run
// without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
