package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-chat/internal/adapters/driving/watch"
	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-chat/internal/logger"
)

var watchInitial bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-sync whenever the source directory changes",
	Long: `Watches the filesystem source and rebuilds the index once changes have
settled. Only available for the filesystem source. Stop with Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchInitial, "initial", true, "sync once before watching")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	svc, release, err := openServices(cmd, ServiceOptions{})
	if err != nil {
		return err
	}
	defer release()

	if svc.Runner == nil {
		return errors.New("sync service not configured")
	}
	if svc.WatchRoot == "" {
		return errors.New("watch requires the filesystem source")
	}

	resync := func(ctx context.Context) error {
		summary, err := svc.Runner.RunSync(ctx, driving.SyncRequest{Source: svc.Requester})
		if err != nil {
			return err
		}
		printSyncSummary(cmd, summary)
		return nil
	}

	w, err := watch.New(svc.WatchRoot, svc.Debounce, resync)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	if watchInitial {
		if err := resync(ctx); err != nil && !errors.Is(err, domain.ErrSyncInProgress) {
			logger.Warn("Initial sync failed: %v", err)
		}
	}
	cmd.Printf("Watching %s for changes. Press Ctrl-C to stop.\n", svc.WatchRoot)
	return w.Run(ctx)
}
