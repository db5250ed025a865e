package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index contents and the latest sync",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	svc, release, err := openServices(cmd, ServiceOptions{})
	if err != nil {
		return err
	}
	defer release()

	if svc.Query == nil {
		return errors.New("query service not configured")
	}

	ctx := commandContext(cmd)
	idx, err := svc.Query.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	cmd.Println("[Index]")
	if !idx.Available {
		cmd.Println("  Empty. Run 'sercha-chat sync' to build it.")
	} else {
		cmd.Printf("  Documents: %d\n", idx.Documents)
		cmd.Printf("  Entries: %d\n", idx.Entries)
	}
	if !idx.UpdatedAt.IsZero() {
		cmd.Printf("  Updated: %s\n", idx.UpdatedAt.Local().Format(time.DateTime))
	}

	if svc.Sync == nil || svc.Requester.Validate() != nil {
		return nil
	}
	run, err := svc.Sync.Status(ctx, svc.Requester.Destination())
	if err != nil {
		return fmt.Errorf("failed to get sync status: %w", err)
	}
	if run == nil || run.Phase == domain.PhaseNotStarted {
		return nil
	}

	cmd.Println()
	cmd.Println("[Last Sync]")
	cmd.Printf("  Phase: %s\n", run.Phase)
	cmd.Printf("  Documents: %d in %d batches\n", run.DocumentsProcessed, run.Batches)
	if run.Err != nil {
		cmd.Printf("  Error: %v\n", run.Err)
	}
	if run.NotifyErr != nil {
		cmd.Printf("  Notification failed: %v\n", run.NotifyErr)
	}
	return nil
}
