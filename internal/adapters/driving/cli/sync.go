package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driving"
)

var syncJSON bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Rebuild the index from the document source",
	Long: `Reads every document from the configured source and rebuilds the index.
The configured chat destination, if any, is notified when the run ends.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncJSON, "json", false, "output the summary as JSON")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	svc, release, err := openServices(cmd, ServiceOptions{})
	if err != nil {
		return err
	}
	defer release()

	if svc.Runner == nil {
		return errors.New("sync service not configured")
	}

	if !syncJSON {
		cmd.Println("Synchronising documents...")
	}
	summary, err := svc.Runner.RunSync(commandContext(cmd), driving.SyncRequest{Source: svc.Requester})
	if errors.Is(err, domain.ErrSyncInProgress) {
		return errors.New("a sync is already running")
	}
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	if syncJSON {
		return outputSyncJSON(cmd, summary)
	}
	printSyncSummary(cmd, summary)
	return nil
}

// syncSummaryJSON is the --json shape of a sync summary.
type syncSummaryJSON struct {
	Documents  int      `json:"documents"`
	Entries    int      `json:"entries"`
	Succeeded  int      `json:"succeeded"`
	Failed     int      `json:"failed"`
	FailedIDs  []string `json:"failed_ids"`
	DurationMS int64    `json:"duration_ms"`
}

func outputSyncJSON(cmd *cobra.Command, summary *domain.SyncSummary) error {
	out := syncSummaryJSON{
		Documents:  summary.Build.DocumentsProcessed,
		Entries:    summary.Build.EntriesProduced,
		Succeeded:  summary.Result.SuccessCount,
		Failed:     summary.Result.FailedCount,
		FailedIDs:  []string{},
		DurationMS: summary.Build.Duration.Milliseconds(),
	}
	for _, id := range summary.Result.FailedIDs {
		out.FailedIDs = append(out.FailedIDs, id.String())
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func printSyncSummary(cmd *cobra.Command, summary *domain.SyncSummary) {
	if summary.Result.TotalCount == 0 {
		cmd.Println("No documents found.")
		return
	}

	cmd.Printf("Indexed %d documents (%d entries) in %s.\n",
		summary.Build.DocumentsProcessed,
		summary.Build.EntriesProduced,
		summary.Build.Duration.Round(time.Millisecond))

	if summary.Result.FailedCount > 0 {
		preview, more := summary.Result.FailedPreview()
		ids := make([]string, len(preview))
		for i, id := range preview {
			ids[i] = id.String()
		}
		line := strings.Join(ids, ", ")
		if more > 0 {
			line += fmt.Sprintf(" and %d more", more)
		}
		cmd.Printf("Failed %d of %d: %s\n", summary.Result.FailedCount, summary.Result.TotalCount, line)
	}
}
