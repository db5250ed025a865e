package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-chat/internal/adapters/driving/tui"
)

// runProgram starts the TUI. Replaced in tests.
var runProgram = func(ctx context.Context, app *tui.App) error {
	return app.WithContext(ctx).Run()
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Ask questions in an interactive terminal UI",
	Long: `Opens a full-screen interface for asking questions and browsing the
passages each answer cites. Press ctrl+s to sync documents.`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	// Sync notices would draw over the screen, so they are discarded.
	svc, release, err := openServices(cmd, ServiceOptions{Console: true, Out: io.Discard})
	if err != nil {
		return err
	}
	defer release()

	app, err := tui.NewApp(&tui.Ports{
		Query:     svc.Query,
		Runner:    svc.Runner,
		Requester: svc.Requester,
	})
	if err != nil {
		return err
	}
	return runProgram(commandContext(cmd), app)
}
