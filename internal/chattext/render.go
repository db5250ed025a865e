package chattext

import (
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
)

// MaxAnswerSources is how many sources an answer lists.
const MaxAnswerSources = 3

// RenderStarting is the acknowledgement sent when a sync begins.
func RenderStarting() string {
	return "Sync started. I'll send a message when it finishes."
}

// RenderCompleted summarises a finished sync run.
func RenderCompleted(result domain.SyncResult, build domain.IndexBuildResult) string {
	var b strings.Builder
	b.WriteString("Sync completed.\n")
	fmt.Fprintf(&b, "Documents: %d (succeeded %d, failed %d)\n",
		result.TotalCount, result.SuccessCount, result.FailedCount)
	fmt.Fprintf(&b, "Index entries: %d\n", build.EntriesProduced)
	fmt.Fprintf(&b, "Elapsed: %s", formatDuration(build.Duration))

	ids, more := result.FailedPreview()
	if len(ids) > 0 {
		names := make([]string, len(ids))
		for i, id := range ids {
			names[i] = id.String()
		}
		fmt.Fprintf(&b, "\nFailed: %s", strings.Join(names, ", "))
		if more > 0 {
			fmt.Fprintf(&b, " …and %d more", more)
		}
	}
	return b.String()
}

// RenderNoDocuments is sent when a sync finds nothing to index.
func RenderNoDocuments() string {
	return "Sync finished: no documents were found in the source."
}

// RenderError describes a failed sync run.
func RenderError(failure domain.SyncFailure) string {
	var headline string
	switch failure.Kind {
	case domain.KindNotFound:
		headline = "Sync failed: the requested resource was not found."
	case domain.KindSystem:
		headline = "Sync failed: an internal error occurred. Please try again later."
	default:
		headline = "Sync failed: an unexpected error occurred."
	}
	if failure.Message == "" {
		return headline
	}
	return headline + "\nDetails: " + failure.Message
}

// RenderStatus is the human index status report.
func RenderStatus(status domain.IndexStatus) string {
	if !status.Available {
		return "Index status: empty\nSend /sync to import documents."
	}
	var b strings.Builder
	b.WriteString("Index status: available\n")
	fmt.Fprintf(&b, "Documents: %d\n", status.Documents)
	fmt.Fprintf(&b, "Entries: %d", status.Entries)
	if !status.UpdatedAt.IsZero() {
		fmt.Fprintf(&b, "\nLast updated: %s", status.UpdatedAt.Format(time.RFC3339))
	}
	return b.String()
}

// RenderAnswer formats an answer with its sources.
func RenderAnswer(answer domain.Answer) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(answer.Text))

	if len(answer.Sources) > 0 {
		b.WriteString("\n\nSources:")
		for i, src := range answer.Sources {
			if i == MaxAnswerSources {
				break
			}
			b.WriteString("\n- ")
			b.WriteString(src.Title)
			if src.SourceURL != "" {
				fmt.Fprintf(&b, " (%s)", src.SourceURL)
			}
		}
	}
	return b.String()
}

// RenderNotSynced asks the user to run a sync before asking questions.
func RenderNotSynced() string {
	return "No documents have been indexed yet. Send /sync first, then ask again."
}

// RenderQueryError is shown when answering a question failed.
func RenderQueryError() string {
	return "Sorry, I couldn't answer that right now. Please try again later."
}

// RenderSyncInProgress is shown when a sync is requested while one runs.
func RenderSyncInProgress() string {
	return "A sync is already running. I'll report when it finishes."
}

// RenderHelp lists the bot commands.
func RenderHelp() string {
	return strings.Join([]string{
		"Commands:",
		"/sync - import documents and rebuild the index",
		"/status - show the index status",
		"/help - show this message",
		"Anything else is answered from the indexed documents.",
	}, "\n")
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}
