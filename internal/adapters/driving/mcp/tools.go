package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driving"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the indexed documents"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer    string          `json:"answer"`
	Generated bool            `json:"generated"`
	Sources   []PassageOutput `json:"sources"`
}

// PassageOutput is one passage an answer is grounded on.
type PassageOutput struct {
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title"`
	URL        string  `json:"url,omitempty"`
	Score      float64 `json:"score"`
	Content    string  `json:"content"`
}

// SyncInput is the input schema for the sync tool.
type SyncInput struct{}

// SyncOutput is the output schema for the sync tool.
type SyncOutput struct {
	Documents  int      `json:"documents"`
	Entries    int      `json:"entries"`
	Succeeded  int      `json:"succeeded"`
	Failed     int      `json:"failed"`
	FailedIDs  []string `json:"failed_ids,omitempty"`
	DurationMS int64    `json:"duration_ms"`
}

// StatusInput is the input schema for the status tool.
type StatusInput struct{}

// StatusOutput is the output schema for the status tool.
type StatusOutput struct {
	Available bool        `json:"available"`
	Documents int         `json:"documents"`
	Entries   int         `json:"entries"`
	UpdatedAt string      `json:"updated_at,omitempty"`
	LastSync  *SyncReport `json:"last_sync,omitempty"`
}

// SyncReport is the state of the latest sync run.
type SyncReport struct {
	Phase     string `json:"phase"`
	Running   bool   `json:"running"`
	Documents int    `json:"documents"`
	Batches   int    `json:"batches"`
	Error     string `json:"error,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the indexed documents",
	}, s.handleAsk)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "sync",
		Description: "Rebuild the index from the document source and wait for it to finish",
	}, s.handleSync)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "status",
		Description: "Report index contents and the latest sync run",
	}, s.handleStatus)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Query.Ask(ctx, input.Question)
	if errors.Is(err, domain.ErrIndexEmpty) {
		return nil, AskOutput{}, errors.New("nothing is indexed yet, run the sync tool first")
	}
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:    answer.Text,
		Generated: answer.Generated,
		Sources:   make([]PassageOutput, len(answer.Sources)),
	}
	for i, p := range answer.Sources {
		output.Sources[i] = PassageOutput{
			DocumentID: p.DocumentID.String(),
			Title:      p.Title,
			URL:        p.SourceURL,
			Score:      float64(p.Score),
			Content:    p.Content,
		}
	}
	return nil, output, nil
}

// handleSync handles the sync tool invocation.
func (s *Server) handleSync(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ SyncInput,
) (*mcp.CallToolResult, SyncOutput, error) {
	if s.ports.Runner == nil {
		return nil, SyncOutput{}, ErrSyncUnavailable
	}

	summary, err := s.ports.Runner.RunSync(ctx, driving.SyncRequest{Source: s.ports.Requester})
	if err != nil {
		return nil, SyncOutput{}, err
	}

	output := SyncOutput{
		Documents:  summary.Build.DocumentsProcessed,
		Entries:    summary.Build.EntriesProduced,
		Succeeded:  summary.Result.SuccessCount,
		Failed:     summary.Result.FailedCount,
		DurationMS: summary.Build.Duration.Milliseconds(),
	}
	for _, id := range summary.Result.FailedIDs {
		output.FailedIDs = append(output.FailedIDs, id.String())
	}
	return nil, output, nil
}

// handleStatus handles the status tool invocation.
func (s *Server) handleStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	output, err := s.status(ctx)
	return nil, output, err
}

func (s *Server) status(ctx context.Context) (StatusOutput, error) {
	idx, err := s.ports.Query.Status(ctx)
	if err != nil {
		return StatusOutput{}, err
	}

	output := StatusOutput{
		Available: idx.Available,
		Documents: idx.Documents,
		Entries:   idx.Entries,
	}
	if !idx.UpdatedAt.IsZero() {
		output.UpdatedAt = idx.UpdatedAt.UTC().Format(time.RFC3339)
	}

	if s.ports.Sync != nil && s.ports.Requester.Validate() == nil {
		run, err := s.ports.Sync.Status(ctx, s.ports.Requester.Destination())
		if err != nil {
			return StatusOutput{}, err
		}
		if run != nil && run.Phase != domain.PhaseNotStarted {
			output.LastSync = &SyncReport{
				Phase:     string(run.Phase),
				Running:   run.Running,
				Documents: run.DocumentsProcessed,
				Batches:   run.Batches,
			}
			if run.Err != nil {
				output.LastSync.Error = run.Err.Error()
			}
		}
	}
	return output, nil
}
