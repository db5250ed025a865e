package mcp

import (
	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the MCP server.
type Ports struct {
	// Query answers questions and reports index status.
	Query driving.QueryService

	// Runner starts syncs. Optional; without it the sync tool errors.
	Runner driving.SyncRunner

	// Sync reports the state of the latest run. Optional.
	Sync driving.SyncService

	// Requester receives the notices of syncs started through MCP.
	Requester domain.EventSource
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Query == nil {
		return ErrMissingQueryService
	}
	if p.Runner != nil {
		return p.Requester.Validate()
	}
	return nil
}
