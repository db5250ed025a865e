// Package tui provides an interactive terminal interface for asking
// questions of the index. It is a driving adapter over the core ports.
package tui

import (
	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the TUI.
type Ports struct {
	// Query answers questions and reports index status.
	Query driving.QueryService

	// Runner starts syncs. Optional; without it ctrl+s is disabled.
	Runner driving.SyncRunner

	// Requester receives the notices of syncs started from the TUI.
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
