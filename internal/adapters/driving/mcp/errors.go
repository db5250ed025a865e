// Package mcp provides an MCP (Model Context Protocol) server adapter.
// It lets AI assistants ask questions of the index, trigger syncs and
// read sync status.
package mcp

import "errors"

var (
	// ErrMissingQueryService is returned when the query service is not provided.
	ErrMissingQueryService = errors.New("mcp: query service is required")

	// ErrSyncUnavailable is returned by the sync tool when no runner is wired.
	ErrSyncUnavailable = errors.New("mcp: sync is not available")
)
