// Package domain defines the core business entities for Sercha Chat.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A source document, validated at construction
//   - SyncResult: Aggregate outcome of one synchronisation run
//   - IndexBuildResult / IndexStatus: What the index backend reports
//   - EventSource / Destination: Who receives asynchronous notifications
//   - RetryPolicy: Backoff configuration for unreliable remote calls
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
