// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
//   - SyncOrchestrator rebuilds the index from a document source in batches
//     and reports the outcome through a SyncNotifier.
//   - QueryService answers questions from the index, with or without an LLM.
//   - ChatService routes chat messages to the other two.
//
// Services are pure Go with no CGO or external dependencies.
package services
