// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - DocumentSource: Streams documents from the external source
//   - IndexBackend: Accepts batches of documents and reports status
//   - Retriever: Finds passages relevant to a question
//   - MessageSender: Delivers chat messages (reply and push)
//   - SyncNotifier: Renders and delivers sync status notifications
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Answer generation. Without it, answers are extractive.
//   - PromptStore: Prompt template overrides. Without it, built-ins are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
