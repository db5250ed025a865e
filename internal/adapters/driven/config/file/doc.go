// Package file provides file-based configuration adapters.
//
// Adapters:
//   - ConfigStore: TOML configuration at ~/.sercha-chat/config.toml
//   - PromptStore: editable LLM prompts under ~/.sercha-chat/prompts
package file
