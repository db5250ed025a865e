package driven

// PromptStore provides access to LLM prompt templates.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// Unknown names return an error; known names fall back to their default.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptAnswerSystem is the system instruction for answer generation.
	// It has no format placeholders.
	PromptAnswerSystem = "answer_system"
)

// DefaultAnswerSystemPrompt is used when no prompt file overrides it.
const DefaultAnswerSystemPrompt = `You answer questions using only the provided documents.
Cite the documents you use by their number, like [1].
If the documents do not contain the answer, say so briefly.
Answer in the language of the question. Keep the answer short.`

// DefaultPrompts maps every well-known prompt name to its default.
func DefaultPrompts() map[string]string {
	return map[string]string{
		PromptAnswerSystem: DefaultAnswerSystemPrompt,
	}
}
