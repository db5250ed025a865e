package config

import "strings"

// Config keys.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeyBatchSize         = "sync.batch_size"
	KeyRetryMaxRetries   = "retry.max_retries"
	KeyRetryInitialDelay = "retry.initial_delay_ms"
	KeyRetryMaxDelay     = "retry.max_delay_ms"
	KeyRetryMultiplier   = "retry.multiplier"

	KeySourceType       = "source.type"
	KeySourcePath       = "source.path"
	KeySourceExtensions = "source.extensions"
	KeyGitHubOwner      = "source.github.owner"
	KeyGitHubRepo       = "source.github.repo"
	KeyGitHubRef        = "source.github.ref"
	KeyGitHubToken      = "source.github.token"
	KeyGitHubPathPrefix = "source.github.path_prefix"
	KeyGitHubBaseURL    = "source.github.base_url"

	KeyIndexBackend = "index.backend"
	KeyIndexPath    = "index.path"

	KeyLINEChannelToken = "line.channel_token"
	KeyLINEBaseURL      = "line.base_url"
	KeyLINEDestination  = "line.destination"

	KeyLLMProvider      = "llm.provider"
	KeyAnthropicAPIKey  = "anthropic.api_key"
	KeyAnthropicModel   = "anthropic.model"
	KeyAnthropicBaseURL = "anthropic.base_url"
	KeyOllamaModel      = "ollama.model"
	KeyOllamaBaseURL    = "ollama.base_url"

	KeyWatchDebounce = "watch.debounce_ms"
)

// Kind is the stored type of a key.
type Kind int

// Key kinds.
const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindMillis
	KindList
)

// KeySpec describes one configuration key.
type KeySpec struct {
	Name        string
	Kind        Kind
	Secret      bool
	Description string

	// AltEnv is a conventional variable read when the prefixed one is unset.
	AltEnv string
}

// Env returns the prefixed environment variable overriding the key.
func (k KeySpec) Env() string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(k.Name, ".", "_"))
}

func (k KeySpec) envNames() []string {
	if k.Name == "" {
		return nil
	}
	if k.AltEnv == "" {
		return []string{k.Env()}
	}
	return []string{k.Env(), k.AltEnv}
}

// Keys lists every supported key.
var Keys = []KeySpec{
	{Name: KeyBatchSize, Kind: KindInt, Description: "documents per index batch"},
	{Name: KeyRetryMaxRetries, Kind: KindInt, Description: "retries after the first attempt"},
	{Name: KeyRetryInitialDelay, Kind: KindMillis, Description: "delay before the first retry"},
	{Name: KeyRetryMaxDelay, Kind: KindMillis, Description: "cap on any retry delay"},
	{Name: KeyRetryMultiplier, Kind: KindFloat, Description: "backoff growth factor"},

	{Name: KeySourceType, Description: "filesystem or github"},
	{Name: KeySourcePath, Description: "directory read by the filesystem source"},
	{Name: KeySourceExtensions, Kind: KindList, Description: "file extensions to index"},
	{Name: KeyGitHubOwner, Description: "repository owner"},
	{Name: KeyGitHubRepo, Description: "repository name"},
	{Name: KeyGitHubRef, Description: "branch, tag or commit (default branch when empty)"},
	{Name: KeyGitHubToken, Secret: true, AltEnv: "GITHUB_TOKEN", Description: "personal access token"},
	{Name: KeyGitHubPathPrefix, Description: "only index paths under this prefix"},
	{Name: KeyGitHubBaseURL, Description: "API root for GitHub Enterprise"},

	{Name: KeyIndexBackend, Description: "sqlite or memory"},
	{Name: KeyIndexPath, Description: "directory holding index.db"},

	{Name: KeyLINEChannelToken, Secret: true, Description: "LINE channel access token"},
	{Name: KeyLINEBaseURL, Description: "LINE API root"},
	{Name: KeyLINEDestination, Description: "user, group or room id notified by CLI syncs"},

	{Name: KeyLLMProvider, Description: "anthropic, ollama, or empty for extractive answers"},
	{Name: KeyAnthropicAPIKey, Secret: true, AltEnv: "ANTHROPIC_API_KEY", Description: "Anthropic API key"},
	{Name: KeyAnthropicModel, Description: "Anthropic model"},
	{Name: KeyAnthropicBaseURL, Description: "Anthropic API root"},
	{Name: KeyOllamaModel, Description: "Ollama model"},
	{Name: KeyOllamaBaseURL, Description: "Ollama server URL"},

	{Name: KeyWatchDebounce, Kind: KindMillis, Description: "quiet period before watch re-syncs"},
}

// Lookup finds the definition of a key.
func Lookup(name string) (KeySpec, bool) {
	for _, k := range Keys {
		if k.Name == name {
			return k, true
		}
	}
	return KeySpec{}, false
}

// Mask hides all but the last four characters of a secret.
func Mask(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 4 {
		return "****"
	}
	return "****" + value[len(value)-4:]
}
