// Package config resolves typed application settings from the config
// store, environment overrides and built-in defaults, in that order of
// increasing precedence: default < config file < environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
	"github.com/custodia-labs/sercha-chat/internal/core/ports/driven"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SERCHA_CHAT_"

// Source types.
const (
	SourceFilesystem = "filesystem"
	SourceGitHub     = "github"
)

// Index backends.
const (
	IndexSQLite = "sqlite"
	IndexMemory = "memory"
)

// LLM providers. An empty provider disables generated answers.
const (
	LLMNone      = ""
	LLMAnthropic = "anthropic"
	LLMOllama    = "ollama"
)

// Settings is the resolved application configuration.
type Settings struct {
	Sync   SyncSettings
	Retry  domain.RetryPolicy
	Source SourceSettings
	Index  IndexSettings
	LINE   LINESettings
	LLM    LLMSettings
	Watch  WatchSettings
}

// SyncSettings configures sync runs.
type SyncSettings struct {
	BatchSize int
}

// SourceSettings selects and configures the document source.
type SourceSettings struct {
	Type       string
	Path       string
	Extensions []string
	GitHub     GitHubSettings
}

// GitHubSettings configures the GitHub source.
type GitHubSettings struct {
	Owner      string
	Repo       string
	Ref        string
	Token      string
	PathPrefix string
	BaseURL    string
}

// IndexSettings configures the index backend.
type IndexSettings struct {
	Backend string
	Path    string
}

// LINESettings configures the LINE Messaging API sender.
type LINESettings struct {
	ChannelToken string
	BaseURL      string
	Destination  string // Default push target for CLI-triggered syncs
}

// LLMSettings configures answer generation.
type LLMSettings struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// WatchSettings configures watch mode.
type WatchSettings struct {
	Debounce time.Duration
}

// Defaults returns the settings used when nothing is configured.
func Defaults() Settings {
	return Settings{
		Sync:  SyncSettings{BatchSize: 100},
		Retry: domain.DefaultRetryPolicy(),
		Source: SourceSettings{
			Type: SourceFilesystem,
			Path: ".",
		},
		Index: IndexSettings{Backend: IndexSQLite},
		Watch: WatchSettings{Debounce: 2 * time.Second},
	}
}

// Load resolves settings from the store and environment.
// getenv may be nil, in which case os.Getenv is used.
func Load(store driven.ConfigStore, getenv func(string) string) (Settings, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	r := resolver{store: store, getenv: getenv}
	s := Defaults()

	s.Sync.BatchSize = r.int(KeyBatchSize, s.Sync.BatchSize)
	s.Retry.MaxRetries = r.int(KeyRetryMaxRetries, s.Retry.MaxRetries)
	s.Retry.InitialDelay = r.millis(KeyRetryInitialDelay, s.Retry.InitialDelay)
	s.Retry.MaxDelay = r.millis(KeyRetryMaxDelay, s.Retry.MaxDelay)
	s.Retry.Multiplier = r.float(KeyRetryMultiplier, s.Retry.Multiplier)

	s.Source.Type = strings.ToLower(r.string(KeySourceType, s.Source.Type))
	s.Source.Path = expandHome(r.string(KeySourcePath, s.Source.Path))
	s.Source.Extensions = r.list(KeySourceExtensions, s.Source.Extensions)
	s.Source.GitHub = GitHubSettings{
		Owner:      r.string(KeyGitHubOwner, ""),
		Repo:       r.string(KeyGitHubRepo, ""),
		Ref:        r.string(KeyGitHubRef, ""),
		Token:      r.string(KeyGitHubToken, ""),
		PathPrefix: r.string(KeyGitHubPathPrefix, ""),
		BaseURL:    r.string(KeyGitHubBaseURL, ""),
	}

	s.Index.Backend = strings.ToLower(r.string(KeyIndexBackend, s.Index.Backend))
	s.Index.Path = expandHome(r.string(KeyIndexPath, s.Index.Path))

	s.LINE = LINESettings{
		ChannelToken: r.string(KeyLINEChannelToken, ""),
		BaseURL:      r.string(KeyLINEBaseURL, ""),
		Destination:  r.string(KeyLINEDestination, ""),
	}

	s.LLM.Provider = strings.ToLower(r.string(KeyLLMProvider, s.LLM.Provider))
	switch s.LLM.Provider {
	case LLMAnthropic:
		s.LLM.APIKey = r.string(KeyAnthropicAPIKey, "")
		s.LLM.Model = r.string(KeyAnthropicModel, "")
		s.LLM.BaseURL = r.string(KeyAnthropicBaseURL, "")
	case LLMOllama:
		s.LLM.Model = r.string(KeyOllamaModel, "")
		s.LLM.BaseURL = r.string(KeyOllamaBaseURL, "")
	}

	s.Watch.Debounce = r.millis(KeyWatchDebounce, s.Watch.Debounce)

	if r.err != nil {
		return Settings{}, r.err
	}
	return s, s.Validate()
}

// Validate checks the resolved settings for consistency.
func (s Settings) Validate() error {
	if s.Sync.BatchSize < 1 {
		return fmt.Errorf("%w: %s must be at least 1", domain.ErrInvalidInput, KeyBatchSize)
	}
	if err := s.Retry.Validate(); err != nil {
		return err
	}
	switch s.Source.Type {
	case SourceFilesystem:
		if s.Source.Path == "" {
			return fmt.Errorf("%w: %s is required", domain.ErrInvalidInput, KeySourcePath)
		}
	case SourceGitHub:
		if s.Source.GitHub.Owner == "" || s.Source.GitHub.Repo == "" {
			return fmt.Errorf("%w: %s and %s are required", domain.ErrInvalidInput, KeyGitHubOwner, KeyGitHubRepo)
		}
	default:
		return fmt.Errorf("%w: unknown %s %q", domain.ErrInvalidInput, KeySourceType, s.Source.Type)
	}
	switch s.Index.Backend {
	case IndexSQLite, IndexMemory:
	default:
		return fmt.Errorf("%w: unknown %s %q", domain.ErrInvalidInput, KeyIndexBackend, s.Index.Backend)
	}
	switch s.LLM.Provider {
	case LLMNone, LLMOllama:
	case LLMAnthropic:
		if s.LLM.APIKey == "" {
			return fmt.Errorf("%w: %s is required for the anthropic provider", domain.ErrInvalidInput, KeyAnthropicAPIKey)
		}
	default:
		return fmt.Errorf("%w: unknown %s %q", domain.ErrInvalidInput, KeyLLMProvider, s.LLM.Provider)
	}
	if s.Watch.Debounce < 0 {
		return fmt.Errorf("%w: %s must not be negative", domain.ErrInvalidInput, KeyWatchDebounce)
	}
	return nil
}

// resolver reads one key at a time, keeping the first parse error.
type resolver struct {
	store  driven.ConfigStore
	getenv func(string) string
	err    error
}

// lookup returns the override or stored value for key.
func (r *resolver) lookup(key string) (any, bool) {
	ks, _ := Lookup(key)
	for _, env := range ks.envNames() {
		if v := r.getenv(env); v != "" {
			parsed, err := ParseValue(key, v)
			if err != nil {
				r.fail(fmt.Errorf("%s: %w", env, err))
				return nil, false
			}
			return parsed, true
		}
	}
	if r.store == nil {
		return nil, false
	}
	return r.store.Get(key)
}

func (r *resolver) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *resolver) string(key, def string) string {
	v, ok := r.lookup(key)
	if !ok {
		return def
	}
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return def
}

func (r *resolver) int(key string, def int) int {
	v, ok := r.lookup(key)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	}
	r.fail(fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, key))
	return def
}

func (r *resolver) float(key string, def float64) float64 {
	v, ok := r.lookup(key)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	}
	r.fail(fmt.Errorf("%w: %s must be a number", domain.ErrInvalidInput, key))
	return def
}

func (r *resolver) millis(key string, def time.Duration) time.Duration {
	if _, ok := r.lookup(key); !ok {
		return def
	}
	return time.Duration(r.int(key, int(def/time.Millisecond))) * time.Millisecond
}

func (r *resolver) list(key string, def []string) []string {
	v, ok := r.lookup(key)
	if !ok {
		return def
	}
	switch l := v.(type) {
	case []string:
		return l
	case []any:
		out := make([]string, 0, len(l))
		for _, item := range l {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return splitList(l)
	}
	r.fail(fmt.Errorf("%w: %s must be a list", domain.ErrInvalidInput, key))
	return def
}

// ParseValue converts a raw string for key into the type the key stores.
func ParseValue(key, raw string) (any, error) {
	ks, ok := Lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: unknown config key %q", domain.ErrInvalidInput, key)
	}
	raw = strings.TrimSpace(raw)
	switch ks.Kind {
	case KindInt, KindMillis:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, key)
		}
		return n, nil
	case KindFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be a number", domain.ErrInvalidInput, key)
		}
		return f, nil
	case KindList:
		return splitList(raw), nil
	default:
		return raw, nil
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
