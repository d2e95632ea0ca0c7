// Package model wraps the LLM backends behind a single prompt-in,
// text-out client. All supported providers speak the OpenAI chat
// completion protocol (OpenAI, Groq, Ollama, custom endpoints), so one
// SDK client covers them; only base URL and credentials differ.
package model

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/nvda-addons/addontrans/settings"
)

// ---------------------------------------------------------------------------
// Provider IDs
// ---------------------------------------------------------------------------

const (
	ProviderOpenAI = "openai"
	ProviderGroq   = "groq"
	ProviderOllama = "ollama"
	ProviderCustom = "custom"
)

// Provider holds the configuration for an LLM service endpoint.
type Provider struct {
	// ID is the provider identifier (openai, groq, ollama, custom).
	ID string
	// Name is the display name.
	Name string
	// BaseURL is the API base URL.
	BaseURL string
	// EnvKey is the environment variable checked for an API key.
	EnvKey string
	// NeedsKey reports whether the provider requires an API key.
	NeedsKey bool
	// Timeout is the request timeout.
	Timeout time.Duration
}

// DefaultProviders returns the pre-configured provider definitions.
func DefaultProviders() map[string]Provider {
	return map[string]Provider{
		ProviderOpenAI: {
			ID:       ProviderOpenAI,
			Name:     "OpenAI",
			BaseURL:  "https://api.openai.com/v1",
			EnvKey:   "OPENAI_API_KEY",
			NeedsKey: true,
			Timeout:  120 * time.Second,
		},
		ProviderGroq: {
			ID:       ProviderGroq,
			Name:     "Groq",
			BaseURL:  "https://api.groq.com/openai/v1",
			EnvKey:   "GROQ_API_KEY",
			NeedsKey: true,
			Timeout:  60 * time.Second,
		},
		ProviderOllama: {
			ID:      ProviderOllama,
			Name:    "Ollama",
			BaseURL: "http://localhost:11434/v1",
			Timeout: 120 * time.Second,
		},
		ProviderCustom: {
			ID:       ProviderCustom,
			Name:     "Custom OpenAI-compatible",
			EnvKey:   "ADDONTRANS_API_KEY",
			NeedsKey: true,
			Timeout:  120 * time.Second,
		},
	}
}

// ---------------------------------------------------------------------------
// Model registry
// ---------------------------------------------------------------------------

// DefaultModel is used when no --model flag is given.
const DefaultModel = "gpt-4o-mini"

// entry maps a model ID to its provider, with the short aliases the CLI
// accepts (so "-m 4o" works the same as "-m gpt-4o").
type entry struct {
	ID       string
	Provider string
	Aliases  []string
}

var registry = []entry{
	{ID: "gpt-4o", Provider: ProviderOpenAI, Aliases: []string{"4o"}},
	{ID: "gpt-4o-mini", Provider: ProviderOpenAI, Aliases: []string{"4o-mini", "mini"}},
	{ID: "gpt-4.1", Provider: ProviderOpenAI, Aliases: []string{"4.1"}},
	{ID: "gpt-4.1-mini", Provider: ProviderOpenAI, Aliases: []string{"4.1-mini"}},
	{ID: "o3-mini", Provider: ProviderOpenAI},
	{ID: "llama-3.3-70b-versatile", Provider: ProviderGroq, Aliases: []string{"llama-3.3", "llama"}},
	{ID: "mixtral-8x7b-32768", Provider: ProviderGroq, Aliases: []string{"mixtral"}},
}

// KnownModels lists registry model IDs for help output, sorted.
func KnownModels() []string {
	ids := make([]string, 0, len(registry))
	for _, e := range registry {
		ids = append(ids, e.ID)
	}
	sort.Strings(ids)
	return ids
}

// lookup finds a registry entry by exact ID, alias, or unique substring
// of the ID. Returns nil when nothing (or more than one thing) matches.
func lookup(name string) *entry {
	for i := range registry {
		if registry[i].ID == name {
			return &registry[i]
		}
		for _, a := range registry[i].Aliases {
			if a == name {
				return &registry[i]
			}
		}
	}

	var match *entry
	for i := range registry {
		if strings.Contains(registry[i].ID, name) {
			if match != nil {
				return nil // ambiguous
			}
			match = &registry[i]
		}
	}
	return match
}

// ---------------------------------------------------------------------------
// Client
// ---------------------------------------------------------------------------

// Client is the narrow surface the translation routines need. Tests
// substitute a deterministic stub.
type Client interface {
	// ModelID returns the resolved model identifier.
	ModelID() string
	// Prompt sends text to the model and returns the textual response.
	Prompt(ctx context.Context, text string) (string, error)
}

// Config carries CLI-level overrides for client construction.
type Config struct {
	// Provider forces a provider ID; empty means "from the registry".
	Provider string
	// APIKey overrides environment and stored credentials.
	APIKey string
	// BaseURL overrides the provider endpoint.
	BaseURL string
	// Timeout overrides the provider default request timeout.
	Timeout time.Duration
}

// Resolve turns a full or short model name into a ready client.
// An empty name selects DefaultModel. Names not in the registry are
// passed through verbatim when a provider is forced (custom endpoints
// and Ollama serve arbitrary model names).
func Resolve(name string, cfg Config) (Client, error) {
	if name == "" {
		name = DefaultModel
	}

	providers := DefaultProviders()
	modelID := name
	providerID := cfg.Provider

	if e := lookup(name); e != nil {
		modelID = e.ID
		if providerID == "" {
			providerID = e.Provider
		}
	} else if providerID == "" {
		return nil, fmt.Errorf("unknown model %q (known: %s); use --provider to pass a model name through",
			name, strings.Join(KnownModels(), ", "))
	}

	prov, ok := providers[providerID]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", providerID)
	}
	if cfg.BaseURL != "" {
		prov.BaseURL = cfg.BaseURL
	} else if stored := settings.GetBaseURL(prov.ID); stored != "" {
		prov.BaseURL = stored
	}
	if prov.BaseURL == "" {
		return nil, fmt.Errorf("provider %s requires --base-url", prov.ID)
	}
	if cfg.Timeout > 0 {
		prov.Timeout = cfg.Timeout
	}

	key := resolveKey(prov, cfg.APIKey)
	if key == "" && prov.NeedsKey {
		return nil, fmt.Errorf("no API key for %s: pass --api-key, set %s, or run 'addontrans auth set %s'",
			prov.Name, prov.EnvKey, prov.ID)
	}
	if key == "" {
		// go-openai requires a non-empty token; local servers ignore it.
		key = "unused"
	}

	oc := openai.DefaultConfig(key)
	oc.BaseURL = strings.TrimRight(prov.BaseURL, "/")
	oc.HTTPClient = &http.Client{Timeout: prov.Timeout}

	return &chatClient{
		client:  openai.NewClientWithConfig(oc),
		modelID: modelID,
	}, nil
}

// resolveKey applies the flag > env > credential store lookup order.
func resolveKey(prov Provider, flagKey string) string {
	if flagKey != "" {
		return flagKey
	}
	if prov.EnvKey != "" {
		if key := os.Getenv(prov.EnvKey); key != "" {
			return key
		}
	}
	return settings.GetAPIKey(prov.ID)
}

// chatClient talks to an OpenAI-compatible chat completion endpoint.
type chatClient struct {
	client  *openai.Client
	modelID string
}

func (c *chatClient) ModelID() string { return c.modelID }

func (c *chatClient) Prompt(ctx context.Context, text string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.modelID,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return "", fmt.Errorf("model %s: %w", c.modelID, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model %s: empty response", c.modelID)
	}
	return resp.Choices[0].Message.Content, nil
}

// ---------------------------------------------------------------------------
// Fenced-block extraction
// ---------------------------------------------------------------------------

// fencedBlock matches a fenced code block, with or without a language tag.
var fencedBlock = regexp.MustCompile("(?s)```[\\w.+-]*[ \\t]*\\n?(.*?)\\s*```")

// ExtractFenced returns the contents of the first fenced code block in
// text. ok is false when no block is present; callers warn and fall
// back to the raw response.
func ExtractFenced(text string) (string, bool) {
	m := fencedBlock.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}
