package generator

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/papercomputeco/alembic/pkg/credentials"
	"github.com/papercomputeco/alembic/pkg/logger"
)

// Provider names accepted by NewCaller.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

const defaultTimeout = 30 * time.Second

// CallerConfig holds configuration for creating an LLM caller.
type CallerConfig struct {
	Provider string               // "gemini", "openai", "anthropic", or "ollama"
	Model    string               // e.g. "gemini-2.5-flash", "gpt-4o-mini"
	APIKey   string               // explicit API key (highest priority)
	BaseURL  string               // override base URL
	Timeout  time.Duration        // per request, defaults to 30s
	CredMgr  *credentials.Manager // credentials from alembic auth
	Logger   *slog.Logger
}

// HasCredentials reports whether a caller for cfg would talk to the requested
// provider rather than falling back to ollama.
func HasCredentials(cfg CallerConfig) bool {
	provider := normalizeProvider(cfg.Provider)
	if provider == ProviderOllama || cfg.APIKey != "" {
		return true
	}
	return resolveAPIKey(cfg.CredMgr, provider) != ""
}

// NewCaller creates a CallFunc for the configured provider.
// Resolution order for the API key:
//  1. Explicit APIKey in config
//  2. credentials.Manager (from alembic auth)
//  3. Environment variables (GEMINI_API_KEY / OPENAI_API_KEY / ANTHROPIC_API_KEY)
//  4. Fall back to Ollama at localhost:11434
func NewCaller(cfg CallerConfig) (CallFunc, error) {
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	provider := normalizeProvider(cfg.Provider)
	if !slices.Contains(SupportedProviders(), provider) {
		return nil, fmt.Errorf("unsupported provider: %s (supported: %s)",
			provider, strings.Join(SupportedProviders(), ", "))
	}
	model := cfg.Model
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = resolveAPIKey(cfg.CredMgr, provider)
	}

	baseURL := cfg.BaseURL
	if apiKey == "" && provider != ProviderOllama {
		log.Warn("no API key found, falling back to ollama", "provider", provider)
		provider = ProviderOllama
		model = ""
		baseURL = ""
	}

	switch provider {
	case ProviderGemini:
		if model == "" {
			model = "gemini-2.5-flash"
		}
		return newGeminiCaller(apiKey, model, baseURL, timeout)

	case ProviderOpenAI:
		if model == "" {
			model = "gpt-4o-mini"
		}
		if baseURL == "" {
			baseURL = "https://api.openai.com/v1"
		}
		return newOpenAICaller(apiKey, model, baseURL, timeout), nil

	case ProviderAnthropic:
		if model == "" {
			model = "claude-haiku-4-5-20251001"
		}
		if baseURL == "" {
			baseURL = "https://api.anthropic.com"
		}
		return newAnthropicCaller(apiKey, model, baseURL, timeout), nil

	case ProviderOllama:
		if model == "" {
			model = "llama3.2"
		}
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return newOllamaCaller(model, baseURL, timeout), nil

	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

// SupportedProviders lists the provider names NewCaller accepts.
func SupportedProviders() []string {
	return []string{ProviderGemini, ProviderOpenAI, ProviderAnthropic, ProviderOllama}
}

func normalizeProvider(provider string) string {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return ProviderGemini
	}
	return provider
}

func resolveAPIKey(mgr *credentials.Manager, provider string) string {
	if mgr != nil {
		if key, err := mgr.GetKey(provider); err == nil && key != "" {
			return key
		}
	}
	if env := credentials.EnvVarForProvider(provider); env != "" {
		return os.Getenv(env)
	}
	return ""
}

// New builds the breaker-guarded LLM generator described by cfg.
func New(cfg CallerConfig) (Generator, error) {
	call, err := NewCaller(cfg)
	if err != nil {
		return nil, err
	}
	return WithBreaker(
		NewLLMGenerator(call, cfg.Logger),
		DefaultBreakerConfig("generator-"+normalizeProvider(cfg.Provider)),
		cfg.Logger,
	), nil
}
