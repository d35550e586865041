package ai

import (
	"log"

	"devnudge-backend/pkg/gemini"
)

// RuntimeSettings exposes settings that can change while the server runs
type RuntimeSettings interface {
	OllamaBaseURL() string
	OllamaModel() string
	CerebrasModel() string
}

// Config holds AI provider configuration
type Config struct {
	Provider ProviderType // "cerebras", "gemini", "ollama" or "auto"

	CerebrasAPIKey string
	CerebrasModel  string

	GeminiAPIKey string

	OllamaBaseURL string // e.g., "http://localhost:11434"
	OllamaModel   string // e.g., "llama3", "mistral"

	// Runtime overrides the static Ollama/Cerebras settings above when set
	Runtime RuntimeSettings
}

func (cfg Config) cerebras() TextGenerator {
	if cfg.CerebrasAPIKey == "" {
		return nil
	}
	if cfg.Runtime != nil {
		return NewCerebrasServiceWithGetters(cfg.CerebrasAPIKey, DefaultCerebrasURL, cfg.Runtime.CerebrasModel)
	}
	return NewCerebrasService(cfg.CerebrasAPIKey, cfg.CerebrasModel)
}

func (cfg Config) gemini() TextGenerator {
	if cfg.GeminiAPIKey == "" {
		return nil
	}
	return gemini.NewGeminiService(cfg.GeminiAPIKey)
}

func (cfg Config) ollama() *OllamaService {
	if cfg.Runtime != nil {
		return NewOllamaServiceWithGetters(cfg.Runtime.OllamaBaseURL, cfg.Runtime.OllamaModel)
	}
	return NewOllamaService(cfg.OllamaBaseURL, cfg.OllamaModel)
}

// NewDraftService builds the fallback chain for cfg.Provider.
// The chosen provider goes first and Ollama is the local last resort before templates.
// This is the factory function - switch AI provider by changing config.Provider
func NewDraftService(cfg Config) *FallbackService {
	var svc *FallbackService
	switch cfg.Provider {
	case ProviderCerebras:
		svc = NewFallbackService(cfg.cerebras(), cfg.ollama())
	case ProviderGemini:
		svc = NewFallbackService(cfg.gemini(), cfg.ollama())
	case ProviderOllama:
		svc = NewFallbackService(cfg.ollama())
	default:
		svc = NewFallbackService(cfg.cerebras(), cfg.gemini(), cfg.ollama())
	}
	log.Printf("[AI] Draft providers: %v (+template)", svc.Providers())
	return svc
}
