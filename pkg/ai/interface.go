package ai

import (
	"context"
)

// Tone of a follow-up draft, derived from how long the thread has been quiet
type Tone string

const (
	ToneFriendly     Tone = "friendly"
	ToneProfessional Tone = "professional"
	ToneUrgent       Tone = "urgent"
)

// DraftContext is what the draft service knows about the conversation being followed up
type DraftContext struct {
	OriginalSubject    string `json:"originalSubject"`
	OriginalSnippet    string `json:"originalSnippet"`
	RecipientName      string `json:"recipientName,omitempty"`
	DaysSinceLastEmail int    `json:"daysSinceLastEmail"`
	PreviousAttempts   int    `json:"previousAttempts"`
}

type Draft struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Tone    Tone   `json:"tone"`
}

// DraftGenerator always produces a draft. Implementations degrade to a template
// instead of returning an error.
type DraftGenerator interface {
	GenerateFollowUpDraft(ctx context.Context, dc DraftContext) Draft
}

// TextGenerator is one LLM backend (Cerebras, Ollama, Gemini).
// Implement this interface to add new AI providers.
type TextGenerator interface {
	Name() string
	GenerateText(ctx context.Context, system, prompt string) (string, error)
}

// ProviderType represents the AI provider type
type ProviderType string

const (
	ProviderCerebras ProviderType = "cerebras"
	ProviderGemini   ProviderType = "gemini"
	ProviderOllama   ProviderType = "ollama"
	ProviderAuto     ProviderType = "auto"
)
