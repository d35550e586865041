package ai

import (
	"context"
	"errors"
	"log"
	"net"
	"strings"
)

// FallbackService tries each provider in order and falls back to TemplateDraft
// when none of them answers. It never fails.
type FallbackService struct {
	providers []TextGenerator
}

// NewFallbackService creates a fallback chain; nil providers are ignored
func NewFallbackService(providers ...TextGenerator) *FallbackService {
	f := &FallbackService{}
	for _, p := range providers {
		if p != nil {
			f.providers = append(f.providers, p)
		}
	}
	return f
}

// Providers returns the names of the configured providers, in order
func (f *FallbackService) Providers() []string {
	names := make([]string, 0, len(f.providers))
	for _, p := range f.providers {
		names = append(names, p.Name())
	}
	return names
}

// isConnectionError checks if the error is a network/connection error
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	connectionIndicators := []string{
		"connection refused",
		"no such host",
		"network is unreachable",
		"connection reset",
		"timeout",
		"dial tcp",
		"eof",
	}
	for _, indicator := range connectionIndicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}
	return false
}

// isQuotaError checks if the error indicates API quota exhaustion (429)
func isQuotaError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	quotaIndicators := []string{
		"429",
		"quota",
		"rate limit",
		"too many requests",
		"resource_exhausted",
		"resource exhausted",
	}
	for _, indicator := range quotaIndicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}
	return false
}

func failureReason(err error) string {
	switch {
	case isQuotaError(err):
		return "quota exhausted"
	case isConnectionError(err):
		return "connection failed"
	default:
		return "error"
	}
}

// GenerateFollowUpDraft implements DraftGenerator
func (f *FallbackService) GenerateFollowUpDraft(ctx context.Context, dc DraftContext) Draft {
	prompt := BuildFollowUpPrompt(dc)

	for _, p := range f.providers {
		if ctx.Err() != nil {
			log.Printf("[AI] Context done before trying %s: %v", p.Name(), ctx.Err())
			break
		}
		log.Printf("[AI] Trying %s for follow-up draft...", p.Name())
		raw, err := p.GenerateText(ctx, SystemPrompt, prompt)
		if err != nil {
			log.Printf("[AI] %s %s: %v, falling back", p.Name(), failureReason(err), err)
			continue
		}
		log.Printf("[AI] %s draft successful", p.Name())
		return ParseDraftResponse(raw, dc)
	}

	log.Println("[AI] Using template follow-up draft")
	return TemplateDraft(dc)
}
