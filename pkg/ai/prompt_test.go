package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetermineTone(t *testing.T) {
	assert.Equal(t, ToneFriendly, DetermineTone(0))
	assert.Equal(t, ToneFriendly, DetermineTone(6))
	assert.Equal(t, ToneProfessional, DetermineTone(7))
	assert.Equal(t, ToneProfessional, DetermineTone(13))
	assert.Equal(t, ToneUrgent, DetermineTone(14))
}

func TestBuildFollowUpPromptUrgency(t *testing.T) {
	dc := DraftContext{OriginalSubject: "Q3 budget", OriginalSnippet: "numbers attached", DaysSinceLastEmail: 14}
	assert.Contains(t, BuildFollowUpPrompt(dc), "Write a polite follow-up")

	dc.DaysSinceLastEmail = 15
	assert.Contains(t, BuildFollowUpPrompt(dc), "Write a persistent follow-up")

	dc.DaysSinceLastEmail = 22
	p := BuildFollowUpPrompt(dc)
	assert.Contains(t, p, "Write a urgent follow-up")
	assert.Contains(t, p, `ORIGINAL EMAIL SUBJECT: "Q3 budget"`)
	assert.Contains(t, p, "DAYS SINCE LAST EMAIL: 22 days")
	assert.NotContains(t, p, "RECIPIENT:")

	dc.RecipientName = "Ana"
	assert.Contains(t, BuildFollowUpPrompt(dc), "RECIPIENT: Ana")
}

func TestParseDraftResponse(t *testing.T) {
	dc := DraftContext{OriginalSubject: "Contract", DaysSinceLastEmail: 8}

	d := ParseDraftResponse("SUBJECT: RE:   Contract next steps\nBODY:\nHi again.\n\nCould you confirm by Friday?\n", dc)
	assert.Equal(t, "Re: Contract next steps", d.Subject)
	assert.Equal(t, "Hi again.\n\nCould you confirm by Friday?", d.Body)
	assert.Equal(t, ToneProfessional, d.Tone)
}

func TestParseDraftResponseFallsBackToRawText(t *testing.T) {
	dc := DraftContext{OriginalSubject: "Contract", DaysSinceLastEmail: 2}

	d := ParseDraftResponse("  Just checking in on the contract.  ", dc)
	assert.Equal(t, "Re: Contract", d.Subject)
	assert.Equal(t, "Just checking in on the contract.", d.Body)
	assert.Equal(t, ToneFriendly, d.Tone)

	d = ParseDraftResponse("SUBJECT: Only a subject", dc)
	assert.Equal(t, "Re: Contract", d.Subject)
	assert.Equal(t, "SUBJECT: Only a subject", d.Body)
}

func TestTemplateDraftByAttempt(t *testing.T) {
	dc := DraftContext{OriginalSubject: "Invoice 42", DaysSinceLastEmail: 20}

	first := TemplateDraft(dc)
	assert.Equal(t, "Re: Invoice 42", first.Subject)
	assert.Contains(t, first.Body, `I wanted to follow up on my previous email regarding "Invoice 42".`)
	assert.Equal(t, ToneUrgent, first.Tone)

	dc.PreviousAttempts = 1
	assert.Contains(t, TemplateDraft(dc).Body, "I'm following up once more")

	dc.PreviousAttempts = 5
	assert.Contains(t, TemplateDraft(dc).Body, "This is my final follow-up")
}
