package ai

import (
	"fmt"
	"regexp"
	"strings"
)

// SystemPrompt is sent as the system message to chat-style providers
const SystemPrompt = "You are an expert email assistant that writes professional, concise, and effective follow-up emails. " +
	"Your follow-ups are polite but persistent, and you always provide value in your messages."

var rePrefix = regexp.MustCompile(`(?i)^re:\s*`)

// urgencyLevel escalates with silence: polite, then persistent after two weeks, urgent after three.
func urgencyLevel(days int) string {
	switch {
	case days > 21:
		return "urgent"
	case days > 14:
		return "persistent"
	default:
		return "polite"
	}
}

func BuildFollowUpPrompt(dc DraftContext) string {
	urgency := urgencyLevel(dc.DaysSinceLastEmail)

	var b strings.Builder
	fmt.Fprintf(&b, "Write a %s follow-up email for the following context:\n\n", urgency)
	fmt.Fprintf(&b, "ORIGINAL EMAIL SUBJECT: %q\n", dc.OriginalSubject)
	fmt.Fprintf(&b, "ORIGINAL EMAIL SNIPPET: %q\n", dc.OriginalSnippet)
	if dc.RecipientName != "" {
		fmt.Fprintf(&b, "RECIPIENT: %s\n", dc.RecipientName)
	}
	fmt.Fprintf(&b, "DAYS SINCE LAST EMAIL: %d days\n", dc.DaysSinceLastEmail)
	fmt.Fprintf(&b, "PREVIOUS FOLLOW-UP ATTEMPTS: %d\n\n", dc.PreviousAttempts)
	fmt.Fprintf(&b, `Requirements:
1. Keep it concise (2-3 short paragraphs max)
2. Reference the previous email naturally
3. Add value or provide a gentle nudge
4. Include a clear call-to-action
5. Maintain a %s but professional tone

Format your response as:
SUBJECT: [new subject line]
BODY:
[email body text]

Do not include greetings or signatures, just the core content.`, urgency)
	return b.String()
}

// ParseDraftResponse reads the SUBJECT:/BODY: format. When either part is missing
// the whole response becomes the body under "Re: <original subject>".
func ParseDraftResponse(raw string, dc DraftContext) Draft {
	var subject string
	var body []string
	inBody := false

	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case !inBody && strings.HasPrefix(trimmed, "SUBJECT:"):
			subject = strings.TrimSpace(strings.TrimPrefix(trimmed, "SUBJECT:"))
		case !inBody && strings.HasPrefix(trimmed, "BODY:"):
			inBody = true
			if rest := strings.TrimSpace(strings.TrimPrefix(trimmed, "BODY:")); rest != "" {
				body = append(body, rest)
			}
		case inBody:
			body = append(body, strings.TrimRight(line, " \t\r"))
		}
	}

	text := strings.TrimSpace(strings.Join(body, "\n"))
	if subject == "" || text == "" {
		subject = "Re: " + dc.OriginalSubject
		text = strings.TrimSpace(raw)
	}

	return Draft{
		Subject: rePrefix.ReplaceAllString(subject, "Re: "),
		Body:    text,
		Tone:    DetermineTone(dc.DaysSinceLastEmail),
	}
}

func DetermineTone(days int) Tone {
	if days < 7 {
		return ToneFriendly
	}
	if days < 14 {
		return ToneProfessional
	}
	return ToneUrgent
}

// TemplateDraft is the deterministic draft used when no provider answers
func TemplateDraft(dc DraftContext) Draft {
	var body string
	switch dc.PreviousAttempts {
	case 0:
		body = fmt.Sprintf(`I wanted to follow up on my previous email regarding "%s".

I understand you're likely busy, but I wanted to check if you had a chance to review my message. If you need any additional information or clarification, I'm happy to provide it.

Looking forward to hearing from you.`, dc.OriginalSubject)
	case 1:
		body = fmt.Sprintf(`I'm following up once more regarding "%s".

I haven't heard back yet and wanted to make sure my previous messages didn't get lost. If now isn't a good time, please let me know when would work better for you.

I appreciate your time and look forward to your response.`, dc.OriginalSubject)
	default:
		body = fmt.Sprintf(`This is my final follow-up regarding "%s".

I've reached out a few times but haven't received a response. If you're no longer interested or if this isn't the right time, I completely understand.

If I don't hear back, I'll assume you'd prefer not to continue this conversation. Thank you for your consideration.`, dc.OriginalSubject)
	}

	return Draft{
		Subject: "Re: " + dc.OriginalSubject,
		Body:    body,
		Tone:    DetermineTone(dc.DaysSinceLastEmail),
	}
}
