package source

import (
	"context"
	"html"
	"strings"
	"time"

	"devnudge-backend/internal/followup/domain"
	integrationdomain "devnudge-backend/internal/integration/domain"
	gmailclient "devnudge-backend/pkg/gmail"

	"github.com/emersion/go-message/mail"
	"google.golang.org/api/gmail/v1"
)

const gmailThreadURL = "https://mail.google.com/mail/u/0/#inbox/"

// ThreadLister is implemented by pkg/gmail.Service
type ThreadLister interface {
	ListSentThreads(ctx context.Context, accessToken string, max int) ([]*gmail.Thread, error)
}

// MailboxAdapter produces email_followup candidates from sent threads
type MailboxAdapter struct {
	threads ThreadLister
}

func NewMailboxAdapter(threads ThreadLister) *MailboxAdapter {
	return &MailboxAdapter{threads: threads}
}

func (a *MailboxAdapter) Provider() integrationdomain.Provider {
	return integrationdomain.ProviderGmail
}

func (a *MailboxAdapter) FetchCandidates(ctx context.Context, accessToken string, limit int) ([]domain.CandidateItem, error) {
	threads, err := a.threads.ListSentThreads(ctx, accessToken, limit)
	if err != nil {
		return nil, wrapSourceError(a.Provider(), err, gmailclient.ErrUnauthorized)
	}

	candidates := make([]domain.CandidateItem, 0, len(threads))
	for _, t := range threads {
		if t == nil {
			continue
		}
		candidates = append(candidates, NormalizeThread(t))
	}
	return candidates, nil
}

// NormalizeThread converts a metadata-format thread. Missing fields get defaults;
// a thread with no id yields an empty SourceID, which the orchestrator rejects.
func NormalizeThread(t *gmail.Thread) domain.CandidateItem {
	first, last := boundaryMessages(t.Messages)

	snippet := t.Snippet
	if snippet == "" && last != nil {
		snippet = last.Snippet
	}
	snippet = html.UnescapeString(snippet)

	subject := ""
	if first != nil {
		subject = headerText(first, "Subject")
	}

	title := subject
	if title == "" {
		title = truncate(snippet, 100)
	}
	if title == "" {
		title = "No subject"
	}

	item := domain.CandidateItem{
		SourceID: t.Id,
		Kind:     domain.KindEmailFollowUp,
		Signal:   domain.SignalAwaitingReply,
		Title:    "Follow up: " + title,
		Snippet:  snippet,
		Open:     true,
	}
	if t.Id != "" {
		item.SourceURL = gmailThreadURL + t.Id
	}

	if last != nil {
		if last.InternalDate > 0 {
			item.ReferenceTime = time.UnixMilli(last.InternalDate).UTC()
		}
		item.LastSentByOwner = hasLabel(last.LabelIds, "SENT")
		item.RecipientName = recipientName(last)
	}
	return item
}

// boundaryMessages returns the oldest and newest message by internal date.
// Messages without a date keep their list position.
func boundaryMessages(msgs []*gmail.Message) (first, last *gmail.Message) {
	for _, m := range msgs {
		if m == nil {
			continue
		}
		if first == nil || (m.InternalDate > 0 && m.InternalDate < first.InternalDate) {
			first = m
		}
		if last == nil || m.InternalDate >= last.InternalDate {
			last = m
		}
	}
	return first, last
}

func hasLabel(labels []string, labelID string) bool {
	for _, label := range labels {
		if label == labelID {
			return true
		}
	}
	return false
}

// messageHeader copies the raw Gmail headers into a mail.Header so that
// RFC 2047 encoded words and address lists decode properly.
func messageHeader(m *gmail.Message) mail.Header {
	var h mail.Header
	if m.Payload == nil {
		return h
	}
	for _, ph := range m.Payload.Headers {
		if ph == nil || ph.Name == "" {
			continue
		}
		h.Add(ph.Name, ph.Value)
	}
	return h
}

func headerText(m *gmail.Message, key string) string {
	h := messageHeader(m)
	if key == "Subject" {
		if s, err := h.Subject(); err == nil {
			return strings.TrimSpace(s)
		}
	}
	return strings.TrimSpace(h.Get(key))
}

// recipientName is the display name (or address) of the first To recipient
func recipientName(m *gmail.Message) string {
	h := messageHeader(m)
	addrs, err := h.AddressList("To")
	if err != nil || len(addrs) == 0 {
		return ""
	}
	if addrs[0].Name != "" {
		return addrs[0].Name
	}
	return addrs[0].Address
}
