package source

import (
	"context"
	"fmt"
	"time"

	"devnudge-backend/internal/followup/domain"
	integrationdomain "devnudge-backend/internal/integration/domain"
	githubclient "devnudge-backend/pkg/github"

	gh "github.com/google/go-github/v66/github"
	"golang.org/x/sync/errgroup"
)

// TrackerClient is implemented by pkg/github.Client
type TrackerClient interface {
	AuthenticatedLogin(ctx context.Context, accessToken string) (string, error)
	SearchIssues(ctx context.Context, accessToken, query string, perPage int) ([]*gh.Issue, error)
}

// staleSearchWindow narrows the authored-PR search server side; the classifier
// applies the exact threshold.
const staleSearchWindow = 5 * 24 * time.Hour

// TrackerAdapter produces pr_review and issue_stale candidates for the token owner
type TrackerAdapter struct {
	client TrackerClient
	now    func() time.Time
}

func NewTrackerAdapter(client TrackerClient, now func() time.Time) *TrackerAdapter {
	if now == nil {
		now = time.Now
	}
	return &TrackerAdapter{client: client, now: now}
}

func (a *TrackerAdapter) Provider() integrationdomain.Provider {
	return integrationdomain.ProviderGitHub
}

type trackerQuery struct {
	signal    domain.Signal
	query     string
	normalize func(*gh.Issue, time.Time) domain.CandidateItem
}

func (a *TrackerAdapter) FetchCandidates(ctx context.Context, accessToken string, limit int) ([]domain.CandidateItem, error) {
	login, err := a.client.AuthenticatedLogin(ctx, accessToken)
	if err != nil {
		return nil, wrapSourceError(a.Provider(), err, githubclient.ErrUnauthorized)
	}

	now := a.now()
	cutoff := now.Add(-staleSearchWindow).UTC().Format("2006-01-02")
	queries := []trackerQuery{
		{domain.SignalReviewRequested, "is:pr is:open review-requested:" + login, NormalizeReviewRequest},
		{domain.SignalAuthoredStale, "is:pr is:open author:" + login + " updated:<" + cutoff, NormalizeStalePR},
		{domain.SignalAssigned, "is:issue is:open assignee:" + login, NormalizeAssignedIssue},
	}

	results := make([][]domain.CandidateItem, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			issues, err := a.client.SearchIssues(gctx, accessToken, q.query, limit)
			if err != nil {
				return err
			}
			items := make([]domain.CandidateItem, 0, len(issues))
			for _, issue := range issues {
				if issue == nil {
					continue
				}
				items = append(items, q.normalize(issue, now))
			}
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, wrapSourceError(a.Provider(), err, githubclient.ErrUnauthorized)
	}

	var candidates []domain.CandidateItem
	for _, items := range results {
		candidates = append(candidates, items...)
	}
	return candidates, nil
}

func sourceID(prefix string, issue *gh.Issue) string {
	if issue.GetID() == 0 {
		return ""
	}
	return fmt.Sprintf("%s-%d", prefix, issue.GetID())
}

func isOpen(issue *gh.Issue) bool {
	return issue.GetState() == "" || issue.GetState() == "open"
}

func lastActivity(issue *gh.Issue) time.Time {
	if t := issue.GetUpdatedAt().Time; !t.IsZero() {
		return t
	}
	return issue.GetCreatedAt().Time
}

func titleOr(issue *gh.Issue) string {
	if issue.GetTitle() != "" {
		return issue.GetTitle()
	}
	return "Untitled"
}

func NormalizeReviewRequest(issue *gh.Issue, _ time.Time) domain.CandidateItem {
	author := issue.GetUser().GetLogin()
	if author == "" {
		author = "unknown"
	}
	return domain.CandidateItem{
		SourceID:      sourceID("pr", issue),
		Kind:          domain.KindPRReview,
		Signal:        domain.SignalReviewRequested,
		Title:         "Review PR: " + titleOr(issue),
		Snippet:       fmt.Sprintf("PR #%d by %s", issue.GetNumber(), author),
		ReferenceTime: lastActivity(issue),
		SourceURL:     issue.GetHTMLURL(),
		Open:          isOpen(issue),
	}
}

func NormalizeStalePR(issue *gh.Issue, _ time.Time) domain.CandidateItem {
	return domain.CandidateItem{
		SourceID:      sourceID("stale-pr", issue),
		Kind:          domain.KindPRReview,
		Signal:        domain.SignalAuthoredStale,
		Title:         "Stale PR: " + titleOr(issue),
		Snippet:       fmt.Sprintf("Your PR #%d hasn't been updated in 5+ days", issue.GetNumber()),
		ReferenceTime: issue.GetUpdatedAt().Time,
		SourceURL:     issue.GetHTMLURL(),
		Open:          isOpen(issue),
	}
}

func NormalizeAssignedIssue(issue *gh.Issue, now time.Time) domain.CandidateItem {
	created := issue.GetCreatedAt().Time
	snippet := fmt.Sprintf("Issue #%d assigned to you", issue.GetNumber())
	if !created.IsZero() {
		days := int(now.Sub(created) / (24 * time.Hour))
		snippet = fmt.Sprintf("Issue #%d assigned to you for %d days", issue.GetNumber(), days)
	}
	return domain.CandidateItem{
		SourceID:      sourceID("issue", issue),
		Kind:          domain.KindIssueStale,
		Signal:        domain.SignalAssigned,
		Title:         "Stale Issue: " + titleOr(issue),
		Snippet:       snippet,
		ReferenceTime: created,
		SourceURL:     issue.GetHTMLURL(),
		Open:          isOpen(issue),
	}
}
