package gmail

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// SentThreadsQuery selects threads the user sent into that are not trashed
const SentThreadsQuery = "in:sent -in:trash"

// ErrUnauthorized is returned when Gmail rejects the access token
var ErrUnauthorized = errors.New("gmail: access token rejected")

type Service struct {
	maxConcurrent int
	extraOptions  []option.ClientOption
}

// NewService creates a Gmail client factory. Extra options are appended to every
// per-user service (tests use option.WithEndpoint).
func NewService(opts ...option.ClientOption) *Service {
	return &Service{
		maxConcurrent: 10,
		extraOptions:  opts,
	}
}

// GetGmailService creates a Gmail service authorized with the user's bearer token
func (s *Service) GetGmailService(ctx context.Context, accessToken string) (*gmail.Service, error) {
	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	})
	client := oauth2.NewClient(ctx, tokenSource)

	opts := append([]option.ClientOption{option.WithHTTPClient(client)}, s.extraOptions...)
	srv, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %w", err)
	}
	return srv, nil
}

// ListSentThreads returns up to max sent threads with message metadata
// (labels, internal date, Subject/To/From headers). Threads are fetched
// concurrently and returned in list order; a thread that fails to load is skipped.
func (s *Service) ListSentThreads(ctx context.Context, accessToken string, max int) ([]*gmail.Thread, error) {
	srv, err := s.GetGmailService(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	user := "me"
	listResp, err := srv.Users.Threads.List(user).
		Q(SentThreadsQuery).
		MaxResults(int64(max)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, classifyError("list threads", err)
	}

	stubs := listResp.Threads
	if len(stubs) > max {
		stubs = stubs[:max]
	}

	type threadResult struct {
		index  int
		thread *gmail.Thread
		err    error
	}

	resultChan := make(chan threadResult, len(stubs))
	semaphore := make(chan struct{}, s.maxConcurrent)

	for i, stub := range stubs {
		go func(index int, threadID string) {
			semaphore <- struct{}{}        // Acquire
			defer func() { <-semaphore }() // Release

			thread, err := srv.Users.Threads.Get(user, threadID).
				Format("metadata").
				MetadataHeaders("Subject", "To", "From").
				Context(ctx).
				Do()
			resultChan <- threadResult{index: index, thread: thread, err: err}
		}(i, stub.Id)
	}

	ordered := make([]*gmail.Thread, len(stubs))
	var authErr error
	for range stubs {
		result := <-resultChan
		if result.err != nil {
			if isUnauthorized(result.err) {
				authErr = result.err
			}
			log.Printf("[Gmail] Failed to fetch thread %s: %v", stubs[result.index].Id, result.err)
			continue
		}
		ordered[result.index] = result.thread
	}
	if authErr != nil {
		return nil, classifyError("get thread", authErr)
	}

	threads := make([]*gmail.Thread, 0, len(ordered))
	for _, t := range ordered {
		if t != nil {
			threads = append(threads, t)
		}
	}
	return threads, nil
}

func isUnauthorized(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusUnauthorized
}

func classifyError(op string, err error) error {
	if isUnauthorized(err) {
		return fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}
	return fmt.Errorf("%s: %w", op, err)
}
