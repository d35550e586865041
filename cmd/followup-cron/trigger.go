package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const maxLoggedBody = 2048

type trigger struct {
	baseURL string
	secret  string
	client  *http.Client
}

func newTrigger(baseURL, secret string, timeout time.Duration) *trigger {
	return &trigger{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  secret,
		client:  &http.Client{Timeout: timeout},
	}
}

// post calls one cron endpoint and returns the response body
func (t *trigger) post(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+t.secret)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return body, fmt.Errorf("%s returned status %d: %s", path, resp.StatusCode, clip(body))
	}
	return body, nil
}

// fire runs one job and logs its outcome
func (t *trigger) fire(ctx context.Context, job, path string) error {
	start := time.Now()
	body, err := t.post(ctx, path)
	if err != nil {
		log.Printf("[CRON] %s failed after %s: %v", job, time.Since(start).Round(time.Millisecond), err)
		return err
	}
	log.Printf("[CRON] %s done in %s: %s", job, time.Since(start).Round(time.Millisecond), clip(body))
	return nil
}

func clip(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxLoggedBody {
		return s[:maxLoggedBody] + "..."
	}
	return s
}
