package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v66/github"
)

// ErrUnauthorized is returned when GitHub rejects the access token
var ErrUnauthorized = errors.New("github: access token rejected")

// Client runs the handful of GitHub API calls the tracker needs, one
// authenticated go-github client per call.
type Client struct {
	baseURL *url.URL
}

func NewClient() *Client {
	return &Client{}
}

// NewClientWithBaseURL points the client at another API root (GitHub Enterprise or a test server).
func NewClientWithBaseURL(base string) (*Client, error) {
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, err
	}
	return &Client{baseURL: u}, nil
}

func (c *Client) api(accessToken string) *gh.Client {
	client := gh.NewClient(nil).WithAuthToken(accessToken)
	if c.baseURL != nil {
		client.BaseURL = c.baseURL
	}
	return client
}

// AuthenticatedLogin returns the login of the token's owner
func (c *Client) AuthenticatedLogin(ctx context.Context, accessToken string) (string, error) {
	user, _, err := c.api(accessToken).Users.Get(ctx, "")
	if err != nil {
		return "", classifyError("get authenticated user", err)
	}
	if user.GetLogin() == "" {
		return "", errors.New("github: authenticated user has no login")
	}
	return user.GetLogin(), nil
}

// SearchIssues runs an issue/PR search and returns at most perPage results
func (c *Client) SearchIssues(ctx context.Context, accessToken, query string, perPage int) ([]*gh.Issue, error) {
	result, _, err := c.api(accessToken).Search.Issues(ctx, query, &gh.SearchOptions{
		Sort:        "updated",
		Order:       "desc",
		ListOptions: gh.ListOptions{PerPage: perPage},
	})
	if err != nil {
		return nil, classifyError("search "+query, err)
	}
	issues := result.Issues
	if len(issues) > perPage {
		issues = issues[:perPage]
	}
	return issues, nil
}

func classifyError(op string, err error) error {
	var respErr *gh.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil && respErr.Response.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}
	return fmt.Errorf("%s: %w", op, err)
}
