package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.github.com"

// Client is a minimal GitHub REST v3 client covering the two endpoints the
// sync connector needs. A shared rate limiter keeps multi-repo sync cycles
// from bursting the upstream API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option configures the Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL (used for tests and GitHub Enterprise).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// NewClient creates a GitHub API client authenticated with the given token.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		// Secondary rate limits trip around 900 points/min; 5 req/s with a
		// small burst stays well under that.
		limiter: rate.NewLimiter(rate.Limit(5), 10),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Commit is a commit as returned by the commits endpoint.
type Commit struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
		Author  struct {
			Date time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
}

// PullRequest is a pull request as returned by the pulls endpoint.
type PullRequest struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
	User      struct {
		Login string `json:"login"`
	} `json:"user"`
}

// ListCommits fetches up to pageSize commits authored by author since the
// given instant. Author and since filtering happen server-side.
func (c *Client) ListCommits(ctx context.Context, owner, repo, author string, since time.Time, pageSize int) ([]Commit, error) {
	q := url.Values{
		"author":   {author},
		"per_page": {strconv.Itoa(pageSize)},
	}
	if !since.IsZero() {
		q.Set("since", since.UTC().Format(time.RFC3339))
	}

	var commits []Commit
	err := c.getJSON(ctx, fmt.Sprintf("/repos/%s/%s/commits", owner, repo), q, &commits)
	if err != nil {
		return nil, fmt.Errorf("github.Client.ListCommits: %s/%s: %w", owner, repo, err)
	}
	return commits, nil
}

// ListPullRequests fetches up to pageSize pull requests in any state. The
// pulls endpoint cannot filter by author or creation time, so callers must
// filter client-side.
func (c *Client) ListPullRequests(ctx context.Context, owner, repo string, pageSize int) ([]PullRequest, error) {
	q := url.Values{
		"state":    {"all"},
		"per_page": {strconv.Itoa(pageSize)},
	}

	var prs []PullRequest
	err := c.getJSON(ctx, fmt.Sprintf("/repos/%s/%s/pulls", owner, repo), q, &prs)
	if err != nil {
		return nil, fmt.Errorf("github.Client.ListPullRequests: %s/%s: %w", owner, repo, err)
	}
	return prs, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, dest any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "token "+c.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, firstBytes(body, 256))
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func firstBytes(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n])
}
