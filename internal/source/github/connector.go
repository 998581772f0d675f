package github

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/daylog-io/daylog/internal/domain"
	"github.com/daylog-io/daylog/internal/source"
)

// Connector fetches commits and pull requests authored by a configured
// identity across a set of repositories.
type Connector struct {
	client   *Client
	username string
	repos    []string
	pageSize int
}

var _ source.Connector = (*Connector)(nil)

// NewConnector creates a GitHub connector. Repos are "owner/name"; a bare
// name is treated as username/name.
func NewConnector(client *Client, username string, repos []string, pageSize int) *Connector {
	if len(repos) == 0 {
		repos = []string{username}
	}
	return &Connector{
		client:   client,
		username: username,
		repos:    repos,
		pageSize: pageSize,
	}
}

// Name identifies the connector in logs and watermark state.
func (c *Connector) Name() string { return "github" }

// FetchSince collects commit and PR events across all configured
// repositories. The commits and pulls sub-fetches are independent per
// repository: a failure in one is logged and yields nothing for that
// sub-fetch without aborting its sibling or the other repositories.
func (c *Connector) FetchSince(ctx context.Context, since time.Time) ([]source.RawEvent, error) {
	var events []source.RawEvent

	for _, repo := range c.repos {
		owner, name := c.splitRepo(repo)
		full := owner + "/" + name

		commits, err := c.client.ListCommits(ctx, owner, name, c.username, since, c.pageSize)
		if err != nil {
			log.Warn().Err(err).Str("repo", full).Msg("github: commits fetch failed")
		}
		for _, commit := range commits {
			events = append(events, commitEvent(full, commit))
		}

		prs, err := c.client.ListPullRequests(ctx, owner, name, c.pageSize)
		if err != nil {
			log.Warn().Err(err).Str("repo", full).Msg("github: pulls fetch failed")
		}
		for _, pr := range prs {
			// The pulls endpoint cannot filter by author or since;
			// both are applied here.
			if !strings.EqualFold(pr.User.Login, c.username) {
				continue
			}
			if pr.CreatedAt.Before(since) {
				continue
			}
			events = append(events, prEvent(full, pr))
		}
	}

	return events, nil
}

func (c *Connector) splitRepo(repo string) (owner, name string) {
	if i := strings.Index(repo, "/"); i >= 0 {
		return repo[:i], repo[i+1:]
	}
	return c.username, repo
}

func commitEvent(repo string, commit Commit) source.RawEvent {
	return source.RawEvent{
		Source:    domain.SourceGitHubCommit,
		RawText:   commit.Commit.Message,
		Action:    "GitHub Commit",
		Project:   repo,
		Tags:      []string{"coding", "github", "commit"},
		Metadata:  map[string]string{"sha": commit.SHA, "repo": repo},
		Timestamp: commit.Commit.Author.Date,
	}
}

func prEvent(repo string, pr PullRequest) source.RawEvent {
	return source.RawEvent{
		Source:    domain.SourceGitHubPR,
		RawText:   pr.Title,
		Action:    "GitHub PR (" + pr.State + ")",
		Project:   repo,
		Tags:      []string{"coding", "github", "pr"},
		Metadata:  map[string]string{"number": strconv.Itoa(pr.Number), "repo": repo},
		Timestamp: pr.CreatedAt,
	}
}
