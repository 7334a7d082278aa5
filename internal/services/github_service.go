package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/clagate/clagate/pkg/config"
	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// ErrPlatformUnavailable marks a hosting-platform call that failed or timed
// out. Callers retry with backoff; it is never converted into a gate-state
// change.
var ErrPlatformUnavailable = errors.New("platform unavailable")

// PlatformAPI is the narrow surface of the hosting platform the reporter
// needs. The GitHub implementation is the only production one; tests
// inject in-memory fakes.
type PlatformAPI interface {
	CreateStatus(ctx context.Context, owner, repo, sha string, status *github.RepoStatus) error
	ListComments(ctx context.Context, owner, repo string, number int) ([]*github.IssueComment, error)
	CreateComment(ctx context.Context, owner, repo string, number int, body string) error
}

// GitHubService wraps the GitHub REST client behind PlatformAPI
type GitHubService struct {
	client *github.Client
}

func NewGitHubService(token string) *GitHubService {
	var httpClient *http.Client
	if token != "" {
		httpClient = oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		))
	}

	return &GitHubService{
		client: github.NewClient(httpClient),
	}
}

// NewGitHubServiceFromConfig builds the client from the configured bot token
func NewGitHubServiceFromConfig() *GitHubService {
	return NewGitHubService(config.AppConfig.GitHub.Token)
}

// CreateStatus creates or replaces the commit status for the given SHA.
// Statuses are keyed by context name on the platform side, so re-posting
// under the same name updates in place rather than duplicating.
func (s *GitHubService) CreateStatus(ctx context.Context, owner, repo, sha string, status *github.RepoStatus) error {
	_, _, err := s.client.Repositories.CreateStatus(ctx, owner, repo, sha, status)
	if err != nil {
		return platformErr(err)
	}
	return nil
}

// ListComments lists the issue comments on a pull request
func (s *GitHubService) ListComments(ctx context.Context, owner, repo string, number int) ([]*github.IssueComment, error) {
	comments, _, err := s.client.Issues.ListComments(ctx, owner, repo, number, nil)
	if err != nil {
		return nil, platformErr(err)
	}
	return comments, nil
}

// CreateComment posts an issue comment on a pull request
func (s *GitHubService) CreateComment(ctx context.Context, owner, repo string, number int, body string) error {
	_, _, err := s.client.Issues.CreateComment(ctx, owner, repo, number, &github.IssueComment{
		Body: github.String(body),
	})
	if err != nil {
		return platformErr(err)
	}
	return nil
}

// platformErr folds transport failures and timeouts into the retryable
// sentinel while keeping the cause in the chain
func platformErr(err error) error {
	return errors.Join(ErrPlatformUnavailable, err)
}
