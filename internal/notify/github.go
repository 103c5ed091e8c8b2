package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// GitHub tracks update notices as issues in a configured repository. Issues
// are keyed by package name, so a newer update edits the existing issue
// thread instead of opening a duplicate.
type GitHub struct {
	client  *github.Client
	owner   string
	repo    string
	timeout time.Duration
}

// NewGitHub builds a provider authenticated with a static token.
func NewGitHub(token, owner, repo string, timeout time.Duration) *GitHub {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(context.Background(), ts)
	return newGitHubWithClient(github.NewClient(tc), owner, repo, timeout)
}

// newGitHubWithClient is the seam used by tests to point the provider at a
// local httptest server.
func newGitHubWithClient(client *github.Client, owner, repo string, timeout time.Duration) *GitHub {
	return &GitHub{client: client, owner: owner, repo: repo, timeout: timeout}
}

func (g *GitHub) Name() string { return "GitHub" }

func (g *GitHub) Notify(ctx context.Context, n Notification) bool {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	err := g.upsertIssue(ctx, n)
	return reportSend(g.Name(), n, err)
}

// issueTitle keys the issue by package name only, so repeated notifications
// for the same package land in one thread.
func issueTitle(pkg string) string {
	return fmt.Sprintf("Update available: %s", pkg)
}

func (g *GitHub) upsertIssue(ctx context.Context, n Notification) error {
	title := issueTitle(n.Package)
	body := fmt.Sprintf("%s\n\n| | |\n|---|---|\n| Package | %s |\n| Current version | %s |\n| New version | %s |\n\n_Updated %s_",
		n.Message, n.Package, n.CurrentVersion, n.NewVersion, n.Timestamp.UTC().Format(time.RFC3339))

	existing, err := g.findIssue(ctx, title)
	if err != nil {
		return err
	}
	if existing != nil {
		req := &github.IssueRequest{Body: github.String(body)}
		if existing.GetState() == "closed" {
			req.State = github.String("open")
		}
		_, _, err = g.client.Issues.Edit(ctx, g.owner, g.repo, existing.GetNumber(), req)
		if err != nil {
			return fmt.Errorf("failed to update issue #%d: %w", existing.GetNumber(), err)
		}
		return nil
	}

	_, _, err = g.client.Issues.Create(ctx, g.owner, g.repo, &github.IssueRequest{
		Title:  github.String(title),
		Body:   github.String(body),
		Labels: &[]string{"update"},
	})
	if err != nil {
		return fmt.Errorf("failed to create issue: %w", err)
	}
	return nil
}

func (g *GitHub) findIssue(ctx context.Context, title string) (*github.Issue, error) {
	opts := &github.IssueListByRepoOptions{
		State:       "all",
		Labels:      []string{"update"},
		ListOptions: github.ListOptions{PerPage: 100},
	}
	for {
		issues, resp, err := g.client.Issues.ListByRepo(ctx, g.owner, g.repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list issues: %w", err)
		}
		for _, issue := range issues {
			if issue.IsPullRequest() {
				continue
			}
			if issue.GetTitle() == title {
				return issue, nil
			}
		}
		if resp.NextPage == 0 {
			return nil, nil
		}
		opts.Page = resp.NextPage
	}
}
