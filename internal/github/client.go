package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/cli/go-gh/v2/pkg/api"
	"github.com/sirupsen/logrus"

	"github.com/petr-muller/standup/internal/sequence"
)

const (
	defaultTimeout = 30 * time.Second
	pageSize       = 100
)

// Options configures the GitHub client
type Options struct {
	// Token authenticates every request
	Token string
	// Host targets a GitHub instance, github.com when empty
	Host string
	// Timeout bounds a single request, not a whole retry cycle
	Timeout time.Duration
	// Throttle is the shared inter-request delay the retry layer adjusts.
	// Callers share it with the sequencer that paces their queries.
	Throttle *sequence.Throttle
	// Logger receives retry and backoff warnings
	Logger *logrus.Entry
	// Transport overrides the HTTP transport, used by tests
	Transport http.RoundTripper
}

// Client wraps the go-gh REST client with page-walking and the rate-limit
// retry layer
type Client struct {
	rest     *api.RESTClient
	throttle *sequence.Throttle
	logger   *logrus.Entry
}

// New creates a GitHub client for the given token
func New(opts Options) (*Client, error) {
	if opts.Token == "" {
		return nil, fmt.Errorf("a GitHub token is required")
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	rest, err := api.NewRESTClient(api.ClientOptions{
		AuthToken: opts.Token,
		Host:      opts.Host,
		Timeout:   timeout,
		Transport: opts.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub client: %w", err)
	}

	throttle := opts.Throttle
	if throttle == nil {
		throttle = sequence.NewThrottle(0)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	return &Client{
		rest:     rest,
		throttle: throttle,
		logger:   logger,
	}, nil
}

// AuthenticatedLogin returns the login of the user the token belongs to
func (c *Client) AuthenticatedLogin(ctx context.Context) (string, error) {
	var user struct {
		Login string `json:"login"`
	}
	err := c.withRetries(ctx, "get authenticated user", func(ctx context.Context) error {
		return c.rest.DoWithContext(ctx, http.MethodGet, "user", nil, &user)
	})
	if err != nil {
		return "", fmt.Errorf("failed to retrieve user information: %w", err)
	}
	return user.Login, nil
}

// SearchIssues runs an issue/PR search query and returns the items of all
// result pages, concatenated in API order
func (c *Client) SearchIssues(ctx context.Context, query string) ([]SearchIssue, error) {
	path := fmt.Sprintf("search/issues?q=%s&per_page=%d", url.QueryEscape(query), pageSize)
	issues, err := paginatedSearch[SearchIssue](ctx, c, path, "search issues")
	if err != nil {
		return nil, fmt.Errorf("failed to search issues: %w", err)
	}
	return issues, nil
}

// SearchCommits runs a commit search query and returns the items of all
// result pages, concatenated in API order
func (c *Client) SearchCommits(ctx context.Context, query string) ([]SearchCommit, error) {
	path := fmt.Sprintf("search/commits?q=%s&per_page=%d", url.QueryEscape(query), pageSize)
	commits, err := paginatedSearch[SearchCommit](ctx, c, path, "search commits")
	if err != nil {
		return nil, fmt.Errorf("failed to search commits: %w", err)
	}
	return commits, nil
}

// ListIssueComments fetches every comment of one issue or pull request via
// the comments URL its search item carries
func (c *Client) ListIssueComments(ctx context.Context, commentsURL string) ([]IssueComment, error) {
	comments, err := paginatedList[IssueComment](ctx, c, withPageSize(commentsURL), "list comments")
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

// ListIssueTimeline fetches the whole event timeline of one issue or pull
// request
func (c *Client) ListIssueTimeline(ctx context.Context, repositoryURL string, number int) ([]TimelineEvent, error) {
	path := fmt.Sprintf("%s/issues/%d/timeline?per_page=%d", repositoryURL, number, pageSize)
	events, err := paginatedList[TimelineEvent](ctx, c, path, "list timeline")
	if err != nil {
		return nil, fmt.Errorf("failed to list timeline of %s#%d: %w", repositoryURL, number, err)
	}
	return events, nil
}

// PullRequestsForCommit lists the pull requests associated with a commit
func (c *Client) PullRequestsForCommit(ctx context.Context, repository, sha string) ([]PullRequest, error) {
	path := fmt.Sprintf("repos/%s/commits/%s/pulls?per_page=%d", repository, sha, pageSize)
	pulls, err := paginatedList[PullRequest](ctx, c, path, "list pull requests for commit")
	if err != nil {
		return nil, fmt.Errorf("failed to list pull requests for %s@%s: %w", repository, sha, err)
	}
	return pulls, nil
}

// paginatedSearch walks every page of a search endpoint, concatenating the
// items of its result envelopes
func paginatedSearch[T any](ctx context.Context, c *Client, path, description string) ([]T, error) {
	var all []T
	next := path
	for next != "" {
		var page struct {
			TotalCount        int  `json:"total_count"`
			IncompleteResults bool `json:"incomplete_results"`
			Items             []T  `json:"items"`
		}
		nextURL, err := c.getPage(ctx, next, description, &page)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		next = nextURL
	}
	return all, nil
}

// paginatedList walks every page of a plain list endpoint
func paginatedList[T any](ctx context.Context, c *Client, path, description string) ([]T, error) {
	var all []T
	next := path
	for next != "" {
		var page []T
		nextURL, err := c.getPage(ctx, next, description, &page)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		next = nextURL
	}
	return all, nil
}

// getPage issues one GET through the retry layer, decodes the body into out
// and returns the URL of the next page, empty when this was the last one
func (c *Client) getPage(ctx context.Context, path, description string, out any) (string, error) {
	var next string
	err := c.withRetries(ctx, description, func(ctx context.Context) error {
		resp, err := c.rest.RequestWithContext(ctx, http.MethodGet, path, nil)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		next = findNextPage(resp.Header.Get("Link"))
		return json.NewDecoder(resp.Body).Decode(out)
	})
	if err != nil {
		return "", err
	}
	return next, nil
}

var linkNextRE = regexp.MustCompile(`<([^>]+)>;\s*rel="next"`)

// findNextPage extracts the rel="next" target from a Link header
func findNextPage(link string) string {
	if match := linkNextRE.FindStringSubmatch(link); match != nil {
		return match[1]
	}
	return ""
}

// withPageSize asks a prebuilt URL for full pages
func withPageSize(u string) string {
	if strings.Contains(u, "?") {
		return u + fmt.Sprintf("&per_page=%d", pageSize)
	}
	return u + fmt.Sprintf("?per_page=%d", pageSize)
}
