package activity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/petr-muller/standup/internal/calendar"
	"github.com/petr-muller/standup/internal/github"
	"github.com/petr-muller/standup/internal/sequence"
)

// ErrReviewWithoutPullRequest means a review event could not be matched to
// any pull request fetched by the review search. The two come from the same
// window, so a miss indicates inconsistent remote data.
var ErrReviewWithoutPullRequest = errors.New("review does not match any fetched pull request")

// API is the view of the GitHub client the aggregator needs
type API interface {
	AuthenticatedLogin(ctx context.Context) (string, error)
	SearchIssues(ctx context.Context, query string) ([]github.SearchIssue, error)
	SearchCommits(ctx context.Context, query string) ([]github.SearchCommit, error)
	ListIssueComments(ctx context.Context, commentsURL string) ([]github.IssueComment, error)
	ListIssueTimeline(ctx context.Context, repositoryURL string, number int) ([]github.TimelineEvent, error)
	PullRequestsForCommit(ctx context.Context, repository, sha string) ([]github.PullRequest, error)
}

// Aggregator collects one user's GitHub activity over a calendar window
type Aggregator struct {
	client   API
	throttle *sequence.Throttle
	logger   *logrus.Entry
}

// New creates an Aggregator talking to GitHub through the given client. The
// throttle paces the search queries and is shared with the client so remote
// backpressure slows the whole pipeline down.
func New(client API, throttle *sequence.Throttle, logger *logrus.Entry) *Aggregator {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Aggregator{client: client, throttle: throttle, logger: logger}
}

// Collect fetches everything the authenticated user did in the window and
// buckets it per calendar day. Search queries run sequenced through the
// throttle; per-item enrichment fans out concurrently afterwards.
func (a *Aggregator) Collect(ctx context.Context, window calendar.Window) ([]DayBucket, error) {
	login, err := a.client.AuthenticatedLogin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to determine authenticated user: %w", err)
	}
	a.logger.WithField("user", login).Info("Collecting activity")

	var created, reviewedPulls, commentedOn []github.SearchIssue
	var commitItems []github.SearchCommit
	err = sequence.Run(ctx, a.throttle,
		func(ctx context.Context) error {
			var err error
			created, err = a.client.SearchIssues(ctx, fmt.Sprintf("author:%s created:%s..%s", login, window.Start, window.End))
			return err
		},
		func(ctx context.Context) error {
			var err error
			reviewedPulls, err = a.client.SearchIssues(ctx, fmt.Sprintf("is:pr reviewed-by:%s created:%s..%s", login, window.Start, window.End))
			return err
		},
		func(ctx context.Context) error {
			var err error
			commentedOn, err = a.client.SearchIssues(ctx, fmt.Sprintf("commenter:%s updated:%s..%s", login, window.Start, window.End))
			return err
		},
		func(ctx context.Context) error {
			var err error
			commitItems, err = a.client.SearchCommits(ctx, fmt.Sprintf("author:%s author-date:%s..%s", login, window.Start, window.End))
			return err
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search for activity: %w", err)
	}
	a.logger.WithFields(logrus.Fields{
		"created":   len(created),
		"reviewed":  len(reviewedPulls),
		"commented": len(commentedOn),
		"commits":   len(commitItems),
	}).Info("Fetched activity, enriching items")

	reviews, comments, commits, err := a.enrich(ctx, login, reviewedPulls, commentedOn, commitItems)
	if err != nil {
		return nil, err
	}

	return BuildBuckets(window, convertIssues(created), reviews, comments, commits), nil
}

// enrich resolves the per-item details the searches do not carry: the user's
// comments on each commented item, the user's reviews on each reviewed pull
// request, and the pull requests associated with each commit. Items whose
// enrichment the rate limiter abandoned are dropped with a warning.
func (a *Aggregator) enrich(ctx context.Context, login string, reviewedPulls, commentedOn []github.SearchIssue, commitItems []github.SearchCommit) ([]Review, []Comment, []Commit, error) {
	pullsByURL := make(map[string]github.SearchIssue, len(reviewedPulls))
	for _, pull := range reviewedPulls {
		pullsByURL[pull.HTMLURL] = pull
	}

	commentsPerItem := make([][]Comment, len(commentedOn))
	reviewsPerPull := make([][]Review, len(reviewedPulls))
	commitPerItem := make([]*Commit, len(commitItems))

	group, groupCtx := errgroup.WithContext(ctx)

	for i, item := range commentedOn {
		group.Go(func() error {
			fetched, err := a.client.ListIssueComments(groupCtx, item.CommentsURL)
			if errors.Is(err, github.ErrAbandoned) {
				a.logger.WithField("item", item.HTMLURL).Warning("Abandoned fetching comments, the report will not include them")
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to fetch comments on %s: %w", item.HTMLURL, err)
			}
			var kept []Comment
			for _, comment := range fetched {
				if comment.User.Login != login {
					continue
				}
				kept = append(kept, Comment{
					URL:        comment.HTMLURL,
					IssueTitle: item.Title,
					Body:       comment.Body,
					Author:     comment.User.Login,
					CreatedAt:  comment.CreatedAt,
				})
			}
			commentsPerItem[i] = kept
			return nil
		})
	}

	for i, pull := range reviewedPulls {
		if pull.User.Login == login {
			continue
		}
		group.Go(func() error {
			events, err := a.client.ListIssueTimeline(groupCtx, pull.RepositoryURL, pull.Number)
			if errors.Is(err, github.ErrAbandoned) {
				a.logger.WithField("pull", pull.HTMLURL).Warning("Abandoned fetching timeline, the report will not include its reviews")
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to fetch timeline of %s: %w", pull.HTMLURL, err)
			}
			var kept []Review
			for _, event := range events {
				if event.Event != "reviewed" || event.User.Login != login {
					continue
				}
				parent, ok := pullsByURL[stripFragment(event.HTMLURL)]
				if !ok {
					return fmt.Errorf("review %s: %w", event.HTMLURL, ErrReviewWithoutPullRequest)
				}
				kept = append(kept, Review{
					URL:              event.HTMLURL,
					State:            event.State,
					SubmittedAt:      event.SubmittedAt,
					PullRequestURL:   parent.HTMLURL,
					PullRequestTitle: parent.Title,
				})
			}
			reviewsPerPull[i] = kept
			return nil
		})
	}

	for i, item := range commitItems {
		group.Go(func() error {
			pulls, err := a.client.PullRequestsForCommit(groupCtx, item.Repository.FullName, item.SHA)
			if errors.Is(err, github.ErrAbandoned) {
				a.logger.WithField("commit", item.HTMLURL).Warning("Abandoned fetching pull requests for commit, the report will not include it")
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to fetch pull requests for commit %s: %w", item.SHA, err)
			}
			var kept []CommitPullRequest
			for _, pull := range pulls {
				if pull.User.Login != login {
					continue
				}
				kept = append(kept, CommitPullRequest{
					Number: pull.Number,
					Title:  pull.Title,
					URL:    pull.HTMLURL,
					Author: pull.User.Login,
				})
			}
			if len(kept) == 0 {
				return nil
			}
			commitPerItem[i] = &Commit{
				SHA:          item.SHA,
				Repository:   item.Repository.FullName,
				Message:      item.Commit.Message,
				URL:          item.HTMLURL,
				AuthoredAt:   item.Commit.Author.Date,
				PullRequests: kept,
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, nil, nil, err
	}

	var comments []Comment
	for _, kept := range commentsPerItem {
		comments = append(comments, kept...)
	}
	var reviews []Review
	for _, kept := range reviewsPerPull {
		reviews = append(reviews, kept...)
	}
	var commits []Commit
	for _, commit := range commitPerItem {
		if commit != nil {
			commits = append(commits, *commit)
		}
	}
	return reviews, comments, commits, nil
}

func convertIssues(items []github.SearchIssue) []Issue {
	var issues []Issue
	for _, item := range items {
		issues = append(issues, Issue{
			Number:        item.Number,
			Title:         item.Title,
			URL:           item.HTMLURL,
			CreatedAt:     item.CreatedAt,
			IsPullRequest: item.IsPullRequest(),
		})
	}
	return issues
}

// stripFragment cuts the #fragment off an URL. Review events link to their
// pull request with a #pullrequestreview-<id> fragment appended.
func stripFragment(url string) string {
	if i := strings.Index(url, "#"); i >= 0 {
		return url[:i]
	}
	return url
}
