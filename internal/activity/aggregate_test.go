package activity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/petr-muller/standup/internal/github"
	"github.com/petr-muller/standup/internal/sequence"
)

type fakeAPI struct {
	mu sync.Mutex

	login string

	issueResults [][]github.SearchIssue
	issueQueries []string

	commitResults [][]github.SearchCommit
	commitQueries []string

	searchErr error

	comments    map[string][]github.IssueComment
	commentErrs map[string]error

	timelines     map[string][]github.TimelineEvent
	timelineErrs  map[string]error
	timelineCalls []string

	pulls    map[string][]github.PullRequest
	pullErrs map[string]error
}

func (f *fakeAPI) AuthenticatedLogin(_ context.Context) (string, error) {
	return f.login, nil
}

func (f *fakeAPI) SearchIssues(_ context.Context, query string) ([]github.SearchIssue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issueQueries = append(f.issueQueries, query)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if len(f.issueResults) == 0 {
		return nil, nil
	}
	items := f.issueResults[0]
	f.issueResults = f.issueResults[1:]
	return items, nil
}

func (f *fakeAPI) SearchCommits(_ context.Context, query string) ([]github.SearchCommit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commitQueries = append(f.commitQueries, query)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if len(f.commitResults) == 0 {
		return nil, nil
	}
	items := f.commitResults[0]
	f.commitResults = f.commitResults[1:]
	return items, nil
}

func (f *fakeAPI) ListIssueComments(_ context.Context, commentsURL string) ([]github.IssueComment, error) {
	if err := f.commentErrs[commentsURL]; err != nil {
		return nil, err
	}
	return f.comments[commentsURL], nil
}

func (f *fakeAPI) ListIssueTimeline(_ context.Context, repositoryURL string, number int) ([]github.TimelineEvent, error) {
	key := fmt.Sprintf("%s#%d", repositoryURL, number)
	f.mu.Lock()
	f.timelineCalls = append(f.timelineCalls, key)
	f.mu.Unlock()
	if err := f.timelineErrs[key]; err != nil {
		return nil, err
	}
	return f.timelines[key], nil
}

func (f *fakeAPI) PullRequestsForCommit(_ context.Context, repository, sha string) ([]github.PullRequest, error) {
	key := fmt.Sprintf("%s@%s", repository, sha)
	if err := f.pullErrs[key]; err != nil {
		return nil, err
	}
	return f.pulls[key], nil
}

func newTestAggregator(client API) *Aggregator {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return New(client, sequence.NewThrottle(0), logrus.NewEntry(logger))
}

func TestCollectBuildsDailyBuckets(t *testing.T) {
	window := mustWindow(t, "UTC", "2021-06-01", "2021-06-04")
	isPull := &github.PullRequestLink{URL: "https://api.github.com/repos/acme/widgets/pulls/12"}
	fake := &fakeAPI{
		login: "monalisa",
		issueResults: [][]github.SearchIssue{
			{
				{
					Number:    11,
					Title:     "Gadget falls over on restart",
					HTMLURL:   "https://github.com/acme/widgets/issues/11",
					CreatedAt: time.Date(2021, 6, 1, 10, 0, 0, 0, time.UTC),
					User:      github.Actor{Login: "monalisa"},
				},
				{
					Number:      12,
					Title:       "Speed up frobnicator",
					HTMLURL:     "https://github.com/acme/widgets/pull/12",
					CreatedAt:   time.Date(2021, 6, 2, 9, 0, 0, 0, time.UTC),
					User:        github.Actor{Login: "monalisa"},
					PullRequest: isPull,
				},
			},
			{
				{
					Number:        7,
					Title:         "Add frobnicator",
					HTMLURL:       "https://github.com/acme/widgets/pull/7",
					RepositoryURL: "https://api.github.com/repos/acme/widgets",
					User:          github.Actor{Login: "octocat"},
				},
				{
					Number:        12,
					Title:         "Speed up frobnicator",
					HTMLURL:       "https://github.com/acme/widgets/pull/12",
					RepositoryURL: "https://api.github.com/repos/acme/widgets",
					User:          github.Actor{Login: "monalisa"},
				},
			},
			{
				{
					Number:      20,
					Title:       "Gadget leaks memory",
					HTMLURL:     "https://github.com/acme/widgets/issues/20",
					CommentsURL: "https://api.github.com/repos/acme/widgets/issues/20/comments",
					User:        github.Actor{Login: "octocat"},
				},
			},
		},
		commitResults: [][]github.SearchCommit{
			{
				{
					SHA:     "abc123",
					HTMLURL: "https://github.com/acme/widgets/commit/abc123",
					Commit: github.CommitDetail{
						Message: "Teach gadget to frobnicate",
						Author:  github.CommitAuthor{Date: time.Date(2021, 6, 3, 12, 0, 0, 0, time.UTC)},
					},
					Repository: github.CommitRepository{FullName: "acme/widgets"},
				},
				{
					SHA:     "def456",
					HTMLURL: "https://github.com/acme/widgets/commit/def456",
					Commit: github.CommitDetail{
						Message: "Bump dependencies",
						Author:  github.CommitAuthor{Date: time.Date(2021, 6, 3, 13, 0, 0, 0, time.UTC)},
					},
					Repository: github.CommitRepository{FullName: "acme/widgets"},
				},
			},
		},
		timelines: map[string][]github.TimelineEvent{
			"https://api.github.com/repos/acme/widgets#7": {
				{Event: "labeled", User: github.Actor{Login: "octocat"}},
				{
					Event:       "reviewed",
					User:        github.Actor{Login: "monalisa"},
					State:       "approved",
					HTMLURL:     "https://github.com/acme/widgets/pull/7#pullrequestreview-1001",
					SubmittedAt: time.Date(2021, 6, 2, 15, 0, 0, 0, time.UTC),
				},
				{
					Event:       "reviewed",
					User:        github.Actor{Login: "hubot"},
					State:       "commented",
					HTMLURL:     "https://github.com/acme/widgets/pull/7#pullrequestreview-1002",
					SubmittedAt: time.Date(2021, 6, 2, 16, 0, 0, 0, time.UTC),
				},
			},
		},
		comments: map[string][]github.IssueComment{
			"https://api.github.com/repos/acme/widgets/issues/20/comments": {
				{
					HTMLURL:   "https://github.com/acme/widgets/issues/20#issuecomment-1",
					Body:      "Reproduced on main",
					CreatedAt: time.Date(2021, 6, 4, 8, 0, 0, 0, time.UTC),
					User:      github.Actor{Login: "monalisa"},
				},
				{
					HTMLURL:   "https://github.com/acme/widgets/issues/20#issuecomment-2",
					Body:      "Cannot reproduce",
					CreatedAt: time.Date(2021, 6, 4, 9, 0, 0, 0, time.UTC),
					User:      github.Actor{Login: "octocat"},
				},
			},
		},
		pulls: map[string][]github.PullRequest{
			"acme/widgets@abc123": {
				{Number: 12, Title: "Speed up frobnicator", HTMLURL: "https://github.com/acme/widgets/pull/12", User: github.Actor{Login: "monalisa"}},
				{Number: 5, Title: "Track frobnication work", HTMLURL: "https://github.com/acme/widgets/pull/5", User: github.Actor{Login: "octocat"}},
			},
			"acme/widgets@def456": {
				{Number: 5, Title: "Track frobnication work", HTMLURL: "https://github.com/acme/widgets/pull/5", User: github.Actor{Login: "octocat"}},
			},
		},
	}

	buckets, err := newTestAggregator(fake).Collect(context.Background(), window)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	expectedIssueQueries := []string{
		"author:monalisa created:2021-06-01T00:00:00+00:00..2021-06-04T23:59:59+00:00",
		"is:pr reviewed-by:monalisa created:2021-06-01T00:00:00+00:00..2021-06-04T23:59:59+00:00",
		"commenter:monalisa updated:2021-06-01T00:00:00+00:00..2021-06-04T23:59:59+00:00",
	}
	if !reflect.DeepEqual(fake.issueQueries, expectedIssueQueries) {
		t.Errorf("expected issue queries %v, got %v", expectedIssueQueries, fake.issueQueries)
	}
	expectedCommitQueries := []string{
		"author:monalisa author-date:2021-06-01T00:00:00+00:00..2021-06-04T23:59:59+00:00",
	}
	if !reflect.DeepEqual(fake.commitQueries, expectedCommitQueries) {
		t.Errorf("expected commit queries %v, got %v", expectedCommitQueries, fake.commitQueries)
	}
	expectedTimelineCalls := []string{"https://api.github.com/repos/acme/widgets#7"}
	if !reflect.DeepEqual(fake.timelineCalls, expectedTimelineCalls) {
		t.Errorf("expected timelines fetched only for pull requests by others, got %v", fake.timelineCalls)
	}

	expected := []DayBucket{
		{
			Date: "2021-06-01",
			Issues: []Issue{
				{
					Number:    11,
					Title:     "Gadget falls over on restart",
					URL:       "https://github.com/acme/widgets/issues/11",
					CreatedAt: time.Date(2021, 6, 1, 10, 0, 0, 0, time.UTC),
				},
			},
		},
		{
			Date: "2021-06-02",
			Issues: []Issue{
				{
					Number:        12,
					Title:         "Speed up frobnicator",
					URL:           "https://github.com/acme/widgets/pull/12",
					CreatedAt:     time.Date(2021, 6, 2, 9, 0, 0, 0, time.UTC),
					IsPullRequest: true,
				},
			},
			Reviews: []Review{
				{
					URL:              "https://github.com/acme/widgets/pull/7#pullrequestreview-1001",
					State:            "approved",
					SubmittedAt:      time.Date(2021, 6, 2, 15, 0, 0, 0, time.UTC),
					PullRequestURL:   "https://github.com/acme/widgets/pull/7",
					PullRequestTitle: "Add frobnicator",
				},
			},
		},
		{
			Date: "2021-06-03",
			Commits: []Commit{
				{
					SHA:        "abc123",
					Repository: "acme/widgets",
					Message:    "Teach gadget to frobnicate",
					URL:        "https://github.com/acme/widgets/commit/abc123",
					AuthoredAt: time.Date(2021, 6, 3, 12, 0, 0, 0, time.UTC),
					PullRequests: []CommitPullRequest{
						{Number: 12, Title: "Speed up frobnicator", URL: "https://github.com/acme/widgets/pull/12", Author: "monalisa"},
					},
				},
			},
		},
		{
			Date: "2021-06-04",
			Comments: []Comment{
				{
					URL:        "https://github.com/acme/widgets/issues/20#issuecomment-1",
					IssueTitle: "Gadget leaks memory",
					Body:       "Reproduced on main",
					Author:     "monalisa",
					CreatedAt:  time.Date(2021, 6, 4, 8, 0, 0, 0, time.UTC),
				},
			},
		},
	}
	if !reflect.DeepEqual(buckets, expected) {
		t.Errorf("expected buckets:\n%+v\ngot:\n%+v", expected, buckets)
	}
}

func TestCollectFailsOnReviewWithoutPullRequest(t *testing.T) {
	window := mustWindow(t, "UTC", "2021-06-01", "2021-06-04")
	fake := &fakeAPI{
		login: "monalisa",
		issueResults: [][]github.SearchIssue{
			nil,
			{
				{
					Number:        7,
					Title:         "Add frobnicator",
					HTMLURL:       "https://github.com/acme/widgets/pull/7",
					RepositoryURL: "https://api.github.com/repos/acme/widgets",
					User:          github.Actor{Login: "octocat"},
				},
			},
			nil,
		},
		timelines: map[string][]github.TimelineEvent{
			"https://api.github.com/repos/acme/widgets#7": {
				{
					Event:       "reviewed",
					User:        github.Actor{Login: "monalisa"},
					State:       "approved",
					HTMLURL:     "https://github.com/acme/widgets/pull/9999#pullrequestreview-1001",
					SubmittedAt: time.Date(2021, 6, 2, 15, 0, 0, 0, time.UTC),
				},
			},
		},
	}

	_, err := newTestAggregator(fake).Collect(context.Background(), window)
	if !errors.Is(err, ErrReviewWithoutPullRequest) {
		t.Errorf("expected ErrReviewWithoutPullRequest, got %v", err)
	}
}

func TestCollectToleratesAbandonedEnrichment(t *testing.T) {
	window := mustWindow(t, "UTC", "2021-06-01", "2021-06-04")
	fake := &fakeAPI{
		login: "monalisa",
		issueResults: [][]github.SearchIssue{
			{
				{
					Number:    11,
					Title:     "Gadget falls over on restart",
					HTMLURL:   "https://github.com/acme/widgets/issues/11",
					CreatedAt: time.Date(2021, 6, 1, 10, 0, 0, 0, time.UTC),
					User:      github.Actor{Login: "monalisa"},
				},
			},
			{
				{
					Number:        7,
					Title:         "Add frobnicator",
					HTMLURL:       "https://github.com/acme/widgets/pull/7",
					RepositoryURL: "https://api.github.com/repos/acme/widgets",
					User:          github.Actor{Login: "octocat"},
				},
			},
			{
				{
					Number:      20,
					Title:       "Gadget leaks memory",
					HTMLURL:     "https://github.com/acme/widgets/issues/20",
					CommentsURL: "https://api.github.com/repos/acme/widgets/issues/20/comments",
					User:        github.Actor{Login: "octocat"},
				},
			},
		},
		commitResults: [][]github.SearchCommit{
			{
				{
					SHA:     "abc123",
					HTMLURL: "https://github.com/acme/widgets/commit/abc123",
					Commit: github.CommitDetail{
						Message: "Teach gadget to frobnicate",
						Author:  github.CommitAuthor{Date: time.Date(2021, 6, 3, 12, 0, 0, 0, time.UTC)},
					},
					Repository: github.CommitRepository{FullName: "acme/widgets"},
				},
			},
		},
		commentErrs: map[string]error{
			"https://api.github.com/repos/acme/widgets/issues/20/comments": github.ErrAbandoned,
		},
		timelineErrs: map[string]error{
			"https://api.github.com/repos/acme/widgets#7": github.ErrAbandoned,
		},
		pullErrs: map[string]error{
			"acme/widgets@abc123": github.ErrAbandoned,
		},
	}

	buckets, err := newTestAggregator(fake).Collect(context.Background(), window)
	if err != nil {
		t.Fatalf("expected abandoned enrichment to be tolerated, got %v", err)
	}

	if len(buckets[0].Issues) != 1 {
		t.Errorf("expected the created issue to survive, got %+v", buckets[0].Issues)
	}
	for i, bucket := range buckets {
		if len(bucket.Reviews) != 0 || len(bucket.Comments) != 0 || len(bucket.Commits) != 0 {
			t.Errorf("bucket %d: expected abandoned enrichment to leave no records, got %+v", i, bucket)
		}
	}
}

func TestCollectPropagatesSearchErrors(t *testing.T) {
	window := mustWindow(t, "UTC", "2021-06-01", "2021-06-04")
	fake := &fakeAPI{login: "monalisa", searchErr: errors.New("boom")}

	_, err := newTestAggregator(fake).Collect(context.Background(), window)
	if err == nil || !strings.Contains(err.Error(), "failed to search for activity") {
		t.Errorf("expected a search failure, got %v", err)
	}
}

func TestStripFragment(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{
			name:     "review fragment is removed",
			url:      "https://github.com/acme/widgets/pull/7#pullrequestreview-1001",
			expected: "https://github.com/acme/widgets/pull/7",
		},
		{
			name:     "url without fragment is unchanged",
			url:      "https://github.com/acme/widgets/pull/7",
			expected: "https://github.com/acme/widgets/pull/7",
		},
		{
			name:     "empty url is unchanged",
			url:      "",
			expected: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripFragment(tt.url); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}
