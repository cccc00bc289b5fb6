package github

import (
	"time"
)

// Actor identifies a GitHub user in API payloads
type Actor struct {
	Login string `json:"login"`
}

// PullRequestLink marks a search item as a pull request
type PullRequestLink struct {
	URL string `json:"url"`
}

// SearchIssue is one item of a search/issues result page. The search API
// returns issues and pull requests in the same shape; pull requests carry a
// pull_request stub.
type SearchIssue struct {
	Number        int              `json:"number"`
	Title         string           `json:"title"`
	HTMLURL       string           `json:"html_url"`
	CommentsURL   string           `json:"comments_url"`
	RepositoryURL string           `json:"repository_url"`
	CreatedAt     time.Time        `json:"created_at"`
	User          Actor            `json:"user"`
	PullRequest   *PullRequestLink `json:"pull_request,omitempty"`
}

// IsPullRequest reports whether the search item is a pull request
func (i SearchIssue) IsPullRequest() bool {
	return i.PullRequest != nil
}

// SearchCommit is one item of a search/commits result page
type SearchCommit struct {
	SHA        string           `json:"sha"`
	HTMLURL    string           `json:"html_url"`
	Commit     CommitDetail     `json:"commit"`
	Repository CommitRepository `json:"repository"`
}

// CommitDetail carries the commit message and author timestamp
type CommitDetail struct {
	Message string       `json:"message"`
	Author  CommitAuthor `json:"author"`
}

// CommitAuthor carries the author-date of a commit
type CommitAuthor struct {
	Date time.Time `json:"date"`
}

// CommitRepository names the repository a found commit lives in
type CommitRepository struct {
	FullName string `json:"full_name"`
}

// IssueComment is one comment on an issue or pull request
type IssueComment struct {
	ID        int64     `json:"id"`
	HTMLURL   string    `json:"html_url"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	User      Actor     `json:"user"`
}

// TimelineEvent is one event of an issue or pull request timeline. Only
// "reviewed" events carry the user, state, submission time and review URL.
type TimelineEvent struct {
	Event       string    `json:"event"`
	User        Actor     `json:"user"`
	State       string    `json:"state"`
	HTMLURL     string    `json:"html_url"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// PullRequest is a pull request as returned by the commit association
// endpoint
type PullRequest struct {
	Number  int    `json:"number"`
	Title   string `json:"title"`
	HTMLURL string `json:"html_url"`
	User    Actor  `json:"user"`
}
