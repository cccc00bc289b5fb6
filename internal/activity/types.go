package activity

import (
	"time"
)

// Issue is an issue or pull request the user created
type Issue struct {
	Number        int
	Title         string
	URL           string
	CreatedAt     time.Time
	IsPullRequest bool
}

// Review is one review the user submitted, joined with the pull request it
// reviews. The join is resolved during aggregation; a Review without a
// resolved parent never exists.
type Review struct {
	URL              string
	State            string
	SubmittedAt      time.Time
	PullRequestURL   string
	PullRequestTitle string
}

// Comment is one comment the user wrote on an issue or pull request
type Comment struct {
	URL        string
	IssueTitle string
	Body       string
	Author     string
	CreatedAt  time.Time
}

// CommitPullRequest is a pull request associated with a commit. Only pull
// requests authored by the user survive aggregation.
type CommitPullRequest struct {
	Number int
	Title  string
	URL    string
	Author string
}

// Commit is one commit the user authored. A commit survives only with at
// least one associated pull request authored by the user.
type Commit struct {
	SHA          string
	Repository   string
	Message      string
	URL          string
	AuthoredAt   time.Time
	PullRequests []CommitPullRequest
}

// DayBucket holds everything the user did on one calendar day
type DayBucket struct {
	Date     string
	Issues   []Issue
	Reviews  []Review
	Comments []Comment
	Commits  []Commit
}

// Empty reports whether the day has no recorded activity
func (b DayBucket) Empty() bool {
	return len(b.Issues) == 0 && len(b.Reviews) == 0 && len(b.Comments) == 0 && len(b.Commits) == 0
}
