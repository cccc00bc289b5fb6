package activity

import (
	"time"

	"github.com/petr-muller/standup/internal/calendar"
)

// BuildBuckets assigns each record to the calendar day its timestamp falls
// on in the window's zone. The result has exactly one bucket per day of the
// window, in ascending order, days without activity included. Records whose
// timestamps fall outside the window are dropped. Within a bucket, records
// keep the order they arrived in.
func BuildBuckets(window calendar.Window, issues []Issue, reviews []Review, comments []Comment, commits []Commit) []DayBucket {
	days := window.Days()
	buckets := make([]DayBucket, len(days))
	index := make(map[string]int, len(days))
	for i, day := range days {
		buckets[i] = DayBucket{Date: day}
		index[day] = i
	}

	for _, issue := range issues {
		if i, ok := index[dayKey(issue.CreatedAt, window.Location)]; ok {
			buckets[i].Issues = append(buckets[i].Issues, issue)
		}
	}
	for _, review := range reviews {
		if i, ok := index[dayKey(review.SubmittedAt, window.Location)]; ok {
			buckets[i].Reviews = append(buckets[i].Reviews, review)
		}
	}
	for _, comment := range comments {
		if i, ok := index[dayKey(comment.CreatedAt, window.Location)]; ok {
			buckets[i].Comments = append(buckets[i].Comments, comment)
		}
	}
	for _, commit := range commits {
		if i, ok := index[dayKey(commit.AuthoredAt, window.Location)]; ok {
			buckets[i].Commits = append(buckets[i].Commits, commit)
		}
	}

	return buckets
}

func dayKey(timestamp time.Time, location *time.Location) string {
	return timestamp.In(location).Format(calendar.DayKeyFormat)
}
