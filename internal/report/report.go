package report

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"sort"
	"strings"

	"github.com/petr-muller/standup/internal/activity"
	"github.com/petr-muller/standup/internal/notes"
)

// Entry is one day of the report. A day is either a structured activity
// record fetched from GitHub or a raw legacy note; the set of
// implementations is closed.
type Entry interface {
	Date() string
	isEntry()
}

// NoteEntry is a day covered by a legacy note
type NoteEntry struct {
	Day  string
	Text string
}

// Date returns the day key of the note
func (e NoteEntry) Date() string { return e.Day }

func (e NoteEntry) isEntry() {}

// ActivityEntry is a day covered by fetched activity
type ActivityEntry struct {
	Bucket activity.DayBucket
}

// Date returns the day key of the activity bucket
func (e ActivityEntry) Date() string { return e.Bucket.Date }

func (e ActivityEntry) isEntry() {}

// Merge combines activity buckets and legacy notes into one report, ordered
// by ascending date. When both sources cover the same day, the structured
// activity wins over the note.
func Merge(buckets []activity.DayBucket, legacy notes.Notes) []Entry {
	byDate := make(map[string]Entry)
	for day, text := range legacy.Days() {
		byDate[day] = NoteEntry{Day: day, Text: text}
	}
	for _, bucket := range buckets {
		byDate[bucket.Date] = ActivityEntry{Bucket: bucket}
	}

	days := make([]string, 0, len(byDate))
	for day := range byDate {
		days = append(days, day)
	}
	sort.Strings(days)

	entries := make([]Entry, 0, len(days))
	for _, day := range days {
		entries = append(entries, byDate[day])
	}
	return entries
}

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"shortSHA":  shortSHA,
	"firstLine": firstLine,
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2em auto; max-width: 50em; }
h2 { border-bottom: 1px solid #ccc; padding-bottom: 0.2em; }
pre { background: #f6f8fa; padding: 0.5em; white-space: pre-wrap; }
.empty { color: #888; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{range .Days}}<section>
<h2>{{.Date}}</h2>
{{if .IsNote}}<pre>{{.Note}}</pre>
{{else if .Empty}}<p class="empty">No recorded activity.</p>
{{else}}{{if .Issues}}<h3>Created</h3>
<ul>
{{range .Issues}}<li><a href="{{.URL}}">{{if .IsPullRequest}}PR{{else}}Issue{{end}} #{{.Number}}</a>: {{.Title}}</li>
{{end}}</ul>
{{end}}{{if .Reviews}}<h3>Reviewed</h3>
<ul>
{{range .Reviews}}<li><a href="{{.URL}}">{{.State}}</a> on <a href="{{.PullRequestURL}}">{{.PullRequestTitle}}</a></li>
{{end}}</ul>
{{end}}{{if .Comments}}<h3>Commented</h3>
<ul>
{{range .Comments}}<li><a href="{{.URL}}">{{.IssueTitle}}</a>: {{.Body}}</li>
{{end}}</ul>
{{end}}{{if .Commits}}<h3>Committed</h3>
<ul>
{{range .Commits}}<li><a href="{{.URL}}">{{shortSHA .SHA}}</a> {{firstLine .Message}} ({{.Repository}}){{if .PullRequests}}<ul>
{{range .PullRequests}}<li><a href="{{.URL}}">PR #{{.Number}}</a>: {{.Title}}</li>
{{end}}</ul>{{end}}</li>
{{end}}</ul>
{{end}}{{end}}</section>
{{end}}</body>
</html>
`))

type pageView struct {
	Title string
	Days  []dayView
}

type dayView struct {
	Date     string
	IsNote   bool
	Note     string
	Empty    bool
	Issues   []activity.Issue
	Reviews  []activity.Review
	Comments []activity.Comment
	Commits  []activity.Commit
}

// Render produces the HTML document for the given entries
func Render(title string, entries []Entry) ([]byte, error) {
	page := pageView{Title: title}
	for _, entry := range entries {
		switch e := entry.(type) {
		case NoteEntry:
			page.Days = append(page.Days, dayView{Date: e.Day, IsNote: true, Note: e.Text})
		case ActivityEntry:
			page.Days = append(page.Days, dayView{
				Date:     e.Bucket.Date,
				Empty:    e.Bucket.Empty(),
				Issues:   e.Bucket.Issues,
				Reviews:  e.Bucket.Reviews,
				Comments: e.Bucket.Comments,
				Commits:  e.Bucket.Commits,
			})
		default:
			return nil, fmt.Errorf("unexpected report entry type %T", entry)
		}
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, page); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteHTML renders the entries and writes the document to path. The
// document is rendered fully in memory first so a failure never leaves a
// partial file behind.
func WriteHTML(path, title string, entries []Entry) error {
	document, err := Render(title, entries)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, document, 0644); err != nil {
		return fmt.Errorf("failed to write report to %s: %w", path, err)
	}
	return nil
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}

func firstLine(message string) string {
	if i := strings.IndexByte(message, '\n'); i >= 0 {
		return message[:i]
	}
	return message
}
