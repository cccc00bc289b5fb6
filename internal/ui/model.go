package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/petr-muller/standup/internal/report"
)

const maxTableRows = 15

// Model represents the TUI model for browsing a standup report
type Model struct {
	table   table.Model
	title   string
	entries []report.Entry
	width   int
	height  int
}

// NewModel creates a new TUI model over the merged report entries
func NewModel(title string, entries []report.Entry) Model {
	columns := []table.Column{
		{Title: "Date", Width: 10},
		{Title: "Source", Width: 8},
		{Title: "Created", Width: 7},
		{Title: "Reviewed", Width: 8},
		{Title: "Commented", Width: 9},
		{Title: "Commits", Width: 7},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(min(len(entries), maxTableRows)+1),
	)

	s := table.DefaultStyles()
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("230")).
		Background(lipgloss.Color("240")).
		Bold(true)
	t.SetStyles(s)

	m := Model{
		table:   t,
		title:   title,
		entries: entries,
	}
	m.table.SetRows(buildRows(entries))
	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the model
func (m Model) View() string {
	var s strings.Builder

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("205")).
		MarginBottom(1)
	s.WriteString(headerStyle.Render(m.title))
	s.WriteString("\n")

	s.WriteString(m.table.View())
	s.WriteString("\n")

	if len(m.entries) > maxTableRows {
		scrollStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
		s.WriteString(scrollStyle.Render(fmt.Sprintf("Showing %d of %d days - use arrow keys to scroll", maxTableRows, len(m.entries))))
		s.WriteString("\n")
	}

	cursor := m.table.Cursor()
	if cursor >= 0 && cursor < len(m.entries) {
		detailStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			MarginTop(1)
		s.WriteString(detailStyle.Render(strings.Join(detailLines(m.entries[cursor]), "\n")))
		s.WriteString("\n")
	}

	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		MarginTop(1)
	s.WriteString(helpStyle.Render("Press 'q' to quit, arrow keys to navigate"))

	return s.String()
}

// buildRows converts report entries to table rows
func buildRows(entries []report.Entry) []table.Row {
	var rows []table.Row
	for _, entry := range entries {
		switch e := entry.(type) {
		case report.NoteEntry:
			rows = append(rows, table.Row{e.Day, "note", "-", "-", "-", "-"})
		case report.ActivityEntry:
			rows = append(rows, table.Row{
				e.Bucket.Date,
				"github",
				strconv.Itoa(len(e.Bucket.Issues)),
				strconv.Itoa(len(e.Bucket.Reviews)),
				strconv.Itoa(len(e.Bucket.Comments)),
				strconv.Itoa(len(e.Bucket.Commits)),
			})
		}
	}
	return rows
}

// detailLines summarizes the selected day for the detail pane
func detailLines(entry report.Entry) []string {
	switch e := entry.(type) {
	case report.NoteEntry:
		if e.Text == "" {
			return []string{"(empty note)"}
		}
		return strings.Split(e.Text, "\n")
	case report.ActivityEntry:
		if e.Bucket.Empty() {
			return []string{"No recorded activity."}
		}
		var lines []string
		for _, issue := range e.Bucket.Issues {
			kind := "issue"
			if issue.IsPullRequest {
				kind = "PR"
			}
			lines = append(lines, fmt.Sprintf("created %s #%d: %s", kind, issue.Number, issue.Title))
		}
		for _, review := range e.Bucket.Reviews {
			lines = append(lines, fmt.Sprintf("reviewed (%s): %s", review.State, review.PullRequestTitle))
		}
		for _, comment := range e.Bucket.Comments {
			lines = append(lines, fmt.Sprintf("commented on %s: %s", comment.IssueTitle, firstLine(comment.Body)))
		}
		for _, commit := range e.Bucket.Commits {
			lines = append(lines, fmt.Sprintf("committed %s: %s", shortSHA(commit.SHA), firstLine(commit.Message)))
		}
		return lines
	}
	return nil
}

func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return text[:i]
	}
	return text
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
