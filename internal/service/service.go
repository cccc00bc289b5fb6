package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/petr-muller/standup/internal/activity"
	"github.com/petr-muller/standup/internal/calendar"
	"github.com/petr-muller/standup/internal/notes"
	"github.com/petr-muller/standup/internal/report"
)

// Collector produces per-day activity buckets for a calendar window
type Collector interface {
	Collect(ctx context.Context, window calendar.Window) ([]activity.DayBucket, error)
}

// Service assembles standup reports from collected activity and legacy notes
type Service struct {
	collector Collector
	timezone  string
	logger    *logrus.Entry
}

// New creates a Service collecting activity in the given timezone
func New(collector Collector, timezone string, logger *logrus.Entry) *Service {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Service{collector: collector, timezone: timezone, logger: logger}
}

// Day builds the report for a single calendar day
func (s *Service) Day(ctx context.Context, date string) ([]report.Entry, error) {
	return s.Range(ctx, date, date)
}

// Range builds the report for an inclusive calendar day range
func (s *Service) Range(ctx context.Context, start, end string) ([]report.Entry, error) {
	window, err := calendar.SearchWindow(s.timezone, start, end)
	if err != nil {
		return nil, err
	}
	buckets, err := s.collector.Collect(ctx, window)
	if err != nil {
		return nil, err
	}
	return report.Merge(buckets, nil), nil
}

// Backfill parses a legacy notes dump and fetches activity only for the
// weekday gaps the notes leave uncovered, merging both sources into one
// report
func (s *Service) Backfill(ctx context.Context, notesPath string) ([]report.Entry, error) {
	parsed, err := notes.ParseFile(notesPath)
	if err != nil {
		return nil, err
	}
	if parsed.Empty() {
		s.logger.WithField("path", notesPath).Warning("The notes dump yielded no entries; it may be in an unrecognized format")
	}

	location, err := time.LoadLocation(s.timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", s.timezone, err)
	}

	var buckets []activity.DayBucket
	for _, gap := range parsed.GapRanges(location) {
		s.logger.WithFields(logrus.Fields{"from": gap.Start, "to": gap.End}).Info("Fetching activity for a gap in the notes")
		window, err := calendar.SearchWindow(s.timezone, gap.Start, gap.End)
		if err != nil {
			return nil, err
		}
		fetched, err := s.collector.Collect(ctx, window)
		if err != nil {
			return nil, err
		}
		buckets = append(buckets, fetched...)
	}

	return report.Merge(buckets, parsed), nil
}
