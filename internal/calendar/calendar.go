package calendar

import (
	"fmt"
	"time"
)

// DayKeyFormat is the canonical format for calendar-day keys used across
// the whole pipeline: bucketing, note parsing, gap analysis and reports.
const DayKeyFormat = "2006-01-02"

// remoteTimestampLayout is the instant format the remote search API expects
// in range qualifiers, including the zone offset.
const remoteTimestampLayout = "2006-01-02T15:04:05-07:00"

// Window describes one queried date range with its day boundaries expressed
// in the target timezone, formatted for the remote search API.
type Window struct {
	// Start is the range's first instant: startDate at 00:00:00 in the zone
	Start string
	// End is the range's last instant: endDate at 23:59:59 in the zone
	End string
	// TwoWeeksBefore is the instant 14 days before Start. No query consumes
	// it today; it is kept available for lookback-style scans.
	TwoWeeksBefore string
	// Location is the zone whose calendar days the buckets follow
	Location *time.Location

	first time.Time
	last  time.Time
}

// Days returns every day key from the window start through its end,
// inclusive of both, in ascending order.
func (w Window) Days() []string {
	var days []string
	for day := w.first; !day.After(w.last); day = day.AddDate(0, 0, 1) {
		days = append(days, day.Format(DayKeyFormat))
	}
	return days
}

// ParseDay parses a canonical day key
func ParseDay(key string) (time.Time, error) {
	day, err := time.Parse(DayKeyFormat, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", key, err)
	}
	return day, nil
}

// DaysBetween returns the day keys strictly between start and end, in
// ascending order. Same-day, adjacent and reversed inputs yield nothing.
func DaysBetween(start, end string) ([]string, error) {
	from, err := ParseDay(start)
	if err != nil {
		return nil, err
	}
	to, err := ParseDay(end)
	if err != nil {
		return nil, err
	}

	var days []string
	for day := from.AddDate(0, 0, 1); day.Before(to); day = day.AddDate(0, 0, 1) {
		days = append(days, day.Format(DayKeyFormat))
	}
	return days, nil
}

// IsWeekday reports whether t falls on Monday through Friday, judged in t's
// own location without any conversion.
func IsWeekday(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	default:
		return true
	}
}

// ValidTimezone reports whether name is a recognized IANA timezone
// identifier. The empty string and the special "Local" name are not.
func ValidTimezone(name string) bool {
	if name == "" || name == "Local" {
		return false
	}
	_, err := time.LoadLocation(name)
	return err == nil
}

// SearchWindow converts a local calendar-day range into the remote API's
// instant format: startDate at the very start of day and endDate at the very
// end of day, both in the given timezone, plus the two-week lookback instant.
func SearchWindow(timezone, startDate, endDate string) (Window, error) {
	if !ValidTimezone(timezone) {
		return Window{}, fmt.Errorf("invalid timezone %q", timezone)
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return Window{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}

	first, err := time.ParseInLocation(DayKeyFormat, startDate, loc)
	if err != nil {
		return Window{}, fmt.Errorf("invalid date %q: %w", startDate, err)
	}
	lastDay, err := time.ParseInLocation(DayKeyFormat, endDate, loc)
	if err != nil {
		return Window{}, fmt.Errorf("invalid date %q: %w", endDate, err)
	}
	if lastDay.Before(first) {
		return Window{}, fmt.Errorf("start date %s is after end date %s", startDate, endDate)
	}

	last := time.Date(lastDay.Year(), lastDay.Month(), lastDay.Day(), 23, 59, 59, 0, loc)
	return Window{
		Start:          first.Format(remoteTimestampLayout),
		End:            last.Format(remoteTimestampLayout),
		TwoWeeksBefore: first.AddDate(0, 0, -14).Format(remoteTimestampLayout),
		Location:       loc,
		first:          first,
		last:           last,
	}, nil
}

// WeekdaysInMonth returns the day keys of all weekdays in the given month,
// ascending, with days anchored in loc.
func WeekdaysInMonth(year int, month time.Month, loc *time.Location) []string {
	var days []string
	for day := time.Date(year, month, 1, 0, 0, 0, 0, loc); day.Month() == month; day = day.AddDate(0, 0, 1) {
		if IsWeekday(day) {
			days = append(days, day.Format(DayKeyFormat))
		}
	}
	return days
}
