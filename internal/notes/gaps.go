package notes

import (
	"time"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/petr-muller/standup/internal/calendar"
)

// DateRange is one contiguous run of days, inclusive on both ends. Each
// range is worth exactly one remote date-range query.
type DateRange struct {
	Start string
	End   string
}

// MissingRanges computes which of the given weekdays are not yet known and
// coalesces them into maximal runs of consecutive calendar days. A skipped
// day or a month boundary starts a new run.
func MissingRanges(known sets.Set[string], weekdays []string) []DateRange {
	missing := sets.New[string](weekdays...).Difference(known)

	var ranges []DateRange
	var previous time.Time
	for _, key := range sets.List(missing) {
		day, err := calendar.ParseDay(key)
		if err != nil {
			continue
		}
		extends := !previous.IsZero() &&
			day.Year() == previous.Year() && day.Month() == previous.Month() &&
			day.Day() == previous.Day()+1
		if extends {
			ranges[len(ranges)-1].End = key
		} else {
			ranges = append(ranges, DateRange{Start: key, End: key})
		}
		previous = day
	}
	return ranges
}

// GapRanges lists, for every month present in the journal, the ranges of
// weekdays that have no note yet. These are the ranges that still need
// fetching when backfilling a report from the journal.
func (n Notes) GapRanges(loc *time.Location) []DateRange {
	var ranges []DateRange
	for _, month := range n.Months() {
		known := sets.New[string](n.monthDays(month)...)
		weekdays := calendar.WeekdaysInMonth(month.Year, month.Month, loc)
		ranges = append(ranges, MissingRanges(known, weekdays)...)
	}
	return ranges
}
