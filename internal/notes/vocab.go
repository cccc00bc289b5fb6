package notes

import (
	"time"
)

// The legacy dump format is delimited by a fixed calendar vocabulary: bare
// four-digit years, full month names, and day headers built from month short
// names and weekday names. The parser recognizes exactly these tokens;
// every other line is content.

var monthNames = map[string]time.Month{
	"JANUARY":   time.January,
	"FEBRUARY":  time.February,
	"MARCH":     time.March,
	"APRIL":     time.April,
	"MAY":       time.May,
	"JUNE":      time.June,
	"JULY":      time.July,
	"AUGUST":    time.August,
	"SEPTEMBER": time.September,
	"OCTOBER":   time.October,
	"NOVEMBER":  time.November,
	"DECEMBER":  time.December,
}

var monthShortNames = map[string]time.Month{
	"JAN": time.January,
	"FEB": time.February,
	"MAR": time.March,
	"APR": time.April,
	"MAY": time.May,
	"JUN": time.June,
	"JUL": time.July,
	"AUG": time.August,
	"SEP": time.September,
	"OCT": time.October,
	"NOV": time.November,
	"DEC": time.December,
}

var weekdayNames = map[string]time.Weekday{
	"MONDAY":    time.Monday,
	"TUESDAY":   time.Tuesday,
	"WEDNESDAY": time.Wednesday,
	"THURSDAY":  time.Thursday,
	"FRIDAY":    time.Friday,
	"SATURDAY":  time.Saturday,
	"SUNDAY":    time.Sunday,
}
