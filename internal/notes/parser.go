package notes

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Notes is the parsed legacy journal, nested year → month name → day key →
// raw text. Month names are English title case ("January"), day keys use the
// canonical calendar format.
type Notes map[string]map[string]map[string]string

// MonthKey identifies one month present in the journal
type MonthKey struct {
	Year  int
	Month time.Month
}

type tokenKind int

const (
	tokenYear tokenKind = iota
	tokenMonth
	tokenDay
	tokenContent
)

// token is one classified line of the dump
type token struct {
	kind  tokenKind
	text  string
	year  int
	month time.Month
	day   int
}

// dayHeaderRE matches headers like "JAN 5TH 2020 (SUNDAY)"
var dayHeaderRE = regexp.MustCompile(`^([A-Z]{3}) (\d{1,2})(ST|ND|RD|TH) (\d{4}) \(([A-Z]+)\)$`)

// yearRE matches bare four-digit year lines
var yearRE = regexp.MustCompile(`^\d{4}$`)

// scan classifies every line of the dump into the token stream
func scan(r io.Reader) ([]token, error) {
	var tokens []token
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		tokens = append(tokens, classifyLine(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dump: %w", err)
	}
	return tokens, nil
}

// classifyLine matches one line against the calendar vocabularies. Lines
// that fit no vocabulary entry are content.
func classifyLine(line string) token {
	trimmed := strings.TrimSpace(line)

	if yearRE.MatchString(trimmed) {
		year, _ := strconv.Atoi(trimmed)
		return token{kind: tokenYear, year: year}
	}

	if month, ok := monthNames[trimmed]; ok {
		return token{kind: tokenMonth, month: month}
	}

	if match := dayHeaderRE.FindStringSubmatch(trimmed); match != nil {
		month, knownMonth := monthShortNames[match[1]]
		_, knownWeekday := weekdayNames[match[5]]
		day, _ := strconv.Atoi(match[2])
		year, _ := strconv.Atoi(match[4])
		if knownMonth && knownWeekday && dayExists(year, month, day) {
			return token{kind: tokenDay, year: year, month: month, day: day}
		}
	}

	return token{kind: tokenContent, text: line}
}

// dayExists rejects headers naming impossible dates like FEB 30TH
func dayExists(year int, month time.Month, day int) bool {
	if day < 1 || day > 31 {
		return false
	}
	date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return date.Year() == year && date.Month() == month && date.Day() == day
}

// Parse segments the dump into the nested notes structure. A day header
// opens a segment that collects all following content lines until the next
// recognized token; content before any day header belongs to its year or
// month segment and does not reach the day map. A dump without a single
// recognized token parses to an empty structure, which callers should treat
// with suspicion (see Empty).
func Parse(r io.Reader) (Notes, error) {
	tokens, err := scan(r)
	if err != nil {
		return nil, err
	}

	notes := Notes{}
	var current *token
	var content []string

	flush := func() {
		if current == nil {
			return
		}
		notes.set(current.year, current.month, current.day, strings.TrimSpace(strings.Join(content, "\n")))
		current = nil
		content = nil
	}

	for _, tok := range tokens {
		switch tok.kind {
		case tokenYear, tokenMonth:
			flush()
		case tokenDay:
			flush()
			day := tok
			current = &day
		case tokenContent:
			if current != nil {
				content = append(content, tok.text)
			}
		}
	}
	flush()

	return notes, nil
}

// ParseFile parses a dump file from disk
func ParseFile(path string) (Notes, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dump file: %w", err)
	}
	defer file.Close()
	return Parse(file)
}

func (n Notes) set(year int, month time.Month, day int, text string) {
	yearKey := strconv.Itoa(year)
	if _, ok := n[yearKey]; !ok {
		n[yearKey] = map[string]map[string]string{}
	}
	monthKey := month.String()
	if _, ok := n[yearKey][monthKey]; !ok {
		n[yearKey][monthKey] = map[string]string{}
	}
	dayKey := fmt.Sprintf("%04d-%02d-%02d", year, int(month), day)
	n[yearKey][monthKey][dayKey] = text
}

// Empty reports whether parsing recognized nothing. The format has no way
// to distinguish an empty journal from an unrecognized one, so an empty
// result on a nonempty input deserves a warning.
func (n Notes) Empty() bool {
	return len(n) == 0
}

// Days flattens the structure into day key → text
func (n Notes) Days() map[string]string {
	days := map[string]string{}
	for _, months := range n {
		for _, month := range months {
			for day, text := range month {
				days[day] = text
			}
		}
	}
	return days
}

// Months lists the months present in the journal, ascending
func (n Notes) Months() []MonthKey {
	var months []MonthKey
	for yearKey, monthMaps := range n {
		year, err := strconv.Atoi(yearKey)
		if err != nil {
			continue
		}
		for monthName := range monthMaps {
			month, ok := monthNames[strings.ToUpper(monthName)]
			if !ok {
				continue
			}
			months = append(months, MonthKey{Year: year, Month: month})
		}
	}
	sort.Slice(months, func(i, j int) bool {
		if months[i].Year != months[j].Year {
			return months[i].Year < months[j].Year
		}
		return months[i].Month < months[j].Month
	})
	return months
}

// monthDays returns the known day keys of one month
func (n Notes) monthDays(key MonthKey) []string {
	monthMap, ok := n[strconv.Itoa(key.Year)][key.Month.String()]
	if !ok {
		return nil
	}
	days := make([]string, 0, len(monthMap))
	for day := range monthMap {
		days = append(days, day)
	}
	sort.Strings(days)
	return days
}
