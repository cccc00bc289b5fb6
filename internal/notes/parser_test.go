package notes

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Notes
	}{
		{
			name:  "two-year dump",
			input: "2020\nJAN 5TH 2020 (SUNDAY)\ntext\n2021\nJAN 6TH 2021 (WEDNESDAY)\ntext2",
			expected: Notes{
				"2020": {"January": {"2020-01-05": "text"}},
				"2021": {"January": {"2021-01-06": "text2"}},
			},
		},
		{
			name:  "day header without content yields an empty entry",
			input: "2021\nJUN 1ST 2021 (TUESDAY)\nJUN 2ND 2021 (WEDNESDAY)\ndid things",
			expected: Notes{
				"2021": {"June": {
					"2021-06-01": "",
					"2021-06-02": "did things",
				}},
			},
		},
		{
			name:  "multi-line content is joined and trimmed",
			input: "JUN 3RD 2021 (THURSDAY)\n  fixed the build  \n\nreviewed things\n",
			expected: Notes{
				"2021": {"June": {"2021-06-03": "fixed the build  \n\nreviewed things"}},
			},
		},
		{
			name:  "content before any day header never reaches the day map",
			input: "scribbles at the top\n2021\nJANUARY\nmonthly planning notes\nJAN 4TH 2021 (MONDAY)\nreal entry",
			expected: Notes{
				"2021": {"January": {"2021-01-04": "real entry"}},
			},
		},
		{
			name:  "day header is authoritative over the enclosing sections",
			input: "2020\nFEBRUARY\nJAN 5TH 2020 (SUNDAY)\nmisfiled but dated",
			expected: Notes{
				"2020": {"January": {"2020-01-05": "misfiled but dated"}},
			},
		},
		{
			name:  "ordinal suffix variants",
			input: "JUN 1ST 2021 (TUESDAY)\na\nJUN 2ND 2021 (WEDNESDAY)\nb\nJUN 3RD 2021 (THURSDAY)\nc\nJUN 4TH 2021 (FRIDAY)\nd\nJUN 21ST 2021 (MONDAY)\ne\nJAN 31ST 2021 (SUNDAY)\nf",
			expected: Notes{
				"2021": {
					"June": {
						"2021-06-01": "a",
						"2021-06-02": "b",
						"2021-06-03": "c",
						"2021-06-04": "d",
						"2021-06-21": "e",
					},
					"January": {"2021-01-31": "f"},
				},
			},
		},
		{
			name:  "impossible date in a header is plain content",
			input: "FEB 1ST 2021 (MONDAY)\nstart\nFEB 30TH 2021 (TUESDAY)\nmore",
			expected: Notes{
				"2021": {"February": {"2021-02-01": "start\nFEB 30TH 2021 (TUESDAY)\nmore"}},
			},
		},
		{
			name:  "unknown month short name in a header is plain content",
			input: "JUN 7TH 2021 (MONDAY)\nstart\nXYZ 8TH 2021 (TUESDAY)",
			expected: Notes{
				"2021": {"June": {"2021-06-07": "start\nXYZ 8TH 2021 (TUESDAY)"}},
			},
		},
		{
			name:     "nothing recognized parses to an empty structure",
			input:    "just some\nfree-form text\nwith no calendar structure",
			expected: Notes{},
		},
		{
			name:     "empty input",
			input:    "",
			expected: Notes{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("expected notes %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestNotesEmpty(t *testing.T) {
	empty, err := Parse(strings.NewReader("no calendar tokens here"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !empty.Empty() {
		t.Errorf("expected an unrecognized dump to parse as empty")
	}

	parsed, err := Parse(strings.NewReader("JUN 1ST 2021 (TUESDAY)"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed.Empty() {
		t.Errorf("expected a recognized dump to be nonempty")
	}
}

func TestNotesDays(t *testing.T) {
	n := Notes{
		"2020": {"January": {"2020-01-05": "text"}},
		"2021": {
			"January": {"2021-01-06": "text2"},
			"June":    {"2021-06-01": "", "2021-06-02": "more"},
		},
	}

	expected := map[string]string{
		"2020-01-05": "text",
		"2021-01-06": "text2",
		"2021-06-01": "",
		"2021-06-02": "more",
	}
	if got := n.Days(); !reflect.DeepEqual(got, expected) {
		t.Errorf("expected days %v, got %v", expected, got)
	}
}

func TestNotesMonths(t *testing.T) {
	n := Notes{
		"2021": {
			"June":    {"2021-06-01": ""},
			"January": {"2021-01-06": "text2"},
		},
		"2020": {"December": {"2020-12-01": "year end"}},
	}

	expected := []MonthKey{
		{Year: 2020, Month: time.December},
		{Year: 2021, Month: time.January},
		{Year: 2021, Month: time.June},
	}
	if got := n.Months(); !reflect.DeepEqual(got, expected) {
		t.Errorf("expected months %v, got %v", expected, got)
	}
}
