package event

import (
	"strings"
	"time"
)

// CanonicalLayout is the MM/DD/YYYY rendering used for every normalized date.
const CanonicalLayout = "01/02/2006"

// dateParser is a single parse attempt over a date fragment.
type dateParser func(string) (time.Time, bool)

func layout(l string) dateParser {
	return func(s string) (time.Time, bool) {
		t, err := time.Parse(l, s)
		return t, err == nil
	}
}

// dateParsers are tried in order; the first match wins.
var dateParsers = []dateParser{
	layout("Jan 2, 2006"),     // "Feb 18, 2025"
	layout("January 2, 2006"), // "February 18, 2025"
}

// NormalizeDate renders a fragment such as "Feb 18, 2025" as "02/18/2025".
// Any run of whitespace, including the no-break space left by &nbsp;, counts
// as one space. When no accepted format matches, the fragment is returned
// unchanged and ok is false.
func NormalizeDate(fragment string) (string, bool) {
	text := strings.Join(strings.Fields(fragment), " ")
	for _, parse := range dateParsers {
		if t, ok := parse(text); ok {
			return t.Format(CanonicalLayout), true
		}
	}
	return fragment, false
}

// FormatDate is NormalizeDate without the success flag.
func FormatDate(fragment string) string {
	s, _ := NormalizeDate(fragment)
	return s
}

// ParseCanonical parses a MM/DD/YYYY date.
// Returns time.Time{} (zero value) if s is empty or degraded.
func ParseCanonical(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(CanonicalLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
