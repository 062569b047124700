package event

import (
	"regexp"
	"strings"
)

var (
	monthPattern = regexp.MustCompile(`\b(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\b`)
	yearPattern  = regexp.MustCompile(`\d{4}`)
	dashPattern  = regexp.MustCompile(`\s*[–-]\s*`)
	andPattern   = regexp.MustCompile(`(?i)\band\b`)
)

// Tokens holds the month abbreviation and year found in a date fragment.
// Empty fields mean the token was not present.
type Tokens struct {
	Month string
	Year  string
}

// ExtractTokens returns the first whole-word month abbreviation and the
// first four digit run of fragment.
func ExtractTokens(fragment string) Tokens {
	return Tokens{
		Month: monthPattern.FindString(fragment),
		Year:  yearPattern.FindString(fragment),
	}
}

// ParseSingleRange splits a range like "Feb 18 – 20, 2025" into its start
// and end fragments, carrying the month and year across the dash when one
// side omits them. A fragment without a dash is returned as both start and
// end.
func ParseSingleRange(text string) (start, end string) {
	parts := dashPattern.Split(text, -1)

	switch len(parts) {
	case 1:
		s := strings.TrimSpace(text)
		return s, s
	case 2:
		left := strings.TrimSpace(parts[0])
		right := strings.TrimSpace(parts[1])
		lt := ExtractTokens(left)
		rt := ExtractTokens(right)

		if rt.Month == "" && lt.Month != "" {
			right = lt.Month + " " + right
		}
		if rt.Year == "" && lt.Year != "" {
			right = right + ", " + lt.Year
		}
		if lt.Year == "" && rt.Year != "" {
			left = left + ", " + rt.Year
		}
		return left, right
	default:
		// More than one dash: keep the outer fragments as they are.
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[len(parts)-1])
	}
}

// ParseDateRange handles cells listing several ranges joined by "and", e.g.
// "Jun 1 - 2, 2025 and Jun 14 - 18, 2025". The result spans from the start
// of the first range to the end of the last one.
func ParseDateRange(text string) (start, end string) {
	parts := andPattern.Split(text, -1)
	if len(parts) == 1 {
		return ParseSingleRange(text)
	}

	start, _ = ParseSingleRange(strings.TrimSpace(parts[0]))
	_, end = ParseSingleRange(strings.TrimSpace(parts[len(parts)-1]))
	return start, end
}
