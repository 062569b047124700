package event

import (
	"fmt"
	"sort"
	"strings"
)

// SortOrder represents the available record orderings
type SortOrder string

const (
	SortSource  SortOrder = ""
	SortByDate  SortOrder = "date"
	SortByTitle SortOrder = "title"
)

// ParseSortOrder validates a sort option
func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case SortSource, SortByDate, SortByTitle:
		return o, nil
	default:
		return SortSource, fmt.Errorf("invalid sort order: %s (must be 'date' or 'title')", s)
	}
}

// SortRecords orders records in place. SortSource leaves the page order.
// The sort is stable so rows sharing a key keep their page order.
func SortRecords(records []*Record, order SortOrder) {
	switch order {
	case SortByDate:
		sort.SliceStable(records, func(i, j int) bool {
			return compareByDate(records[i], records[j])
		})
	case SortByTitle:
		sort.SliceStable(records, func(i, j int) bool {
			return strings.ToLower(records[i].Title) < strings.ToLower(records[j].Title)
		})
	}
}

// compareByDate reports whether i starts before j.
// Records with a degraded or empty start date sort after dated ones.
func compareByDate(i, j *Record) bool {
	dateI := ParseCanonical(i.StartDate)
	dateJ := ParseCanonical(j.StartDate)

	if !dateI.IsZero() && !dateJ.IsZero() {
		return dateI.Before(dateJ)
	}
	return !dateI.IsZero() && dateJ.IsZero()
}
