package event

import "strings"

// Column positions of the academic calendar table.
const (
	colDate  = 0
	colTitle = 2
	colTime  = 3
	colExtra = 4
)

// BuildRecord converts the text cells of one table row into a Record.
// Missing cells leave their fields empty. ok is false when the row carries
// no text at all.
func BuildRecord(cells []string) (rec *Record, ok bool) {
	if isBlank(cells) {
		return nil, false
	}

	rec = &Record{AllDay: true}

	start, end := ParseDateRange(cell(cells, colDate))
	rec.StartDate = FormatDate(start)
	rec.EndDate = FormatDate(end)

	rec.Title = cell(cells, colTitle)

	if t := cell(cells, colTime); strings.Contains(t, "-") {
		parts := strings.SplitN(t, "-", 2)
		rec.StartTime = strings.TrimSpace(parts[0])
		rec.EndTime = strings.TrimSpace(parts[1])
		rec.AllDay = false
	}

	if len(cells) > colExtra {
		rec.Description = strings.Join(cells[colExtra:], " | ")
	}

	return rec, true
}

func cell(cells []string, i int) string {
	if i < len(cells) {
		return cells[i]
	}
	return ""
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
