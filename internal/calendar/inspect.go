package calendar

import (
	"fmt"
	"io"
	"strings"

	ical "github.com/arran4/golang-ical"
)

// Entry is one VEVENT read back from an .ics file. Values are reported as
// stored, without unfolding or date interpretation.
type Entry struct {
	UID     string `json:"uid"`
	Summary string `json:"summary"`
	Start   string `json:"start,omitempty"`
	End     string `json:"end,omitempty"`
	AllDay  bool   `json:"all_day"`
}

// Summary describes a parsed calendar file
type Summary struct {
	Name     string  `json:"name,omitempty"`
	Timezone string  `json:"timezone,omitempty"`
	Entries  []Entry `json:"entries"`
}

// Inspect parses an iCalendar document, such as one written by Encoder,
// and lists its events.
func Inspect(r io.Reader) (*Summary, error) {
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("parsing calendar: %w", err)
	}

	sum := &Summary{Entries: make([]Entry, 0)}
	for _, p := range cal.CalendarProperties {
		switch p.IANAToken {
		case "X-WR-CALNAME":
			sum.Name = p.Value
		case "X-WR-TIMEZONE":
			sum.Timezone = p.Value
		}
	}

	for _, ev := range cal.Events() {
		entry := Entry{
			UID:     propertyValue(ev, ical.ComponentPropertyUniqueId),
			Summary: propertyValue(ev, ical.ComponentPropertySummary),
			End:     propertyValue(ev, ical.ComponentPropertyDtEnd),
		}
		if start := ev.GetProperty(ical.ComponentPropertyDtStart); start != nil {
			entry.Start = start.Value
			if vals, ok := start.ICalParameters["VALUE"]; ok && len(vals) > 0 && strings.EqualFold(vals[0], "DATE") {
				entry.AllDay = true
			}
		}
		sum.Entries = append(sum.Entries, entry)
	}

	return sum, nil
}

func propertyValue(ev *ical.VEvent, prop ical.ComponentProperty) string {
	if p := ev.GetProperty(prop); p != nil {
		return p.Value
	}
	return ""
}
