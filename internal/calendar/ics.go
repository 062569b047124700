package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uiucal/uiucal/internal/event"
)

const (
	DefaultProductID = "-//UIU Calendar//Academic Calendar//EN"
	DefaultTimezone  = "Asia/Dhaka"

	dateLayout  = "20060102"
	stampLayout = "20060102T150405"
)

// Warning describes a date property left out of an event block because its
// value could not be parsed.
type Warning struct {
	Title    string
	Property string
	Value    string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s omitted for %q: cannot parse %q", w.Property, w.Title, w.Value)
}

// stampParser is a single attempt at combining a MM/DD/YYYY date with a
// clock time.
type stampParser func(date, clock string) (time.Time, bool)

func stampLayoutParser(clockLayout string) stampParser {
	return func(date, clock string) (time.Time, bool) {
		t, err := time.Parse(event.CanonicalLayout+" "+clockLayout, date+" "+strings.ToUpper(clock))
		return t, err == nil
	}
}

// stampParsers are tried in order; the first match wins.
var stampParsers = []stampParser{
	stampLayoutParser("3:04 PM"), // "10:00 AM"
	stampLayoutParser("15:04"),   // "14:30"
}

func parseStamp(date, clock string) (time.Time, bool) {
	for _, parse := range stampParsers {
		if t, ok := parse(date, clock); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// Encoder renders groups of records as iCalendar documents
type Encoder struct {
	productID string
	timezone  string
	now       func() time.Time
	newUID    func() string
}

// Option configures an Encoder
type Option func(*Encoder)

// WithProductID sets the PRODID line.
func WithProductID(id string) Option {
	return func(e *Encoder) { e.productID = id }
}

// WithTimezone sets the X-WR-TIMEZONE line.
func WithTimezone(tz string) Option {
	return func(e *Encoder) { e.timezone = tz }
}

// WithClock sets the source of DTSTAMP values.
func WithClock(now func() time.Time) Option {
	return func(e *Encoder) { e.now = now }
}

// WithUIDGenerator sets the source of UID values.
func WithUIDGenerator(f func() string) Option {
	return func(e *Encoder) { e.newUID = f }
}

// NewEncoder creates an Encoder; UIDs are random UUIDs and DTSTAMP is the
// current time unless overridden.
func NewEncoder(opts ...Option) *Encoder {
	e := &Encoder{
		productID: DefaultProductID,
		timezone:  DefaultTimezone,
		now:       time.Now,
		newUID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Encode renders records as one VCALENDAR named name. Date properties
// that cannot be parsed are left out of their event and reported as
// warnings; the remaining events are encoded regardless.
func (e *Encoder) Encode(name string, records []*event.Record) (string, []Warning) {
	var ics strings.Builder
	var warnings []Warning

	writeLine(&ics, "BEGIN:VCALENDAR")
	writeLine(&ics, "VERSION:2.0")
	writeLine(&ics, "PRODID:"+e.productID)
	writeLine(&ics, "X-WR-CALNAME:"+name)
	writeLine(&ics, "X-WR-TIMEZONE:"+e.timezone)
	writeLine(&ics, "CALSCALE:GREGORIAN")
	writeLine(&ics, "METHOD:PUBLISH")

	for _, rec := range records {
		writeLine(&ics, "BEGIN:VEVENT")
		writeLine(&ics, "UID:"+e.newUID())
		writeLine(&ics, "DTSTAMP:"+formatICSTime(e.now()))
		writeLine(&ics, "SUMMARY:"+escapeICS(rec.Title))

		warnings = append(warnings, writeDates(&ics, rec)...)

		if desc := escapeICS(rec.Description); desc != "" {
			writeLine(&ics, "DESCRIPTION:"+desc)
		}
		if loc := escapeICS(rec.Location); loc != "" {
			writeLine(&ics, "LOCATION:"+loc)
		}
		writeLine(&ics, "END:VEVENT")
	}

	writeLine(&ics, "END:VCALENDAR")

	return ics.String(), warnings
}

// writeDates emits DTSTART/DTEND for rec. An all-day event ends on the day
// after its last day. A start date that does not parse drops both
// properties, since DTEND alone is meaningless.
func writeDates(ics *strings.Builder, rec *event.Record) []Warning {
	if rec.StartDate == "" {
		return nil
	}

	start, err := time.Parse(event.CanonicalLayout, rec.StartDate)
	if err != nil {
		return []Warning{{Title: rec.Title, Property: "DTSTART", Value: rec.StartDate}}
	}

	if rec.AllDay {
		writeLine(ics, "DTSTART;VALUE=DATE:"+start.Format(dateLayout))

		end := start
		if rec.EndDate != "" {
			end, err = time.Parse(event.CanonicalLayout, rec.EndDate)
			if err != nil {
				return []Warning{{Title: rec.Title, Property: "DTEND", Value: rec.EndDate}}
			}
		}
		writeLine(ics, "DTEND;VALUE=DATE:"+end.AddDate(0, 0, 1).Format(dateLayout))
		return nil
	}

	var warnings []Warning
	if rec.StartTime != "" {
		if t, ok := parseStamp(rec.StartDate, rec.StartTime); ok {
			writeLine(ics, "DTSTART:"+t.Format(stampLayout))
		} else {
			warnings = append(warnings, Warning{Title: rec.Title, Property: "DTSTART", Value: rec.StartDate + " " + rec.StartTime})
		}
	}
	if rec.EndDate != "" && rec.EndTime != "" {
		if t, ok := parseStamp(rec.EndDate, rec.EndTime); ok {
			writeLine(ics, "DTEND:"+t.Format(stampLayout))
		} else {
			warnings = append(warnings, Warning{Title: rec.Title, Property: "DTEND", Value: rec.EndDate + " " + rec.EndTime})
		}
	}
	return warnings
}

func writeLine(ics *strings.Builder, line string) {
	ics.WriteString(line)
	ics.WriteString("\r\n")
}

// formatICSTime formats a time.Time as an iCalendar UTC datetime string
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// escapeICS escapes commas, semicolons and newlines in text values
func escapeICS(s string) string {
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
