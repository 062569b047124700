package event

// CSVHeader is the column order of the Google Calendar CSV import format.
var CSVHeader = []string{
	"Subject",
	"Start Date",
	"Start Time",
	"End Date",
	"End Time",
	"All Day Event",
	"Description",
	"Location",
	"Private",
}

// Record is one calendar entry built from a row of the source table.
// StartDate and EndDate hold MM/DD/YYYY when the source text could be
// normalized, otherwise the source text itself.
type Record struct {
	Title       string `json:"title"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	StartTime   string `json:"start_time,omitempty"`
	EndTime     string `json:"end_time,omitempty"`
	AllDay      bool   `json:"all_day"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	Private     bool   `json:"private"`
}

// Row renders the record in CSVHeader order.
func (r *Record) Row() []string {
	return []string{
		r.Title,
		r.StartDate,
		r.StartTime,
		r.EndDate,
		r.EndTime,
		boolText(r.AllDay),
		r.Description,
		r.Location,
		boolText(r.Private),
	}
}

func boolText(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// Group is the set of records listed under one heading of the calendar page
type Group struct {
	Name    string    `json:"name"`
	Records []*Record `json:"records"`
}

// BuildGroup converts the raw rows of a section into records, skipping rows
// that carry no text at all.
func BuildGroup(name string, rows [][]string) *Group {
	g := &Group{
		Name:    name,
		Records: make([]*Record, 0, len(rows)),
	}
	for _, cells := range rows {
		if rec, ok := BuildRecord(cells); ok {
			g.Records = append(g.Records, rec)
		}
	}
	return g
}

// Empty reports whether the group has nothing to export
func (g *Group) Empty() bool {
	return len(g.Records) == 0
}
