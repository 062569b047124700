package export

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/uiucal/uiucal/internal/calendar"
	"github.com/uiucal/uiucal/internal/config"
	"github.com/uiucal/uiucal/internal/logger"
	"github.com/uiucal/uiucal/internal/scraper"
	"github.com/uiucal/uiucal/internal/storage"
)

func TestMain(m *testing.M) {
	logger.SetDefault(logger.New(logger.LevelError, io.Discard))
	os.Exit(m.Run())
}

type fakeSource struct {
	sections []scraper.Section
	err      error
}

func (f *fakeSource) Fetch(ctx context.Context) ([]scraper.Section, error) {
	return f.sections, f.err
}

var springSection = scraper.Section{
	Heading: "Spring 2025",
	Rows: [][]string{
		{"Feb 18 – 20, 2025", "Tue - Thu", "Midterm Exams"},
		{"Mar 1, 2025", "Sat", "Orientation", "10:00 AM - 12:00 PM", "Room 101"},
		{"", "", ""},
		{"", "", "Registration opens"},
		{"Sometime in spring", "", "Field trip"},
	},
}

var emptySection = scraper.Section{
	Heading: "Summer 2025",
	Rows:    [][]string{{"", ""}},
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.URL = "https://calendar.test/academics/"
	return cfg
}

func TestRun_WritesNonEmptyGroups(t *testing.T) {
	dir := t.TempDir()
	sink, err := storage.NewFileSink(dir)
	if err != nil {
		t.Fatalf("NewFileSink() error: %v", err)
	}

	src := &fakeSource{sections: []scraper.Section{springSection, emptySection}}
	before := logger.DefaultMetrics().Counter("rows.skipped")

	report, err := New(testConfig(), src, sink, calendar.NewEncoder()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if len(report.Groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(report.Groups))
	}
	g := report.Groups[0]
	if g.Name != "Spring 2025" || g.Events != 4 {
		t.Errorf("group = %+v, want Spring 2025 with 4 events", g)
	}
	if g.CSVPath != filepath.Join(dir, "Spring_2025.csv") || g.ICSPath != filepath.Join(dir, "Spring_2025.ics") {
		t.Errorf("paths = %q, %q", g.CSVPath, g.ICSPath)
	}
	if len(report.Skipped) != 1 || report.Skipped[0] != "Summer 2025" {
		t.Errorf("Skipped = %v, want [Summer 2025]", report.Skipped)
	}
	if report.TotalEvents() != 4 {
		t.Errorf("TotalEvents() = %d, want 4", report.TotalEvents())
	}
	if report.Source != "https://calendar.test/academics/" {
		t.Errorf("Source = %q", report.Source)
	}

	if _, err := os.Stat(filepath.Join(dir, "Summer_2025.csv")); !os.IsNotExist(err) {
		t.Error("empty group should not produce a csv file")
	}
	if _, err := os.Stat(filepath.Join(dir, "Summer_2025.ics")); !os.IsNotExist(err) {
		t.Error("empty group should not produce an ics file")
	}

	csvData, err := os.ReadFile(g.CSVPath)
	if err != nil {
		t.Fatalf("reading csv: %v", err)
	}
	for _, want := range []string{
		"Midterm Exams,02/18/2025,,02/20/2025,,True,,,False\r\n",
		"Orientation,03/01/2025,10:00 AM,03/01/2025,12:00 PM,False,Room 101,,False\r\n",
		"Registration opens,,,,,True,,,False\r\n",
	} {
		if !strings.Contains(string(csvData), want) {
			t.Errorf("csv missing row %q:\n%s", want, csvData)
		}
	}

	f, err := os.Open(g.ICSPath)
	if err != nil {
		t.Fatalf("opening ics: %v", err)
	}
	defer f.Close()
	sum, err := calendar.Inspect(f)
	if err != nil {
		t.Fatalf("Inspect() error: %v", err)
	}
	if sum.Name != "Spring 2025" || len(sum.Entries) != 4 {
		t.Fatalf("ics = %q with %d entries, want Spring 2025 with 4", sum.Name, len(sum.Entries))
	}
	if e := sum.Entries[0]; e.Start != "20250218" || e.End != "20250221" || !e.AllDay {
		t.Errorf("first entry = %+v", e)
	}

	if len(g.Warnings) != 1 || !strings.Contains(g.Warnings[0], "Field trip") {
		t.Errorf("Warnings = %v, want one for Field trip", g.Warnings)
	}
	if got := logger.DefaultMetrics().Counter("rows.skipped") - before; got != 2 {
		t.Errorf("rows.skipped grew by %d, want 2", got)
	}
}

func TestRun_FetchErrorIsFatal(t *testing.T) {
	sink := storage.NewDryRunSink(io.Discard)
	src := &fakeSource{err: errors.New("connection refused")}

	_, err := New(testConfig(), src, sink, calendar.NewEncoder()).Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("Run() error = %v, want fetch error", err)
	}
}

func TestRun_GroupFilterAndSort(t *testing.T) {
	var buf bytes.Buffer
	sink := storage.NewDryRunSink(&buf)

	cfg := testConfig()
	cfg.Groups = []string{"SPRING"}
	cfg.Sort = "title"

	other := scraper.Section{Heading: "Fall 2025", Rows: [][]string{{"Oct 1, 2025", "", "Classes begin"}}}
	src := &fakeSource{sections: []scraper.Section{other, springSection}}

	report, err := New(cfg, src, sink, calendar.NewEncoder()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if len(report.Groups) != 1 || report.Groups[0].Name != "Spring 2025" {
		t.Fatalf("Groups = %+v, want only Spring 2025", report.Groups)
	}
	if len(report.Skipped) != 0 {
		t.Errorf("filtered groups should not be reported as skipped: %v", report.Skipped)
	}

	out := buf.String()
	if strings.Contains(out, "Fall_2025") {
		t.Error("filtered group should not be written")
	}
	field := strings.Index(out, "\r\nField trip,")
	midterm := strings.Index(out, "\r\nMidterm Exams,")
	if field < 0 || midterm < 0 || field > midterm {
		t.Errorf("records not sorted by title:\n%s", out)
	}
}

func TestRun_InvalidSort(t *testing.T) {
	cfg := testConfig()
	cfg.Sort = "random"

	_, err := New(cfg, &fakeSource{}, storage.NewDryRunSink(io.Discard), calendar.NewEncoder()).Run(context.Background())
	if err == nil {
		t.Fatal("Run() expected error for invalid sort")
	}
}

func TestRun_UnnamedGroup(t *testing.T) {
	var buf bytes.Buffer
	src := &fakeSource{sections: []scraper.Section{{Heading: "", Rows: [][]string{{"", "", "Holiday"}}}}}

	report, err := New(testConfig(), src, storage.NewDryRunSink(&buf), calendar.NewEncoder()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(report.Groups) != 1 || report.Groups[0].CSVPath != "(dry-run) calendar.csv" {
		t.Errorf("Groups = %+v, want calendar.csv", report.Groups)
	}
}

func TestRun_EndToEnd(t *testing.T) {
	page := `<html><body>
<details><summary>Spring 2025</summary><table>
<tr><th>Date</th><th>Day</th><th>Event</th></tr>
<tr><td>Jun 1 - 2, 2025 and Jun 14 - 18, 2025</td><td>Sun</td><td>Final Exams</td></tr>
</table></details>
</body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(page))
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.URL = server.URL

	sc := scraper.New(scraper.WithURL(cfg.URL), scraper.WithRobots(false), scraper.WithMinInterval(0))
	dir := t.TempDir()
	sink, err := storage.NewFileSink(dir)
	if err != nil {
		t.Fatalf("NewFileSink() error: %v", err)
	}
	enc := calendar.NewEncoder(calendar.WithClock(func() time.Time {
		return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	}))

	report, err := New(cfg, sc, sink, enc).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(report.Groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(report.Groups))
	}

	data, err := os.ReadFile(report.Groups[0].ICSPath)
	if err != nil {
		t.Fatalf("reading ics: %v", err)
	}
	for _, want := range []string{
		"DTSTAMP:20250101T000000Z\r\n",
		"DTSTART;VALUE=DATE:20250601\r\n",
		"DTEND;VALUE=DATE:20250619\r\n",
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("ics missing %q:\n%s", want, data)
		}
	}
}

func TestMatchGroup(t *testing.T) {
	tests := []struct {
		heading string
		filters []string
		want    bool
	}{
		{"Spring 2025", nil, true},
		{"Spring 2025", []string{"spring"}, true},
		{"Spring 2025", []string{"fall", "2025"}, true},
		{"Spring 2025", []string{"fall"}, false},
		{"Spring 2025", []string{" "}, false},
	}

	for _, tt := range tests {
		if got := matchGroup(tt.heading, tt.filters); got != tt.want {
			t.Errorf("matchGroup(%q, %v) = %v, want %v", tt.heading, tt.filters, got, tt.want)
		}
	}
}
