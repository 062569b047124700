package export

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/uiucal/uiucal/internal/calendar"
	"github.com/uiucal/uiucal/internal/config"
	"github.com/uiucal/uiucal/internal/event"
	"github.com/uiucal/uiucal/internal/logger"
	"github.com/uiucal/uiucal/internal/scraper"
	"github.com/uiucal/uiucal/internal/storage"
)

// fallbackBase names the files of a group whose heading sanitizes to nothing,
// so they are never written as hidden ".csv" and ".ics" files.
const fallbackBase = "calendar"

// Source provides the sections of the calendar page
type Source interface {
	Fetch(ctx context.Context) ([]scraper.Section, error)
}

// Report summarizes an export run
type Report struct {
	Source      string        `json:"source"`
	GeneratedAt time.Time     `json:"generated_at"`
	Groups      []GroupReport `json:"groups"`
	Skipped     []string      `json:"skipped,omitempty"`
}

// GroupReport describes the artifacts written for one heading
type GroupReport struct {
	Name     string   `json:"name"`
	Events   int      `json:"events"`
	CSVPath  string   `json:"csv_path"`
	ICSPath  string   `json:"ics_path"`
	Warnings []string `json:"warnings,omitempty"`
}

// TotalEvents returns the number of events written across all groups.
func (r *Report) TotalEvents() int {
	n := 0
	for _, g := range r.Groups {
		n += g.Events
	}
	return n
}

// Exporter runs one scrape-and-export pass
type Exporter struct {
	cfg  *config.Config
	src  Source
	sink storage.Sink
	enc  *calendar.Encoder
	now  func() time.Time
}

// New creates an Exporter. cfg must already be validated.
func New(cfg *config.Config, src Source, sink storage.Sink, enc *calendar.Encoder) *Exporter {
	return &Exporter{
		cfg:  cfg,
		src:  src,
		sink: sink,
		enc:  enc,
		now:  time.Now,
	}
}

// Run fetches the page and writes a CSV and an ICS file for every non-empty
// heading. A fetch or write failure aborts the run; date problems only
// degrade the affected records.
func (e *Exporter) Run(ctx context.Context) (*Report, error) {
	order, err := event.ParseSortOrder(e.cfg.Sort)
	if err != nil {
		return nil, err
	}

	sections, err := e.src.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching calendar: %w", err)
	}
	logger.Info("fetched calendar", logger.Fields{
		"url":      e.cfg.URL,
		"sections": len(sections),
	})

	report := &Report{
		Source:      e.cfg.URL,
		GeneratedAt: e.now().UTC(),
		Groups:      make([]GroupReport, 0, len(sections)),
	}

	for _, sec := range sections {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if !matchGroup(sec.Heading, e.cfg.Groups) {
			logger.Debug("group filtered out", logger.Fields{"group": sec.Heading})
			continue
		}

		group := event.BuildGroup(sec.Heading, sec.Rows)
		recordGroupMetrics(sec, group)

		if group.Empty() {
			logger.Info("no events found", logger.Fields{"group": group.Name})
			logger.IncrCounter("groups.empty")
			report.Skipped = append(report.Skipped, group.Name)
			continue
		}

		event.SortRecords(group.Records, order)

		gr, err := e.writeGroup(group)
		if err != nil {
			return nil, err
		}
		report.Groups = append(report.Groups, *gr)
	}

	return report, nil
}

func (e *Exporter) writeGroup(group *event.Group) (*GroupReport, error) {
	base := storage.SanitizeFilename(group.Name)
	if base == "" {
		base = fallbackBase
	}

	csvPath, err := e.sink.WriteCSV(base, group.Records)
	if err != nil {
		return nil, fmt.Errorf("writing csv for %q: %w", group.Name, err)
	}
	logger.Info("csv written", logger.Fields{
		"group":  group.Name,
		"path":   csvPath,
		"events": len(group.Records),
	})

	content, warnings := e.enc.Encode(group.Name, group.Records)
	gr := &GroupReport{
		Name:    group.Name,
		Events:  len(group.Records),
		CSVPath: csvPath,
	}
	for _, w := range warnings {
		logger.Warn("calendar property omitted", logger.Fields{
			"group":    group.Name,
			"title":    w.Title,
			"property": w.Property,
			"value":    w.Value,
		})
		gr.Warnings = append(gr.Warnings, w.String())
	}
	logger.AddCounter("ics.properties_omitted", int64(len(warnings)))

	icsPath, err := e.sink.WriteICS(base, content)
	if err != nil {
		return nil, fmt.Errorf("writing ics for %q: %w", group.Name, err)
	}
	logger.Info("ics written", logger.Fields{
		"group":  group.Name,
		"path":   icsPath,
		"events": len(group.Records),
	})
	logger.IncrCounter("groups.written")

	gr.ICSPath = icsPath
	return gr, nil
}

// matchGroup reports whether heading contains one of filters, ignoring
// case. No filters matches everything.
func matchGroup(heading string, filters []string) bool {
	if len(filters) == 0 {
		return true
	}
	h := strings.ToLower(heading)
	for _, f := range filters {
		if f = strings.TrimSpace(f); f == "" {
			continue
		}
		if strings.Contains(h, strings.ToLower(f)) {
			return true
		}
	}
	return false
}

func recordGroupMetrics(sec scraper.Section, group *event.Group) {
	logger.AddCounter("rows.built", int64(len(group.Records)))
	logger.AddCounter("rows.skipped", int64(len(sec.Rows)-len(group.Records)))

	var degraded int64
	for _, rec := range group.Records {
		if rec.StartDate != "" && event.ParseCanonical(rec.StartDate).IsZero() {
			degraded++
		}
		if rec.EndDate != "" && event.ParseCanonical(rec.EndDate).IsZero() {
			degraded++
		}
	}
	logger.AddCounter("dates.degraded", degraded)
}
