package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/uiucal/uiucal/internal/calendar"
	"github.com/uiucal/uiucal/internal/export"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// ParseFormat validates a --format value
func ParseFormat(s string) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	if format != FormatText && format != FormatJSON {
		return "", fmt.Errorf("invalid format: %s (must be 'text' or 'json')", s)
	}
	return format, nil
}

// Inspection is the parsed content of one .ics file
type Inspection struct {
	File string `json:"file"`
	*calendar.Summary
}

// WriteReport writes the result of an export run in the specified format
func WriteReport(w io.Writer, report *export.Report, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, report)
	case FormatText:
		return writeReportText(w, report, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteInspections writes parsed calendar files in the specified format
func WriteInspections(w io.Writer, results []Inspection, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, results)
	case FormatText:
		return writeInspectionsText(w, results)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs v as indented JSON
func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func writeReportText(w io.Writer, report *export.Report, verbose bool) error {
	if len(report.Groups) == 0 {
		fmt.Fprintln(w, "No events found.")
	}

	for _, g := range report.Groups {
		fmt.Fprintf(w, "%s (%d %s):\n", g.Name, g.Events, plural(g.Events, "event", "events"))
		fmt.Fprintf(w, "  CSV: %s\n", g.CSVPath)
		fmt.Fprintf(w, "  ICS: %s\n", g.ICSPath)
		for _, warning := range g.Warnings {
			fmt.Fprintf(w, "  WARN: %s\n", warning)
		}
	}

	if len(report.Skipped) > 0 {
		fmt.Fprintf(w, "\nNo events under: %s\n", strings.Join(report.Skipped, ", "))
	}

	if len(report.Groups) > 0 {
		fmt.Fprintf(w, "\nTotal: %d %s in %d %s\n",
			report.TotalEvents(), plural(report.TotalEvents(), "event", "events"),
			len(report.Groups), plural(len(report.Groups), "group", "groups"))
	}

	if verbose {
		fmt.Fprintf(w, "Source: %s\n", report.Source)
		fmt.Fprintf(w, "Generated: %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	}

	return nil
}

func writeInspectionsText(w io.Writer, results []Inspection) error {
	for i, res := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}

		name := res.Name
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Fprintf(w, "%s: %s (%d %s)\n", res.File, name, len(res.Entries), plural(len(res.Entries), "event", "events"))

		for _, e := range res.Entries {
			when := e.Start
			if e.End != "" {
				when += " → " + e.End
			}
			if when == "" {
				when = "(no date)"
			}
			if e.AllDay {
				when += " (all day)"
			}
			fmt.Fprintf(w, "  %-40s %s\n", e.Summary, when)
		}
	}
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
