package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/uiucal/uiucal/internal/event"
)

// unsafeChars matches anything that is not a letter, digit, underscore,
// dash, dot or space.
var unsafeChars = regexp.MustCompile(`[^\p{L}\p{N}_\-. ]`)

// SanitizeFilename turns a group heading into a file base name:
// "Spring 2025 (Undergrad)" becomes "Spring_2025__Undergrad_".
func SanitizeFilename(s string) string {
	s = unsafeChars.ReplaceAllString(s, "_")
	return strings.ReplaceAll(strings.TrimSpace(s), " ", "_")
}

// Sink receives the artifacts of one group. Both methods return a
// description of where the artifact went.
type Sink interface {
	WriteCSV(base string, records []*event.Record) (string, error)
	WriteICS(base, content string) (string, error)
}

// FileSink writes artifacts as files in a directory
type FileSink struct {
	dir string
}

// NewFileSink creates a FileSink rooted at dir, creating it if needed.
func NewFileSink(dir string) (*FileSink, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, dir[2:])
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	return &FileSink{dir: dir}, nil
}

// Dir returns the output directory.
func (s *FileSink) Dir() string {
	return s.dir
}

// WriteCSV writes <dir>/<base>.csv with a header row.
func (s *FileSink) WriteCSV(base string, records []*event.Record) (string, error) {
	path := filepath.Join(s.dir, base+".csv")

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating csv file: %w", err)
	}

	if err := WriteCSV(f, records); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing csv file: %w", err)
	}
	return path, nil
}

// WriteICS writes <dir>/<base>.ics.
func (s *FileSink) WriteICS(base, content string) (string, error) {
	path := filepath.Join(s.dir, base+".ics")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("writing ics file: %w", err)
	}
	return path, nil
}

// WriteCSV encodes records as CSV with CRLF line endings, header first.
func WriteCSV(w io.Writer, records []*event.Record) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	if err := cw.Write(event.CSVHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, rec := range records {
		if err := cw.Write(rec.Row()); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}

// DryRunSink prints what would be written without touching the filesystem
type DryRunSink struct {
	w io.Writer
}

// NewDryRunSink creates a dry-run sink printing to w.
func NewDryRunSink(w io.Writer) *DryRunSink {
	return &DryRunSink{w: w}
}

// WriteCSV prints the CSV that would be written.
func (s *DryRunSink) WriteCSV(base string, records []*event.Record) (string, error) {
	name := base + ".csv"
	fmt.Fprintf(s.w, "--- %s (%d events) ---\n", name, len(records))
	if err := WriteCSV(s.w, records); err != nil {
		return "", err
	}
	fmt.Fprintln(s.w)
	return "(dry-run) " + name, nil
}

// WriteICS prints the calendar that would be written.
func (s *DryRunSink) WriteICS(base, content string) (string, error) {
	name := base + ".ics"
	fmt.Fprintf(s.w, "--- %s ---\n", name)
	if _, err := io.WriteString(s.w, content); err != nil {
		return "", fmt.Errorf("writing dry-run output: %w", err)
	}
	fmt.Fprintln(s.w)
	return "(dry-run) " + name, nil
}
