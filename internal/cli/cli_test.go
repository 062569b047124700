package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/uiucal/uiucal/internal/calendar"
	"github.com/uiucal/uiucal/internal/event"
)

const page = `<html><body>
<details><summary>Spring 2025</summary><table>
<tr><td>Feb 18 – 20, 2025</td><td>Tue - Thu</td><td>Midterm Exams</td></tr>
<tr><td>Mar 1, 2025</td><td>Sat</td><td>Orientation</td><td>10:00 AM - 12:00 PM</td></tr>
</table></details>
<details><summary>Summer 2025</summary><table><tr><td></td></tr></table></details>
</body></html>`

func runCmd(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func calendarServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(page))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestExportCommand(t *testing.T) {
	server := calendarServer(t)
	out := filepath.Join(t.TempDir(), "csvs")

	stdout, _, err := runCmd(t, "--url", server.URL, "--no-robots", "--out", out)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	for _, name := range []string{"Spring_2025.csv", "Spring_2025.ics"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(out, "Summer_2025.csv")); !os.IsNotExist(err) {
		t.Error("empty heading should not be written")
	}

	for _, want := range []string{"Spring 2025 (2 events):", "No events under: Summer 2025", "Total: 2 events in 1 group"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output missing %q:\n%s", want, stdout)
		}
	}
}

func TestExportCommand_DryRunJSON(t *testing.T) {
	server := calendarServer(t)
	out := filepath.Join(t.TempDir(), "never")

	stdout, _, err := runCmd(t, "--url", server.URL, "--no-robots", "--out", out, "--dry-run", "--format", "json", "--group", "spring")
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "Spring_2025.csv")); !os.IsNotExist(err) {
		t.Error("dry run should not write files")
	}
	if !strings.Contains(stdout, "--- Spring_2025.csv (2 events) ---") {
		t.Errorf("dry-run output missing CSV banner:\n%s", stdout)
	}

	idx := strings.Index(stdout, "{\n")
	if idx < 0 {
		t.Fatalf("no JSON report in output:\n%s", stdout)
	}
	var report struct {
		Groups []struct {
			Name   string `json:"name"`
			Events int    `json:"events"`
		} `json:"groups"`
	}
	if err := json.Unmarshal([]byte(stdout[idx:]), &report); err != nil {
		t.Fatalf("invalid JSON report: %v", err)
	}
	if len(report.Groups) != 1 || report.Groups[0].Events != 2 {
		t.Errorf("report = %+v", report)
	}
}

func TestExportCommand_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"invalid format", []string{"--format", "xml"}},
		{"invalid sort", []string{"--sort", "random"}},
		{"invalid url", []string{"--url", "ftp://example.com"}},
		{"missing config file", []string{"--config", "/nonexistent/uiucal.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := runCmd(t, tt.args...); err == nil {
				t.Error("Execute() expected error, got nil")
			}
		})
	}
}

func TestExportCommand_FetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, _, err := runCmd(t, "--url", server.URL, "--no-robots", "--out", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("Execute() error = %v, want status 404", err)
	}
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := runCmd(t, "version")
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if stdout != "uiucal "+Version+"\n" {
		t.Errorf("version output = %q", stdout)
	}
}

func TestConfigCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "config.yaml")

	if _, _, err := runCmd(t, "config", "init", "--config", path); err != nil {
		t.Fatalf("config init error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if !strings.Contains(string(data), "output_dir: csvs") {
		t.Errorf("config file missing defaults:\n%s", data)
	}

	if _, _, err := runCmd(t, "config", "init", "--config", path); err == nil {
		t.Error("config init should refuse to overwrite an existing file")
	}

	stdout, stderr, err := runCmd(t, "config", "show", "--config", path)
	if err != nil {
		t.Fatalf("config show error: %v", err)
	}
	if !strings.Contains(stderr, path) {
		t.Errorf("config show should name the file used, got %q", stderr)
	}
	if !strings.Contains(stdout, "uiu.ac.bd/academics/calendar") {
		t.Errorf("config show output:\n%s", stdout)
	}
}

func TestConfigShow_EnvOverride(t *testing.T) {
	t.Setenv("UIUCAL_OUTPUT_DIR", "exports")

	stdout, _, err := runCmd(t, "config", "show")
	if err != nil {
		t.Fatalf("config show error: %v", err)
	}
	if !strings.Contains(stdout, "output_dir: exports") {
		t.Errorf("env override not applied:\n%s", stdout)
	}
}

func TestInspectCommand(t *testing.T) {
	records := []*event.Record{
		{Title: "Midterm Exams", StartDate: "02/18/2025", EndDate: "02/20/2025", AllDay: true},
	}
	ics, _ := calendar.NewEncoder().Encode("Spring 2025", records)
	path := filepath.Join(t.TempDir(), "Spring_2025.ics")
	if err := os.WriteFile(path, []byte(ics), 0644); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := runCmd(t, "inspect", path)
	if err != nil {
		t.Fatalf("inspect error: %v", err)
	}
	for _, want := range []string{"Spring 2025 (1 event)", "Midterm Exams", "20250218 → 20250221 (all day)"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("inspect output missing %q:\n%s", want, stdout)
		}
	}

	if _, _, err := runCmd(t, "inspect"); err == nil {
		t.Error("inspect without files should fail")
	}
	if _, _, err := runCmd(t, "inspect", filepath.Join(t.TempDir(), "missing.ics")); err == nil {
		t.Error("inspect of a missing file should fail")
	}
}
