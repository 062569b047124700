package event

import (
	"testing"
	"time"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
		want     string
		wantOK   bool
	}{
		{"abbreviated month", "Feb 18, 2025", "02/18/2025", true},
		{"single digit day", "Jun 1, 2025", "06/01/2025", true},
		{"full month name", "September 9, 2025", "09/09/2025", true},
		{"lowercase month", "dec 25, 2025", "12/25/2025", true},
		{"missing year", "Feb 18", "Feb 18", false},
		{"placeholder", "TBD", "TBD", false},
		{"already canonical", "02/18/2025", "02/18/2025", false},
		{"empty", "", "", false},
		{"impossible day", "Feb 30, 2025", "Feb 30, 2025", false},
		{"no-break space", "Feb\u00a018, 2025", "02/18/2025", true},
		{"mixed whitespace runs", "Feb \u00a0\t18,\u00a0 2025", "02/18/2025", true},
		{"degraded keeps no-break space", "Feb\u00a018", "Feb\u00a018", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeDate(tt.fragment)
			if got != tt.want {
				t.Errorf("NormalizeDate(%q) = %q, want %q", tt.fragment, got, tt.want)
			}
			if ok != tt.wantOK {
				t.Errorf("NormalizeDate(%q) ok = %v, want %v", tt.fragment, ok, tt.wantOK)
			}
		})
	}
}

func TestFormatDate_IdempotentOnFailure(t *testing.T) {
	for _, s := range []string{"TBD", "To be announced", "Feb 18"} {
		once := FormatDate(s)
		if twice := FormatDate(once); twice != once || once != s {
			t.Errorf("FormatDate(%q) = %q then %q, want input unchanged", s, once, twice)
		}
	}
}

func TestParseCanonical(t *testing.T) {
	got := ParseCanonical("02/18/2025")
	want := time.Date(2025, time.February, 18, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("ParseCanonical() = %v, want %v", got, want)
	}

	for _, s := range []string{"", "TBD", "Feb 18, 2025"} {
		if got := ParseCanonical(s); !got.IsZero() {
			t.Errorf("ParseCanonical(%q) = %v, want zero time", s, got)
		}
	}
}
