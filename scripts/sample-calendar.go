package main

import (
	"fmt"
	"os"

	"github.com/uiucal/uiucal/internal/calendar"
	"github.com/uiucal/uiucal/internal/event"
)

// Writes a sample .ics from hand-made rows so the output can be checked in a
// calendar app without scraping the live site. Run with:
//
//	go run scripts/sample-calendar.go
func main() {
	rows := [][]string{
		{"Feb 18 – 20, 2025", "Tue - Thu", "Midterm Exams"},
		{"Mar 1, 2025", "Sat", "Orientation", "10:00 AM - 12:00 PM", "Auditorium"},
		{"Jun 1 - 2, 2025 and Jun 14 - 18, 2025", "", "Final Exams"},
		{"", "", "Registration opens (date TBA)"},
	}
	group := event.BuildGroup("Sample Trimester", rows)

	icsContent, warnings := calendar.NewEncoder().Encode(group.Name, group.Records)
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	filename := "sample-calendar.ics"
	if err := os.WriteFile(filename, []byte(icsContent), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated calendar file: %s (%d events)\n\n", filename, len(group.Records))
	fmt.Println("Import it into Google Calendar, Apple Calendar, or Outlook to check it.")
	fmt.Println("\nFile contents preview:")
	fmt.Println("---")
	fmt.Println(icsContent)
}
