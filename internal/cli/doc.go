// Package cli implements the command-line interface for uiucal.
//
// The root command scrapes the calendar and writes the per-heading CSV and
// iCalendar files; inspect reads generated .ics files back, and config shows
// or initializes the YAML configuration. Settings are resolved through viper
// (flags, UIUCAL_* environment variables, config file, defaults).
package cli
