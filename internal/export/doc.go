// Package export runs one scrape of the academic calendar and writes a CSV
// and an iCalendar file for every heading that has events.
package export
