// Package storage writes the per-group artifacts of an export.
//
// A FileSink writes <base>.csv and <base>.ics into an output directory
// (default ./csvs), where base is the sanitized group heading. A DryRunSink
// prints the same content to a writer instead. CSV files use CRLF row
// endings and start with the Google Calendar import header.
package storage
