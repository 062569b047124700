// Package event turns the raw text cells of an academic calendar table into
// calendar records.
//
// Date cells are written by hand and come in many shapes: single dates
// ("Feb 18, 2025"), dashed ranges that omit the month or year on one side
// ("Feb 18 – 20, 2025"), and several ranges joined by "and". ParseDateRange
// reduces a cell to a start and end fragment, and FormatDate renders each
// fragment as MM/DD/YYYY. Text that cannot be normalized is kept verbatim.
package event
