// Package scraper provides HTTP fetching and HTML parsing for the academic calendar page.
//
// The calendar page lists events in collapsible <details> blocks, one per
// semester or category, each holding a table. The scraper fetches the page
// (honouring robots.txt and spacing requests with a rate limiter), then
// returns every block as a Section: the <summary> heading and the trimmed
// text of each row's <td> cells. It does not interpret the cells; that is
// the job of the event package.
package scraper
