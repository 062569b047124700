package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	backoff "github.com/cenkalti/backoff/v4"
	"github.com/uiucal/uiucal/internal/logger"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"
)

const (
	DefaultURL       = "https://www.uiu.ac.bd/academics/calendar/"
	DefaultUserAgent = "uiucal/1.0 (+https://github.com/uiucal/uiucal)"
	DefaultTimeout   = 30 * time.Second

	maxBodyBytes = 10 << 20
)

// ErrDisallowed is returned when robots.txt forbids fetching the page.
var ErrDisallowed = errors.New("disallowed by robots.txt")

// StatusError reports a non-200 response from the calendar site.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.Code)
}

// Section is one collapsible block of the calendar page: its heading and
// the text cells of every table row inside it.
type Section struct {
	Heading string     `json:"heading"`
	Rows    [][]string `json:"rows"`
}

// Scraper fetches and parses the academic calendar page
type Scraper struct {
	client    *http.Client
	url       string
	userAgent string
	retries   int
	robots    *RobotsChecker
	limiter   *rate.Limiter

	buildBackoff func() backoff.BackOff
}

// Option configures a Scraper
type Option func(*Scraper)

// WithURL sets the page to scrape.
func WithURL(u string) Option {
	return func(s *Scraper) { s.url = u }
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(s *Scraper) { s.userAgent = ua }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Scraper) { s.client.Timeout = d }
}

// WithRetries sets how many times a failed fetch is retried.
func WithRetries(n int) Option {
	return func(s *Scraper) {
		if n < 0 {
			n = 0
		}
		s.retries = n
	}
}

// WithBackoff sets the wait schedule between retries.
func WithBackoff(factory func() backoff.BackOff) Option {
	return func(s *Scraper) { s.buildBackoff = factory }
}

// WithMinInterval spaces consecutive requests at least d apart.
func WithMinInterval(d time.Duration) Option {
	return func(s *Scraper) {
		if d <= 0 {
			s.limiter.SetLimit(rate.Inf)
			return
		}
		s.limiter.SetLimit(rate.Every(d))
	}
}

// WithRobots enables or disables the robots.txt check.
func WithRobots(enabled bool) Option {
	return func(s *Scraper) {
		if !enabled {
			s.robots = nil
			return
		}
		s.robots = NewRobotsChecker(s.client)
	}
}

func defaultBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxElapsedTime = time.Minute
	return b
}

// New creates a new Scraper. By default robots.txt is honoured and requests
// are spaced one second apart.
func New(opts ...Option) *Scraper {
	client := &http.Client{Timeout: DefaultTimeout}
	s := &Scraper{
		client:    client,
		url:       DefaultURL,
		userAgent: DefaultUserAgent,
		robots:    NewRobotsChecker(client),
		limiter:   rate.NewLimiter(rate.Every(time.Second), 1),

		buildBackoff: defaultBackoff,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// URL returns the page the scraper reads.
func (s *Scraper) URL() string {
	return s.url
}

// Fetch downloads the calendar page and splits it into sections.
// Any failure here is fatal for the run.
func (s *Scraper) Fetch(ctx context.Context) ([]Section, error) {
	if s.robots != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		allowed, delay, err := s.robots.CanFetch(ctx, s.url, s.userAgent)
		if err != nil {
			return nil, fmt.Errorf("checking robots.txt: %w", err)
		}
		if !allowed {
			return nil, fmt.Errorf("fetching %s: %w", s.url, ErrDisallowed)
		}
		if delay > 0 && rate.Every(delay) < s.limiter.Limit() {
			logger.Debug("honouring crawl delay", logger.Fields{"delay": delay.String()})
			s.limiter.SetLimit(rate.Every(delay))
		}
	}

	start := time.Now()
	body, err := s.fetchWithRetry(ctx)
	logger.RecordTiming("fetch", time.Since(start))
	if err != nil {
		return nil, err
	}

	return Parse(strings.NewReader(body))
}

func (s *Scraper) fetchWithRetry(ctx context.Context) (string, error) {
	var body string
	attempt := 0

	fetch := func() error {
		if err := s.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		attempt++

		b, err := s.get(ctx)
		if err != nil {
			if !retryable(ctx, err) {
				return backoff.Permanent(err)
			}
			return err
		}
		body = b
		return nil
	}

	notify := func(err error, wait time.Duration) {
		logger.Warn("fetch failed, retrying", logger.Fields{
			"url":     s.url,
			"attempt": attempt,
			"wait":    wait.String(),
			"error":   err.Error(),
		})
	}

	b := backoff.WithContext(backoff.WithMaxRetries(s.buildBackoff(), uint64(s.retries)), ctx)
	if err := backoff.RetryNotify(fetch, b, notify); err != nil {
		return "", err
	}
	return body, nil
}

func (s *Scraper) get(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching page: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("reading page: %w", err)
	}
	return string(data), nil
}

// retryable reports whether a failed request is worth repeating: server
// errors and transport failures are, client errors and cancellation are not.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 500
	}
	var ue *url.Error
	return errors.As(err, &ue)
}

// Parse extracts every <details> block that has a <summary> heading.
// Rows without <td> cells (header rows) are dropped.
func Parse(r io.Reader) ([]Section, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	sections := make([]Section, 0)
	doc.Find("details").Each(func(_ int, details *goquery.Selection) {
		summary := details.Find("summary").First()
		if summary.Length() == 0 {
			return
		}

		sec := Section{
			Heading: nodeText(summary),
			Rows:    make([][]string, 0),
		}
		details.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			cells := make([]string, 0)
			tr.Find("td").Each(func(_ int, td *goquery.Selection) {
				cells = append(cells, nodeText(td))
			})
			if len(cells) > 0 {
				sec.Rows = append(sec.Rows, cells)
			}
		})
		sections = append(sections, sec)
	})

	return sections, nil
}

// nodeText joins the trimmed text nodes under sel without separators:
// "<td> Feb 18 <b>2025</b> </td>" reads "Feb 182025".
func nodeText(sel *goquery.Selection) string {
	var b strings.Builder
	for _, n := range sel.Nodes {
		writeText(&b, n)
	}
	return b.String()
}

func writeText(b *strings.Builder, n *html.Node) {
	if n.Type == html.TextNode {
		b.WriteString(strings.TrimSpace(n.Data))
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
}
