package arxiv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"nabot/internal/domain/model"
	"nabot/internal/domain/ports"
)

const (
	defaultBaseURL = "https://arxiv.org"
	absBaseURL     = "https://arxiv.org/abs/"
	userAgent      = "Mozilla/5.0 (compatible; nabot/1.0; +https://arxiv.org/help/api)"
)

// ErrUnexpectedStatus indicates a non-2xx response from arXiv.
var ErrUnexpectedStatus = errors.New("unexpected status code")

// ListingProvider scrapes the HTML "recent" listing of a subject category.
type ListingProvider struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     ports.Logger
	baseURL    string
}

var _ ports.ListingProvider = (*ListingProvider)(nil)

// NewListingProvider builds a ListingProvider. A nil limiter disables pacing.
func NewListingProvider(timeout time.Duration, limiter *rate.Limiter, logger ports.Logger) *ListingProvider {
	return &ListingProvider{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		logger:     logger,
		baseURL:    defaultBaseURL,
	}
}

// WithBaseURL points the provider at another host, e.g. a test server.
func (p *ListingProvider) WithBaseURL(baseURL string) *ListingProvider {
	p.baseURL = strings.TrimRight(baseURL, "/")
	return p
}

// ListingURL returns the address of the first page of recent submissions.
func ListingURL(baseURL, subject string, maxResults int) string {
	return fmt.Sprintf("%s/list/%s/recent?skip=0&show=%d", baseURL, subject, maxResults)
}

// FetchListing downloads one listing page and parses its entries.
func (p *ListingProvider) FetchListing(ctx context.Context, subject string, maxResults int) ([]model.Entry, error) {
	body, err := fetch(ctx, p.httpClient, p.limiter, ListingURL(p.baseURL, subject, maxResults), "text/html", true)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	entries, err := ParseListing(body)
	if err != nil {
		return nil, err
	}

	if p.logger != nil {
		p.logger.Debug(ctx, "parsed arxiv listing", "subject", subject, "entries", len(entries))
	}
	return entries, nil
}

// ParseListing extracts entries from paired <dt>/<dd> blocks. Pairs without an
// abstract link are skipped; missing titles or author lines become "".
func ParseListing(r io.Reader) ([]model.Entry, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse listing html: %w", err)
	}

	doc := goquery.NewDocumentFromNode(root)
	terms := doc.Find("dt")
	details := doc.Find("dd")

	n := terms.Length()
	if details.Length() < n {
		n = details.Length()
	}

	entries := make([]model.Entry, 0, n)
	for i := 0; i < n; i++ {
		dt := terms.Eq(i)
		dd := details.Eq(i)

		link := dt.Find(`a[title="Abstract"]`).First()
		if link.Length() == 0 {
			continue
		}
		id := normalizeID(link.Text())
		if id == "" {
			continue
		}

		entries = append(entries, model.Entry{
			ArxivID: id,
			Title:   descriptorText(dd.Find("div.list-title.mathjax"), "Title:"),
			Authors: descriptorText(dd.Find("div.list-authors"), "Authors:"),
			Link:    absBaseURL + id,
		})
	}

	return entries, nil
}

func descriptorText(sel *goquery.Selection, label string) string {
	if sel.Length() == 0 {
		return ""
	}
	return strings.TrimSpace(strings.ReplaceAll(sel.First().Text(), label, ""))
}

func normalizeID(raw string) string {
	id := strings.TrimSpace(raw)
	id = strings.TrimPrefix(id, "arXiv:")
	return strings.TrimSpace(id)
}

// fetch performs a paced GET. With decodeHTML the body is decoded to UTF-8
// using the Content-Type header and HTML meta sniffing; otherwise it is
// returned as served, for parsers that honour their own encoding declaration.
func fetch(ctx context.Context, client *http.Client, limiter *rate.Limiter, url, accept string, decodeHTML bool) (io.ReadCloser, error) {
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("wait for rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", accept)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("perform request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s for %s", ErrUnexpectedStatus, resp.Status, url)
	}

	if !decodeHTML {
		return resp.Body, nil
	}

	reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("decode response charset: %w", err)
	}

	return struct {
		io.Reader
		io.Closer
	}{reader, resp.Body}, nil
}
