package arxiv

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"

	"nabot/internal/domain/model"
	"nabot/internal/domain/ports"
)

const defaultFeedBaseURL = "https://rss.arxiv.org"

// FeedProvider reads the daily RSS announcement feed of a subject category.
type FeedProvider struct {
	listing *ListingProvider
	parser  *gofeed.Parser
}

var _ ports.ListingProvider = (*FeedProvider)(nil)

// NewFeedProvider builds an RSS-backed provider sharing the HTTP settings of the listing scraper.
func NewFeedProvider(timeout time.Duration, limiter *rate.Limiter, logger ports.Logger) *FeedProvider {
	listing := NewListingProvider(timeout, limiter, logger)
	listing.baseURL = defaultFeedBaseURL
	return &FeedProvider{
		listing: listing,
		parser:  gofeed.NewParser(),
	}
}

// WithBaseURL points the provider at another host, e.g. a test server.
func (f *FeedProvider) WithBaseURL(baseURL string) *FeedProvider {
	f.listing.WithBaseURL(baseURL)
	return f
}

// FeedURL returns the RSS address for a subject.
func FeedURL(baseURL, subject string) string {
	return fmt.Sprintf("%s/rss/%s", baseURL, subject)
}

// FetchListing downloads the feed and keeps at most maxResults items with an
// abstract link. The XML prolog decides the charset.
func (f *FeedProvider) FetchListing(ctx context.Context, subject string, maxResults int) ([]model.Entry, error) {
	p := f.listing
	body, err := fetch(ctx, p.httpClient, p.limiter, FeedURL(p.baseURL, subject), "application/rss+xml, application/xml", false)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	feed, err := f.parser.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse %s feed: %w", subject, err)
	}

	entries := make([]model.Entry, 0, len(feed.Items))
	for _, item := range feed.Items {
		if maxResults > 0 && len(entries) >= maxResults {
			break
		}
		entry, ok := entryFromItem(item)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}

	if p.logger != nil {
		p.logger.Debug(ctx, "parsed arxiv feed", "subject", subject, "entries", len(entries))
	}
	return entries, nil
}

func entryFromItem(item *gofeed.Item) (model.Entry, bool) {
	if item == nil {
		return model.Entry{}, false
	}

	idx := strings.LastIndex(item.Link, "/abs/")
	if idx < 0 {
		return model.Entry{}, false
	}
	id := normalizeID(item.Link[idx+len("/abs/"):])
	if id == "" {
		return model.Entry{}, false
	}

	names := make([]string, 0, len(item.Authors))
	for _, a := range item.Authors {
		if a != nil && strings.TrimSpace(a.Name) != "" {
			names = append(names, strings.TrimSpace(a.Name))
		}
	}

	return model.Entry{
		ArxivID: id,
		Title:   strings.TrimSpace(item.Title),
		Authors: strings.Join(names, ", "),
		Link:    absBaseURL + id,
	}, true
}
