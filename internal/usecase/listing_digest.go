package usecase

import (
	"context"
	"fmt"
	"time"

	"nabot/internal/domain/ports"
)

// ListingDigest fetches subject listings, filters them and reports the matches.
type ListingDigest struct {
	listings   ports.ListingProvider
	reporter   ports.Reporter
	logger     ports.Logger
	subjects   []string
	maxResults int
	filter     Filter
}

// ListingDigestConfig controls what is fetched and what counts as a match.
type ListingDigestConfig struct {
	Subjects   []string
	MaxResults int
	Keywords   []string
	Authors    []string
}

// NewListingDigest constructs a ListingDigest use case.
func NewListingDigest(
	listings ports.ListingProvider,
	reporter ports.Reporter,
	logger ports.Logger,
	cfg ListingDigestConfig,
) *ListingDigest {
	return &ListingDigest{
		listings:   listings,
		reporter:   reporter,
		logger:     logger,
		subjects:   cfg.Subjects,
		maxResults: cfg.MaxResults,
		filter:     NewFilter(cfg.Keywords, cfg.Authors),
	}
}

// Run executes one pass over every subject. The first fetch or report error aborts the pass.
func (d *ListingDigest) Run(ctx context.Context) error {
	start := time.Now()
	d.logger.Info(ctx, "starting listing digest", "subjects", d.subjects, "max_results", d.maxResults)

	if d.filter.Empty() {
		d.logger.Warn(ctx, "watchlist is empty, nothing can match")
	}

	total := 0
	for _, subject := range d.subjects {
		entries, err := d.listings.FetchListing(ctx, subject, d.maxResults)
		if err != nil {
			d.logger.Error(ctx, "failed to fetch listing", "subject", subject, "error", err)
			return fmt.Errorf("fetch %s listing: %w", subject, err)
		}

		matches := d.filter.Select(subject, entries)
		d.logger.Info(ctx, "listing filtered", "subject", subject, "entries", len(entries), "matches", len(matches))

		if err := d.reporter.Report(ctx, subject, matches); err != nil {
			d.logger.Error(ctx, "failed to report matches", "subject", subject, "error", err)
			return fmt.Errorf("report %s matches: %w", subject, err)
		}
		total += len(matches)
	}

	d.logger.Info(ctx, "listing digest completed", "matches", total, "duration", time.Since(start))
	return nil
}
