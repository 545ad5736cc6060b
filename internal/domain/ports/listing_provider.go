package ports

import (
	"context"

	"nabot/internal/domain/model"
)

// ListingProvider fetches the recent entries of an arXiv subject category.
type ListingProvider interface {
	FetchListing(ctx context.Context, subject string, maxResults int) ([]model.Entry, error)
}
