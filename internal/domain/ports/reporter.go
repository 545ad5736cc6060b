package ports

import (
	"context"

	"nabot/internal/domain/model"
)

// Reporter publishes the matches found for a subject listing.
type Reporter interface {
	Report(ctx context.Context, subject string, matches []model.Match) error
}
