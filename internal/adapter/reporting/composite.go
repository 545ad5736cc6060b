package reporting

import (
	"context"

	"nabot/internal/domain/model"
	"nabot/internal/domain/ports"
)

// CompositeReporter forwards matches to several reporters in order.
type CompositeReporter struct {
	logger    ports.Logger
	reporters []ports.Reporter
}

var _ ports.Reporter = (*CompositeReporter)(nil)

// NewCompositeReporter skips nil reporters so optional sinks can be passed unconditionally.
func NewCompositeReporter(logger ports.Logger, reporters ...ports.Reporter) *CompositeReporter {
	active := make([]ports.Reporter, 0, len(reporters))
	for _, r := range reporters {
		if r != nil {
			active = append(active, r)
		}
	}
	return &CompositeReporter{
		logger:    logger,
		reporters: active,
	}
}

// Report calls every reporter and returns the first error after all have run.
func (c *CompositeReporter) Report(ctx context.Context, subject string, matches []model.Match) error {
	var firstErr error
	for _, r := range c.reporters {
		if err := r.Report(ctx, subject, matches); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			if c.logger != nil {
				c.logger.Error(ctx, "reporter failed", "subject", subject, "error", err)
			}
		}
	}
	return firstErr
}
