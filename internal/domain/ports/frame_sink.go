package ports

import "context"

// FrameSink records successive snapshots of a nodal field, e.g. as animation frames.
type FrameSink interface {
	WriteFrame(ctx context.Context, values []float64) error
	Close() error
}
