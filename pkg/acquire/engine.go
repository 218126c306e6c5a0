package acquire

import (
	"context"
	"time"
)

// Engine is the external multi-protocol transfer engine. Run blocks until
// every item in the batch has reached a terminal state or the engine itself
// fails; a non-nil error means the run could not even be carried out and no
// per-item state should be trusted. Per-item outcomes land on the items.
//
// pulse is the interval at which the engine reports progress; zero lets the
// engine choose.
type Engine interface {
	Run(ctx context.Context, b *Batch, pulse time.Duration) error
}
