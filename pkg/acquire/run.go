package acquire

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// RunBatch hands the batch to the engine and classifies every item's
// terminal state once the engine returns.
//
// A non-nil error is returned only when the engine-level run failed.
// Per-item hard failures are reported through failure (when supplied) and
// the batch is still considered to have run, so the caller can decide
// whether completed items should be processed. An item left StatIdle is
// recorded through transient (when supplied) instead of being treated as
// an error: the network could not be reached at all, and a later retry is
// worthwhile. With a nil transient slot an idle item counts as a hard
// failure like any other.
func RunBatch(ctx context.Context, eng Engine, b *Batch, pulse time.Duration, failure, transient *bool) error {
	if err := eng.Run(ctx, b, pulse); err != nil {
		return fmt.Errorf("running fetch batch: %w", err)
	}

	for _, it := range b.Items() {
		if it.Status == StatDone && it.Complete {
			continue
		}

		if transient != nil && it.Status == StatIdle {
			*transient = true
			continue
		}

		log.Error().Msgf("Failed to fetch %s  %s", SanitizeURI(it.URI), it.ErrorText)
		if failure != nil {
			*failure = true
		}
	}

	return nil
}
