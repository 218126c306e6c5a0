package gate

import (
	"io"

	"github.com/pkgfetch/pkgfetch/pkg/acquire"
	"github.com/pkgfetch/pkgfetch/pkg/config"
)

// CheckTrust passes a batch whose items all come from authenticated
// origins, and otherwise puts the untrusted ones through the shared
// decision policy. Must run after the batch is fully populated and before
// the engine is invoked.
func CheckTrust(b *acquire.Batch, opts config.Options, c Confirmer, out io.Writer, promptUser bool) error {
	var untrusted []string
	for _, it := range b.Items() {
		if !it.Trusted {
			untrusted = append(untrusted, it.ShortDesc)
		}
	}

	if len(untrusted) == 0 {
		return nil
	}

	return Decide(untrusted, Policy{
		Override:     opts.AllowUnauthenticated,
		OverrideNote: "Authentication warning overridden.",
		ListLabel:    "The following packages cannot be authenticated!",
		Question:     "Install these packages without verification?",
		Err:          ErrNotAuthenticated,
		AllowFlag:    "allow-unauthenticated",
	}, opts, c, out, promptUser)
}
