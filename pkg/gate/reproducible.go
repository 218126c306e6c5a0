package gate

import (
	"context"
	"fmt"
	"io"

	"github.com/pkgfetch/pkgfetch/pkg/acquire"
	"github.com/pkgfetch/pkgfetch/pkg/config"
	"github.com/pkgfetch/pkgfetch/pkg/repro"
)

// SourceResolver maps a binary package name to its owning source package.
// An empty result is not an error; the binary name is used instead.
type SourceResolver interface {
	SourcePackage(binary string) (string, error)
}

// CheckReproducible refreshes the status feed and queries it for every
// item's source package. Items without a reproducible record go through
// the shared decision policy. Any failure to refresh the feed, resolve a
// source package or run a query aborts the whole gate.
func CheckReproducible(ctx context.Context, b *acquire.Batch, opts config.Options, res SourceResolver, client *repro.Client, c Confirmer, out io.Writer, promptUser bool) error {
	if opts.AllowUnreproducible {
		return nil
	}

	if err := client.Refresh(ctx); err != nil {
		return fmt.Errorf("could not update reproducible cache: %w", err)
	}

	var unreproducible []string
	for _, it := range b.Items() {
		binary := it.ShortDesc

		src, err := res.SourcePackage(binary)
		if err != nil {
			return fmt.Errorf("could not check source package name: %w", err)
		}
		if src == "" {
			src = binary
		}

		ok, err := client.Reproducible(ctx, opts.DefaultRelease, src, opts.Architecture)
		if err != nil {
			return err
		}
		if !ok {
			unreproducible = append(unreproducible, binary)
		}
	}

	if len(unreproducible) == 0 {
		return nil
	}

	return Decide(unreproducible, Policy{
		Override:     opts.AllowUnreproducible,
		OverrideNote: "Unreproducible warning overridden.",
		ListLabel:    "The following packages are not reproducible!",
		Question:     "Install these packages anyway?",
		Err:          ErrNotReproducible,
		AllowFlag:    "allow-unreproducible",
	}, opts, c, out, promptUser)
}
