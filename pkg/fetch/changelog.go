package fetch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkgfetch/pkgfetch/pkg/acquire"
)

// Changelogs fetches the changelog for every selected version. The
// destination depends on the mode: discarded in print-uris mode (which
// also skips the run entirely), the working directory in download-only
// mode, and a temporary directory handed to the pager otherwise.
func (d *Downloader) Changelogs(ctx context.Context, args []string) error {
	vers, err := d.Index.Resolve(args)
	if err != nil {
		return err
	}
	if len(vers) == 0 {
		return errors.New("no packages selected")
	}

	downOnly := d.Opts.DownloadOnly
	printOnly := d.Opts.PrintURIs

	var destDir string
	switch {
	case printOnly:
		destDir = os.DevNull
	case downOnly:
		destDir, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
	default:
		destDir, err = os.MkdirTemp("", "pkgfetch-changelog-")
		if err != nil {
			return fmt.Errorf("creating changelog directory: %w", err)
		}
		defer os.RemoveAll(destDir)
	}

	batch := acquire.NewBatch()
	for _, ver := range vers {
		it := &acquire.Item{
			URI:       ver.Changelog,
			ShortDesc: ver.Package,
			Size:      0, // changelog sizes are unknown up front
			Trusted:   ver.Trusted,
		}
		if ver.Changelog == "" {
			it.ErrorText = fmt.Sprintf("no changelog source known for %s", ver.Package)
		}
		if printOnly {
			it.DestFile = os.DevNull
		} else {
			it.DestFile = filepath.Join(destDir, fmt.Sprintf("%s_%s.changelog", ver.Package, ver.Version))
		}
		batch.Add(it)
	}

	if !printOnly {
		var failed bool
		if err := acquire.RunBatch(ctx, d.Engine, batch, d.Opts.Pulse, &failed, nil); err != nil {
			return err
		}
		if failed {
			return errors.New("failed to fetch some changelogs")
		}
	}

	if downOnly && !printOnly {
		return nil
	}

	var errs []error
	for _, it := range batch.Items() {
		if printOnly {
			if it.ErrorText != "" {
				errs = append(errs, errors.New(it.ErrorText))
				continue
			}
			fmt.Fprintf(d.Out, "'%s' %s\n", it.URI, filepath.Base(it.DestFile))
			continue
		}

		if err := d.pager()(it.DestFile); err != nil {
			return fmt.Errorf("displaying changelog for %s: %w", it.ShortDesc, err)
		}
	}

	return errors.Join(errs...)
}
