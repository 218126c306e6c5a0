// Package fetch implements the user-facing download workflows: package
// artifacts into the working directory, and changelogs.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/pkgfetch/pkgfetch/pkg/acquire"
	"github.com/pkgfetch/pkgfetch/pkg/config"
	"github.com/pkgfetch/pkgfetch/pkg/gate"
	"github.com/pkgfetch/pkgfetch/pkg/index"
	"github.com/pkgfetch/pkgfetch/pkg/preflight"
	"github.com/pkgfetch/pkgfetch/pkg/repro"
)

// Downloader wires the collaborators one workflow run needs.
type Downloader struct {
	Engine  acquire.Engine
	Index   index.Index
	Opts    config.Options
	Confirm gate.Confirmer
	Repro   *repro.Client
	Out     io.Writer

	// Pager displays a downloaded changelog; defaults to DisplayInPager.
	Pager func(path string) error
}

func (d *Downloader) pager() func(string) error {
	if d.Pager != nil {
		return d.Pager
	}
	return DisplayInPager
}

// Download fetches the artifacts for the selected package versions into
// the current working directory. In print-uris mode it only emits each
// item's URI, basename, size and hash; no gate runs and nothing touches
// the network.
func (d *Downloader) Download(ctx context.Context, args []string) error {
	vers, err := d.Index.Resolve(args)
	if err != nil {
		return err
	}
	if len(vers) == 0 {
		return errors.New("no packages selected for download")
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	// Destination slots correlate with items by index; a slot stays empty
	// when the artifact is already satisfied locally and no item exists.
	batch := acquire.NewBatch()
	storefile := make([]string, len(vers))
	for i, ver := range vers {
		it, dest := buildArchiveItem(ver, cwd)
		if it == nil {
			continue
		}
		storefile[i] = dest
		batch.Add(it)
	}

	if d.Opts.PrintURIs {
		for _, it := range batch.Items() {
			fmt.Fprintf(d.Out, "'%s' %s %d %s\n", it.URI, filepath.Base(it.DestFile), it.Size, it.Hash)
		}
		return nil
	}

	if err := preflight.CheckFreeSpace(cwd, batch.TotalNeeded(), d.Opts); err != nil {
		return err
	}

	// Batch downloads are not interactive installs; the gates may not
	// prompt.
	if err := gate.CheckTrust(batch, d.Opts, d.Confirm, d.Out, false); err != nil {
		return err
	}
	if err := gate.CheckReproducible(ctx, batch, d.Opts, d.Index, d.Repro, d.Confirm, d.Out, false); err != nil {
		return err
	}

	var failed bool
	if err := acquire.RunBatch(ctx, d.Engine, batch, d.Opts.Pulse, &failed, nil); err != nil {
		return err
	}

	// Artifacts from local sources stay where they are; copy them into
	// the working directory with normalized permissions.
	slot := 0
	for i := range vers {
		if storefile[i] == "" {
			continue
		}
		it := batch.Items()[slot]
		slot++

		if it.Local && it.DestFile != storefile[i] && it.Status == acquire.StatDone {
			if err := copyFile(it.DestFile, storefile[i]); err != nil {
				return fmt.Errorf("copying %s: %w", it.ShortDesc, err)
			}
		}
	}

	if failed {
		return errors.New("failed to fetch some archives")
	}
	return nil
}

// buildArchiveItem turns a resolved version into a fetch item destined
// for the working directory. When the artifact already sits there intact,
// no item is created and the destination slot stays empty.
func buildArchiveItem(ver index.Version, cwd string) (*acquire.Item, string) {
	dest := filepath.Join(cwd, filepath.Base(ver.Filename))

	if st, err := os.Stat(dest); err == nil && ver.Size > 0 && uint64(st.Size()) == ver.Size {
		return nil, ""
	}

	return &acquire.Item{
		URI:       ver.URI,
		ShortDesc: ver.Package,
		DestFile:  dest,
		Size:      ver.Size,
		Hash:      ver.SHA256,
		Trusted:   ver.Trusted,
		Local:     isLocalURI(ver.URI),
	}, dest
}

func isLocalURI(uri string) bool {
	u, err := url.Parse(uri)
	if err != nil {
		return false
	}
	return u.Scheme == "file" || u.Scheme == ""
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	// Normalize whatever mode the source had.
	return os.Chmod(dst, 0o644)
}
