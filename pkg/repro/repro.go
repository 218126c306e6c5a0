// Package repro talks to the external reproducibility status feed: a
// compressed JSON document keyed by suite, package, status and
// architecture. The feed is mirrored into a local cache file with a
// conditional download and queried through an external jq pipeline.
package repro

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog/log"

	"github.com/pkgfetch/pkgfetch/pkg/config"
)

// Client refreshes and queries the status feed. Run is the injectable
// "run command, capture first line" capability; tests stub it.
type Client struct {
	FeedURL   string
	CacheFile string
	HTTP      *retryablehttp.Client
	Run       Runner
}

func NewClient(opts config.Options) *Client {
	h := retryablehttp.NewClient()
	h.Logger = nil
	return &Client{
		FeedURL:   opts.FeedURL,
		CacheFile: opts.FeedCacheFile,
		HTTP:      h,
		Run:       ShellFirstLine,
	}
}

// Refresh updates the local cache file with a conditional fetch: the
// request carries If-Modified-Since from the cache's mtime, and a 304
// leaves the cache untouched. A fresh body replaces the cache atomically.
func (c *Client) Refresh(ctx context.Context) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.FeedURL, nil)
	if err != nil {
		return fmt.Errorf("building feed request: %w", err)
	}
	if st, err := os.Stat(c.CacheFile); err == nil {
		req.Header.Set("If-Modified-Since", st.ModTime().UTC().Format(http.TimeFormat))
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", c.FeedURL, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotModified:
		log.Debug().Str("cache", c.CacheFile).Msg("reproducibility feed unchanged")
		return nil
	case http.StatusOK:
	default:
		return fmt.Errorf("fetching %s: server returned %s", c.FeedURL, resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(c.CacheFile), 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.CacheFile), ".feed-*")
	if err != nil {
		return fmt.Errorf("creating temp cache: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("writing feed cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing feed cache: %w", err)
	}

	if err := os.Rename(tmp.Name(), c.CacheFile); err != nil {
		return fmt.Errorf("replacing feed cache: %w", err)
	}
	return nil
}

// Reproducible reports whether the feed has a record for the given suite,
// source package and architecture with status "reproducible". The query
// runs through an external jq pipeline over the decompressed cache; a
// failing pipeline is an error, an empty result just means no match.
func (c *Client) Reproducible(ctx context.Context, suite, pkg, arch string) (bool, error) {
	cmdline := fmt.Sprintf(
		`bunzip2 -c %s | jq --compact-output --raw-output '.[] | `+
			`select(.suite==%q) | select(.package==%q) | `+
			`select(.status=="reproducible") | select(.architecture==%q)'`,
		c.CacheFile, suite, pkg, arch)

	log.Debug().Str("package", pkg).Str("suite", suite).Msg("checking reproducibility")

	line, err := c.Run(ctx, cmdline)
	if err != nil {
		return false, fmt.Errorf("filtering reproducible status: %w", err)
	}
	return line != "", nil
}
