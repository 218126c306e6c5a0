package acquire

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
)

const hashPrefix = "sha256:"

// HTTPEngine is the default Engine: sequential downloads over HTTP(S) with
// retries, plus pass-through handling of file URIs. Artifacts land in a
// partial/ directory next to their destination and are renamed into place
// only after size and hash verification.
type HTTPEngine struct {
	Client *retryablehttp.Client

	// Quiet suppresses the progress bar when non-zero.
	Quiet int
}

func NewHTTPEngine(quiet int) *HTTPEngine {
	c := retryablehttp.NewClient()
	c.RetryMax = 3
	c.Logger = nil
	return &HTTPEngine{Client: c, Quiet: quiet}
}

var _ Engine = &HTTPEngine{}

// Run fetches every pending item in order. Items are never reordered. The
// only engine-level failures are context cancellation and a nil batch;
// everything else is recorded on the items.
func (e *HTTPEngine) Run(ctx context.Context, b *Batch, pulse time.Duration) error {
	if b == nil {
		return errors.New("no batch to run")
	}

	for _, it := range b.Items() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if it.DestFile == "" || (it.Status == StatDone && it.Complete) {
			continue
		}
		e.fetchOne(ctx, it, pulse)
	}

	return nil
}

func (e *HTTPEngine) fetchOne(ctx context.Context, it *Item, pulse time.Duration) {
	u, err := url.Parse(it.URI)
	if err != nil {
		it.Status = StatError
		it.ErrorText = fmt.Sprintf("malformed URI: %v", err)
		return
	}

	if u.Scheme == "file" || u.Scheme == "" {
		e.fetchLocal(it, u)
		return
	}

	it.Status = StatFetching

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, it.URI, nil)
	if err != nil {
		it.Status = StatError
		it.ErrorText = err.Error()
		return
	}

	resp, err := e.Client.Do(req)
	if err != nil {
		if neverConnected(err) {
			// The network could not be reached at all; leave the item
			// idle so the classifier records a transient failure.
			it.Status = StatIdle
			return
		}
		it.Status = StatError
		it.ErrorText = err.Error()
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		it.Status = StatError
		it.ErrorText = fmt.Sprintf("server returned %s", resp.Status)
		return
	}

	tmp, err := e.download(it, resp.Body, pulse)
	if err != nil {
		it.Status = StatError
		it.ErrorText = err.Error()
		return
	}

	if err := os.Rename(tmp, it.DestFile); err != nil {
		it.Status = StatError
		it.ErrorText = err.Error()
		return
	}

	it.Status = StatDone
	it.Complete = true
}

// fetchLocal handles file URIs: the artifact already exists on disk, so the
// engine verifies it and points DestFile at the source instead of copying.
func (e *HTTPEngine) fetchLocal(it *Item, u *url.URL) {
	path := u.Path
	if path == "" {
		path = u.Opaque
	}

	st, err := os.Stat(path)
	if err != nil {
		it.Status = StatError
		it.ErrorText = err.Error()
		return
	}
	if it.Size > 0 && uint64(st.Size()) != it.Size {
		it.Status = StatError
		it.ErrorText = fmt.Sprintf("size mismatch: want %d, file has %d", it.Size, st.Size())
		return
	}

	it.Local = true
	it.DestFile = path
	it.Status = StatDone
	it.Complete = true
}

// download streams the body into partial/<basename> next to the
// destination, verifying size and hash, and returns the partial path.
func (e *HTTPEngine) download(it *Item, body io.Reader, pulse time.Duration) (string, error) {
	partialDir := filepath.Join(filepath.Dir(it.DestFile), "partial")
	if err := os.MkdirAll(partialDir, 0o755); err != nil {
		return "", err
	}

	tmp := filepath.Join(partialDir, filepath.Base(it.DestFile))
	f, err := os.Create(tmp)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	cw := &countingWriter{}
	w := io.MultiWriter(f, h, cw)
	if e.Quiet == 0 && it.Size > 0 {
		bar := progressbar.DefaultBytes(int64(it.Size), it.ShortDesc)
		w = io.MultiWriter(w, bar)
	}

	stop := make(chan struct{})
	if pulse > 0 {
		go func() {
			t := time.NewTicker(pulse)
			defer t.Stop()
			for {
				select {
				case <-stop:
					return
				case <-t.C:
					log.Debug().
						Str("uri", SanitizeURI(it.URI)).
						Uint64("bytes", cw.count.Load()).
						Msg("fetching")
				}
			}
		}()
	}

	n, err := io.Copy(w, body)
	close(stop)
	if err != nil {
		os.Remove(tmp)
		return "", err
	}

	if it.Size > 0 && uint64(n) != it.Size {
		os.Remove(tmp)
		return "", fmt.Errorf("size mismatch: want %d, got %d", it.Size, n)
	}
	if want := strings.TrimPrefix(it.Hash, hashPrefix); want != "" {
		if got := hex.EncodeToString(h.Sum(nil)); got != want {
			os.Remove(tmp)
			return "", fmt.Errorf("hash mismatch: want %s, got %s", want, got)
		}
	}

	return tmp, nil
}

// neverConnected reports whether err means connectivity could not be
// established at all, as opposed to a failed transfer.
func neverConnected(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial"
	}
	return false
}

type countingWriter struct {
	count atomic.Uint64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	c.count.Add(uint64(len(p)))
	return len(p), nil
}
