package repro

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

func newTestClient(feedURL, cacheFile string) *Client {
	h := retryablehttp.NewClient()
	h.Logger = nil
	h.RetryMax = 0
	return &Client{FeedURL: feedURL, CacheFile: cacheFile, HTTP: h, Run: ShellFirstLine}
}

func TestRefresh(t *testing.T) {
	body := []byte("compressed feed bytes")

	var sawConditional bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-Modified-Since") != "" {
			sawConditional = true
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Write(body)
	}))
	defer srv.Close()

	cache := filepath.Join(t.TempDir(), "feed", "reproducible.json.bz2")
	c := newTestClient(srv.URL, cache)

	// First refresh populates the cache.
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	data, err := os.ReadFile(cache)
	if err != nil {
		t.Fatalf("reading cache: %v", err)
	}
	if string(data) != string(body) {
		t.Error("cache content does not match feed body")
	}

	// Mark the cache old enough to prove 304 leaves it alone.
	old := time.Now().Add(-time.Hour)
	os.Chtimes(cache, old, old)

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("second Refresh() error = %v", err)
	}
	if !sawConditional {
		t.Error("second refresh sent no If-Modified-Since header")
	}
	data, _ = os.ReadFile(cache)
	if string(data) != string(body) {
		t.Error("304 response replaced the cache")
	}
}

func TestRefreshServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, filepath.Join(t.TempDir(), "cache.bz2"))
	if err := c.Refresh(context.Background()); err == nil {
		t.Error("Refresh() = nil error, want failure on 403")
	}
}

func TestReproducible(t *testing.T) {
	tests := map[string]struct {
		line    string
		runErr  error
		want    bool
		wantErr bool
	}{
		"matching record":    {line: `{"package":"foo"}`, want: true},
		"no matching record": {line: ""},
		"failing pipeline":   {runErr: errors.New("exit status 2"), wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			c := &Client{
				CacheFile: "/tmp/feed.bz2",
				Run: func(_ context.Context, cmdline string) (string, error) {
					if !strings.Contains(cmdline, `select(.suite=="unstable")`) {
						t.Errorf("cmdline %q does not filter by suite", cmdline)
					}
					if !strings.Contains(cmdline, `select(.package=="foo")`) {
						t.Errorf("cmdline %q does not filter by package", cmdline)
					}
					if !strings.Contains(cmdline, `select(.architecture=="amd64")`) {
						t.Errorf("cmdline %q does not filter by architecture", cmdline)
					}
					return tc.line, tc.runErr
				},
			}

			got, err := c.Reproducible(context.Background(), "unstable", "foo", "amd64")
			if (err != nil) != tc.wantErr {
				t.Fatalf("Reproducible() error = %v, wantErr %v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("Reproducible() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestShellFirstLine(t *testing.T) {
	tests := map[string]struct {
		cmdline string
		want    string
		wantErr bool
	}{
		"captures only the first line": {
			cmdline: "printf 'one\\ntwo\\n'",
			want:    "one",
		},
		"strips surrounding whitespace": {
			cmdline: "printf '  padded  \\n'",
			want:    "padded",
		},
		"empty output yields empty line": {
			cmdline: "true",
			want:    "",
		},
		"non-zero exit is an error": {
			cmdline: "exit 3",
			wantErr: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := ShellFirstLine(context.Background(), tc.cmdline)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ShellFirstLine() error = %v, wantErr %v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("ShellFirstLine() = %q, want %q", got, tc.want)
			}
		})
	}
}
