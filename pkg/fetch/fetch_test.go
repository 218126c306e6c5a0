package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkgfetch/pkgfetch/pkg/acquire"
	"github.com/pkgfetch/pkgfetch/pkg/config"
	"github.com/pkgfetch/pkgfetch/pkg/gate"
	"github.com/pkgfetch/pkgfetch/pkg/index"
)

// fakeIndex serves a fixed version set.
type fakeIndex struct {
	vers []index.Version
}

func (f *fakeIndex) Resolve(exprs []string) ([]index.Version, error) {
	if len(exprs) == 0 {
		return nil, errors.New("no expressions")
	}
	return f.vers, nil
}

func (f *fakeIndex) SourcePackage(string) (string, error) { return "", nil }
func (f *fakeIndex) Live(string) []string                 { return nil }
func (f *fakeIndex) CacheFiles() []string                 { return nil }

// recordingEngine marks items done and remembers whether it ran.
type recordingEngine struct {
	ran   bool
	apply func(*acquire.Item)
}

func (e *recordingEngine) Run(_ context.Context, b *acquire.Batch, _ time.Duration) error {
	e.ran = true
	for _, it := range b.Items() {
		if e.apply != nil {
			e.apply(it)
		} else {
			it.Status = acquire.StatDone
			it.Complete = true
		}
	}
	return nil
}

type yesConfirmer struct{}

func (yesConfirmer) Confirm(string, bool) (bool, error) { return true, nil }

func testVersion(name, version string, size uint64) index.Version {
	return index.Version{
		Package:   name,
		Version:   version,
		Size:      size,
		SHA256:    "sha256:abcd",
		Filename:  fmt.Sprintf("%s_%s_amd64.pkg", name, version),
		URI:       fmt.Sprintf("https://archive.example.org/pool/%s_%s_amd64.pkg", name, version),
		Changelog: fmt.Sprintf("https://archive.example.org/changelogs/%s_%s.changelog", name, version),
		Trusted:   true,
	}
}

func newDownloader(idx index.Index, eng acquire.Engine, opts config.Options, out *bytes.Buffer) *Downloader {
	return &Downloader{
		Engine:  eng,
		Index:   idx,
		Opts:    opts,
		Confirm: yesConfirmer{},
		Out:     out,
	}
}

func TestDownloadPrintURIs(t *testing.T) {
	t.Chdir(t.TempDir())

	ver := testVersion("foo", "1.0-1", 1024)
	eng := &recordingEngine{}
	var out bytes.Buffer

	// Untrusted item proves no gate runs in print mode.
	ver.Trusted = false
	d := newDownloader(&fakeIndex{vers: []index.Version{ver}}, eng, config.Options{PrintURIs: true, DownloadEnabled: true}, &out)

	if err := d.Download(context.Background(), []string{"foo"}); err != nil {
		t.Fatalf("Download() error = %v", err)
	}

	want := "'https://archive.example.org/pool/foo_1.0-1_amd64.pkg' foo_1.0-1_amd64.pkg 1024 sha256:abcd\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
	if eng.ran {
		t.Error("engine ran in print-uris mode")
	}
}

func TestDownloadAlreadySatisfied(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	// Both artifacts already sit in the working directory at full size.
	v1 := testVersion("foo", "1.0-1", 4)
	v2 := testVersion("bar", "2.0-1", 4)
	for _, v := range []index.Version{v1, v2} {
		if err := os.WriteFile(filepath.Join(dir, v.Filename), []byte("data"), 0o644); err != nil {
			t.Fatalf("seeding %s: %v", v.Filename, err)
		}
	}

	eng := &recordingEngine{apply: func(it *acquire.Item) {
		t.Errorf("engine attempted to fetch %s", it.ShortDesc)
	}}

	var out bytes.Buffer
	opts := config.Options{DownloadEnabled: true, AllowUnreproducible: true}
	d := newDownloader(&fakeIndex{vers: []index.Version{v1, v2}}, eng, opts, &out)

	if err := d.Download(context.Background(), []string{"foo", "bar"}); err != nil {
		t.Fatalf("Download() error = %v", err)
	}
}

func TestDownloadUntrustedFailsNonInteractively(t *testing.T) {
	t.Chdir(t.TempDir())

	ver := testVersion("foo", "1.0-1", 1024)
	ver.Trusted = false

	var out bytes.Buffer
	opts := config.Options{DownloadEnabled: true, AllowUnreproducible: true}
	d := newDownloader(&fakeIndex{vers: []index.Version{ver}}, &recordingEngine{}, opts, &out)

	err := d.Download(context.Background(), []string{"foo"})
	if !errors.Is(err, gate.ErrNotAuthenticated) {
		t.Fatalf("Download() error = %v, want %v", err, gate.ErrNotAuthenticated)
	}
}

func TestDownloadCopiesLocalArtifacts(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "foo_1.0-1_amd64.pkg")
	if err := os.WriteFile(src, []byte("local artifact"), 0o755); err != nil {
		t.Fatalf("writing source: %v", err)
	}

	ver := testVersion("foo", "1.0-1", 14)
	ver.URI = "file://" + src

	// Engine behaves like the real one for file URIs: done, DestFile
	// repointed at the source.
	eng := &recordingEngine{apply: func(it *acquire.Item) {
		it.Local = true
		it.DestFile = src
		it.Status = acquire.StatDone
		it.Complete = true
	}}

	var out bytes.Buffer
	opts := config.Options{DownloadEnabled: true, AllowUnreproducible: true}
	d := newDownloader(&fakeIndex{vers: []index.Version{ver}}, eng, opts, &out)

	if err := d.Download(context.Background(), []string{"foo"}); err != nil {
		t.Fatalf("Download() error = %v", err)
	}

	copied := filepath.Join(dir, "foo_1.0-1_amd64.pkg")
	data, err := os.ReadFile(copied)
	if err != nil {
		t.Fatalf("reading copied artifact: %v", err)
	}
	if string(data) != "local artifact" {
		t.Error("copied artifact content mismatch")
	}

	st, _ := os.Stat(copied)
	if st.Mode().Perm() != 0o644 {
		t.Errorf("copied artifact mode = %o, want 0644", st.Mode().Perm())
	}
}

func TestDownloadReportsHardFailures(t *testing.T) {
	t.Chdir(t.TempDir())

	ver := testVersion("foo", "1.0-1", 1024)
	eng := &recordingEngine{apply: func(it *acquire.Item) {
		it.Status = acquire.StatError
		it.ErrorText = "404"
	}}

	var out bytes.Buffer
	opts := config.Options{DownloadEnabled: true, AllowUnreproducible: true}
	d := newDownloader(&fakeIndex{vers: []index.Version{ver}}, eng, opts, &out)

	if err := d.Download(context.Background(), []string{"foo"}); err == nil {
		t.Fatal("Download() = nil error, want failure for hard-failed item")
	}
}

func TestChangelogsPrintURIs(t *testing.T) {
	t.Chdir(t.TempDir())

	ver := testVersion("foo", "1.0-1", 0)
	eng := &recordingEngine{}
	var out bytes.Buffer
	d := newDownloader(&fakeIndex{vers: []index.Version{ver}}, eng, config.Options{PrintURIs: true}, &out)

	if err := d.Changelogs(context.Background(), []string{"foo"}); err != nil {
		t.Fatalf("Changelogs() error = %v", err)
	}
	if eng.ran {
		t.Error("engine ran in print-uris mode")
	}
	if !strings.Contains(out.String(), "'https://archive.example.org/changelogs/foo_1.0-1.changelog'") {
		t.Errorf("output %q missing changelog URI", out.String())
	}
}

func TestChangelogsDownloadOnly(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	ver := testVersion("foo", "1.0-1", 0)
	eng := &recordingEngine{apply: func(it *acquire.Item) {
		os.WriteFile(it.DestFile, []byte("changelog text"), 0o644)
		it.Status = acquire.StatDone
		it.Complete = true
	}}

	var out bytes.Buffer
	d := newDownloader(&fakeIndex{vers: []index.Version{ver}}, eng, config.Options{DownloadOnly: true}, &out)
	d.Pager = func(string) error {
		t.Error("pager invoked in download-only mode")
		return nil
	}

	if err := d.Changelogs(context.Background(), []string{"foo"}); err != nil {
		t.Fatalf("Changelogs() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "foo_1.0-1.changelog")); err != nil {
		t.Errorf("changelog not in working directory: %v", err)
	}
}

func TestChangelogsPagerMode(t *testing.T) {
	t.Chdir(t.TempDir())

	ver := testVersion("foo", "1.0-1", 0)
	eng := &recordingEngine{apply: func(it *acquire.Item) {
		os.WriteFile(it.DestFile, []byte("changelog text"), 0o644)
		it.Status = acquire.StatDone
		it.Complete = true
	}}

	var paged []string
	var out bytes.Buffer
	d := newDownloader(&fakeIndex{vers: []index.Version{ver}}, eng, config.Options{}, &out)
	d.Pager = func(path string) error {
		paged = append(paged, path)
		return nil
	}

	if err := d.Changelogs(context.Background(), []string{"foo"}); err != nil {
		t.Fatalf("Changelogs() error = %v", err)
	}
	if len(paged) != 1 {
		t.Fatalf("pager invoked %d times, want 1", len(paged))
	}
}

func TestChangelogsPrintURIsPropagatesItemErrors(t *testing.T) {
	t.Chdir(t.TempDir())

	ver := testVersion("foo", "1.0-1", 0)
	ver.Changelog = ""

	var out bytes.Buffer
	d := newDownloader(&fakeIndex{vers: []index.Version{ver}}, &recordingEngine{}, config.Options{PrintURIs: true}, &out)

	if err := d.Changelogs(context.Background(), []string{"foo"}); err == nil {
		t.Fatal("Changelogs() = nil error, want item error text propagated")
	}
}
