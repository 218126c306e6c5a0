package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/viper"
)

// ConfigFileName is the optional configuration file consulted below flags.
const ConfigFileName = "pkgfetch.toml"

// DefaultFeedURL is the public reproducibility status feed.
const DefaultFeedURL = "https://tests.reproducible-builds.org/reproducible.json.bz2"

// Options is the full configuration surface the core operates on. It is
// resolved once at startup and passed explicitly into gates, preflight and
// workflows; nothing reads configuration globals.
type Options struct {
	// Gate behavior.
	AllowUnauthenticated bool `mapstructure:"allow-unauthenticated"`
	AllowUnreproducible  bool `mapstructure:"allow-unreproducible"`
	AssumeYes            bool `mapstructure:"assume-yes"`
	// ForceYes is deprecated; kept for compatibility with old automation.
	ForceYes bool `mapstructure:"force-yes"`

	// Output and run mode.
	Quiet           int  `mapstructure:"quiet"`
	Simulate        bool `mapstructure:"simulate"`
	PrintURIs       bool `mapstructure:"print-uris"`
	DownloadOnly    bool `mapstructure:"download-only"`
	DownloadEnabled bool `mapstructure:"download"`

	// Reproducibility feed.
	FeedURL        string `mapstructure:"feed-url"`
	FeedCacheFile  string `mapstructure:"feed-cache-file"`
	DefaultRelease string `mapstructure:"default-release"`
	Architecture   string `mapstructure:"architecture"`

	// SandboxUser, when non-empty, means fetches run as an unprivileged
	// user and the unprivileged free-block count is authoritative.
	SandboxUser string `mapstructure:"sandbox-user"`

	// Cache layout and locking.
	ArchiveDir string `mapstructure:"archive-dir"`
	ListsDir   string `mapstructure:"lists-dir"`
	NoLocking  bool   `mapstructure:"no-locking"`

	// Index files consumed by the file-backed package index.
	SourcesFile string `mapstructure:"sources-file"`
	IndexFile   string `mapstructure:"index-file"`

	// Pulse is the progress-pulse interval handed to the fetch engine;
	// zero lets the engine choose.
	Pulse time.Duration `mapstructure:"pulse"`
}

// Default returns Options with every knob at its stock value, rooted under
// the user's cache directory.
func Default() Options {
	root := defaultRoot()
	return Options{
		DownloadEnabled: true,
		FeedURL:         DefaultFeedURL,
		FeedCacheFile:   filepath.Join(root, "reproducible.json.bz2"),
		DefaultRelease:  "unstable",
		Architecture:    runtime.GOARCH,
		ArchiveDir:      filepath.Join(root, "archives"),
		ListsDir:        filepath.Join(root, "lists"),
		SourcesFile:     filepath.Join(root, "sources.yaml"),
		IndexFile:       filepath.Join(root, "index.toml"),
	}
}

func defaultRoot() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "pkgfetch")
	}
	return ".pkgfetch"
}

// Load resolves Options with viper precedence: defaults < pkgfetch.toml in
// the working directory < values already set on v (flags).
func Load(v *viper.Viper) (Options, error) {
	wd, err := os.Getwd()
	if err != nil {
		return Options{}, fmt.Errorf("getting working directory: %w", err)
	}
	return load(v, filepath.Join(wd, ConfigFileName))
}

// load is the internal implementation that accepts an explicit config file
// path, making it testable without touching the real working directory.
func load(v *viper.Viper, configPath string) (Options, error) {
	if v == nil {
		v = viper.New()
	}

	def := Default()
	v.SetDefault("download", def.DownloadEnabled)
	v.SetDefault("feed-url", def.FeedURL)
	v.SetDefault("feed-cache-file", def.FeedCacheFile)
	v.SetDefault("default-release", def.DefaultRelease)
	v.SetDefault("architecture", def.Architecture)
	v.SetDefault("archive-dir", def.ArchiveDir)
	v.SetDefault("lists-dir", def.ListsDir)
	v.SetDefault("sources-file", def.SourcesFile)
	v.SetDefault("index-file", def.IndexFile)

	v.SetConfigType("toml")
	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		if err := v.MergeInConfig(); err != nil {
			return Options{}, fmt.Errorf("reading %s: %w", configPath, err)
		}
	}

	opts := Options{}
	if err := v.Unmarshal(&opts); err != nil {
		return Options{}, fmt.Errorf("unmarshaling options: %w", err)
	}

	return opts, nil
}
