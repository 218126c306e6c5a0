package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pkgfetch/pkgfetch/pkg/acquire"
	"github.com/pkgfetch/pkgfetch/pkg/fetch"
	"github.com/pkgfetch/pkgfetch/pkg/gate"
	"github.com/pkgfetch/pkgfetch/pkg/index"
	"github.com/pkgfetch/pkgfetch/pkg/repro"
)

func newDownloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download [package...]",
		Short: "Download package artifacts into the working directory",
		Long: `Downloads the artifact for each selected package version into the
current working directory instead of the artifact cache.

Packages are selected by name, optionally pinned with name=version.
With --print-uris, the fetch URIs are printed and nothing is downloaded.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDownloader(cmd)
			if err != nil {
				return err
			}
			return d.Download(cmd.Context(), args)
		},
	}
}

func newChangelogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "changelog [package...]",
		Short: "Download and display package changelogs",
		Long: `Fetches the changelog for each selected package version and displays
it in a pager. With --download-only the changelogs are kept in the working
directory instead; with --print-uris only their URIs are printed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDownloader(cmd)
			if err != nil {
				return err
			}
			return d.Changelogs(cmd.Context(), args)
		},
	}
}

func newDownloader(cmd *cobra.Command) (*fetch.Downloader, error) {
	idx, err := index.Open(Opts.SourcesFile, Opts.IndexFile)
	if err != nil {
		return nil, err
	}

	return &fetch.Downloader{
		Engine:  acquire.NewHTTPEngine(Opts.Quiet),
		Index:   idx,
		Opts:    Opts,
		Confirm: gate.TerminalConfirmer{AssumeYes: Opts.AssumeYes},
		Repro:   repro.NewClient(Opts),
		Out:     cmd.OutOrStdout(),
	}, nil
}
