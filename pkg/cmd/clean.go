package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pkgfetch/pkgfetch/pkg/cache"
	"github.com/pkgfetch/pkgfetch/pkg/index"
)

func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Erase the downloaded artifact cache",
		Long:  "Removes every file from the artifact cache and its partial subdirectory, the lists partial subdirectory, and the derived index caches.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var cacheFiles []string
			if idx, err := index.Open(Opts.SourcesFile, Opts.IndexFile); err == nil {
				cacheFiles = idx.CacheFiles()
			}
			return cache.Wipe(Opts, Opts.ArchiveDir, Opts.ListsDir, cacheFiles, cmd.OutOrStdout())
		},
	}
}

func newAutoCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "autoclean",
		Short: "Erase cached artifacts the index no longer retains",
		Long:  "Removes cached artifacts whose package and version can no longer be fetched from the current index, keeping everything still live.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := index.Open(Opts.SourcesFile, Opts.IndexFile)
			if err != nil {
				return err
			}
			return cache.AutoClean(Opts, Opts.ArchiveDir, idx, cmd.OutOrStdout())
		},
	}
}
