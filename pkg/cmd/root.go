package cmd

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pkgfetch/pkgfetch/pkg/config"
)

// Opts holds the resolved configuration, available to all subcommands
// after PersistentPreRunE completes.
var Opts config.Options

func NewRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "pkgfetch",
		Short: "Verified package artifact downloader",
		Long:  "pkgfetch downloads package artifacts and changelogs through trust and reproducibility gates, and garbage-collects the artifact cache.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := v.BindPFlags(cmd.Root().PersistentFlags()); err != nil {
				return err
			}
			opts, err := config.Load(v)
			if err != nil {
				return err
			}
			Opts = opts
			configureLogging(opts)
			return nil
		},
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.Bool("allow-unauthenticated", false, "pass the trust gate for unauthenticated packages")
	pf.Bool("allow-unreproducible", false, "pass the reproducibility gate for unreproducible packages")
	pf.BoolP("assume-yes", "y", false, "assume yes to all prompts")
	pf.Bool("force-yes", false, "deprecated, use the --allow options instead")
	pf.CountP("quiet", "q", "reduce output, repeatable")
	pf.BoolP("simulate", "s", false, "print actions without performing them")
	pf.Bool("print-uris", false, "print fetch URIs instead of downloading")
	pf.BoolP("download-only", "d", false, "download without further processing")
	pf.Bool("download", true, "perform network downloads")
	pf.Bool("no-locking", false, "do not lock cache directories")
	pf.String("default-release", "", "release/suite for reproducibility queries")
	pf.String("architecture", "", "native architecture")

	root.AddCommand(newDownloadCmd())
	root.AddCommand(newChangelogCmd())
	root.AddCommand(newCleanCmd())
	root.AddCommand(newAutoCleanCmd())

	return root
}

func configureLogging(opts config.Options) {
	level := zerolog.InfoLevel
	switch {
	case opts.Quiet >= 2:
		level = zerolog.ErrorLevel
	case opts.Quiet == 1:
		level = zerolog.WarnLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level)
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
