package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/reefnet-go/cmd/combine"
	"github.com/tphakala/reefnet-go/cmd/filelist"
	"github.com/tphakala/reefnet-go/cmd/kernel"
	"github.com/tphakala/reefnet-go/cmd/nightwindow"
	"github.com/tphakala/reefnet-go/cmd/richness"
	"github.com/tphakala/reefnet-go/cmd/shannon"
	"github.com/tphakala/reefnet-go/cmd/support"
	"github.com/tphakala/reefnet-go/internal/conf"
	"github.com/tphakala/reefnet-go/internal/logging"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "reefnet",
		Short:        "ReefNET-Go reef soundscape analysis CLI",
		SilenceUsage: true,
	}

	setupFlags(rootCmd, settings)

	subcommands := []*cobra.Command{
		filelist.Command(settings),
		combine.Command(settings),
		shannon.Command(settings),
		richness.Command(settings),
		nightwindow.Command(settings),
		kernel.Command(settings),
		support.Command(settings),
	}
	rootCmd.AddCommand(subcommands...)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// Sync the settings struct with viper so command-line arguments
		// take precedence over config file values.
		if err := viper.Unmarshal(settings); err != nil {
			return err
		}
		if settings.Debug {
			logging.SetLevel(slog.LevelDebug)
		}

		// filelist and support operate without a study data tree.
		if cmd.Name() == "filelist" || cmd.Name() == "support" {
			return nil
		}
		return conf.ValidateSettings(settings)
	}

	return rootCmd
}

// setupFlags defines the flags global to the whole command line interface.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVarP(&settings.BaseDir, "basedir", "b", viper.GetString("basedir"), "Root of the acoustic study data tree")
	rootCmd.PersistentFlags().StringVarP(&settings.Output.Path, "output", "o", viper.GetString("output.path"), "Directory for result CSV tables")
	rootCmd.PersistentFlags().Float64VarP(&settings.Analysis.LogitCutoff, "cutoff", "l", viper.GetFloat64("analysis.logitcutoff"), "Minimum inference logit for a detection to count")
	rootCmd.PersistentFlags().Float64VarP(&settings.Analysis.Coverage.Threshold, "coverage", "c", viper.GetFloat64("analysis.coverage.threshold"), "Minimum fraction of expected daily recordings per site-day")
	rootCmd.PersistentFlags().BoolVar(&settings.Analysis.Coverage.Deduplicate, "dedupe", viper.GetBool("analysis.coverage.deduplicate"), "Deduplicate identical filenames before counting coverage")

	// Bind each flag to its config key so flag values win over the file.
	flags := rootCmd.PersistentFlags()
	bindings := map[string]string{
		"debug":                         "debug",
		"basedir":                       "basedir",
		"output.path":                   "output",
		"analysis.logitcutoff":          "cutoff",
		"analysis.coverage.threshold":   "coverage",
		"analysis.coverage.deduplicate": "dedupe",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			logging.Error("error binding flag", "flag", flag, "error", err)
		}
	}
}
