// defaults.go: viper defaults, kept in sync with the embedded config.yaml.
package conf

import "github.com/spf13/viper"

func setDefaultConfig() {
	viper.SetDefault("debug", false)
	viper.SetDefault("basedir", "")

	viper.SetDefault("analysis.logitcutoff", 1.0)
	viper.SetDefault("analysis.coverage.threshold", 0.9)
	viper.SetDefault("analysis.coverage.kernelthreshold", 0.95)
	viper.SetDefault("analysis.coverage.deduplicate", false)
	viper.SetDefault("analysis.kernel.smoothing", 0.5)
	viper.SetDefault("analysis.kernel.gridpoints", 240)
	viper.SetDefault("analysis.excludesounds", []string{"snap", "snaps"})

	viper.SetDefault("output.path", "results")
	viper.SetDefault("output.sqlite.enabled", false)
	viper.SetDefault("output.sqlite.path", "reefnet.db")
	viper.SetDefault("output.log.enabled", false)
	viper.SetDefault("output.log.path", "logs/reefnet.log")
}
