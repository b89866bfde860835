// config.go: settings structures and loading for the ReefNET-Go analysis suite.
package conf

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/viper"

	"github.com/tphakala/reefnet-go/internal/errors"
)

//go:embed config.yaml
var configFiles embed.FS

// Region holds per-region recorder deployment configuration.
type Region struct {
	// Signed hour offset applied to filename timestamps. Corrects recorder
	// clocks that were set in a different timezone than the deployment site.
	OffsetHours int
	// Recorder on+off cycle length in minutes, e.g. 4 => 1 min on, 3 min off.
	DutyCycleMinutes int
	Latitude         float64
	Longitude        float64
	Timezone         string // IANA timezone name of the deployment site
}

// CoverageSettings controls the daily coverage gate.
type CoverageSettings struct {
	// Minimum fraction of expected daily recordings for a site-day to count.
	Threshold float64
	// Stricter threshold used by the kernel density analyses.
	KernelThreshold float64
	// Deduplicate identical filenames before counting coverage.
	Deduplicate bool
}

// KernelSettings controls the temporal kernel density estimation.
type KernelSettings struct {
	Smoothing  float64 // bandwidth factor applied to the sample standard deviation
	GridPoints int     // evaluation points across the 24 hour grid
}

// AnalysisSettings groups the statistical parameters shared by the commands.
type AnalysisSettings struct {
	LogitCutoff   float64 // minimum inference logit for a detection to count
	Coverage      CoverageSettings
	Kernel        KernelSettings
	ExcludeSounds []string // sound folders ignored by richness/diversity analyses
}

// OutputSettings controls where result artifacts go.
type OutputSettings struct {
	Path   string // directory for CSV result tables
	SQLite struct {
		Enabled bool
		Path    string
	}
	Log struct {
		Enabled bool
		Path    string
	}
}

// Settings contains all application settings
type Settings struct {
	Debug    bool
	BaseDir  string
	Analysis AnalysisSettings
	Output   OutputSettings
	Regions  map[string]Region
}

// Load reads the configuration into a new Settings struct.
func Load() (*Settings, error) {
	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}
	return settings, nil
}

func initViper() error {
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}
	viper.SetConfigName("config")

	viper.SetEnvPrefix("REEFNET")
	viper.AutomaticEnv()

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// No user config found, write the embedded default to the first path.
		if err := createDefaultConfig(configPaths[0]); err != nil {
			return err
		}
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading newly created config file: %w", err)
		}
	}
	return nil
}

// GetDefaultConfigPaths returns the list of directories searched for config.yaml,
// current working directory first.
func GetDefaultConfigPaths() ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return []string{"."}, nil //nolint:nilerr // fall back to cwd only
	}
	return []string{
		".",
		filepath.Join(home, ".config", "reefnet-go"),
	}, nil
}

func createDefaultConfig(dir string) error {
	configPath := filepath.Join(dir, "config.yaml")
	defaultConfig, err := configFiles.ReadFile("config.yaml")
	if err != nil {
		return fmt.Errorf("error reading embedded default config: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}
	if err := os.WriteFile(configPath, defaultConfig, 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}
	return nil
}

// RegionNames returns the configured region names in sorted order so runs are
// deterministic.
func (s *Settings) RegionNames() []string {
	names := make([]string, 0, len(s.Regions))
	for name := range s.Regions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegionConfig looks up the configuration for a region. A region absent from
// the table is a configuration error, never a silent default.
func (s *Settings) RegionConfig(region string) (Region, error) {
	r, ok := s.Regions[region]
	if !ok {
		return Region{}, errors.Newf("no configuration for region %q", region).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("region", region).
			Build()
	}
	return r, nil
}

// RegionDataDir returns the per-region data directory under the base dir.
func (s *Settings) RegionDataDir(region string) string {
	return filepath.Join(s.BaseDir, "output_dir_"+region)
}

// ResultsDir returns the directory where result CSVs are written.
func (s *Settings) ResultsDir() string {
	if filepath.IsAbs(s.Output.Path) {
		return s.Output.Path
	}
	return filepath.Join(s.BaseDir, s.Output.Path)
}
