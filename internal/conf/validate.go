// validate.go: settings validation, run once before any command executes.
package conf

import (
	"os"

	"github.com/tphakala/reefnet-go/internal/errors"
)

// ValidateSettings checks that the loaded settings can support an analysis run.
// Any failure here is fatal; no computation can proceed without a base dir and
// a sane region table.
func ValidateSettings(settings *Settings) error {
	if settings.BaseDir == "" {
		return errors.NewStd("basedir is not set; use --basedir, REEFNET_BASEDIR or config.yaml")
	}
	if _, err := os.Stat(settings.BaseDir); err != nil {
		return errors.Newf("basedir %q is not accessible: %w", settings.BaseDir, err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("basedir", settings.BaseDir).
			Build()
	}

	if len(settings.Regions) == 0 {
		return errors.NewStd("no regions configured")
	}
	for name, region := range settings.Regions {
		if region.DutyCycleMinutes <= 0 {
			return errors.Newf("region %q: dutycycleminutes must be positive, got %d", name, region.DutyCycleMinutes).
				Component("conf").
				Category(errors.CategoryConfiguration).
				Context("region", name).
				Build()
		}
	}

	cov := settings.Analysis.Coverage
	if cov.Threshold <= 0 || cov.Threshold > 1 {
		return errors.Newf("coverage threshold must be in (0, 1], got %g", cov.Threshold).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if cov.KernelThreshold <= 0 || cov.KernelThreshold > 1 {
		return errors.Newf("kernel coverage threshold must be in (0, 1], got %g", cov.KernelThreshold).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if settings.Analysis.Kernel.GridPoints < 2 {
		return errors.Newf("kernel gridpoints must be at least 2, got %d", settings.Analysis.Kernel.GridPoints).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}

	return nil
}
