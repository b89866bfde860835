// Package kernel implements the temporal-kernel subcommand: per-treatment
// kernel densities of detection times over the 24-hour day, raw detection
// times for downstream circular statistics, and pairwise treatment overlaps.
package kernel

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tphakala/reefnet-go/internal/analysis"
	"github.com/tphakala/reefnet-go/internal/conf"
	"github.com/tphakala/reefnet-go/internal/dataset"
	"github.com/tphakala/reefnet-go/internal/datastore"
	"github.com/tphakala/reefnet-go/internal/logging"
	"github.com/tphakala/reefnet-go/internal/results"
)

// Command creates the kernel command.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "kernel",
		Short: "Compute temporal kernel densities and treatment overlaps per sound",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(settings)
		},
	}
}

func run(settings *conf.Settings) error {
	log := logging.ForService("kernel")
	loader := analysis.NewLoader(settings)
	summary := &analysis.Summary{}

	var overlaps []results.KernelOverlap
	// Kernel analyses demand stricter coverage than the count analyses.
	err := analysis.ForEachRegion(loader, settings.Analysis.Coverage.KernelThreshold, log, summary,
		func(data *analysis.RegionData) (int, error) {
			// All classified sounds participate, snaps included.
			sounds, err := dataset.DiscoverSounds(data.DataDir(), nil)
			if err != nil {
				if dataset.IsMissingInput(err) {
					log.Warn("no classifier outputs for region", "region", data.Region)
					return 0, nil
				}
				return 0, err
			}

			regionDir := filepath.Join(settings.ResultsDir(), "kernels", data.Region)
			totalSkipped := 0
			for _, sound := range sounds {
				kernels, skipped, err := analysis.KernelDensities(data, sound,
					settings.Analysis.LogitCutoff, &settings.Analysis.Kernel)
				if err != nil {
					return 0, err
				}
				totalSkipped += skipped
				if kernels == nil {
					log.Info("no usable detections for sound", "region", data.Region, "sound", sound)
					continue
				}
				if err := writeSoundKernels(regionDir, kernels); err != nil {
					return 0, err
				}
				overlaps = append(overlaps, kernels.Overlaps(data.Region)...)
			}
			return totalSkipped, nil
		})
	if err != nil {
		return err
	}

	csvRows := make([][]string, 0, len(overlaps))
	for _, r := range overlaps {
		csvRows = append(csvRows, []string{r.Region, r.Sound, r.TreatmentA, r.TreatmentB, results.Ftoa(r.Overlap)})
	}
	path := filepath.Join(settings.ResultsDir(), "kernels", "treatment_overlap.csv")
	header := []string{"region", "sound", "treatment_a", "treatment_b", "overlap"}
	if err := results.WriteCSV(path, header, csvRows); err != nil {
		return err
	}
	log.Info("saved treatment overlaps", "path", path, "rows", len(overlaps))

	if store := datastore.New(settings); store != nil {
		if err := store.Open(); err != nil {
			return err
		}
		defer store.Close()
		if err := store.SaveKernelOverlaps(overlaps); err != nil {
			return err
		}
	}

	summary.Log(log)
	return nil
}

// writeSoundKernels writes the raw detection times and the density grid of
// one sound.
func writeSoundKernels(regionDir string, kernels *analysis.SoundKernels) error {
	timeRows := make([][]string, 0, len(kernels.Times))
	for _, dt := range kernels.Times {
		timeRows = append(timeRows, []string{string(dt.Treatment), results.Ftoa(dt.Time)})
	}
	rawPath := filepath.Join(regionDir, kernels.Sound+"_raw_detection_times.csv")
	if err := results.WriteCSV(rawPath, []string{"treatment", "time"}, timeRows); err != nil {
		return err
	}

	header := []string{"time"}
	for _, treatment := range analysis.Treatments {
		header = append(header, string(treatment))
	}
	densityRows := make([][]string, 0, len(kernels.Grid))
	for i, t := range kernels.Grid {
		row := []string{results.Ftoa(t)}
		for _, treatment := range analysis.Treatments {
			density, ok := kernels.Densities[treatment]
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, results.Ftoa(density[i]))
		}
		densityRows = append(densityRows, row)
	}
	densityPath := filepath.Join(regionDir, kernels.Sound+"_density.csv")
	return results.WriteCSV(densityPath, header, densityRows)
}
