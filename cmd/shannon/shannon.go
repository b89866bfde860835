// Package shannon implements the daily Shannon diversity subcommand.
package shannon

import (
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/tphakala/reefnet-go/internal/analysis"
	"github.com/tphakala/reefnet-go/internal/conf"
	"github.com/tphakala/reefnet-go/internal/datastore"
	"github.com/tphakala/reefnet-go/internal/logging"
	"github.com/tphakala/reefnet-go/internal/results"
)

// Command creates the shannon command.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "shannon",
		Short: "Compute a daily Shannon index of sound diversity per site",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(settings)
		},
	}
}

func run(settings *conf.Settings) error {
	log := logging.ForService("shannon")
	loader := analysis.NewLoader(settings)
	summary := &analysis.Summary{}

	var all []results.ShannonScore
	err := analysis.ForEachRegion(loader, settings.Analysis.Coverage.Threshold, log, summary,
		func(data *analysis.RegionData) (int, error) {
			rows, skipped, err := analysis.ShannonIndex(data,
				settings.Analysis.LogitCutoff, settings.Analysis.ExcludeSounds)
			if err != nil {
				return 0, err
			}
			all = append(all, rows...)
			return skipped, nil
		})
	if err != nil {
		return err
	}

	sort.Slice(all, func(i, j int) bool {
		a, b := &all[i], &all[j]
		if a.Region != b.Region {
			return a.Region < b.Region
		}
		if a.Treatment != b.Treatment {
			return a.Treatment < b.Treatment
		}
		if a.Site != b.Site {
			return a.Site < b.Site
		}
		return a.Day < b.Day
	})

	csvRows := make([][]string, 0, len(all))
	for _, r := range all {
		csvRows = append(csvRows, []string{r.Region, r.Site, r.Day, r.Treatment, results.Ftoa(r.Shannon)})
	}
	path := filepath.Join(settings.ResultsDir(), "shannon_index.csv")
	if err := results.WriteCSV(path, []string{"region", "site", "date", "treatment", "shannon"}, csvRows); err != nil {
		return err
	}
	log.Info("saved Shannon index", "path", path, "rows", len(all))

	if store := datastore.New(settings); store != nil {
		if err := store.Open(); err != nil {
			return err
		}
		defer store.Close()
		if err := store.SaveShannonScores(all); err != nil {
			return err
		}
	}

	summary.Log(log)
	return nil
}
