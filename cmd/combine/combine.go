// Package combine implements the combined-counts subcommand: daily scaled
// detection counts of one sound across every region, site and treatment.
package combine

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

// Command creates the combine command.
func Command(settings *conf.Settings) *cobra.Command {
	var sound string
	cmd := &cobra.Command{
		Use:   "combine",
		Short: "Combine daily detection counts of one sound across all regions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(settings, sound)
		},
	}
	cmd.Flags().StringVarP(&sound, "sound", "s", "", "sound classifier to combine, e.g. scrape")
	_ = cmd.MarkFlagRequired("sound")
	return cmd
}

func run(settings *conf.Settings, sound string) error {
	log := logging.ForService("combine")
	loader := analysis.NewLoader(settings)
	summary := &analysis.Summary{}

	var all []results.DailyCount
	err := analysis.ForEachRegion(loader, settings.Analysis.Coverage.Threshold, log, summary,
		func(data *analysis.RegionData) (int, error) {
			rows, skipped, err := analysis.CombinedCounts(data, sound, settings.Analysis.LogitCutoff)
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
		csvRows = append(csvRows, []string{r.Region, r.Site, r.Day, r.Treatment, results.Itoa(r.Count)})
	}
	path := filepath.Join(settings.ResultsDir(), sound+"_combined_count.csv")
	if err := results.WriteCSV(path, []string{"region", "site", "date", "treatment", "count"}, csvRows); err != nil {
		return err
	}
	log.Info("saved combined counts", "path", path, "rows", len(all))

	if store := datastore.New(settings); store != nil {
		if err := store.Open(); err != nil {
			return err
		}
		defer store.Close()
		if err := store.SaveDailyCounts(sound, all); err != nil {
			return err
		}
	}

	summary.Log(log)
	return nil
}
