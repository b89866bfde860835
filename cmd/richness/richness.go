// Package richness implements the phonic richness subcommand: how many
// distinct sounds are present per site-day, or per hour with --hourly.
package richness

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

// Command creates the richness command.
func Command(settings *conf.Settings) *cobra.Command {
	var hourly bool
	cmd := &cobra.Command{
		Use:   "richness",
		Short: "Count distinct sounds present per site-day (phonic richness)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(settings, hourly)
		},
	}
	cmd.Flags().BoolVar(&hourly, "hourly", false, "resolve richness per hour of day instead of per day")
	return cmd
}

func run(settings *conf.Settings, hourly bool) error {
	log := logging.ForService("richness")
	loader := analysis.NewLoader(settings)
	summary := &analysis.Summary{}

	var all []results.RichnessScore
	err := analysis.ForEachRegion(loader, settings.Analysis.Coverage.Threshold, log, summary,
		func(data *analysis.RegionData) (int, error) {
			var rows []results.RichnessScore
			var skipped int
			var err error
			if hourly {
				rows, skipped, err = analysis.HourlyPhonicRichness(data,
					settings.Analysis.LogitCutoff, settings.Analysis.ExcludeSounds)
			} else {
				rows, skipped, err = analysis.PhonicRichness(data,
					settings.Analysis.LogitCutoff, settings.Analysis.ExcludeSounds)
			}
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
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		return a.Hour < b.Hour
	})

	var path string
	var header []string
	csvRows := make([][]string, 0, len(all))
	if hourly {
		path = filepath.Join(settings.ResultsDir(), "phonic_richness_hourly.csv")
		header = []string{"region", "site", "date", "hour", "treatment", "count"}
		for _, r := range all {
			csvRows = append(csvRows, []string{r.Region, r.Site, r.Day, results.Itoa(r.Hour), r.Treatment, results.Itoa(r.Count)})
		}
	} else {
		path = filepath.Join(settings.ResultsDir(), "phonic_richness.csv")
		header = []string{"region", "site", "date", "treatment", "count"}
		for _, r := range all {
			csvRows = append(csvRows, []string{r.Region, r.Site, r.Day, r.Treatment, results.Itoa(r.Count)})
		}
	}
	if err := results.WriteCSV(path, header, csvRows); err != nil {
		return err
	}
	log.Info("saved phonic richness", "path", path, "rows", len(all), "hourly", hourly)

	if store := datastore.New(settings); store != nil {
		if err := store.Open(); err != nil {
			return err
		}
		defer store.Close()
		if err := store.SaveRichnessScores(hourly, all); err != nil {
			return err
		}
	}

	summary.Log(log)
	return nil
}
