// Package nightwindow implements the settlement-cue subcommand: the
// proportion of night-time 5-second windows with a fish sound detection.
package nightwindow

import (
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/tphakala/reefnet-go/internal/analysis"
	"github.com/tphakala/reefnet-go/internal/conf"
	"github.com/tphakala/reefnet-go/internal/datastore"
	"github.com/tphakala/reefnet-go/internal/logging"
	"github.com/tphakala/reefnet-go/internal/results"
	"github.com/tphakala/reefnet-go/internal/suncalc"
)

// Command creates the nightwindow command.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "nightwindow",
		Short: "Compute per-night detection proportions between sunset and sunrise",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(settings)
		},
	}
}

func run(settings *conf.Settings) error {
	log := logging.ForService("nightwindow")
	loader := analysis.NewLoader(settings)
	summary := &analysis.Summary{}

	var all []results.NightProportion
	err := analysis.ForEachRegion(loader, settings.Analysis.Coverage.Threshold, log, summary,
		func(data *analysis.RegionData) (int, error) {
			sun, err := suncalc.New(data.Config.Latitude, data.Config.Longitude, data.Config.Timezone)
			if err != nil {
				return 0, err
			}
			rows, skipped, err := analysis.NightProportions(data, sun,
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
		if a.Site != b.Site {
			return a.Site < b.Site
		}
		return a.Day < b.Day
	})

	csvRows := make([][]string, 0, len(all))
	for _, r := range all {
		csvRows = append(csvRows, []string{
			r.Region, r.Site, r.Day,
			results.Itoa(r.Detected), results.Itoa(r.Total), results.Ftoa(r.Proportion),
		})
	}
	path := filepath.Join(settings.ResultsDir(), "nighttime_fish_sound.csv")
	header := []string{"region", "site", "date", "detected_windows", "total_windows", "proportion"}
	if err := results.WriteCSV(path, header, csvRows); err != nil {
		return err
	}
	log.Info("saved night-window proportions", "path", path, "rows", len(all))

	if store := datastore.New(settings); store != nil {
		if err := store.Open(); err != nil {
			return err
		}
		defer store.Close()
		if err := store.SaveNightProportions(all); err != nil {
			return err
		}
	}

	summary.Log(log)
	return nil
}
