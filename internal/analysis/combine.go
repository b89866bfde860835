package analysis

import (
	"github.com/tphakala/reefnet-go/internal/dataset"
	"github.com/tphakala/reefnet-go/internal/filemeta"
	"github.com/tphakala/reefnet-go/internal/results"
)

// CombinedCounts builds the per-sound daily detection counts for one region:
// inference windows at or above the logit cutoff, grouped by valid (site,
// day, treatment) and scaled by the duty cycle so counts from different
// recording schedules are comparable. Valid combos without any detection get
// an explicit zero row.
//
// Returns the rows plus the number of inference filenames that failed to
// parse and were skipped.
func CombinedCounts(data *RegionData, sound string, logitCutoff float64) ([]results.DailyCount, int, error) {
	inferences, err := dataset.LoadInferences(
		dataset.InferencePath(data.DataDir(), sound), logitCutoff)
	if err != nil && !dataset.IsMissingInput(err) {
		return nil, 0, err
	}
	// A missing inference CSV simply means zero detections everywhere.

	counts := make(map[Combo]int)
	skipped := 0
	for i := range inferences {
		record, err := filemeta.Parse(inferences[i].Filename, &data.Config)
		if err != nil {
			skipped++
			continue
		}
		counts[Combo{Site: record.Site, Day: record.Day(), Treatment: record.Treatment}]++
	}

	rows := make([]results.DailyCount, 0, len(data.Combos))
	for _, combo := range data.Combos {
		rows = append(rows, results.DailyCount{
			Region:    data.Region,
			Site:      combo.Site,
			Day:       combo.Day,
			Treatment: string(combo.Treatment),
			Count:     counts[combo] * data.Config.DutyCycleMinutes,
		})
	}
	return rows, skipped, nil
}
