package analysis

import (
	"sort"

	"github.com/tphakala/reefnet-go/internal/dataset"
	"github.com/tphakala/reefnet-go/internal/filemeta"
	"github.com/tphakala/reefnet-go/internal/results"
)

// hourKey resolves a combo to one hour of day.
type hourKey struct {
	combo Combo
	hour  int
}

// PhonicRichness counts the distinct sounds present per valid (site, day,
// treatment) combo: a sound is present when at least one inference window
// passed the logit cutoff there. Valid combos with no sounds get a zero row.
// Hour in the result rows is -1 (daily granularity).
func PhonicRichness(data *RegionData, logitCutoff float64, excludeSounds []string) ([]results.RichnessScore, int, error) {
	sounds, err := dataset.DiscoverSounds(data.DataDir(), excludeSounds)
	if err != nil && !dataset.IsMissingInput(err) {
		return nil, 0, err
	}

	present := make(map[Combo]map[string]struct{})
	skipped := 0
	for _, sound := range sounds {
		s, err := soundPresence(data, sound, logitCutoff, func(r *filemeta.Record) Combo {
			return Combo{Site: r.Site, Day: r.Day(), Treatment: r.Treatment}
		}, present)
		if err != nil {
			return nil, 0, err
		}
		skipped += s
	}

	rows := make([]results.RichnessScore, 0, len(data.Combos))
	for _, combo := range data.Combos {
		rows = append(rows, results.RichnessScore{
			Region:    data.Region,
			Site:      combo.Site,
			Day:       combo.Day,
			Hour:      -1,
			Treatment: string(combo.Treatment),
			Count:     len(present[combo]),
		})
	}
	return rows, skipped, nil
}

// HourlyPhonicRichness is the hourly variant: presence is tracked per
// corrected hour of day while coverage stays daily. Only hours that actually
// have recordings on a valid day produce rows.
func HourlyPhonicRichness(data *RegionData, logitCutoff float64, excludeSounds []string) ([]results.RichnessScore, int, error) {
	sounds, err := dataset.DiscoverSounds(data.DataDir(), excludeSounds)
	if err != nil && !dataset.IsMissingInput(err) {
		return nil, 0, err
	}

	// Hour combos come from the raw listing, so hours without detections
	// still appear with a zero count.
	hourCombos := make(map[hourKey]struct{})
	for i := range data.Records {
		r := &data.Records[i]
		day := r.Day()
		if !data.Valid.Contains(r.Site, day) {
			continue
		}
		combo := Combo{Site: r.Site, Day: day, Treatment: r.Treatment}
		hourCombos[hourKey{combo: combo, hour: r.Hour()}] = struct{}{}
	}

	present := make(map[hourKey]map[string]struct{})
	skipped := 0
	for _, sound := range sounds {
		inferences, err := dataset.LoadInferences(
			dataset.InferencePath(data.DataDir(), sound), logitCutoff)
		if err != nil {
			if dataset.IsMissingInput(err) {
				continue
			}
			return nil, 0, err
		}
		for i := range inferences {
			record, err := filemeta.Parse(inferences[i].Filename, &data.Config)
			if err != nil {
				skipped++
				continue
			}
			day := record.Day()
			if !data.Valid.Contains(record.Site, day) {
				continue
			}
			key := hourKey{
				combo: Combo{Site: record.Site, Day: day, Treatment: record.Treatment},
				hour:  record.Hour(),
			}
			if present[key] == nil {
				present[key] = make(map[string]struct{})
			}
			present[key][sound] = struct{}{}
		}
	}

	keys := make([]hourKey, 0, len(hourCombos))
	for key := range hourCombos {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.combo.Treatment != b.combo.Treatment {
			return a.combo.Treatment < b.combo.Treatment
		}
		if a.combo.Site != b.combo.Site {
			return a.combo.Site < b.combo.Site
		}
		if a.combo.Day != b.combo.Day {
			return a.combo.Day < b.combo.Day
		}
		return a.hour < b.hour
	})

	rows := make([]results.RichnessScore, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, results.RichnessScore{
			Region:    data.Region,
			Site:      key.combo.Site,
			Day:       key.combo.Day,
			Hour:      key.hour,
			Treatment: string(key.combo.Treatment),
			Count:     len(present[key]),
		})
	}
	return rows, skipped, nil
}

// soundPresence marks the combos where a sound has at least one detection.
// Detections on excluded site-days are ignored (inner-join semantics).
func soundPresence(data *RegionData, sound string, logitCutoff float64, keyFn func(*filemeta.Record) Combo, present map[Combo]map[string]struct{}) (int, error) {
	inferences, err := dataset.LoadInferences(
		dataset.InferencePath(data.DataDir(), sound), logitCutoff)
	if err != nil {
		if dataset.IsMissingInput(err) {
			return 0, nil
		}
		return 0, err
	}
	skipped := 0
	for i := range inferences {
		record, err := filemeta.Parse(inferences[i].Filename, &data.Config)
		if err != nil {
			skipped++
			continue
		}
		if !data.Valid.Contains(record.Site, record.Day()) {
			continue
		}
		combo := keyFn(&record)
		if present[combo] == nil {
			present[combo] = make(map[string]struct{})
		}
		present[combo][sound] = struct{}{}
	}
	return skipped, nil
}
