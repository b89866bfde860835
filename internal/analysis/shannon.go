package analysis

import (
	"math"

	"github.com/tphakala/reefnet-go/internal/dataset"
	"github.com/tphakala/reefnet-go/internal/filemeta"
	"github.com/tphakala/reefnet-go/internal/results"
)

// soundKey resolves a combo to one classified sound.
type soundKey struct {
	combo Combo
	sound string
}

// ShannonIndex computes the daily Shannon diversity H = -sum(p_i * ln p_i)
// over the per-sound detection counts of each valid (site, day, treatment)
// combo. Valid combos with no detections at all score 0. The shrimp snap
// classifiers are excluded via the configured exclusion list.
func ShannonIndex(data *RegionData, logitCutoff float64, excludeSounds []string) ([]results.ShannonScore, int, error) {
	sounds, err := dataset.DiscoverSounds(data.DataDir(), excludeSounds)
	if err != nil && !dataset.IsMissingInput(err) {
		return nil, 0, err
	}

	counts := make(map[soundKey]int)
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
			combo := Combo{Site: record.Site, Day: record.Day(), Treatment: record.Treatment}
			counts[soundKey{combo: combo, sound: sound}]++
		}
	}

	// Per-combo totals, then H over the per-sound proportions.
	totals := make(map[Combo]int)
	perCombo := make(map[Combo]map[string]int)
	for key, n := range counts {
		totals[key.combo] += n
		if perCombo[key.combo] == nil {
			perCombo[key.combo] = make(map[string]int)
		}
		perCombo[key.combo][key.sound] = n
	}

	rows := make([]results.ShannonScore, 0, len(data.Combos))
	for _, combo := range data.Combos {
		h := 0.0
		if total := totals[combo]; total > 0 {
			for _, n := range perCombo[combo] {
				p := float64(n) / float64(total)
				h -= p * math.Log(p)
			}
		}
		rows = append(rows, results.ShannonScore{
			Region:    data.Region,
			Site:      combo.Site,
			Day:       combo.Day,
			Treatment: string(combo.Treatment),
			Shannon:   h,
		})
	}
	return rows, skipped, nil
}
