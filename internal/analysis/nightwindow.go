package analysis

import (
	"sort"
	"time"

	"github.com/tphakala/reefnet-go/internal/dataset"
	"github.com/tphakala/reefnet-go/internal/filemeta"
	"github.com/tphakala/reefnet-go/internal/results"
	"github.com/tphakala/reefnet-go/internal/suncalc"
)

// windowsPerRecording: each 1-minute recording holds 12 five-second
// classifier windows.
const windowsPerRecording = 12

type nightKey struct {
	Site string
	Day  string // the day the night is attributed to
}

// NightProportions computes, per site and night, the fraction of night-time
// 5-second windows with at least one detection of any fish sound. The night
// of day X runs from sunset(X)-30min to sunrise(X+1)+30min in the site's
// local clock; recordings and detections outside any night window are
// ignored. Only nights on coverage-valid days contribute.
func NightProportions(data *RegionData, sun *suncalc.SunCalc, logitCutoff float64, excludeSounds []string) ([]results.NightProportion, int, error) {
	// Denominator: count night windows from the raw listing.
	totals := make(map[nightKey]int)
	for i := range data.Records {
		r := &data.Records[i]
		if !data.Valid.Contains(r.Site, r.Day()) {
			continue
		}
		nightOf, ok, err := nightOfRecord(sun, r.LocalTime)
		if err != nil {
			return nil, 0, err
		}
		if !ok {
			continue
		}
		totals[nightKey{Site: r.Site, Day: nightOf}] += windowsPerRecording
	}

	// Numerator: detected windows across all fish sounds.
	sounds, err := dataset.DiscoverSounds(data.DataDir(), excludeSounds)
	if err != nil && !dataset.IsMissingInput(err) {
		return nil, 0, err
	}
	detected := make(map[nightKey]int)
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
			nightOf, ok, err := nightOfRecord(sun, record.LocalTime)
			if err != nil {
				return nil, 0, err
			}
			if !ok {
				continue
			}
			key := nightKey{Site: record.Site, Day: nightOf}
			if _, covered := totals[key]; !covered {
				continue
			}
			detected[key]++
		}
	}

	keys := make([]nightKey, 0, len(totals))
	for key := range totals {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Site != keys[j].Site {
			return keys[i].Site < keys[j].Site
		}
		return keys[i].Day < keys[j].Day
	})

	rows := make([]results.NightProportion, 0, len(keys))
	for _, key := range keys {
		total := totals[key]
		det := detected[key]
		rows = append(rows, results.NightProportion{
			Region:     data.Region,
			Site:       key.Site,
			Day:        key.Day,
			Detected:   det,
			Total:      total,
			Proportion: float64(det) / float64(total),
		})
	}
	return rows, skipped, nil
}

// nightOfRecord attributes a local timestamp to the night of a calendar day:
// first its own day's window, then the previous day's. Returns ok=false for
// daytime records.
func nightOfRecord(sun *suncalc.SunCalc, ts time.Time) (string, bool, error) {
	day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	for _, candidate := range []time.Time{day, day.AddDate(0, 0, -1)} {
		start, end, err := sun.NightWindow(candidate)
		if err != nil {
			return "", false, err
		}
		if !ts.Before(start) && ts.Before(end) {
			return candidate.Format(filemeta.DayLayout), true, nil
		}
	}
	return "", false, nil
}
