// Package coverage implements the daily data-quality gate: a site-day only
// contributes to derived statistics when enough of its expected recordings
// actually exist.
package coverage

import (
	"log/slog"
	"sort"

	"github.com/tphakala/reefnet-go/internal/logging"
)

const minutesPerDay = 24 * 60

// Key identifies one site on one corrected calendar day (YYYYMMDD).
type Key struct {
	Site string
	Day  string
}

// Exclusion describes one site-day rejected by the coverage gate.
type Exclusion struct {
	Site     string
	Day      string
	Observed int
	Expected int
}

// Report summarises one filter run.
type Report struct {
	Expected   int // expected recordings per full day
	Exclusions []Exclusion
}

// Set is the collection of site-days that passed the coverage gate.
type Set map[Key]struct{}

// Contains reports whether the site-day passed coverage.
func (s Set) Contains(site, day string) bool {
	_, ok := s[Key{Site: site, Day: day}]
	return ok
}

// Keys returns the valid site-days in deterministic order.
func (s Set) Keys() []Key {
	keys := make([]Key, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Site != keys[j].Site {
			return keys[i].Site < keys[j].Site
		}
		return keys[i].Day < keys[j].Day
	})
	return keys
}

// ExpectedDaily returns how many recordings a full day yields for a duty
// cycle. Integer truncation, matching the study's definition: a 4-minute
// cycle (1 min on, 3 min off) expects 360 recordings per day.
func ExpectedDaily(dutyCycleMinutes int) int {
	return minutesPerDay / dutyCycleMinutes
}

// Observation is one recording attributed to a site-day. Filename is only
// consulted when deduplication is requested.
type Observation struct {
	Filename string
	Site     string
	Day      string
}

// Filter groups observations by site-day and keeps the groups with at least
// threshold*expected recordings (inclusive at the boundary). Excluded groups
// are reported, not failed: insufficient coverage is routine behavior.
//
// When deduplicate is set, identical filenames within a site-day count once;
// otherwise every row counts, duplicates included.
//
// The result is a pure function of the input snapshot and the two constants,
// so repeated runs over the same listing yield identical sets.
func Filter(observations []Observation, dutyCycleMinutes int, threshold float64, deduplicate bool, logger *slog.Logger) (Set, Report) {
	if logger == nil {
		logger = logging.ForService("coverage")
	}

	counts := make(map[Key]int)
	if deduplicate {
		seen := make(map[string]struct{}, len(observations))
		for i := range observations {
			obs := &observations[i]
			key := obs.Site + "\x00" + obs.Day + "\x00" + obs.Filename
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			counts[Key{Site: obs.Site, Day: obs.Day}]++
		}
	} else {
		for i := range observations {
			counts[Key{Site: observations[i].Site, Day: observations[i].Day}]++
		}
	}

	expected := ExpectedDaily(dutyCycleMinutes)
	required := threshold * float64(expected)

	valid := make(Set)
	report := Report{Expected: expected}
	for key, observed := range counts {
		if float64(observed) >= required {
			valid[key] = struct{}{}
			continue
		}
		report.Exclusions = append(report.Exclusions, Exclusion{
			Site:     key.Site,
			Day:      key.Day,
			Observed: observed,
			Expected: expected,
		})
	}

	sort.Slice(report.Exclusions, func(i, j int) bool {
		if report.Exclusions[i].Site != report.Exclusions[j].Site {
			return report.Exclusions[i].Site < report.Exclusions[j].Site
		}
		return report.Exclusions[i].Day < report.Exclusions[j].Day
	})

	if logger != nil {
		for _, ex := range report.Exclusions {
			logger.Info("excluding site-day below coverage threshold",
				"site", ex.Site,
				"day", ex.Day,
				"observed", ex.Observed,
				"expected", ex.Expected)
		}
	}

	return valid, report
}
