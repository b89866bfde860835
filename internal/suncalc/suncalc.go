// Package suncalc calculates sun event times for the reef deployment sites
// and derives the night window used by the settlement-cue analyses.
package suncalc

import (
	"fmt"
	"sync"
	"time"

	"github.com/sj14/astral/pkg/astral"
)

// nightMargin extends the night window past sunset and before sunrise.
const nightMargin = 30 * time.Minute

// SunEventTimes holds the calculated sun event times as naive local wall-clock
// times, comparable with filename-derived timestamps.
type SunEventTimes struct {
	Sunrise time.Time
	Sunset  time.Time
}

// cacheEntry holds the cached sun event times for a given date
type cacheEntry struct {
	times SunEventTimes
	date  time.Time
}

// SunCalc handles caching and calculation of sun event times for one site.
type SunCalc struct {
	cache    map[string]cacheEntry
	lock     sync.RWMutex
	observer astral.Observer
	location *time.Location
}

// New creates a SunCalc for a deployment site. The timezone is the IANA name
// of the site's local zone; sun events are converted into it and then treated
// as naive wall-clock times.
func New(latitude, longitude float64, timezone string) (*SunCalc, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return &SunCalc{
		cache:    make(map[string]cacheEntry),
		observer: astral.Observer{Latitude: latitude, Longitude: longitude},
		location: loc,
	}, nil
}

// GetSunEventTimes returns the sun event times for a given date, using cache if available
func (sc *SunCalc) GetSunEventTimes(date time.Time) (SunEventTimes, error) {
	dateKey := date.Format("2006-01-02")

	sc.lock.RLock()
	entry, exists := sc.cache[dateKey]
	sc.lock.RUnlock()

	if exists && entry.date.Equal(date) {
		return entry.times, nil
	}

	times, err := sc.calculateSunEventTimes(date)
	if err != nil {
		return SunEventTimes{}, err
	}

	sc.lock.Lock()
	sc.cache[dateKey] = cacheEntry{times: times, date: date}
	sc.lock.Unlock()

	return times, nil
}

func (sc *SunCalc) calculateSunEventTimes(date time.Time) (SunEventTimes, error) {
	sunrise, err := astral.Sunrise(sc.observer, date)
	if err != nil {
		return SunEventTimes{}, fmt.Errorf("failed to calculate sunrise: %w", err)
	}
	sunset, err := astral.Sunset(sc.observer, date)
	if err != nil {
		return SunEventTimes{}, fmt.Errorf("failed to calculate sunset: %w", err)
	}
	return SunEventTimes{
		Sunrise: sc.naiveLocal(sunrise),
		Sunset:  sc.naiveLocal(sunset),
	}, nil
}

// naiveLocal shifts a UTC sun event into the site's zone and strips the zone,
// so results compare directly with naive filename timestamps.
func (sc *SunCalc) naiveLocal(t time.Time) time.Time {
	local := t.In(sc.location)
	return time.Date(local.Year(), local.Month(), local.Day(),
		local.Hour(), local.Minute(), local.Second(), 0, time.UTC)
}

// NightWindow returns the half-open interval [start, end) of the night
// attributed to the given day: sunset of that day minus 30 minutes through
// sunrise of the next day plus 30 minutes.
func (sc *SunCalc) NightWindow(day time.Time) (start, end time.Time, err error) {
	today, err := sc.GetSunEventTimes(day)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	next, err := sc.GetSunEventTimes(day.AddDate(0, 0, 1))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return today.Sunset.Add(-nightMargin), next.Sunrise.Add(nightMargin), nil
}
