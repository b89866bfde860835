// Package analysis implements the manuscript statistics: combined detection
// counts, Shannon diversity, phonic richness, night-window proportions and
// temporal kernel densities. Every analysis shares the same front half: parse
// the region's file listing, apply the daily coverage gate, and only then
// aggregate.
package analysis

import (
	"log/slog"
	"sort"

	"github.com/tphakala/reefnet-go/internal/conf"
	"github.com/tphakala/reefnet-go/internal/coverage"
	"github.com/tphakala/reefnet-go/internal/dataset"
	"github.com/tphakala/reefnet-go/internal/filemeta"
	"github.com/tphakala/reefnet-go/internal/logging"
)

// Combo is a unique (site, day, treatment) combination that passed coverage.
// Absence of a phenomenon within a combo is a zero count, never a dropped row.
type Combo struct {
	Site      string
	Day       string
	Treatment filemeta.Treatment
}

// RegionData is the coverage-filtered view of one region's file listing.
type RegionData struct {
	Region string
	Config conf.Region
	// Records are the parsed listing rows, including ones on excluded days.
	Records []filemeta.Record
	// Valid is the set of site-days that passed the coverage gate.
	Valid coverage.Set
	// Combos are the unique valid (site, day, treatment) combinations.
	Combos []Combo
	// SkippedFiles counts listing rows whose filename violated the
	// fixed-width contract. Surfaced so silent data loss is observable.
	SkippedFiles int
	Report       coverage.Report

	dataDir string
}

// DataDir returns the region's data directory on disk.
func (d *RegionData) DataDir() string {
	return d.dataDir
}

// Summary accumulates per-region outcomes for the end-of-run report.
type Summary struct {
	Regions        int
	MissingRegions []string
	SkippedFiles   int
	ExcludedDays   int
}

// Log writes the run summary at the appropriate levels.
func (s *Summary) Log(logger *slog.Logger) {
	logger.Info("run complete",
		"regions", s.Regions,
		"excluded_site_days", s.ExcludedDays,
		"skipped_files", s.SkippedFiles)
	if len(s.MissingRegions) > 0 {
		logger.Warn("regions skipped for missing input", "regions", s.MissingRegions)
	}
	if s.SkippedFiles > 0 {
		logger.Warn("some filenames could not be parsed and were skipped",
			"skipped_files", s.SkippedFiles)
	}
}

// Loader reads and coverage-filters region listings.
type Loader struct {
	Settings *conf.Settings
	log      *slog.Logger
}

// NewLoader returns a Loader for the given settings.
func NewLoader(settings *conf.Settings) *Loader {
	return &Loader{
		Settings: settings,
		log:      logging.ForService("analysis"),
	}
}

// LoadRegion parses a region's raw file listing and applies the coverage gate
// with the given threshold. Malformed filenames are skipped and counted, not
// fatal: one bad filename must not abort a whole region. A missing listing is
// reported via dataset.IsMissingInput so the caller can skip the region.
func (l *Loader) LoadRegion(region string, threshold float64) (*RegionData, error) {
	regionCfg, err := l.Settings.RegionConfig(region)
	if err != nil {
		return nil, err
	}

	regionDir := l.Settings.RegionDataDir(region)
	listing, err := dataset.LoadListing(dataset.ListingPath(regionDir))
	if err != nil {
		return nil, err
	}

	data := &RegionData{Region: region, Config: regionCfg, dataDir: regionDir}
	observations := make([]coverage.Observation, 0, len(listing))
	for _, filename := range listing {
		record, err := filemeta.Parse(filename, &regionCfg)
		if err != nil {
			data.SkippedFiles++
			l.log.Debug("skipping unparseable filename",
				"region", region, "filename", filename, "error", err)
			continue
		}
		data.Records = append(data.Records, record)
		observations = append(observations, coverage.Observation{
			Filename: record.Filename,
			Site:     record.Site,
			Day:      record.Day(),
		})
	}

	data.Valid, data.Report = coverage.Filter(
		observations,
		regionCfg.DutyCycleMinutes,
		threshold,
		l.Settings.Analysis.Coverage.Deduplicate,
		l.log.With("region", region),
	)
	data.Combos = validCombos(data.Records, data.Valid)
	return data, nil
}

// validCombos reduces records to unique (site, day, treatment) combinations
// on valid site-days, sorted for deterministic output.
func validCombos(records []filemeta.Record, valid coverage.Set) []Combo {
	seen := make(map[Combo]struct{})
	for i := range records {
		r := &records[i]
		day := r.Day()
		if !valid.Contains(r.Site, day) {
			continue
		}
		seen[Combo{Site: r.Site, Day: day, Treatment: r.Treatment}] = struct{}{}
	}
	combos := make([]Combo, 0, len(seen))
	for c := range seen {
		combos = append(combos, c)
	}
	sort.Slice(combos, func(i, j int) bool {
		if combos[i].Treatment != combos[j].Treatment {
			return combos[i].Treatment < combos[j].Treatment
		}
		if combos[i].Site != combos[j].Site {
			return combos[i].Site < combos[j].Site
		}
		return combos[i].Day < combos[j].Day
	})
	return combos
}

// ForEachRegion runs fn over every configured region in sorted order.
// Regions with a missing listing are skipped with a warning; all other
// errors abort. Per-region outcomes accumulate into summary.
func ForEachRegion(loader *Loader, threshold float64, logger *slog.Logger, summary *Summary, fn func(*RegionData) (skipped int, err error)) error {
	for _, region := range loader.Settings.RegionNames() {
		logger.Info("processing region", "region", region)
		data, err := loader.LoadRegion(region, threshold)
		if err != nil {
			if dataset.IsMissingInput(err) {
				logger.Warn("skipping region, input listing missing",
					"region", region, "error", err)
				summary.MissingRegions = append(summary.MissingRegions, region)
				continue
			}
			return err
		}
		skipped, err := fn(data)
		if err != nil {
			return err
		}
		summary.Regions++
		summary.SkippedFiles += data.SkippedFiles + skipped
		summary.ExcludedDays += len(data.Report.Exclusions)
	}
	return nil
}

// Treatments is the display order of treatments in kernel outputs.
var Treatments = []filemeta.Treatment{
	filemeta.TreatmentHealthy,
	filemeta.TreatmentDegraded,
	filemeta.TreatmentRestored,
	filemeta.TreatmentNewlyRestored,
}
