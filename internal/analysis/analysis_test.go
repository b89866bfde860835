package analysis

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/reefnet-go/internal/conf"
	"github.com/tphakala/reefnet-go/internal/filemeta"
	"github.com/tphakala/reefnet-go/internal/logging"
)

func TestMain(m *testing.M) {
	logging.Init()
	os.Exit(m.Run())
}

// testSettings builds a single-region study tree under a temp dir:
// site D2 (degraded) has a full day of recordings on 2022-08-30 plus a sparse
// day on 2022-08-31, site H1 (healthy) has 700 recordings on 2022-08-30.
func testSettings(t *testing.T) *conf.Settings {
	t.Helper()

	settings := &conf.Settings{
		BaseDir: t.TempDir(),
		Regions: map[string]conf.Region{
			"indonesia": {
				OffsetHours:      0,
				DutyCycleMinutes: 2,
				Latitude:         -4.92913,
				Longitude:        119.3175,
				Timezone:         "Asia/Makassar",
			},
		},
	}
	settings.Analysis.LogitCutoff = 1.0
	settings.Analysis.Coverage.Threshold = 0.9
	settings.Analysis.Coverage.KernelThreshold = 0.95
	settings.Analysis.Kernel.Smoothing = 0.5
	settings.Analysis.Kernel.GridPoints = 240
	settings.Analysis.ExcludeSounds = []string{"snap", "snaps"}
	settings.Output.Path = "results"

	var listing strings.Builder
	listing.WriteString("filename\n")
	// Full coverage: one recording every 2 minutes.
	for hour := 0; hour < 24; hour++ {
		for minute := 0; minute < 60; minute += 2 {
			fmt.Fprintf(&listing, "ind_D2_20220830_%02d%02d00.WAV\n", hour, minute)
		}
	}
	// Sparse day, excluded by coverage.
	for i := 0; i < 5; i++ {
		fmt.Fprintf(&listing, "ind_D2_20220831_%02d0000.WAV\n", i)
	}
	// Healthy site: 700 recordings, above the 648 required.
	n := 0
	for hour := 0; hour < 24 && n < 700; hour++ {
		for minute := 0; minute < 60 && n < 700; minute += 2 {
			fmt.Fprintf(&listing, "ind_H1_20220830_%02d%02d00.WAV\n", hour, minute)
			n++
		}
	}
	// One filename violating the fixed-width contract.
	listing.WriteString("broken-name.WAV\n")

	regionDir := settings.RegionDataDir("indonesia")
	writeTestFile(t, filepath.Join(regionDir, "raw_file_list.csv"), listing.String())

	writeTestFile(t, filepath.Join(regionDir, "agile_outputs", "croak", "croak_inference.csv"),
		"filename,timestamp_s,logit\n"+
			"ind_D2_20220830_130600.WAV,5.0,2.1\n"+
			"ind_D2_20220830_140600.WAV,0.0,1.5\n"+
			"ind_D2_20220830_150600.WAV,10.0,1.0\n"+
			"ind_D2_20220831_010000.WAV,0.0,3.0\n"+ // excluded day
			"ind_D2_20220830_160600.WAV,0.0,0.2\n"+ // below cutoff
			"not-parseable.WAV,0.0,2.0\n")
	writeTestFile(t, filepath.Join(regionDir, "agile_outputs", "whoop", "whoop_inference.csv"),
		"filename,timestamp_s,logit\n"+
			"ind_D2_20220830_200600.WAV,0.0,1.2\n")
	writeTestFile(t, filepath.Join(regionDir, "agile_outputs", "snap", "snap_inference.csv"),
		"filename,timestamp_s,logit\n"+
			"ind_D2_20220830_130600.WAV,0.0,5.0\n")

	return settings
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadRegion(t *testing.T) {
	settings := testSettings(t)
	loader := NewLoader(settings)

	data, err := loader.LoadRegion("indonesia", settings.Analysis.Coverage.Threshold)
	require.NoError(t, err)

	assert.Equal(t, 1, data.SkippedFiles, "the broken filename must be skipped and counted")
	assert.True(t, data.Valid.Contains("D2", "20220830"))
	assert.True(t, data.Valid.Contains("H1", "20220830"))
	assert.False(t, data.Valid.Contains("D2", "20220831"))

	require.Len(t, data.Report.Exclusions, 1)
	assert.Equal(t, 5, data.Report.Exclusions[0].Observed)
	assert.Equal(t, 720, data.Report.Exclusions[0].Expected)

	require.Len(t, data.Combos, 2)
	assert.Equal(t, Combo{Site: "D2", Day: "20220830", Treatment: filemeta.TreatmentDegraded}, data.Combos[0])
	assert.Equal(t, Combo{Site: "H1", Day: "20220830", Treatment: filemeta.TreatmentHealthy}, data.Combos[1])
}

func TestLoadRegionUnknownRegion(t *testing.T) {
	settings := testSettings(t)
	loader := NewLoader(settings)

	_, err := loader.LoadRegion("atlantis", 0.9)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "atlantis")
}

func TestCombinedCounts(t *testing.T) {
	settings := testSettings(t)
	loader := NewLoader(settings)
	data, err := loader.LoadRegion("indonesia", settings.Analysis.Coverage.Threshold)
	require.NoError(t, err)

	rows, skipped, err := CombinedCounts(data, "croak", settings.Analysis.LogitCutoff)
	require.NoError(t, err)
	assert.Equal(t, 1, skipped, "the unparseable inference filename must be skipped")
	require.Len(t, rows, 2)

	// Three windows above cutoff on the valid day, scaled by duty cycle 2.
	assert.Equal(t, "D2", rows[0].Site)
	assert.Equal(t, 6, rows[0].Count)
	// Valid combo with no detections gets an explicit zero, not a dropped row.
	assert.Equal(t, "H1", rows[1].Site)
	assert.Equal(t, 0, rows[1].Count)
}

func TestCombinedCountsMissingInferenceCSV(t *testing.T) {
	settings := testSettings(t)
	loader := NewLoader(settings)
	data, err := loader.LoadRegion("indonesia", settings.Analysis.Coverage.Threshold)
	require.NoError(t, err)

	rows, _, err := CombinedCounts(data, "no_such_sound", settings.Analysis.LogitCutoff)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 0, rows[0].Count)
	assert.Equal(t, 0, rows[1].Count)
}

func TestShannonIndex(t *testing.T) {
	settings := testSettings(t)
	loader := NewLoader(settings)
	data, err := loader.LoadRegion("indonesia", settings.Analysis.Coverage.Threshold)
	require.NoError(t, err)

	rows, _, err := ShannonIndex(data, settings.Analysis.LogitCutoff, settings.Analysis.ExcludeSounds)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// D2 on the valid day: croak 3, whoop 1 => H = -(0.75 ln 0.75 + 0.25 ln 0.25).
	assert.Equal(t, "D2", rows[0].Site)
	assert.InDelta(t, 0.5623351446188083, rows[0].Shannon, 1e-12)
	// H1 has no detections: Shannon 0, row kept.
	assert.Equal(t, "H1", rows[1].Site)
	assert.Zero(t, rows[1].Shannon)
}

func TestPhonicRichness(t *testing.T) {
	settings := testSettings(t)
	loader := NewLoader(settings)
	data, err := loader.LoadRegion("indonesia", settings.Analysis.Coverage.Threshold)
	require.NoError(t, err)

	rows, _, err := PhonicRichness(data, settings.Analysis.LogitCutoff, settings.Analysis.ExcludeSounds)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Two fish sounds on D2; snap is excluded from richness.
	assert.Equal(t, "D2", rows[0].Site)
	assert.Equal(t, 2, rows[0].Count)
	assert.Equal(t, -1, rows[0].Hour)
	assert.Equal(t, "H1", rows[1].Site)
	assert.Equal(t, 0, rows[1].Count)
}

func TestHourlyPhonicRichness(t *testing.T) {
	settings := testSettings(t)
	loader := NewLoader(settings)
	data, err := loader.LoadRegion("indonesia", settings.Analysis.Coverage.Threshold)
	require.NoError(t, err)

	rows, _, err := HourlyPhonicRichness(data, settings.Analysis.LogitCutoff, settings.Analysis.ExcludeSounds)
	require.NoError(t, err)
	require.NotEmpty(t, rows)

	// D2 has a full day of recordings: 24 hour rows. H1 has 700 recordings
	// spread from hour 0 onward, also covering 24 hours: 1440/2=720, 700
	// spans hours 0..23.
	byHour := make(map[int]int)
	for _, r := range rows {
		if r.Site == "D2" {
			byHour[r.Hour] = r.Count
		}
	}
	require.Len(t, byHour, 24)
	assert.Equal(t, 1, byHour[13], "croak present at 13:06")
	assert.Equal(t, 1, byHour[20], "whoop present at 20:06")
	assert.Equal(t, 0, byHour[3], "no sounds at 03:00")
}

func TestForEachRegionMissingListing(t *testing.T) {
	settings := testSettings(t)
	// Second region configured but with no data on disk.
	settings.Regions["maldives"] = conf.Region{OffsetHours: 5, DutyCycleMinutes: 4, Timezone: "Indian/Maldives"}

	loader := NewLoader(settings)
	summary := &Summary{}
	visited := 0
	err := ForEachRegion(loader, settings.Analysis.Coverage.Threshold, logging.ForService("test"), summary,
		func(data *RegionData) (int, error) {
			visited++
			return 0, nil
		})
	require.NoError(t, err)

	assert.Equal(t, 1, visited)
	assert.Equal(t, 1, summary.Regions)
	assert.Equal(t, []string{"maldives"}, summary.MissingRegions)
	assert.Equal(t, 1, summary.SkippedFiles)
	assert.Equal(t, 1, summary.ExcludedDays)
}
