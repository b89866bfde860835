package analysis

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/reefnet-go/internal/suncalc"
)

func makassarSun(t *testing.T) *suncalc.SunCalc {
	t.Helper()
	sun, err := suncalc.New(-4.92913, 119.3175, "Asia/Makassar")
	require.NoError(t, err)
	return sun
}

func TestNightOfRecord(t *testing.T) {
	sun := makassarSun(t)

	t.Run("late evening belongs to its own day", func(t *testing.T) {
		nightOf, ok, err := nightOfRecord(sun, time.Date(2022, 8, 30, 22, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "20220830", nightOf)
	})

	t.Run("early morning belongs to the previous day", func(t *testing.T) {
		nightOf, ok, err := nightOfRecord(sun, time.Date(2022, 8, 31, 3, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "20220830", nightOf)
	})

	t.Run("midday is not night", func(t *testing.T) {
		_, ok, err := nightOfRecord(sun, time.Date(2022, 8, 30, 12, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestNightProportions(t *testing.T) {
	settings := testSettings(t)
	regionDir := settings.RegionDataDir("indonesia")
	// Two night detections on D2 (22:00 same night, 03:00 next morning) and
	// one daytime detection that must be ignored.
	writeTestFile(t, filepath.Join(regionDir, "agile_outputs", "drum", "drum_inference.csv"),
		"filename,timestamp_s,logit\n"+
			"ind_D2_20220830_220000.WAV,0.0,2.0\n"+
			"ind_D2_20220831_030000.WAV,0.0,2.0\n"+
			"ind_D2_20220830_120000.WAV,0.0,2.0\n")

	loader := NewLoader(settings)
	data, err := loader.LoadRegion("indonesia", settings.Analysis.Coverage.Threshold)
	require.NoError(t, err)

	rows, skipped, err := NightProportions(data, makassarSun(t),
		settings.Analysis.LogitCutoff, settings.Analysis.ExcludeSounds)
	require.NoError(t, err)
	assert.Equal(t, 1, skipped, "the unparseable croak filename is skipped")
	require.NotEmpty(t, rows)

	byKey := make(map[string]NightRow, len(rows))
	for _, r := range rows {
		byKey[r.Site+"/"+r.Day] = NightRow{Detected: r.Detected, Total: r.Total}
	}

	d2, ok := byKey["D2/20220830"]
	require.True(t, ok, "the night of 2022-08-30 must be present for D2")
	// 22:00 detection counts; the 03:00 one falls on the excluded day
	// 2022-08-31 whose recording minute is not in the valid listing, but the
	// night itself is attributed to 2022-08-30.
	assert.GreaterOrEqual(t, d2.Detected, 1)
	assert.Positive(t, d2.Total)
	assert.Zero(t, d2.Total%12, "totals are whole recordings of 12 windows")

	// Daytime windows never enter the denominator: a full day of recordings
	// yields far fewer night windows than 720*12.
	assert.Less(t, d2.Total, 720*12)
}

// NightRow is a small helper pair for the test above.
type NightRow struct {
	Detected int
	Total    int
}
