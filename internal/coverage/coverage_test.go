package coverage

import (
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestExpectedDaily(t *testing.T) {
	t.Parallel()

	tests := []struct {
		dutyCycle int
		want      int
	}{
		{4, 360},
		{2, 720},
		{1, 1440},
		// Integer truncation, never rounding.
		{7, 205},
		{13, 110},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("duty cycle %d", tt.dutyCycle), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ExpectedDaily(tt.dutyCycle))
		})
	}
}

// observations builds n synthetic recordings for one site-day.
func observations(site, day string, n int) []Observation {
	obs := make([]Observation, 0, n)
	for i := 0; i < n; i++ {
		obs = append(obs, Observation{
			Filename: fmt.Sprintf("ind_%s_%s_%06d.WAV", site, day, i),
			Site:     site,
			Day:      day,
		})
	}
	return obs
}

func TestFilterThresholdBoundary(t *testing.T) {
	t.Parallel()

	// duty cycle 4 => expected 360; threshold 0.9 => 324 required.
	t.Run("exactly at the boundary is valid", func(t *testing.T) {
		t.Parallel()
		valid, report := Filter(observations("D2", "20220830", 324), 4, 0.9, false, discardLogger())
		assert.True(t, valid.Contains("D2", "20220830"))
		assert.Empty(t, report.Exclusions)
	})

	t.Run("one below the boundary is excluded", func(t *testing.T) {
		t.Parallel()
		valid, report := Filter(observations("D2", "20220830", 323), 4, 0.9, false, discardLogger())
		assert.False(t, valid.Contains("D2", "20220830"))
		require.Len(t, report.Exclusions, 1)
		assert.Equal(t, 323, report.Exclusions[0].Observed)
		assert.Equal(t, 360, report.Exclusions[0].Expected)
	})
}

func TestFilterSparseDayExcludedWithCounts(t *testing.T) {
	t.Parallel()

	// duty cycle 2 => expected 720; 5 recordings is nowhere near 648 required.
	valid, report := Filter(observations("D2", "20220830", 5), 2, 0.9, false, discardLogger())

	assert.Empty(t, valid)
	require.Len(t, report.Exclusions, 1)
	ex := report.Exclusions[0]
	assert.Equal(t, "D2", ex.Site)
	assert.Equal(t, "20220830", ex.Day)
	assert.Equal(t, 5, ex.Observed)
	assert.Equal(t, 720, ex.Expected)
}

func TestFilterDuplicateFilenames(t *testing.T) {
	t.Parallel()

	// 323 distinct filenames plus one duplicated row: 324 rows total.
	obs := observations("D2", "20220830", 323)
	obs = append(obs, obs[0])

	t.Run("duplicates count by default", func(t *testing.T) {
		t.Parallel()
		valid, _ := Filter(obs, 4, 0.9, false, discardLogger())
		assert.True(t, valid.Contains("D2", "20220830"))
	})

	t.Run("deduplication drops the repeated row", func(t *testing.T) {
		t.Parallel()
		valid, _ := Filter(obs, 4, 0.9, true, discardLogger())
		assert.False(t, valid.Contains("D2", "20220830"))
	})
}

func TestFilterMultipleSiteDays(t *testing.T) {
	t.Parallel()

	obs := observations("D2", "20220830", 360)
	obs = append(obs, observations("D2", "20220831", 100)...)
	obs = append(obs, observations("H1", "20220830", 330)...)

	valid, report := Filter(obs, 4, 0.9, false, discardLogger())

	assert.True(t, valid.Contains("D2", "20220830"))
	assert.True(t, valid.Contains("H1", "20220830"))
	assert.False(t, valid.Contains("D2", "20220831"))
	assert.Len(t, report.Exclusions, 1)

	keys := valid.Keys()
	require.Len(t, keys, 2)
	assert.Equal(t, Key{Site: "D2", Day: "20220830"}, keys[0])
	assert.Equal(t, Key{Site: "H1", Day: "20220830"}, keys[1])
}

func TestFilterIdempotent(t *testing.T) {
	t.Parallel()

	obs := observations("D2", "20220830", 350)
	obs = append(obs, observations("R1", "20220901", 10)...)

	first, firstReport := Filter(obs, 4, 0.9, false, discardLogger())
	second, secondReport := Filter(obs, 4, 0.9, false, discardLogger())

	assert.Equal(t, first, second)
	assert.Equal(t, firstReport, secondReport)
}

func TestFilterEmptyInput(t *testing.T) {
	t.Parallel()

	valid, report := Filter(nil, 4, 0.9, false, discardLogger())
	assert.Empty(t, valid)
	assert.Empty(t, report.Exclusions)
	assert.Equal(t, 360, report.Expected)
}
