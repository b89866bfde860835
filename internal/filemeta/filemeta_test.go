package filemeta

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/reefnet-go/internal/conf"
)

func TestExtractTreatment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		token string
		want  Treatment
	}{
		{"healthy", "ind_H1_20220830_130600.WAV", TreatmentHealthy},
		{"degraded", "ind_D2_20220830_130600.WAV", TreatmentDegraded},
		{"restored", "ken_R3_20220830_130600.WAV", TreatmentRestored},
		{"newly restored", "mal_N1_20220830_130600.WAV", TreatmentNewlyRestored},
		{"unknown character", "ind_Z2_20220830_130600.WAV", TreatmentUnknown},
		{"short token", "ind", TreatmentUnknown},
		{"exactly four characters", "ind_", TreatmentUnknown},
		{"empty", "", TreatmentUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ExtractTreatment(tt.token))
		})
	}
}

func TestExtractSite(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		token string
		want  string
	}{
		{"normal token", "ind_D2_20220830_130600.WAV", "D2"},
		{"no underscore", "no-separators-here.WAV", SiteUnknown},
		{"empty", "", SiteUnknown},
		{"single field", "ind", SiteUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ExtractSite(tt.token))
		})
	}
}

func TestExtractLocalTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		token  string
		offset int
		want   time.Time
	}{
		{
			name:   "positive offset rolls into the evening",
			token:  "mal_D2_20220830_130600.WAV",
			offset: 5,
			want:   time.Date(2022, 8, 30, 18, 6, 0, 0, time.UTC),
		},
		{
			name:   "negative offset rolls into the morning",
			token:  "aus_D2_20220830_130600.WAV",
			offset: -10,
			want:   time.Date(2022, 8, 30, 3, 6, 0, 0, time.UTC),
		},
		{
			name:   "offset crosses the day boundary backward",
			token:  "aus_D2_20220830_083000.WAV",
			offset: -10,
			want:   time.Date(2022, 8, 29, 22, 30, 0, 0, time.UTC),
		},
		{
			name:   "zero offset",
			token:  "ind_D2_20220830_130600.WAV",
			offset: 0,
			want:   time.Date(2022, 8, 30, 13, 6, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			region := conf.Region{OffsetHours: tt.offset, DutyCycleMinutes: 4}
			got, err := ExtractLocalTime(tt.token, &region)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %v, got %v", tt.want, got)
		})
	}
}

func TestExtractLocalTimeMalformed(t *testing.T) {
	t.Parallel()

	region := conf.Region{OffsetHours: 0, DutyCycleMinutes: 4}
	tests := []struct {
		name  string
		token string
	}{
		{"too short", "ind_D2_2022.WAV"},
		{"letters in timestamp", "ind_D2_2022ABCD_130600.WAV"},
		{"impossible month", "ind_D2_20221330_130600.WAV"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ExtractLocalTime(tt.token, &region)
			require.Error(t, err)
			assert.True(t, IsParseError(err), "expected a file-parsing error, got %v", err)
		})
	}
}

func TestExtractDay(t *testing.T) {
	t.Parallel()

	// +7 hours pushes a late evening recording onto the next calendar day.
	region := conf.Region{OffsetHours: 7, DutyCycleMinutes: 4}
	day, err := ExtractDay("mex_H1_20220830_220000.WAV", &region)
	require.NoError(t, err)
	assert.Equal(t, "20220831", day)
}

func TestStripPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ind_D2_20220830_130600.WAV", StripPath("raw_audio/ind_D2_20220830_130600.WAV"))
	assert.Equal(t, "ind_D2_20220830_130600.WAV", StripPath("a/b/ind_D2_20220830_130600.WAV"))
	assert.Equal(t, "ind_D2_20220830_130600.WAV", StripPath("ind_D2_20220830_130600.WAV"))
}

func TestParse(t *testing.T) {
	t.Parallel()

	region := conf.Region{OffsetHours: 5, DutyCycleMinutes: 4}
	record, err := Parse("raw_audio/mal_D2_20220830_130600.WAV", &region)
	require.NoError(t, err)

	assert.Equal(t, "mal_D2_20220830_130600.WAV", record.Filename)
	assert.Equal(t, "D2", record.Site)
	assert.Equal(t, TreatmentDegraded, record.Treatment)
	assert.Equal(t, "20220830", record.Day())
	assert.Equal(t, 18, record.Hour())

	_, err = Parse("raw_audio/garbage.WAV", &region)
	require.Error(t, err)
	assert.True(t, IsParseError(err))
}
