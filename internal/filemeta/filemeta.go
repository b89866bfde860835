// Package filemeta extracts site, treatment and clock-corrected timestamps
// from recorder filenames.
//
// Recorder filenames follow a fixed-width token layout, for example
// "ind_D2_20220830_130600.WAV": a 3-letter region prefix, a 2-character site
// code whose first character encodes the treatment, and a YYYYMMDD_HHMMSS
// capture time in the recorder's own clock. Every timestamp derived here has
// the region's hour offset applied, so all downstream statistics agree on
// which calendar day a recording belongs to.
package filemeta

import (
	"strings"
	"time"

	"github.com/tphakala/reefnet-go/internal/conf"
	"github.com/tphakala/reefnet-go/internal/errors"
)

// Treatment is the experimental condition of a reef site.
type Treatment string

const (
	TreatmentHealthy       Treatment = "healthy"
	TreatmentDegraded      Treatment = "degraded"
	TreatmentRestored      Treatment = "restored"
	TreatmentNewlyRestored Treatment = "newly_restored"
	TreatmentUnknown       Treatment = "unknown"
)

// SiteUnknown is returned when a filename has no parseable site field.
const SiteUnknown = "unknown"

const (
	// Offset of the treatment character in the un-prefixed filename,
	// e.g. "ind_D2_..." has 'D' at index 4.
	treatmentIndex = 4
	// Offset and width of the YYYYMMDD_HHMMSS slice.
	timestampIndex = 7
	timestampWidth = 15

	timestampLayout = "20060102_150405"
	// DayLayout is the 8-digit calendar day format used in all result tables.
	DayLayout = "20060102"
)

// Record is the parsed metadata of one recording filename.
type Record struct {
	Filename  string // un-prefixed filename token
	Site      string
	Treatment Treatment
	// LocalTime is the capture time with the region's hour offset applied.
	LocalTime time.Time
}

// Day returns the corrected calendar day as an 8-digit YYYYMMDD string.
func (r *Record) Day() string {
	return r.LocalTime.Format(DayLayout)
}

// Hour returns the corrected hour of day, 0..23.
func (r *Record) Hour() int {
	return r.LocalTime.Hour()
}

// StripPath removes any leading path segment from a filename field. Listing
// CSVs sometimes carry a relative path before the token.
func StripPath(filename string) string {
	if idx := strings.LastIndexByte(filename, '/'); idx != -1 {
		return filename[idx+1:]
	}
	return filename
}

// ExtractTreatment returns the treatment encoded at the fixed offset of the
// filename token. Total function: unknown characters and short tokens map to
// TreatmentUnknown, never an error.
func ExtractTreatment(token string) Treatment {
	if len(token) <= treatmentIndex {
		return TreatmentUnknown
	}
	switch token[treatmentIndex] {
	case 'H':
		return TreatmentHealthy
	case 'D':
		return TreatmentDegraded
	case 'R':
		return TreatmentRestored
	case 'N':
		return TreatmentNewlyRestored
	default:
		return TreatmentUnknown
	}
}

// ExtractSite returns the site code, the second underscore-separated field of
// the token. Tokens without a site field return SiteUnknown.
func ExtractSite(token string) string {
	parts := strings.Split(token, "_")
	if len(parts) < 2 {
		return SiteUnknown
	}
	return parts[1]
}

// ExtractLocalTime parses the fixed-width YYYYMMDD_HHMMSS slice of the token
// and applies the region's hour offset. A token that violates the fixed-width
// contract returns a file-parsing error; it must be surfaced, not defaulted,
// or every statistic derived from that file would be silently wrong.
func ExtractLocalTime(token string, region *conf.Region) (time.Time, error) {
	if len(token) < timestampIndex+timestampWidth {
		return time.Time{}, errors.Newf("filename %q is too short for a %s timestamp", token, timestampLayout).
			Component("filemeta").
			Category(errors.CategoryFileParsing).
			Context("filename", token).
			Build()
	}
	slice := token[timestampIndex : timestampIndex+timestampWidth]
	ts, err := time.Parse(timestampLayout, slice)
	if err != nil {
		return time.Time{}, errors.Newf("filename %q has malformed timestamp %q: %w", token, slice, err).
			Component("filemeta").
			Category(errors.CategoryFileParsing).
			Context("filename", token).
			Build()
	}
	return ts.Add(time.Duration(region.OffsetHours) * time.Hour), nil
}

// ExtractDay returns the corrected calendar day of the token as YYYYMMDD.
func ExtractDay(token string, region *conf.Region) (string, error) {
	ts, err := ExtractLocalTime(token, region)
	if err != nil {
		return "", err
	}
	return ts.Format(DayLayout), nil
}

// Parse extracts the full metadata record for one filename. The filename may
// carry a path prefix, which is stripped first. Treatment and site never fail;
// a malformed timestamp fails the whole record.
func Parse(filename string, region *conf.Region) (Record, error) {
	token := StripPath(filename)
	ts, err := ExtractLocalTime(token, region)
	if err != nil {
		return Record{}, err
	}
	return Record{
		Filename:  token,
		Site:      ExtractSite(token),
		Treatment: ExtractTreatment(token),
		LocalTime: ts,
	}, nil
}

// IsParseError reports whether err is a file-parsing error from this package.
func IsParseError(err error) bool {
	var ee *errors.EnhancedError
	if errors.As(err, &ee) {
		return ee.Category == errors.CategoryFileParsing
	}
	return false
}
