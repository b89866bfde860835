// Package results writes the analysis result tables. All tables key rows by
// region, site and an 8-digit YYYYMMDD day so downstream tooling can join them.
package results

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"github.com/tphakala/reefnet-go/internal/errors"
)

// DailyCount is one combined-count row: scaled detections of one sound for a
// site-day that passed coverage.
type DailyCount struct {
	Region    string
	Site      string
	Day       string
	Treatment string
	Count     int
}

// ShannonScore is the daily Shannon diversity of one site.
type ShannonScore struct {
	Region    string
	Site      string
	Day       string
	Treatment string
	Shannon   float64
}

// RichnessScore is the number of distinct sounds present for one site-day,
// optionally resolved to one hour. Hour is -1 for daily rows.
type RichnessScore struct {
	Region    string
	Site      string
	Day       string
	Hour      int
	Treatment string
	Count     int
}

// NightProportion is the fraction of night-time 5-second windows with a
// detection, for the night attributed to Day.
type NightProportion struct {
	Region     string
	Site       string
	Day        string
	Detected   int
	Total      int
	Proportion float64
}

// KernelOverlap is the overlap coefficient between the temporal kernels of
// two treatments for one sound.
type KernelOverlap struct {
	Region     string
	Sound      string
	TreatmentA string
	TreatmentB string
	Overlap    float64
}

// WriteCSV writes header and rows to path, creating parent directories as
// needed. The file handle is released on every exit path.
func WriteCSV(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.New(err).
			Component("results").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.New(err).
			Component("results").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return errors.New(err).
			Component("results").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return errors.New(err).
				Component("results").
				Category(errors.CategoryFileIO).
				Context("path", path).
				Build()
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return errors.New(err).
			Component("results").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	return nil
}

// Itoa is a small helper for building CSV rows.
func Itoa(v int) string {
	return strconv.Itoa(v)
}

// Ftoa formats a float for CSV output with minimal digits.
func Ftoa(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
