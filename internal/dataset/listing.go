// Package dataset reads the flat CSV inputs of the study: per-region raw file
// listings and per-sound ML inference tables.
package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tphakala/reefnet-go/internal/errors"
)

// ListingFilename is the per-region listing of every recording on disk.
const ListingFilename = "raw_file_list.csv"

// LoadListing reads a raw file listing CSV and returns the filename column of
// every row. A missing file is reported as a missing-input error so callers
// can skip the region instead of aborting the run.
func LoadListing(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf("file listing not found: %s", path).
				Component("dataset").
				Category(errors.CategoryMissingInput).
				Context("path", path).
				Build()
		}
		return nil, errors.New(err).
			Component("dataset").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, errors.Newf("reading header of %s: %w", path, err).
			Component("dataset").
			Category(errors.CategoryFileParsing).
			Context("path", path).
			Build()
	}
	filenameCol := columnIndex(header, "filename")
	if filenameCol == -1 {
		return nil, errors.Newf("%s has no filename column", path).
			Component("dataset").
			Category(errors.CategoryFileParsing).
			Context("path", path).
			Build()
	}

	var filenames []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Newf("reading %s: %w", path, err).
				Component("dataset").
				Category(errors.CategoryFileParsing).
				Context("path", path).
				Build()
		}
		if filenameCol >= len(record) {
			continue
		}
		filenames = append(filenames, strings.TrimSpace(record[filenameCol]))
	}
	return filenames, nil
}

// ListingPath returns the path of the raw file listing inside a region data dir.
func ListingPath(regionDir string) string {
	return filepath.Join(regionDir, ListingFilename)
}

// IsMissingInput reports whether err marks an absent input file.
func IsMissingInput(err error) bool {
	var ee *errors.EnhancedError
	if errors.As(err, &ee) {
		return ee.Category == errors.CategoryMissingInput
	}
	return false
}

// columnIndex finds a column by name, tolerating the stray padding some
// upstream tools leave in headers (" logit" is a known offender).
func columnIndex(header []string, name string) int {
	for i, col := range header {
		if strings.EqualFold(strings.TrimSpace(col), name) {
			return i
		}
	}
	return -1
}
