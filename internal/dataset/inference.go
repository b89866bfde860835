package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/tphakala/reefnet-go/internal/errors"
)

// AgileOutputsDirname holds one subfolder per classified sound in a region
// data dir, each with a <sound>_inference.csv.
const AgileOutputsDirname = "agile_outputs"

// Inference is one 5-second classifier window that scored at or above the
// logit cutoff.
type Inference struct {
	Filename   string  // recording the window came from, path stripped upstream
	TimestampS float64 // window start offset within the recording, seconds
	Logit      float64
}

// LoadInferences reads a per-sound inference CSV, keeping only rows with
// logit >= cutoff. Header names are matched after trimming whitespace.
func LoadInferences(path string, cutoff float64) ([]Inference, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf("inference CSV not found: %s", path).
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
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, errors.Newf("reading header of %s: %w", path, err).
			Component("dataset").
			Category(errors.CategoryFileParsing).
			Context("path", path).
			Build()
	}

	filenameCol := columnIndex(header, "filename")
	logitCol := columnIndex(header, "logit")
	timestampCol := columnIndex(header, "timestamp_s")
	if filenameCol == -1 || logitCol == -1 {
		return nil, errors.Newf("%s is missing filename or logit column", path).
			Component("dataset").
			Category(errors.CategoryFileParsing).
			Context("path", path).
			Build()
	}

	var inferences []Inference
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
		if filenameCol >= len(record) || logitCol >= len(record) {
			continue
		}
		logit, err := strconv.ParseFloat(strings.TrimSpace(record[logitCol]), 64)
		if err != nil {
			continue
		}
		if logit < cutoff {
			continue
		}
		inf := Inference{
			Filename: strings.TrimSpace(record[filenameCol]),
			Logit:    logit,
		}
		if timestampCol != -1 && timestampCol < len(record) {
			if ts, err := strconv.ParseFloat(strings.TrimSpace(record[timestampCol]), 64); err == nil {
				inf.TimestampS = ts
			}
		}
		inferences = append(inferences, inf)
	}
	return inferences, nil
}

// InferencePath returns the expected CSV path for one sound inside a region
// data dir, e.g. <region>/agile_outputs/croak/croak_inference.csv.
func InferencePath(regionDir, sound string) string {
	return filepath.Join(regionDir, AgileOutputsDirname, sound, sound+"_inference.csv")
}

// DiscoverSounds lists the sound folders of a region's agile_outputs dir that
// actually contain an inference CSV, skipping any excluded names (the shrimp
// snap classifiers are excluded from fish-sound analyses). Names are returned
// sorted so runs are deterministic.
func DiscoverSounds(regionDir string, exclude []string) ([]string, error) {
	agileDir := filepath.Join(regionDir, AgileOutputsDirname)
	entries, err := os.ReadDir(agileDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf("agile_outputs not found: %s", agileDir).
				Component("dataset").
				Category(errors.CategoryMissingInput).
				Context("path", agileDir).
				Build()
		}
		return nil, errors.New(err).
			Component("dataset").
			Category(errors.CategoryFileIO).
			Context("path", agileDir).
			Build()
	}

	var sounds []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if slices.ContainsFunc(exclude, func(ex string) bool {
			return strings.EqualFold(ex, name)
		}) {
			continue
		}
		if _, err := os.Stat(InferencePath(regionDir, name)); err != nil {
			continue
		}
		sounds = append(sounds, name)
	}
	sort.Strings(sounds)
	return sounds, nil
}
