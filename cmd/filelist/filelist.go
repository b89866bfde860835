// Package filelist implements the subcommand that builds a region's
// raw_file_list.csv from a directory of recordings.
package filelist

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tphakala/reefnet-go/internal/conf"
	"github.com/tphakala/reefnet-go/internal/dataset"
	"github.com/tphakala/reefnet-go/internal/logging"
	"github.com/tphakala/reefnet-go/internal/results"
)

// Command creates the filelist command.
func Command(settings *conf.Settings) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "filelist [directory]",
		Short: "Write a raw_file_list.csv of all WAV recordings in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], output)
		},
	}
	cmd.Flags().StringVarP(&output, "write-to", "w", "", "output CSV path (default raw_file_list.csv next to the directory)")
	return cmd
}

func run(dir, output string) error {
	log := logging.ForService("filelist")

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	var filenames []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".wav") {
			filenames = append(filenames, entry.Name())
		}
	}
	sort.Strings(filenames)

	if output == "" {
		output = filepath.Join(filepath.Dir(filepath.Clean(dir)), dataset.ListingFilename)
	}
	rows := make([][]string, 0, len(filenames))
	for _, name := range filenames {
		rows = append(rows, []string{name})
	}
	if err := results.WriteCSV(output, []string{"filename"}, rows); err != nil {
		return err
	}
	log.Info("wrote file listing", "path", output, "files", len(filenames))
	return nil
}
