package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/utsmok/ea-cli/internal/archive"
	"github.com/utsmok/ea-cli/internal/catalog"
	"github.com/utsmok/ea-cli/internal/ingest"
	"github.com/utsmok/ea-cli/internal/ui"
)

var (
	ingestDate    string
	ingestPeriods []string
	ingestRange   string
	ingestYear    int
)

var ingestCmd = &cobra.Command{
	Use:     "ingest [file]",
	GroupID: "archive",
	Short:   "Ingest an export file into the archive",
	Long: `Clean an export file and ingest it into the archive: genuinely new
material_ids are added as chain roots, changed items get a new version on
their chain, unchanged items are left alone.

Without an argument the newest file in the configured export directory is
used. Periods can be given as an explicit list (--periods 2026-1A,2026-SEM1),
a range (--range 2026-1A:2026-2B), which expands to the covered periods
plus the semester and year aggregates, or a whole academic year (--year
2026).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		} else {
			var err error
			path, err = latestExport(cfg.Dirs.Export)
			if err != nil {
				return err
			}
		}

		batch, err := readExport(path)
		if err != nil {
			return err
		}
		slog.Info("export cleaned", "file", path, "rows", len(batch.Rows))

		a, err := openArchive()
		if err != nil {
			return err
		}
		defer a.Close()

		added, err := a.Add(cmd.Context(), batch)
		if err != nil {
			return err
		}
		updated, err := a.Update(cmd.Context(), batch)
		if err != nil {
			return err
		}

		ui.Info("Ingested %s", ui.Accent(filepath.Base(path)))
		ui.Success("added %d new, updated %d, unchanged %d, ignored %d",
			added.Inserted, updated.Updated, updated.Unchanged, added.Ignored)
		reportRejections(append(added.Rejected, updated.Rejected...))
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestDate, "date", "", "source date of the export (YYYY-MM-DD, default: file mtime)")
	ingestCmd.Flags().StringSliceVar(&ingestPeriods, "periods", nil, "explicit list of periods to keep")
	ingestCmd.Flags().StringVar(&ingestRange, "range", "", "period range to keep, start:end")
	ingestCmd.Flags().IntVar(&ingestYear, "year", 0, "keep every period of this academic year")
}

// readExport cleans one export file according to the flags and config.
func readExport(path string) (*catalog.Batch, error) {
	opts := ingest.Options{}

	if ingestDate != "" {
		d, err := time.Parse(catalog.DateFormat, ingestDate)
		if err != nil {
			return nil, fmt.Errorf("invalid --date: %w", err)
		}
		opts.SourceDate = d
	}

	switch {
	case ingestRange != "":
		start, end, ok := strings.Cut(ingestRange, ":")
		if !ok {
			return nil, fmt.Errorf("invalid --range %q (want start:end)", ingestRange)
		}
		periods, err := ingest.ExpandRange(start, end)
		if err != nil {
			return nil, err
		}
		opts.Periods = periods
	case len(ingestPeriods) > 0:
		opts.Periods = ingest.PeriodSet(ingestPeriods)
	case ingestYear != 0:
		opts.Periods = ingest.YearPeriods(ingestYear)
	}

	mapper, err := facultyMapper()
	if err != nil {
		return nil, err
	}
	opts.Faculty = mapper

	return ingest.ReadFile(path, opts)
}

// latestExport returns the newest CSV file in the export directory.
func latestExport(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to scan export directory: %w", err)
	}

	var (
		newest     string
		newestTime time.Time
	)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestTime) {
			newest = filepath.Join(dir, entry.Name())
			newestTime = info.ModTime()
		}
	}
	if newest == "" {
		return "", fmt.Errorf("no export files found in %s", dir)
	}
	return newest, nil
}

// reportRejections prints per-row rejections, if any. Add and Update see
// the same batch, so identical rejections are reported once.
func reportRejections(rejected []archive.RowError) {
	seen := make(map[string]bool, len(rejected))
	for _, rej := range rejected {
		line := rej.Error()
		if seen[line] {
			continue
		}
		seen[line] = true
		if archive.IsRejection(rej.Err) {
			ui.Warn("rejected %s", line)
		} else {
			ui.Warn("error %s", line)
		}
	}
}
