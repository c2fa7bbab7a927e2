package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"github.com/utsmok/ea-cli/internal/archive"
	"github.com/utsmok/ea-cli/internal/catalog"
	"github.com/utsmok/ea-cli/internal/sheet"
	"github.com/utsmok/ea-cli/internal/ui"
)

var (
	exportFormat string
	exportForce  bool
)

var exportCmd = &cobra.Command{
	Use:     "export",
	GroupID: "sheets",
	Short:   "Write review sheets from the archive",
	Long: `Refresh final_data from the archive and write review sheets into a
date-stamped directory under the configured sheets directory: one sheet per
faculty plus all.csv. Sheets that already exist are updated in place: new
items are appended, reviewer rows stay untouched, and the previous file is
kept as a timestamped backup.

With --format jsonl the archive's active rows are dumped as JSON lines
instead, one row object per line.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openArchive()
		if err != nil {
			return err
		}
		defer a.Close()

		switch exportFormat {
		case "sheets":
			return exportSheets(cmd.Context(), a)
		case "jsonl":
			return exportJSONL(cmd.Context(), a)
		default:
			return fmt.Errorf("unknown --format %q (want sheets or jsonl)", exportFormat)
		}
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "sheets", "output format: sheets or jsonl")
	exportCmd.Flags().BoolVar(&exportForce, "force", false, "overwrite an existing jsonl dump without asking")
}

func exportSheets(ctx context.Context, a *archive.Archive) error {
	seeded, err := a.SeedFinal(ctx)
	if err != nil {
		return err
	}
	slog.Info("final_data refreshed", "rows", seeded)

	outDir := filepath.Join(cfg.Dirs.Sheets, time.Now().Format("2006-01-02"))
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create sheets directory: %w", err)
	}

	records, err := a.Get(ctx, archive.GetOptions{})
	if err != nil {
		return err
	}
	all := recordsToRows(records)

	// One sheet per faculty partition, plus everything on all.csv.
	// Rows without a faculty land on the no_faculty_found sheet.
	byFaculty := map[string][]*catalog.Row{"all": all}
	for _, row := range all {
		byFaculty[row.Faculty] = append(byFaculty[row.Faculty], row)
	}

	now := time.Now()
	for _, faculty := range slices.Sorted(maps.Keys(byFaculty)) {
		name := sheet.FileName(faculty)
		s, err := sheet.Load(filepath.Join(outDir, name), faculty)
		if err != nil {
			return err
		}
		added := s.Append(byFaculty[faculty], now)
		if added == 0 {
			ui.Info("no new items for %s", ui.Accent(name))
			continue
		}
		if err := s.Save(); err != nil {
			return err
		}
		ui.Success("saved %d new items to %s", added, ui.Accent(filepath.Join(outDir, name)))
	}
	return nil
}

// recordsToRows flattens Get results to plain rows for sheet appending.
func recordsToRows(records []archive.Record) []*catalog.Row {
	rows := make([]*catalog.Row, len(records))
	for i, rec := range records {
		rows[i] = rec.Row
	}
	return rows
}

func exportJSONL(ctx context.Context, a *archive.Archive) error {
	outPath := filepath.Join(cfg.Dirs.Sheets, fmt.Sprintf("archive-%s.jsonl", time.Now().Format("2006-01-02")))
	if _, err := os.Stat(outPath); err == nil && !exportForce {
		var proceed bool
		confirm := huh.NewConfirm().
			Title(fmt.Sprintf("%s already exists. Overwrite?", outPath)).
			Value(&proceed)
		if err := confirm.Run(); err != nil {
			return err
		}
		if !proceed {
			ui.Warn("Aborted.")
			return nil
		}
	}

	records, err := a.Get(ctx, archive.GetOptions{})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create dump: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, rec := range records {
		if err := enc.Encode(rec.Row.Record()); err != nil {
			return fmt.Errorf("failed to encode %s: %w", rec.Row.MaterialID, err)
		}
	}
	ui.Success("dumped %d rows to %s", len(records), ui.Accent(outPath))
	return nil
}
