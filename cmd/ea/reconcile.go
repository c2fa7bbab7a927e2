package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/utsmok/ea-cli/internal/sheet"
	"github.com/utsmok/ea-cli/internal/ui"
)

var reconcileCmd = &cobra.Command{
	Use:     "reconcile [sheet...]",
	GroupID: "sheets",
	Short:   "Merge reviewed sheets into final_data",
	Long: `Merge the reviewer-authored columns (workflow_status,
workflow_remarks) of reviewed sheets back into final_data. Only those two
columns are written; every other column stays under the archive's
authority. Rows with an unknown material_id or an invalid workflow_status
are rejected and reported, and the rest of the sheet still applies.

Without arguments every CSV in the configured import directory is
reconciled.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths := args
		if len(paths) == 0 {
			var err error
			paths, err = importSheets(cfg.Dirs.Import)
			if err != nil {
				return err
			}
		}
		if len(paths) == 0 {
			return fmt.Errorf("no sheets to reconcile")
		}

		a, err := openArchive()
		if err != nil {
			return err
		}
		defer a.Close()

		for _, path := range paths {
			s, err := sheet.Load(path, "all")
			if err != nil {
				return err
			}
			res, err := a.Reconcile(cmd.Context(), s.Batch())
			if err != nil {
				return err
			}
			slog.Info("sheet reconciled", "sheet", path,
				"updated", res.Updated, "rejected", len(res.Rejected))

			ui.Info("%s: %d updated, %d rejected",
				ui.Accent(filepath.Base(path)), res.Updated, len(res.Rejected))
			reportRejections(res.Rejected)
		}
		return nil
	},
}

// importSheets lists the CSV sheets in the import directory.
func importSheets(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan import directory: %w", err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	return paths, nil
}
