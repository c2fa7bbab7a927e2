package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/utsmok/ea-cli/internal/diff"
	"github.com/utsmok/ea-cli/internal/sheet"
	"github.com/utsmok/ea-cli/internal/ui"
)

var compareFaculty string

var compareCmd = &cobra.Command{
	Use:     "compare <sheet>",
	GroupID: "sheets",
	Short:   "Diff a review sheet against the archive",
	Long: `Classify every material_id of a review sheet against the archive's
active rows: unchanged, changed (with the differing fields), only on the
sheet, or only in the archive. The archive is not modified.

--faculty scopes the archive side to one faculty partition; the default
"all" compares against every active row.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := sheet.Load(args[0], compareFaculty)
		if err != nil {
			return err
		}
		if s.Empty() {
			return fmt.Errorf("sheet %s is empty or missing", args[0])
		}

		a, err := openArchive()
		if err != nil {
			return err
		}
		defer a.Close()

		results, err := a.Compare(cmd.Context(), s.Batch(), compareFaculty)
		if err != nil {
			return err
		}

		counts := map[diff.Kind]int{}
		for _, res := range results {
			counts[res.Kind]++
			if res.Kind == diff.Unchanged {
				continue
			}
			ui.Info("%s: %s", ui.Accent(res.MaterialID), res.Kind)
			for _, f := range res.Fields {
				oldVal, newVal := f.Old, f.New
				if !f.HasOld {
					oldVal = "<absent>"
				}
				if !f.HasNew {
					newVal = "<absent>"
				}
				fmt.Printf("    %s: %q -> %q\n", f.Field, oldVal, newVal)
			}
		}

		ui.Success("%d unchanged, %d changed, %d only on sheet, %d only in archive",
			counts[diff.Unchanged], counts[diff.Changed],
			counts[diff.NewInSnapshot], counts[diff.NewInArchive])
		return nil
	},
}

func init() {
	compareCmd.Flags().StringVar(&compareFaculty, "faculty", "all", "faculty partition to compare against")
}
