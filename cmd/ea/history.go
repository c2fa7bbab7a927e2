package main

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"
	"github.com/utsmok/ea-cli/internal/catalog"
	"github.com/utsmok/ea-cli/internal/ui"
)

var historySince string

var historyCmd = &cobra.Command{
	Use:     "history <material_id>",
	GroupID: "archive",
	Short:   "Show the version chain of an item",
	Long: `Print every version of an item in chronological order, from the
first import to the active row.

--since limits output to versions written after a point in time, given
either as a date (2026-08-01) or a natural-language expression like
"2 weeks ago".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var since time.Time
		if historySince != "" {
			var err error
			since, err = parseSince(historySince)
			if err != nil {
				return err
			}
		}

		a, err := openArchive()
		if err != nil {
			return err
		}
		defer a.Close()

		chain, err := a.History(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		shown := 0
		for i, row := range chain {
			if !since.IsZero() && row.LastModified.Before(since) {
				continue
			}
			shown++
			label := fmt.Sprintf("v%d", i+1)
			if i == len(chain)-1 {
				label += " (active)"
			}
			ui.Info("%s  %s  source %s", ui.Accent(label),
				row.LastModified.Format(time.RFC3339), row.SourceDate)
			for _, field := range slices.Sorted(maps.Keys(row.Payload)) {
				fmt.Printf("    %s: %s\n", field, row.Payload[field])
			}
		}
		if shown == 0 {
			ui.Warn("no versions of %s since %s", args[0], since.Format(catalog.DateFormat))
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().StringVar(&historySince, "since", "", "only versions after this date or expression")
}

// parseSince accepts a plain date or a natural-language expression.
func parseSince(expr string) (time.Time, error) {
	if t, err := time.Parse(catalog.DateFormat, expr); err == nil {
		return t, nil
	}
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	res, err := w.Parse(expr, time.Now())
	if err != nil || res == nil {
		return time.Time{}, fmt.Errorf("could not parse --since %q", expr)
	}
	return res.Time, nil
}
