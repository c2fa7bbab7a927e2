package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"github.com/utsmok/ea-cli/internal/ui"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:     "init",
	GroupID: "archive",
	Short:   "Create the archive database",
	Long: `Create the archive database file and its schema.

When the file already exists you are asked before it is reinitialized;
reinitializing keeps existing data (the schema is idempotent), so this is
only destructive together with removing the file yourself.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(cfg.Database); err == nil && !initForce {
			var proceed bool
			confirm := huh.NewConfirm().
				Title(fmt.Sprintf("Database %s already exists. Initialize anyway?", cfg.Database)).
				Value(&proceed)
			if err := confirm.Run(); err != nil {
				return err
			}
			if !proceed {
				ui.Warn("Aborted.")
				return nil
			}
		}

		a, err := openArchive()
		if err != nil {
			return err
		}
		defer a.Close()

		ui.Success("Archive ready at %s", ui.Accent(cfg.Database))
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "skip the confirmation prompt")
}
