package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/utsmok/ea-cli/internal/archive"
	"github.com/utsmok/ea-cli/internal/config"
	"github.com/utsmok/ea-cli/internal/ingest"
	"github.com/utsmok/ea-cli/internal/logging"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "ea",
	Short: "Easy Access copyright catalog toolkit",
	Long: `ea tracks the recurring Easy Access catalog export in a versioned
archive, produces per-faculty review sheets, and reconciles reviewed
sheets back into one authoritative dataset.

Configuration comes from settings.env, ea.yaml and EA_* environment
variables; see the repository README for the available keys.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Log.File)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./ea.yaml)")

	rootCmd.AddGroup(
		&cobra.Group{ID: "archive", Title: "Archive commands:"},
		&cobra.Group{ID: "sheets", Title: "Sheet commands:"},
	)
	rootCmd.AddCommand(initCmd, ingestCmd, historyCmd, watchCmd)
	rootCmd.AddCommand(exportCmd, compareCmd, reconcileCmd)
}

// archiveOptions maps the resolved config onto engine options.
func archiveOptions() archive.Options {
	opts := archive.DefaultOptions()
	opts.PreserveSourceDate = cfg.Archive.PreserveSourceDate
	opts.Statuses = cfg.Reconcile.Statuses
	return opts
}

// openArchive opens the configured database with schema ready.
func openArchive() (*archive.Archive, error) {
	a, err := archive.Open(cfg.Database, archiveOptions())
	if err != nil {
		return nil, err
	}
	if err := a.InitSchema(); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

// facultyMapper loads the configured department→faculty mapping.
func facultyMapper() (ingest.Mapper, error) {
	mapper, err := ingest.LoadMapping(cfg.Faculty.MappingFile)
	if err != nil {
		return nil, fmt.Errorf("department mapping: %w", err)
	}
	return mapper, nil
}
