package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/utsmok/ea-cli/internal/ui"
)

// watchDebounce batches the burst of write events a slowly-copied export
// file produces into one ingestion.
const watchDebounce = 2 * time.Second

var watchCmd = &cobra.Command{
	Use:     "watch",
	GroupID: "archive",
	Short:   "Watch the export directory and ingest new files",
	Long: `Watch the configured export directory and ingest every new CSV export
as it appears. Events are debounced so a file still being copied in is
ingested once, after it settles. Stop with Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("failed to create watcher: %w", err)
		}
		defer watcher.Close()

		if err := watcher.Add(cfg.Dirs.Export); err != nil {
			return fmt.Errorf("failed to watch %s: %w", cfg.Dirs.Export, err)
		}
		ui.Info("watching %s", ui.Accent(cfg.Dirs.Export))

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

		pending := make(map[string]time.Time)
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if !strings.HasSuffix(event.Name, ".csv") {
					continue
				}
				if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
					continue
				}
				pending[event.Name] = time.Now()

			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				slog.Warn("watcher error", "err", err)

			case now := <-ticker.C:
				for path, last := range pending {
					if now.Sub(last) < watchDebounce {
						continue
					}
					delete(pending, path)
					if err := ingestWatched(cmd, path); err != nil {
						ui.Warn("ingest of %s failed: %v", path, err)
					}
				}

			case <-sigs:
				ui.Info("stopping watcher")
				return nil
			}
		}
	},
}

// ingestWatched runs one ingestion for a settled export file.
func ingestWatched(cmd *cobra.Command, path string) error {
	batch, err := readExport(path)
	if err != nil {
		return err
	}

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
	slog.Info("export ingested", "file", path,
		"added", added.Inserted, "updated", updated.Updated, "unchanged", updated.Unchanged)
	ui.Success("%s: added %d, updated %d", path, added.Inserted, updated.Updated)
	reportRejections(append(added.Rejected, updated.Rejected...))
	return nil
}
