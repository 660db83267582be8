package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sweta-tw/superfill.ai/internal/preview"
	"github.com/sweta-tw/superfill.ai/internal/usage"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show matching statistics per strategy",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Print statistics as JSON")
	rootCmd.AddCommand(statsCmd)
}

// usageDir keeps usage.json next to the record store.
func usageDir() string {
	return filepath.Dir(cfg.Store.Path)
}

func runStats(cmd *cobra.Command, args []string) error {
	tracker, err := usage.NewTracker(usageDir())
	if err != nil {
		return err
	}
	stats := tracker.Stats()
	if statsJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}
	if stats.Total.Runs == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no matching runs recorded yet")
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), preview.Usage(stats, previewOptions()))
	return nil
}
