package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sweta-tw/superfill.ai/internal/browser"
	"github.com/sweta-tw/superfill.ai/internal/dom"
	"github.com/sweta-tw/superfill.ai/internal/logging"
)

var snapshotOut string

var browserCmd = &cobra.Command{
	Use:   "browser",
	Short: "Live page commands",
}

var browserSnapshotCmd = &cobra.Command{
	Use:   "snapshot <url> [url...]",
	Short: "Capture a page's layout tree as a JSON snapshot",
	Long: `Loads each page in a browser and writes its layout tree, including open
shadow roots, as a snapshot that detect and match accept as input.

All pages are visited in order in one browser session. With several URLs,
-o names a directory that receives one numbered snapshot per page.

Example:
  superfill browser snapshot https://example.com/signup -o signup.json
  superfill browser snapshot https://example.com/a https://example.com/b -o snaps
  superfill match signup.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: browserSnapshot,
}

func init() {
	browserSnapshotCmd.Flags().StringVarP(&snapshotOut, "output", "o", "", "Write the snapshot to a file, or to a directory for several URLs")
	browserCmd.AddCommand(browserSnapshotCmd)
}

func browserSnapshot(cmd *cobra.Command, args []string) error {
	if len(args) > 1 && snapshotOut == "" {
		return fmt.Errorf("%d URLs given: -o must name an output directory", len(args))
	}

	ctx, cancel := commandContext(cmd.Context())
	defer cancel()

	mgr := browser.NewSessionManager(browser.ConfigFrom(cfg.Browser))
	if err := mgr.Start(ctx); err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	defer mgr.Shutdown(context.Background())
	logging.BrowserDebug("snapshot: %d pages via %s", len(args), mgr.ControlURL())

	sess, err := mgr.CreateSession(ctx, args[0])
	if err != nil {
		return err
	}
	for i, url := range args {
		if i > 0 {
			if err := mgr.Navigate(ctx, sess.ID, url); err != nil {
				return err
			}
		}
		out := snapshotOut
		if len(args) > 1 {
			out = snapshotPath(snapshotOut, i)
		}
		if err := writeSnapshot(ctx, cmd, mgr, sess.ID, out); err != nil {
			return err
		}
	}
	return nil
}

// snapshotPath names the i-th snapshot file inside dir.
func snapshotPath(dir string, i int) string {
	return filepath.Join(dir, fmt.Sprintf("page-%d.json", i+1))
}

func writeSnapshot(ctx context.Context, cmd *cobra.Command, mgr *browser.SessionManager, sessionID, out string) error {
	snap, err := mgr.Snapshot(ctx, sessionID)
	if err != nil {
		return err
	}
	sess, _ := mgr.GetSession(sessionID)
	for _, hp := range snap.Honeypots {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: honeypot: %s\n", sess.URL, hp)
	}
	if snap.Truncated {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: snapshot truncated: page exceeds the node limit\n", sess.URL)
	}

	data, err := json.MarshalIndent(dom.ToSnapshot(snap.Root), "", "  ")
	if err != nil {
		return err
	}
	if out == "" {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s -> %s\n", sess.URL, out)
	return nil
}
