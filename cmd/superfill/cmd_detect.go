package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sweta-tw/superfill.ai/internal/browser"
	"github.com/sweta-tw/superfill.ai/internal/engine"
	"github.com/sweta-tw/superfill.ai/internal/logging"
	"github.com/sweta-tw/superfill.ai/internal/preview"
	"github.com/sweta-tw/superfill.ai/internal/types"
	"github.com/sweta-tw/superfill.ai/internal/watch"
)

var (
	detectURL   string
	detectWatch bool
	detectJSON  bool
	detectJobs  int
)

var detectCmd = &cobra.Command{
	Use:   "detect [file...]",
	Short: "Detect forms and fields in pages",
	Long: `Runs a detection pass over each page and prints its forms and fields.

Files ending in .json are read as layout snapshots; other files are parsed
as HTML. With --url the page is loaded in a browser instead.`,
	RunE: runDetect,
}

func init() {
	detectCmd.Flags().StringVar(&detectURL, "url", "", "Detect a live page in the browser")
	detectCmd.Flags().BoolVar(&detectWatch, "watch", false, "Re-run detection when a file changes")
	detectCmd.Flags().BoolVar(&detectJSON, "json", false, "Print results as JSON")
	detectCmd.Flags().IntVar(&detectJobs, "jobs", 4, "Files detected concurrently")
}

// pageResult pairs a detection result with its source.
type pageResult struct {
	Source string                `json:"source"`
	Result types.DetectionResult `json:"result"`
}

func runDetect(cmd *cobra.Command, args []string) error {
	if detectURL == "" && len(args) == 0 {
		return fmt.Errorf("give at least one file or --url")
	}
	ctx, cancel := commandContext(cmd.Context())
	defer cancel()
	out := cmd.OutOrStdout()

	if detectURL != "" {
		res, err := detectLive(ctx, detectURL)
		if err != nil {
			return err
		}
		return printDetections(out, []pageResult{res})
	}

	results, err := detectFiles(ctx, args)
	if err != nil {
		return err
	}
	if err := printDetections(out, results); err != nil {
		return err
	}
	if !detectWatch {
		return nil
	}

	// Long-running: drop the --timeout bound, keep interrupt handling.
	timeout = 0
	wctx, wcancel := commandContext(cmd.Context())
	defer wcancel()

	var mu sync.Mutex
	w, err := watch.New(args, func(ctx context.Context, path string) {
		results, err := detectFiles(ctx, []string{path})
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), err)
			return
		}
		if err := printDetections(out, results); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to watch files: %w", err)
	}
	w.Start(wctx)
	defer w.Stop()
	fmt.Fprintln(cmd.ErrOrStderr(), "watching for changes, ctrl-c to stop")
	<-wctx.Done()
	return nil
}

// detectFiles runs one pass per file, concurrently. Each file gets its own
// engine since passes on one detector are serialized.
func detectFiles(ctx context.Context, paths []string) ([]pageResult, error) {
	results := make([]pageResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	if detectJobs > 0 {
		g.SetLimit(detectJobs)
	}
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			root, err := loadPage(path)
			if err != nil {
				return err
			}
			eng := engine.New(nil, nil, engineOptions())
			results[i] = pageResult{Source: path, Result: eng.Detect(root)}
			logging.Get(logging.CategoryCLI).Debug("%s: %d fields", path, results[i].Result.TotalFields)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func detectLive(ctx context.Context, url string) (pageResult, error) {
	mgr := browser.NewSessionManager(browser.ConfigFrom(cfg.Browser))
	if err := mgr.Start(ctx); err != nil {
		return pageResult{}, fmt.Errorf("failed to start browser: %w", err)
	}
	defer mgr.Shutdown(context.Background())

	sess, err := mgr.CreateSession(ctx, url)
	if err != nil {
		return pageResult{}, err
	}
	snap, err := mgr.Snapshot(ctx, sess.ID)
	if err != nil {
		return pageResult{}, err
	}
	if len(snap.Honeypots) > 0 {
		logging.Get(logging.CategoryCLI).Info("%s: skipped %d honeypot fields", url, len(snap.Honeypots))
	}
	eng := engine.New(nil, nil, engineOptions())
	return pageResult{Source: url, Result: eng.Detect(snap.Root)}, nil
}

func printDetections(out io.Writer, results []pageResult) error {
	if detectJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	opts := previewOptions()
	for _, r := range results {
		fmt.Fprintln(out, opts.Styles.Muted.Render(r.Source))
		fmt.Fprint(out, preview.Forms(r.Result, opts))
	}
	return nil
}

func engineOptions() engine.Options {
	return engine.Options{
		Threshold:      cfg.Engine.AutoFillThreshold,
		MaxFields:      cfg.Engine.MaxFieldsPerPage,
		MaxRecords:     cfg.Engine.MaxRecords,
		LabelCacheSize: cfg.Engine.LabelCacheSize,
	}
}
