package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sweta-tw/superfill.ai/internal/browser"
	"github.com/sweta-tw/superfill.ai/internal/dom"
	"github.com/sweta-tw/superfill.ai/internal/engine"
	"github.com/sweta-tw/superfill.ai/internal/logging"
	"github.com/sweta-tw/superfill.ai/internal/preview"
	"github.com/sweta-tw/superfill.ai/internal/types"
	"github.com/sweta-tw/superfill.ai/internal/usage"
)

var (
	matchRecords      string
	matchURL          string
	matchAcceptAuto   bool
	matchAccept       []string
	matchJSON         bool
	matchAlternatives bool
	matchFill         bool
)

var matchCmd = &cobra.Command{
	Use:   "match [file]",
	Short: "Propose stored answers for the fields of a page",
	Long: `Detects the fields of a page and matches them against stored records.

Fields whose confidence reaches the auto-fill threshold are flagged. With
--accept-auto those fields are accepted and the usage of their records is
counted. A live page is only written to with --url --fill; usage is then
counted once every accepted field was filled.

Example:
  superfill match signup.html --records answers.yaml --accept-auto
  superfill match --url https://example.com/signup --accept-auto --fill`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMatch,
}

func init() {
	matchCmd.Flags().StringVar(&matchRecords, "records", "", "Match against a YAML record file instead of the store")
	matchCmd.Flags().StringVar(&matchURL, "url", "", "Match a live page in the browser")
	matchCmd.Flags().BoolVar(&matchAcceptAuto, "accept-auto", false, "Accept every auto-fill suggestion")
	matchCmd.Flags().StringSliceVar(&matchAccept, "accept", nil, "Accept suggestions for these field ids")
	matchCmd.Flags().BoolVar(&matchJSON, "json", false, "Print the run as JSON")
	matchCmd.Flags().BoolVar(&matchAlternatives, "alternatives", false, "Show alternative records")
	matchCmd.Flags().BoolVar(&matchFill, "fill", false, "Fill accepted fields in the --url page")
}

// matchOutput is the JSON shape of a match run.
type matchOutput struct {
	RunID     string                `json:"runId"`
	Source    string                `json:"source"`
	Phase     string                `json:"phase"`
	Detection types.DetectionResult `json:"detection"`
	Match     types.MatchResult     `json:"match"`
	Issues    []string              `json:"issues,omitempty"`
	Accepted  []types.FieldMapping  `json:"accepted,omitempty"`
}

func runMatch(cmd *cobra.Command, args []string) error {
	if (len(args) == 0) == (matchURL == "") {
		return fmt.Errorf("give exactly one of a file or --url")
	}
	if matchFill && matchURL == "" {
		return fmt.Errorf("--fill needs a live page from --url")
	}
	ctx, cancel := commandContext(cmd.Context())
	defer cancel()

	path := cfg.Store.Path
	if matchRecords != "" {
		path = matchRecords
	}
	store, err := openStore(path)
	if err != nil {
		return err
	}
	defer store.Close()

	eng, err := engine.FromConfig(cfg, store)
	if err != nil {
		return err
	}
	tracker, err := usage.NewTracker(usageDir())
	if err != nil {
		return err
	}
	defer tracker.Close()
	eng.TrackUsage(tracker)

	var (
		root   dom.Node
		source string
		fill   engine.FillFunc
	)
	if matchURL != "" {
		mgr := browser.NewSessionManager(browser.ConfigFrom(cfg.Browser))
		if err := mgr.Start(ctx); err != nil {
			return fmt.Errorf("failed to start browser: %w", err)
		}
		defer mgr.Shutdown(context.Background())
		sess, err := mgr.CreateSession(ctx, matchURL)
		if err != nil {
			return err
		}
		snap, err := mgr.Snapshot(ctx, sess.ID)
		if err != nil {
			return err
		}
		root, source = snap.Root, matchURL
		if matchFill {
			fill = func(ctx context.Context, field types.FieldDescriptor, value string) error {
				return mgr.FillField(ctx, sess.ID, field, value)
			}
		}
	} else {
		page, err := loadPage(args[0])
		if err != nil {
			return err
		}
		root, source = page, args[0]
	}

	run, err := eng.Run(ctx, root)
	if err != nil {
		return err
	}
	for _, issue := range run.Issues {
		logging.Get(logging.CategoryCLI).Warn("skipped record: %s", issue)
	}

	var accepted []types.FieldMapping
	if ids := acceptedIDs(run); len(ids) > 0 {
		accepted, err = eng.AcceptAndFill(ctx, run, ids, fill)
		if err != nil {
			return err
		}
	}

	return printRun(cmd.OutOrStdout(), run, source, accepted)
}

func acceptedIDs(run *engine.Run) []types.FieldID {
	var ids []types.FieldID
	if matchAcceptAuto {
		ids = append(ids, run.AutoFillIDs()...)
	}
	for _, id := range matchAccept {
		ids = append(ids, types.FieldID(id))
	}
	return ids
}

func printRun(out io.Writer, run *engine.Run, source string, accepted []types.FieldMapping) error {
	if matchJSON {
		res := matchOutput{
			RunID:     run.ID,
			Source:    source,
			Phase:     string(run.Progress.Current()),
			Detection: run.Detection,
			Match:     run.Match,
			Accepted:  accepted,
		}
		for _, issue := range run.Issues {
			res.Issues = append(res.Issues, issue.String())
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	opts := previewOptions()
	opts.Threshold = cfg.Engine.AutoFillThreshold
	opts.Alternatives = matchAlternatives
	fmt.Fprintln(out, opts.Styles.Muted.Render(fmt.Sprintf("%s  strategy=%s  %dms", source, run.Match.Strategy, run.Match.ProcessingTime.Milliseconds())))
	fmt.Fprint(out, preview.Mappings(run.Detection, run.Match.Mappings, opts))
	if len(accepted) > 0 {
		fmt.Fprintf(out, "accepted %d fields\n", len(accepted))
	}
	return nil
}
