package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sweta-tw/superfill.ai/internal/memory"
	"github.com/sweta-tw/superfill.ai/internal/preview"
)

var (
	recordID       string
	recordQuestion string
	recordCategory string
	recordTags     []string
	recordsLimit   int
	recordsJSON    bool
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Manage stored answers",
}

var recordsAddCmd = &cobra.Command{
	Use:   "add [answer]",
	Short: "Store an answer",
	Long: `Stores an answer. Re-using an id replaces that record.

Example:
  superfill records add "jane@example.com" --question "What's your email?" --category contact`,
	Args: cobra.ExactArgs(1),
	RunE: recordsAdd,
}

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored answers, most used first",
	RunE:  recordsList,
}

var recordsImportCmd = &cobra.Command{
	Use:   "import [file.yaml]",
	Short: "Import answers from a YAML record file",
	Args:  cobra.ExactArgs(1),
	RunE:  recordsImport,
}

var recordsDeleteCmd = &cobra.Command{
	Use:   "delete [id...]",
	Short: "Delete stored answers",
	Args:  cobra.MinimumNArgs(1),
	RunE:  recordsDelete,
}

func init() {
	recordsAddCmd.Flags().StringVar(&recordID, "id", "", "Record id (generated when empty)")
	recordsAddCmd.Flags().StringVarP(&recordQuestion, "question", "q", "", "Question the answer belongs to")
	recordsAddCmd.Flags().StringVar(&recordCategory, "category", "general", "Record category")
	recordsAddCmd.Flags().StringSliceVar(&recordTags, "tag", nil, "Record tags")
	recordsListCmd.Flags().IntVar(&recordsLimit, "limit", 0, "Maximum records to list (0 = all)")
	recordsListCmd.Flags().BoolVar(&recordsJSON, "json", false, "Print records as JSON")

	recordsCmd.AddCommand(recordsAddCmd)
	recordsCmd.AddCommand(recordsListCmd)
	recordsCmd.AddCommand(recordsImportCmd)
	recordsCmd.AddCommand(recordsDeleteCmd)
}

func recordsAdd(cmd *cobra.Command, args []string) error {
	store, err := openSQLite()
	if err != nil {
		return err
	}
	defer store.Close()

	r, err := store.Add(cmd.Context(), memory.Record{
		ID:       recordID,
		Question: recordQuestion,
		Answer:   args[0],
		Category: strings.ToLower(recordCategory),
		Tags:     recordTags,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), r.ID)
	return nil
}

func recordsList(cmd *cobra.Command, args []string) error {
	store, err := openStore(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.List(cmd.Context(), recordsLimit)
	if err != nil {
		return err
	}
	if recordsJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}
	fmt.Fprint(cmd.OutOrStdout(), preview.Records(records, previewOptions()))
	return nil
}

func recordsImport(cmd *cobra.Command, args []string) error {
	records, err := memory.LoadRecords(args[0])
	if err != nil {
		return err
	}
	store, err := openSQLite()
	if err != nil {
		return err
	}
	defer store.Close()

	imported := 0
	for i, r := range records {
		if _, err := store.Add(cmd.Context(), r); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "record %d (%s): %v\n", i, r.ID, err)
			continue
		}
		imported++
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d of %d records into %s\n", imported, len(records), store.Path())
	return nil
}

func recordsDelete(cmd *cobra.Command, args []string) error {
	store, err := openSQLite()
	if err != nil {
		return err
	}
	defer store.Close()

	for _, id := range args {
		if err := store.Delete(cmd.Context(), id); err != nil {
			return fmt.Errorf("%s: %w", id, err)
		}
	}
	return nil
}
