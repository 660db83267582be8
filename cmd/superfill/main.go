// Package main implements the superfill CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sweta-tw/superfill.ai/internal/config"
	"github.com/sweta-tw/superfill.ai/internal/logging"
	"github.com/sweta-tw/superfill.ai/internal/memory"
	"github.com/sweta-tw/superfill.ai/internal/preview"
)

var (
	// Global flags
	configPath string
	verbose    bool
	storePath  string
	timeout    time.Duration
	noColor    bool

	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "superfill",
	Short: "Detect web forms and match their fields to stored answers",
	Long: `superfill finds the fillable fields of a page, works out what each field
asks for, and proposes a stored answer for it.

Pages come from static HTML, JSON layout snapshots, or a live browser.
Matching uses a language model when one is configured and falls back to
rule-based scoring otherwise.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load() // .env is optional

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if storePath != "" {
			cfg.Store.Path = storePath
		}
		if verbose {
			cfg.Logging.DebugMode = true
			cfg.Logging.Level = "debug"
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		if err := logging.Initialize(logging.Options{
			Level:      cfg.Logging.Level,
			Format:     cfg.Logging.Format,
			DebugMode:  cfg.Logging.DebugMode,
			Categories: cfg.Logging.Categories,
		}); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logging.BootDebug("config loaded from %s", configPath)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", filepath.Join(".superfill", "config.yaml"), "Config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "", "Record store (SQLite path, or a .yaml record file)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Operation timeout")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(recordsCmd)
	rootCmd.AddCommand(browserCmd)
}

// commandContext returns a context bounded by --timeout and canceled on
// interrupt.
func commandContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	if timeout <= 0 {
		return ctx, stop
	}
	tctx, cancel := context.WithTimeout(ctx, timeout)
	return tctx, func() {
		cancel()
		stop()
	}
}

func previewOptions() preview.Options {
	opts := preview.DefaultOptions()
	if noColor || os.Getenv("NO_COLOR") != "" {
		opts.Styles = preview.PlainStyles()
	}
	return opts
}

// storeHandle is a record store with an optional close hook.
type storeHandle struct {
	memory.Store
	close func() error
}

func (h storeHandle) Close() error {
	if h.close == nil {
		return nil
	}
	return h.close()
}

// openStore opens the configured store. A YAML path selects the file store.
func openStore(path string) (storeHandle, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		fs, err := memory.NewFileStore(path)
		if err != nil {
			return storeHandle{}, err
		}
		return storeHandle{Store: fs}, nil
	}
	db, err := memory.Open(path)
	if err != nil {
		return storeHandle{}, err
	}
	return storeHandle{Store: db, close: db.Close}, nil
}

// openSQLite opens the configured store for commands that edit records.
func openSQLite() (*memory.SQLiteStore, error) {
	switch strings.ToLower(filepath.Ext(cfg.Store.Path)) {
	case ".yaml", ".yml":
		return nil, fmt.Errorf("store %s is a read-only record file", cfg.Store.Path)
	}
	return memory.Open(cfg.Store.Path)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
