// Package logging provides config-driven categorized logging for superfill.
// Every entry is routed through a shared zap logger and tagged with its
// category. Until Initialize is called all loggers are no-ops.
// With debug_mode off only warnings and errors are emitted.
package logging

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot    Category = "boot"    // Startup, config loading
	CategoryDetect  Category = "detect"  // Form detection passes
	CategoryAnalyze Category = "analyze" // Field analysis, label discovery
	CategoryMatch   Category = "match"   // Matching strategies
	CategoryLLM     Category = "llm"     // Language model API calls
	CategoryBrowser Category = "browser" // Browser sessions, DOM snapshots
	CategoryStore   Category = "store"   // Record store operations
	CategoryEngine  Category = "engine"  // Pipeline orchestration, progress
	CategoryCLI     Category = "cli"     // Command-line surface
)

// Options mirrors config.LoggingConfig to keep this package import-free.
type Options struct {
	Level      string          // debug, info, warn, error
	Format     string          // json, console
	DebugMode  bool            // false = warnings and errors only
	Categories map[string]bool // per-category toggles, absent = enabled
}

// Logger is a category-scoped logger.
type Logger struct {
	category Category
	z        *zap.Logger
}

var (
	mu      sync.RWMutex
	base    = zap.NewNop()
	opts    Options
	loggers = make(map[Category]*Logger)
)

// Initialize builds the shared zap logger. Safe to call again to reconfigure.
func Initialize(o Options) error {
	var zcfg zap.Config
	if strings.EqualFold(o.Format, "json") {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	zcfg.DisableStacktrace = true

	level := parseLevel(o.Level)
	if !o.DebugMode && level < zapcore.WarnLevel {
		level = zapcore.WarnLevel
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	z, err := zcfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	install(z, o)
	Get(CategoryBoot).Debug("logging initialized: level=%s format=%s debug_mode=%v", level, o.Format, o.DebugMode)
	return nil
}

// SetCore routes all categories through core. Intended for tests that observe
// log output; every category is enabled.
func SetCore(core zapcore.Core) {
	install(zap.New(core), Options{DebugMode: true})
}

// Reset restores the silent default.
func Reset() {
	install(zap.NewNop(), Options{})
}

func install(z *zap.Logger, o Options) {
	mu.Lock()
	defer mu.Unlock()
	base = z
	opts = o
	loggers = make(map[Category]*Logger)
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// IsCategoryEnabled returns whether a specific category is enabled.
// Outside debug mode every category may still emit warnings and errors.
func IsCategoryEnabled(category Category) bool {
	mu.RLock()
	defer mu.RUnlock()
	if !opts.DebugMode || opts.Categories == nil {
		return true
	}
	enabled, exists := opts.Categories[string(category)]
	if !exists {
		return true // Enable by default if not specified
	}
	return enabled
}

// Get returns (or creates) a logger for the given category.
func Get(category Category) *Logger {
	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	enabled := IsCategoryEnabled(category)

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}
	z := zap.NewNop()
	if enabled {
		z = base.With(zap.String("category", string(category)))
	}
	l := &Logger{category: category, z: z}
	loggers[category] = l
	return l
}

// With returns a child logger carrying extra structured fields.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{category: l.category, z: l.z.With(fields...)}
}

// Zap exposes the underlying zap logger.
func (l *Logger) Zap() *zap.Logger { return l.z }

func (l *Logger) Debug(format string, args ...interface{}) {
	if ce := l.z.Check(zapcore.DebugLevel, ""); ce != nil {
		ce.Message = fmt.Sprintf(format, args...)
		ce.Write()
	}
}

func (l *Logger) Info(format string, args ...interface{}) {
	if ce := l.z.Check(zapcore.InfoLevel, ""); ce != nil {
		ce.Message = fmt.Sprintf(format, args...)
		ce.Write()
	}
}

func (l *Logger) Warn(format string, args ...interface{}) {
	if ce := l.z.Check(zapcore.WarnLevel, ""); ce != nil {
		ce.Message = fmt.Sprintf(format, args...)
		ce.Write()
	}
}

func (l *Logger) Error(format string, args ...interface{}) {
	if ce := l.z.Check(zapcore.ErrorLevel, ""); ce != nil {
		ce.Message = fmt.Sprintf(format, args...)
		ce.Write()
	}
}

// Sync flushes buffered entries. Call once before exit.
func Sync() {
	mu.RLock()
	z := base
	mu.RUnlock()
	if err := z.Sync(); err != nil && !isStdSyncErr(err) {
		fmt.Fprintf(os.Stderr, "[logging] sync failed: %v\n", err)
	}
}

// stderr sync returns EINVAL/ENOTTY on most terminals.
func isStdSyncErr(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "invalid argument") || strings.Contains(msg, "inappropriate ioctl")
}

// =============================================================================
// CONVENIENCE FUNCTIONS
// =============================================================================

func Boot(format string, args ...interface{})      { Get(CategoryBoot).Info(format, args...) }
func BootDebug(format string, args ...interface{}) { Get(CategoryBoot).Debug(format, args...) }
func BootWarn(format string, args ...interface{})  { Get(CategoryBoot).Warn(format, args...) }

func Detect(format string, args ...interface{})      { Get(CategoryDetect).Info(format, args...) }
func DetectDebug(format string, args ...interface{}) { Get(CategoryDetect).Debug(format, args...) }
func DetectWarn(format string, args ...interface{})   { Get(CategoryDetect).Warn(format, args...) }
func DetectError(format string, args ...interface{}) { Get(CategoryDetect).Error(format, args...) }

func AnalyzeDebug(format string, args ...interface{}) { Get(CategoryAnalyze).Debug(format, args...) }

func Match(format string, args ...interface{})      { Get(CategoryMatch).Info(format, args...) }
func MatchDebug(format string, args ...interface{}) { Get(CategoryMatch).Debug(format, args...) }
func MatchWarn(format string, args ...interface{})  { Get(CategoryMatch).Warn(format, args...) }

func LLM(format string, args ...interface{})      { Get(CategoryLLM).Info(format, args...) }
func LLMDebug(format string, args ...interface{}) { Get(CategoryLLM).Debug(format, args...) }
func LLMWarn(format string, args ...interface{})  { Get(CategoryLLM).Warn(format, args...) }
func LLMError(format string, args ...interface{}) { Get(CategoryLLM).Error(format, args...) }

func Browser(format string, args ...interface{})      { Get(CategoryBrowser).Info(format, args...) }
func BrowserDebug(format string, args ...interface{}) { Get(CategoryBrowser).Debug(format, args...) }
func BrowserWarn(format string, args ...interface{})  { Get(CategoryBrowser).Warn(format, args...) }
func BrowserError(format string, args ...interface{}) { Get(CategoryBrowser).Error(format, args...) }

func Store(format string, args ...interface{})      { Get(CategoryStore).Info(format, args...) }
func StoreDebug(format string, args ...interface{}) { Get(CategoryStore).Debug(format, args...) }
func StoreWarn(format string, args ...interface{})  { Get(CategoryStore).Warn(format, args...) }

func Engine(format string, args ...interface{})      { Get(CategoryEngine).Info(format, args...) }
func EngineDebug(format string, args ...interface{}) { Get(CategoryEngine).Debug(format, args...) }
func EngineWarn(format string, args ...interface{})  { Get(CategoryEngine).Warn(format, args...) }
