// Package internal provides the App struct that wires all components of the
// Agent Backlog system together and initializes the CLI layer.
package internal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/valter-silva-au/agent-backlog/internal/cli"
	"github.com/valter-silva-au/agent-backlog/internal/core"
	"github.com/valter-silva-au/agent-backlog/internal/observability"
	"github.com/valter-silva-au/agent-backlog/internal/storage"
)

// App holds all service dependencies for the Agent Backlog system.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr core.ConfigurationManager

	// Storage layer
	Store *storage.Store

	// Core services
	Backlog core.BacklogManager

	// Observability
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
}

// NewApp creates and wires all components of the Agent Backlog system.
// basePath is the root directory where all data is stored (typically ~/.abl
// or the directory containing .backlogrc).
func NewApp(ctx context.Context, basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("creating base directory %s: %w", basePath, err)
	}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	// --- Storage layer ---
	dbPath := cfg.DBPath
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(basePath, dbPath)
	}
	app.Store, err = storage.NewStore(ctx, dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening backlog store: %w", err)
	}

	// --- Observability ---
	eventLogPath := cfg.EventLogPath
	if !filepath.IsAbs(eventLogPath) {
		eventLogPath = filepath.Join(basePath, eventLogPath)
	}
	app.EventLog, err = observability.NewJSONLEventLog(eventLogPath)
	if err != nil {
		// Non-fatal: disable observability if the log can't be created.
		app.EventLog = nil
	}
	if app.EventLog != nil {
		thresholds := observability.DefaultAlertThresholds()
		if cfg.BlockedAlertHours > 0 {
			thresholds.BlockedHours = cfg.BlockedAlertHours
		}
		if cfg.StaleAlertDays > 0 {
			thresholds.StaleDays = cfg.StaleAlertDays
		}
		if cfg.MaxBacklogSize > 0 {
			thresholds.MaxBacklogSize = cfg.MaxBacklogSize
		}
		app.AlertEngine = observability.NewAlertEngine(app.EventLog, thresholds)
	}

	// --- Core services ---
	var events core.EventLogger
	if app.EventLog != nil {
		events = app.EventLog
	}
	app.Backlog = core.NewBacklogManager(app.Store, events, cfg.DefaultPriority)

	// --- Wire CLI package-level variables ---
	cli.Backlog = app.Backlog
	cli.EventLog = app.EventLog
	cli.AlertEngine = app.AlertEngine
	if cfg.ListLimit > 0 {
		cli.ListLimit = cfg.ListLimit
	}

	return app, nil
}

// Close releases resources held by the App: the database handle and the
// event log file handle. Safe to call when either is nil.
func (a *App) Close() error {
	var firstErr error
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			firstErr = err
		}
	}
	if a.EventLog != nil {
		if err := a.EventLog.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ResolveBasePath determines the base path for the Agent Backlog data
// directory. It checks the ABL_HOME env var, then walks up from the current
// directory looking for a .backlogrc, then falls back to ~/.abl.
func ResolveBasePath() string {
	if home := os.Getenv("ABL_HOME"); home != "" {
		return home
	}

	dir, err := os.Getwd()
	if err == nil {
		for {
			if _, statErr := os.Stat(filepath.Join(dir, ".backlogrc")); statErr == nil {
				return dir
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		cwd, _ := os.Getwd()
		return cwd
	}
	return filepath.Join(home, ".abl")
}
