package core

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/valter-silva-au/agent-backlog/pkg/models"
)

// ConfigurationManager loads the global .backlogrc configuration file.
type ConfigurationManager interface {
	LoadConfig() (*models.Config, error)
}

// viperConfigManager implements ConfigurationManager using Viper for
// reading the YAML configuration file.
type viperConfigManager struct {
	// basePath is the directory where .backlogrc resides.
	basePath string
}

// NewConfigurationManager creates a ConfigurationManager that reads
// configuration relative to basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *models.Config {
	return &models.Config{
		DBPath:            "backlog.db",
		EventLogPath:      "events.jsonl",
		DefaultPriority:   models.PriorityMedium,
		ListLimit:         20,
		BlockedAlertHours: 24,
		StaleAlertDays:    3,
		MaxBacklogSize:    50,
	}
}

// LoadConfig reads the .backlogrc file from the base path using Viper.
// If the file does not exist, defaults are returned.
func (cm *viperConfigManager) LoadConfig() (*models.Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName(".backlogrc")
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)

	// Viper defaults so missing keys fall back gracefully.
	v.SetDefault("db_path", cfg.DBPath)
	v.SetDefault("event_log_path", cfg.EventLogPath)
	v.SetDefault("defaults.priority", cfg.DefaultPriority)
	v.SetDefault("defaults.list_limit", cfg.ListLimit)
	v.SetDefault("alerts.blocked_hours", cfg.BlockedAlertHours)
	v.SetDefault("alerts.stale_days", cfg.StaleAlertDays)
	v.SetDefault("alerts.max_backlog_size", cfg.MaxBacklogSize)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading .backlogrc: %w", err)
	}

	cfg.DBPath = v.GetString("db_path")
	cfg.EventLogPath = v.GetString("event_log_path")
	cfg.DefaultPriority = v.GetInt("defaults.priority")
	cfg.ListLimit = v.GetInt("defaults.list_limit")
	cfg.BlockedAlertHours = v.GetInt("alerts.blocked_hours")
	cfg.StaleAlertDays = v.GetInt("alerts.stale_days")
	cfg.MaxBacklogSize = v.GetInt("alerts.max_backlog_size")

	if cfg.DefaultPriority < models.PriorityCritical || cfg.DefaultPriority > models.PriorityLow {
		return nil, fmt.Errorf("invalid defaults.priority %d in .backlogrc (want 1-4)", cfg.DefaultPriority)
	}

	return cfg, nil
}
