package models

// Config holds the global configuration loaded from .backlogrc.
type Config struct {
	// DBPath is the SQLite database file, relative to the base path
	// unless absolute.
	DBPath string `yaml:"db_path"`

	// EventLogPath is the JSONL event log file, relative to the base path
	// unless absolute.
	EventLogPath string `yaml:"event_log_path"`

	// DefaultPriority is assigned to tasks created without one (1-4).
	DefaultPriority int `yaml:"default_priority"`

	// ListLimit caps list_tasks results when the caller gives no limit.
	ListLimit int `yaml:"list_limit"`

	// BlockedAlertHours is how long a task may sit blocked before the
	// alert engine flags it.
	BlockedAlertHours int `yaml:"blocked_alert_hours"`

	// StaleAlertDays is how long a task may sit in_progress without a
	// status change before it is considered stale.
	StaleAlertDays int `yaml:"stale_alert_days"`

	// MaxBacklogSize triggers an alert when more tasks than this are
	// waiting in backlog or ready.
	MaxBacklogSize int `yaml:"max_backlog_size"`
}
