package cli

import (
	"github.com/valter-silva-au/agent-backlog/internal/core"
	"github.com/valter-silva-au/agent-backlog/internal/observability"
)

// Service instances, set during app initialization in app.go.
var (
	Backlog     core.BacklogManager
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
)

// ListLimit is the configured default for task listings when no --limit
// flag is given. Overridden from .backlogrc during app initialization.
var ListLimit = 20
