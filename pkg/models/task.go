package models

import "time"

// TaskType represents the kind of work a task involves.
// It is immutable after creation and forms part of the task ID.
type TaskType string

const (
	TaskTypeTask  TaskType = "task"
	TaskTypeBug   TaskType = "bug"
	TaskTypeSpike TaskType = "spike"
	TaskTypeEpic  TaskType = "epic"
)

// ValidTaskType reports whether t is one of the known task types.
func ValidTaskType(t TaskType) bool {
	switch t {
	case TaskTypeTask, TaskTypeBug, TaskTypeSpike, TaskTypeEpic:
		return true
	}
	return false
}

// TaskStatus represents the current lifecycle state of a task.
type TaskStatus string

const (
	StatusBacklog    TaskStatus = "backlog"
	StatusReady      TaskStatus = "ready"
	StatusInProgress TaskStatus = "in_progress"
	StatusBlocked    TaskStatus = "blocked"
	StatusDone       TaskStatus = "done"
)

// ValidStatus reports whether s is one of the known task statuses.
func ValidStatus(s TaskStatus) bool {
	switch s {
	case StatusBacklog, StatusReady, StatusInProgress, StatusBlocked, StatusDone:
		return true
	}
	return false
}

// Priority levels. Lower is more urgent.
const (
	PriorityCritical = 1
	PriorityHigh     = 2
	PriorityMedium   = 3
	PriorityLow      = 4
)

// Task is the central entity: a unit of work identified by a unique
// PREFIX-TYPE-NNN ID, carrying the full implementation context an agent
// needs plus its dependency relationships.
//
// The blocker_* fields are populated only while Status is StatusBlocked;
// completed_at, summary, and commits only once Status is StatusDone.
type Task struct {
	TaskID    string   `json:"task_id"`
	ProjectID int64    `json:"project_id"`
	Type      TaskType `json:"type"`

	// Summary fields, cheap to list.
	Name     string     `json:"name"`
	Status   TaskStatus `json:"status"`
	Priority int        `json:"priority"`

	// Full-context fields, returned only on single-task fetch.
	Description       string   `json:"description,omitempty"`
	Action            string   `json:"action"`
	FilesExclusive    []string `json:"files_exclusive,omitempty"`
	FilesReadonly     []string `json:"files_readonly,omitempty"`
	FilesForbidden    []string `json:"files_forbidden,omitempty"`
	Verify            []string `json:"verify,omitempty"`
	DoneCriteria      []string `json:"done_criteria,omitempty"`
	ExecutionStrategy string   `json:"execution_strategy,omitempty"`
	CheckpointType    string   `json:"checkpoint_type,omitempty"`

	// Relationships. Blocks is the maintained inverse of DependsOn.
	DependsOn []string `json:"depends_on,omitempty"`
	Blocks    []string `json:"blocks,omitempty"`
	ParentID  string   `json:"parent_id,omitempty"`

	// Status-conditional fields.
	BlockerReason string     `json:"blocker_reason,omitempty"`
	BlockerSince  *time.Time `json:"blocker_since,omitempty"`
	BlockerNeeds  string     `json:"blocker_needs,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	Summary       string     `json:"summary,omitempty"`
	Commits       []string   `json:"commits,omitempty"`

	Created time.Time `json:"created_at"`
	Updated time.Time `json:"updated_at"`
}

// TaskSummary is the cheap listing view of a task: identity and summary
// fields only, never the full implementation context.
type TaskSummary struct {
	TaskID   string     `json:"id"`
	Name     string     `json:"name"`
	Type     TaskType   `json:"type"`
	Status   TaskStatus `json:"status"`
	Priority int        `json:"priority"`
	ParentID string     `json:"parent_id,omitempty"`
}
