package core

import (
	"context"
	"time"

	"github.com/valter-silva-au/agent-backlog/pkg/models"
)

// TaskFilter specifies criteria for listing task summaries.
// All specified fields use AND logic. Zero values mean "any".
type TaskFilter struct {
	ProjectID int64
	Status    models.TaskStatus
	Type      models.TaskType
	ParentID  string
	// Limit caps the number of results. 0 means no limit.
	Limit int
}

// TaskPatch describes a partial update to a task row. Nil pointer fields are
// left untouched. The store stamps updated_at on every patch.
type TaskPatch struct {
	Name     *string
	Status   *models.TaskStatus
	Priority *int

	DependsOn *[]string
	Blocks    *[]string

	BlockerReason *string
	BlockerSince  *time.Time
	BlockerNeeds  *string
	// ClearBlocker nulls all three blocker fields. Applied after the
	// pointer fields above, so a patch sets either blockers or this.
	ClearBlocker bool

	CompletedAt *time.Time
	Summary     *string
	Commits     *[]string

	// IfStatus restricts the patch to a row currently in this status; the
	// patch affects zero rows otherwise. The resolver uses it so two
	// simultaneous completions cannot both promote the same dependent.
	IfStatus *models.TaskStatus
	// IfStatusNot restricts the patch to a row not currently in this status.
	// Completion uses it to make a second complete_task a zero-row no-op.
	IfStatusNot *models.TaskStatus
}

// Store is the task store adapter the engine runs against: keyed CRUD over
// Project and Task records, each call individually atomic. Defined here so
// core stays independent of the storage package.
type Store interface {
	InsertProject(ctx context.Context, p *models.Project) (int64, error)
	GetProjectByPrefix(ctx context.Context, prefix string) (*models.Project, error)
	ListProjects(ctx context.Context) ([]models.Project, error)

	InsertTask(ctx context.Context, t *models.Task) error
	GetTask(ctx context.Context, taskID string) (*models.Task, error)
	ListTasks(ctx context.Context, filter TaskFilter) ([]models.TaskSummary, error)
	// ListTasksByParent returns the full task rows under one parent, as a
	// single consistent snapshot.
	ListTasksByParent(ctx context.Context, parentID string) ([]models.Task, error)
	// PatchTask applies a partial update and reports the number of rows
	// affected. Zero with a nil error means the task vanished.
	PatchTask(ctx context.Context, taskID string, patch TaskPatch) (int64, error)
	// DeleteTask removes a task row and reports the number of rows affected.
	DeleteTask(ctx context.Context, taskID string) (int64, error)

	// InTx runs fn against a transaction-bound view of the store. Multi-step
	// engine operations use it so a concurrent reader never observes a task
	// whose depends_on/blocks invariant is transiently broken.
	InTx(ctx context.Context, fn func(Store) error) error
}

// EventLogger is the subset of the observability event log that core
// services need. Defining it here avoids importing the observability package.
type EventLogger interface {
	LogEvent(eventType string, data map[string]any) error
}
