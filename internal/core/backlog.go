// Package core contains the business logic for the agent backlog: the task
// data model invariants, the status state machine, the dependency resolver,
// the parallel group planner, and task ID generation.
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valter-silva-au/agent-backlog/pkg/models"
)

// blockerReasonUnknown is recorded when a task is blocked without a reason.
const blockerReasonUnknown = "Unknown"

// CreateTaskRequest carries the caller-supplied fields for a new task.
// Status is never caller-supplied; it is computed from DependsOn.
type CreateTaskRequest struct {
	Project  string // project prefix, case-insensitive
	Type     models.TaskType
	Name     string
	Action   string
	Priority int // 0 means the configured default

	Description       string
	FilesExclusive    []string
	FilesReadonly     []string
	FilesForbidden    []string
	Verify            []string
	DoneCriteria      []string
	DependsOn         []string
	ParentID          string
	ExecutionStrategy string
	CheckpointType    string
}

// BacklogSummary is the dashboard view of a backlog: counts plus the items
// worth a caller's attention.
type BacklogSummary struct {
	Project    string               `json:"project,omitempty"`
	Total      int                  `json:"total"`
	ByStatus   map[string]int       `json:"by_status"`
	ByType     map[string]int       `json:"by_type"`
	InProgress []models.TaskSummary `json:"in_progress,omitempty"`
	Blocked    []models.TaskSummary `json:"blocked,omitempty"`
	NextUp     *models.TaskSummary  `json:"next_up,omitempty"`
}

// BacklogManager defines the task dependency and scheduling engine: project
// and task lifecycle, status transitions, completion-triggered unblocking,
// and parallel execution planning.
type BacklogManager interface {
	CreateProject(ctx context.Context, name, prefix, description string) (*models.Project, error)
	ListProjects(ctx context.Context) ([]models.Project, error)

	CreateTask(ctx context.Context, req CreateTaskRequest) (*models.Task, error)
	GetTask(ctx context.Context, taskID string) (*models.Task, error)
	ListTasks(ctx context.Context, projectPrefix string, status models.TaskStatus, taskType models.TaskType, limit int) ([]models.TaskSummary, error)
	NextReadyTask(ctx context.Context, projectPrefix string, taskType models.TaskType) (*models.Task, error)

	UpdateTaskStatus(ctx context.Context, taskID string, status models.TaskStatus, blockerReason, blockerNeeds string) (*models.Task, error)
	CompleteTask(ctx context.Context, taskID, summary string, commits []string) ([]string, error)
	DeleteTask(ctx context.Context, taskID string) error

	ParallelGroups(ctx context.Context, epicID string) (*PlanResult, error)
	Summary(ctx context.Context, projectPrefix string) (*BacklogSummary, error)

	ImportPlan(ctx context.Context, data []byte) ([]string, error)
}

// backlogManager implements BacklogManager against an injected Store.
type backlogManager struct {
	store           Store
	events          EventLogger
	defaultPriority int
}

// NewBacklogManager creates a BacklogManager. events may be nil if event
// logging is disabled. defaultPriority is used when a creation request
// carries none; pass 0 for PriorityMedium.
func NewBacklogManager(store Store, events EventLogger, defaultPriority int) BacklogManager {
	if defaultPriority < models.PriorityCritical || defaultPriority > models.PriorityLow {
		defaultPriority = models.PriorityMedium
	}
	return &backlogManager{
		store:           store,
		events:          events,
		defaultPriority: defaultPriority,
	}
}

// logEvent writes an event if an event logger is configured. Logging never
// fails an already-committed operation.
func (m *backlogManager) logEvent(eventType string, data map[string]any) {
	if m.events == nil {
		return
	}
	_ = m.events.LogEvent(eventType, data)
}

// CreateProject creates a new project. The prefix is normalized to uppercase
// and must be unique across all projects.
func (m *backlogManager) CreateProject(ctx context.Context, name, prefix, description string) (*models.Project, error) {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if name == "" {
		return nil, fmt.Errorf("creating project: name is required")
	}
	if prefix == "" {
		return nil, fmt.Errorf("creating project: prefix is required")
	}
	if !prefixPattern.MatchString(prefix) {
		return nil, fmt.Errorf("creating project: prefix %q must be alphanumeric and start with a letter", prefix)
	}

	project := &models.Project{
		Name:        name,
		Prefix:      prefix,
		Description: description,
		Created:     time.Now().UTC(),
	}

	err := m.store.InTx(ctx, func(s Store) error {
		existing, err := s.GetProjectByPrefix(ctx, prefix)
		if err != nil && !errors.Is(err, ErrProjectNotFound) {
			return fmt.Errorf("checking prefix %s: %w", prefix, err)
		}
		if existing != nil {
			return fmt.Errorf("creating project %s: %w", prefix, ErrDuplicatePrefix)
		}

		id, err := s.InsertProject(ctx, project)
		if err != nil {
			return fmt.Errorf("inserting project %s: %w", prefix, err)
		}
		project.ID = id
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logEvent("project.created", map[string]any{"prefix": prefix, "name": name})
	return project, nil
}

// ListProjects returns all projects.
func (m *backlogManager) ListProjects(ctx context.Context) ([]models.Project, error) {
	projects, err := m.store.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return projects, nil
}

// CreateTask creates a new task. The initial status is computed: ready when
// depends_on is empty, backlog otherwise. Every dependency must resolve to an
// existing task or the whole creation is rejected. Each dependency's blocks
// list gains the new task's ID in the same transaction as the insert.
func (m *backlogManager) CreateTask(ctx context.Context, req CreateTaskRequest) (*models.Task, error) {
	if !models.ValidTaskType(req.Type) {
		return nil, fmt.Errorf("creating task: invalid type %q (want task, bug, spike, or epic)", req.Type)
	}
	if req.Name == "" {
		return nil, fmt.Errorf("creating task: name is required")
	}
	if req.Action == "" {
		return nil, fmt.Errorf("creating task: action is required")
	}
	priority := req.Priority
	if priority == 0 {
		priority = m.defaultPriority
	}
	if priority < models.PriorityCritical || priority > models.PriorityLow {
		return nil, fmt.Errorf("creating task: invalid priority %d (want 1-4)", priority)
	}

	dependsOn := dedupe(req.DependsOn)

	var task *models.Task
	err := m.store.InTx(ctx, func(s Store) error {
		project, err := s.GetProjectByPrefix(ctx, strings.ToUpper(req.Project))
		if err != nil {
			return fmt.Errorf("creating task: project %s: %w", req.Project, err)
		}

		taskID, err := NextTaskID(ctx, s, project, req.Type)
		if err != nil {
			return fmt.Errorf("creating task: %w", err)
		}

		// Every dependency must exist before the task can be persisted.
		deps := make([]*models.Task, 0, len(dependsOn))
		for _, depID := range dependsOn {
			dep, err := s.GetTask(ctx, depID)
			if err != nil {
				if errors.Is(err, ErrTaskNotFound) {
					return fmt.Errorf("creating task %s: depends_on %s: %w", taskID, depID, ErrDependencyNotFound)
				}
				return fmt.Errorf("creating task %s: resolving dependency %s: %w", taskID, depID, err)
			}
			deps = append(deps, dep)
		}

		status := models.StatusReady
		if len(dependsOn) > 0 {
			status = models.StatusBacklog
		}

		now := time.Now().UTC()
		task = &models.Task{
			TaskID:            taskID,
			ProjectID:         project.ID,
			Type:              req.Type,
			Name:              req.Name,
			Status:            status,
			Priority:          priority,
			Description:       req.Description,
			Action:            req.Action,
			FilesExclusive:    req.FilesExclusive,
			FilesReadonly:     req.FilesReadonly,
			FilesForbidden:    req.FilesForbidden,
			Verify:            req.Verify,
			DoneCriteria:      req.DoneCriteria,
			ExecutionStrategy: req.ExecutionStrategy,
			CheckpointType:    req.CheckpointType,
			DependsOn:         dependsOn,
			ParentID:          req.ParentID,
			Created:           now,
			Updated:           now,
		}
		if err := s.InsertTask(ctx, task); err != nil {
			return fmt.Errorf("inserting task %s: %w", taskID, err)
		}

		// Maintain the inverse edge on each dependency.
		for _, dep := range deps {
			blocks := appendUnique(dep.Blocks, taskID)
			if _, err := s.PatchTask(ctx, dep.TaskID, TaskPatch{Blocks: &blocks}); err != nil {
				return fmt.Errorf("updating blocks of %s: %w", dep.TaskID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logEvent("task.created", map[string]any{
		"task_id": task.TaskID,
		"type":    string(task.Type),
		"status":  string(task.Status),
	})
	return task, nil
}

// GetTask returns the full context for one task.
func (m *backlogManager) GetTask(ctx context.Context, taskID string) (*models.Task, error) {
	task, err := m.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("getting task %s: %w", taskID, err)
	}
	return task, nil
}

// ListTasks returns task summaries, optionally filtered by project prefix,
// status, and type. Summaries never include the full implementation context.
func (m *backlogManager) ListTasks(ctx context.Context, projectPrefix string, status models.TaskStatus, taskType models.TaskType, limit int) ([]models.TaskSummary, error) {
	filter := TaskFilter{Status: status, Type: taskType, Limit: limit}

	if projectPrefix != "" {
		project, err := m.store.GetProjectByPrefix(ctx, strings.ToUpper(projectPrefix))
		if err != nil {
			return nil, fmt.Errorf("listing tasks: project %s: %w", projectPrefix, err)
		}
		filter.ProjectID = project.ID
	}

	summaries, err := m.store.ListTasks(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	return summaries, nil
}

// NextReadyTask returns the full context of the highest-priority ready task,
// oldest first within a priority. Returns nil when nothing is ready.
func (m *backlogManager) NextReadyTask(ctx context.Context, projectPrefix string, taskType models.TaskType) (*models.Task, error) {
	filter := TaskFilter{Status: models.StatusReady, Type: taskType, Limit: 1}
	if projectPrefix != "" {
		project, err := m.store.GetProjectByPrefix(ctx, strings.ToUpper(projectPrefix))
		if err != nil {
			return nil, fmt.Errorf("next task: project %s: %w", projectPrefix, err)
		}
		filter.ProjectID = project.ID
	}

	summaries, err := m.store.ListTasks(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("next task: %w", err)
	}
	if len(summaries) == 0 {
		return nil, nil
	}

	task, err := m.store.GetTask(ctx, summaries[0].TaskID)
	if err != nil {
		return nil, fmt.Errorf("next task: loading %s: %w", summaries[0].TaskID, err)
	}
	return task, nil
}

// UpdateTaskStatus applies a direct status override. Entering blocked stamps
// blocker_since and records the reason (defaulting to "Unknown"); leaving
// blocked clears all blocker fields. Dependency completeness is not
// re-validated here: this transition is an explicit override for a human or
// orchestrator.
func (m *backlogManager) UpdateTaskStatus(ctx context.Context, taskID string, status models.TaskStatus, blockerReason, blockerNeeds string) (*models.Task, error) {
	if !models.ValidStatus(status) {
		return nil, fmt.Errorf("updating task %s: invalid status %q", taskID, status)
	}

	var task *models.Task
	err := m.store.InTx(ctx, func(s Store) error {
		current, err := s.GetTask(ctx, taskID)
		if err != nil {
			return fmt.Errorf("updating task %s: %w", taskID, err)
		}

		patch := TaskPatch{Status: &status}
		now := time.Now().UTC()

		if status == models.StatusBlocked {
			reason := blockerReason
			if reason == "" {
				reason = blockerReasonUnknown
			}
			patch.BlockerReason = &reason
			patch.BlockerNeeds = &blockerNeeds
			patch.BlockerSince = &now
		} else if current.Status == models.StatusBlocked {
			patch.ClearBlocker = true
		}

		affected, err := s.PatchTask(ctx, taskID, patch)
		if err != nil {
			return fmt.Errorf("updating task %s: %w", taskID, err)
		}
		if affected == 0 {
			return fmt.Errorf("updating task %s: %w", taskID, ErrConcurrentModification)
		}

		task, err = s.GetTask(ctx, taskID)
		if err != nil {
			return fmt.Errorf("updating task %s: reloading: %w", taskID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logEvent("task.status_changed", map[string]any{
		"task_id":    taskID,
		"new_status": string(status),
	})
	return task, nil
}

// CompleteTask marks a task done, records the completion metadata, and runs
// the dependency resolver over the tasks that depend on it. Returns the IDs
// actually transitioned to ready.
//
// The done patch is guarded on status != done, so completing the same task
// twice makes the second call a zero-row no-op that surfaces as
// ErrConcurrentModification and triggers no further unblocks.
func (m *backlogManager) CompleteTask(ctx context.Context, taskID, summary string, commits []string) ([]string, error) {
	var unblocked []string
	err := m.store.InTx(ctx, func(s Store) error {
		task, err := s.GetTask(ctx, taskID)
		if err != nil {
			return fmt.Errorf("completing task %s: %w", taskID, err)
		}

		now := time.Now().UTC()
		done := models.StatusDone
		notDone := models.StatusDone
		patch := TaskPatch{
			Status:      &done,
			CompletedAt: &now,
			Summary:     &summary,
			Commits:     &commits,
			IfStatusNot: &notDone,
		}
		if task.Status == models.StatusBlocked {
			patch.ClearBlocker = true
		}

		affected, err := s.PatchTask(ctx, taskID, patch)
		if err != nil {
			return fmt.Errorf("completing task %s: %w", taskID, err)
		}
		if affected == 0 {
			// Already done, or gone. Either way the resolver must not run.
			return fmt.Errorf("completing task %s: %w", taskID, ErrConcurrentModification)
		}

		unblocked, err = m.resolveDependents(ctx, s, task)
		return err
	})
	if err != nil {
		return nil, err
	}

	m.logEvent("task.completed", map[string]any{"task_id": taskID})
	for _, id := range unblocked {
		m.logEvent("task.unblocked", map[string]any{"task_id": id, "completed": taskID})
	}
	return unblocked, nil
}

// resolveDependents promotes to ready every task on completed.Blocks that is
// still in backlog and whose remaining dependencies are all done. An explicit
// work list keeps this a single-level cascade: tasks promoted here are only
// unblocked, not completed, so nothing downstream of them is re-evaluated.
func (m *backlogManager) resolveDependents(ctx context.Context, s Store, completed *models.Task) ([]string, error) {
	var unblocked []string

	queue := append([]string(nil), completed.Blocks...)
	for _, dependentID := range queue {
		dependent, err := s.GetTask(ctx, dependentID)
		if err != nil {
			if errors.Is(err, ErrTaskNotFound) {
				continue
			}
			return nil, fmt.Errorf("resolving dependent %s: %w", dependentID, err)
		}

		// The resolver only promotes from backlog; it never overrides a
		// status somebody set by hand.
		if dependent.Status != models.StatusBacklog {
			continue
		}

		satisfied := true
		for _, depID := range dependent.DependsOn {
			if depID == completed.TaskID {
				continue
			}
			dep, err := s.GetTask(ctx, depID)
			if err != nil {
				if errors.Is(err, ErrTaskNotFound) {
					// Dangling reference left by a deletion; treated as
					// satisfied so the dependent is not pending forever.
					continue
				}
				return nil, fmt.Errorf("resolving dependency %s of %s: %w", depID, dependentID, err)
			}
			if dep.Status != models.StatusDone {
				satisfied = false
				break
			}
		}
		if !satisfied {
			continue
		}

		ready := models.StatusReady
		backlog := models.StatusBacklog
		affected, err := s.PatchTask(ctx, dependentID, TaskPatch{Status: &ready, IfStatus: &backlog})
		if err != nil {
			return nil, fmt.Errorf("promoting %s: %w", dependentID, err)
		}
		if affected > 0 {
			unblocked = append(unblocked, dependentID)
		}
	}

	return unblocked, nil
}

// DeleteTask removes a task. Before the row is deleted, the task's ID is
// removed from the blocks list of every task it depends on; that cleanup is
// best effort per dependency and continues past missing ones. Dependents'
// depends_on entries are deliberately left in place; the resolver treats a
// dangling reference as satisfied.
func (m *backlogManager) DeleteTask(ctx context.Context, taskID string) error {
	err := m.store.InTx(ctx, func(s Store) error {
		task, err := s.GetTask(ctx, taskID)
		if err != nil {
			return fmt.Errorf("deleting task %s: %w", taskID, err)
		}

		for _, depID := range task.DependsOn {
			dep, err := s.GetTask(ctx, depID)
			if err != nil {
				if errors.Is(err, ErrTaskNotFound) {
					continue
				}
				return fmt.Errorf("deleting task %s: loading dependency %s: %w", taskID, depID, err)
			}
			blocks := remove(dep.Blocks, taskID)
			if _, err := s.PatchTask(ctx, depID, TaskPatch{Blocks: &blocks}); err != nil {
				return fmt.Errorf("deleting task %s: updating blocks of %s: %w", taskID, depID, err)
			}
		}

		affected, err := s.DeleteTask(ctx, taskID)
		if err != nil {
			return fmt.Errorf("deleting task %s: %w", taskID, err)
		}
		if affected == 0 {
			return fmt.Errorf("deleting task %s: %w", taskID, ErrConcurrentModification)
		}
		return nil
	})
	if err != nil {
		return err
	}

	m.logEvent("task.deleted", map[string]any{"task_id": taskID})
	return nil
}

// Summary returns the dashboard view for one project, or for all projects
// when projectPrefix is empty.
func (m *backlogManager) Summary(ctx context.Context, projectPrefix string) (*BacklogSummary, error) {
	filter := TaskFilter{}
	if projectPrefix != "" {
		project, err := m.store.GetProjectByPrefix(ctx, strings.ToUpper(projectPrefix))
		if err != nil {
			return nil, fmt.Errorf("backlog summary: project %s: %w", projectPrefix, err)
		}
		filter.ProjectID = project.ID
	}

	summaries, err := m.store.ListTasks(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("backlog summary: %w", err)
	}

	out := &BacklogSummary{
		Project:  strings.ToUpper(projectPrefix),
		Total:    len(summaries),
		ByStatus: make(map[string]int),
		ByType:   make(map[string]int),
	}
	for _, summary := range summaries {
		out.ByStatus[string(summary.Status)]++
		out.ByType[string(summary.Type)]++

		switch summary.Status {
		case models.StatusInProgress:
			out.InProgress = append(out.InProgress, summary)
		case models.StatusBlocked:
			out.Blocked = append(out.Blocked, summary)
		case models.StatusReady:
			if out.NextUp == nil {
				next := summary
				out.NextUp = &next
			}
		}
	}
	return out, nil
}

// --- small slice helpers ---

func dedupe(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

func remove(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}
