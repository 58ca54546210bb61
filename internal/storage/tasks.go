package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valter-silva-au/agent-backlog/internal/core"
	"github.com/valter-silva-au/agent-backlog/pkg/models"
)

const taskColumns = `task_id, project_id, type, name, status, priority,
	description, action, files_exclusive, files_readonly, files_forbidden,
	verify, done_criteria, execution_strategy, checkpoint_type,
	depends_on, blocks, parent_id,
	blocker_reason, blocker_since, blocker_needs,
	completed_at, summary, commits, created_at, updated_at`

// InsertTask inserts a full task row.
func (s *Store) InsertTask(ctx context.Context, t *models.Task) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.TaskID, t.ProjectID, string(t.Type), t.Name, string(t.Status), t.Priority,
		t.Description, t.Action, encodeList(t.FilesExclusive), encodeList(t.FilesReadonly), encodeList(t.FilesForbidden),
		encodeList(t.Verify), encodeList(t.DoneCriteria), t.ExecutionStrategy, t.CheckpointType,
		encodeList(t.DependsOn), encodeList(t.Blocks), t.ParentID,
		nullString(t.BlockerReason), nullTime(t.BlockerSince), nullString(t.BlockerNeeds),
		nullTime(t.CompletedAt), nullString(t.Summary), encodeList(t.Commits),
		formatTime(t.Created), formatTime(t.Updated),
	)
	if err != nil {
		return fmt.Errorf("inserting task %s: %w", t.TaskID, err)
	}
	return nil
}

// GetTask retrieves one full task row by ID.
func (s *Store) GetTask(ctx context.Context, taskID string) (*models.Task, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE task_id = ?`, taskID)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %s: %w", taskID, core.ErrTaskNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying task %s: %w", taskID, err)
	}
	return task, nil
}

// ListTasks returns summaries matching the filter, ordered by priority
// (urgent first) then creation time (oldest first).
func (s *Store) ListTasks(ctx context.Context, filter core.TaskFilter) ([]models.TaskSummary, error) {
	query := `SELECT task_id, name, type, status, priority, parent_id FROM tasks`
	var conds []string
	var args []any

	if filter.ProjectID != 0 {
		conds = append(conds, "project_id = ?")
		args = append(args, filter.ProjectID)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Type != "" {
		conds = append(conds, "type = ?")
		args = append(args, string(filter.Type))
	}
	if filter.ParentID != "" {
		conds = append(conds, "parent_id = ?")
		args = append(args, filter.ParentID)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY priority, created_at"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	var summaries []models.TaskSummary
	for rows.Next() {
		var sum models.TaskSummary
		var taskType, status string
		if err := rows.Scan(&sum.TaskID, &sum.Name, &taskType, &status, &sum.Priority, &sum.ParentID); err != nil {
			return nil, fmt.Errorf("scanning task summary: %w", err)
		}
		sum.Type = models.TaskType(taskType)
		sum.Status = models.TaskStatus(status)
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}
	return summaries, nil
}

// ListTasksByParent returns the full task rows under one parent in a single
// query, so the caller gets one consistent snapshot.
func (s *Store) ListTasksByParent(ctx context.Context, parentID string) ([]models.Task, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+taskColumns+` FROM tasks WHERE parent_id = ? ORDER BY task_id
	`, parentID)
	if err != nil {
		return nil, fmt.Errorf("querying children of %s: %w", parentID, err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning child of %s: %w", parentID, err)
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating children of %s: %w", parentID, err)
	}
	return tasks, nil
}

// PatchTask applies a partial update and reports rows affected. updated_at is
// stamped on every patch. Status guards (IfStatus/IfStatusNot) narrow the
// WHERE clause so a lost race shows up as zero rows, never as a double apply.
func (s *Store) PatchTask(ctx context.Context, taskID string, patch core.TaskPatch) (int64, error) {
	sets := []string{"updated_at = ?"}
	args := []any{formatTime(time.Now().UTC())}

	set := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if patch.Name != nil {
		set("name", *patch.Name)
	}
	if patch.Status != nil {
		set("status", string(*patch.Status))
	}
	if patch.Priority != nil {
		set("priority", *patch.Priority)
	}
	if patch.DependsOn != nil {
		set("depends_on", encodeList(*patch.DependsOn))
	}
	if patch.Blocks != nil {
		set("blocks", encodeList(*patch.Blocks))
	}
	if patch.BlockerReason != nil {
		set("blocker_reason", *patch.BlockerReason)
	}
	if patch.BlockerSince != nil {
		set("blocker_since", formatTime(*patch.BlockerSince))
	}
	if patch.BlockerNeeds != nil {
		set("blocker_needs", *patch.BlockerNeeds)
	}
	if patch.ClearBlocker {
		sets = append(sets, "blocker_reason = NULL", "blocker_since = NULL", "blocker_needs = NULL")
	}
	if patch.CompletedAt != nil {
		set("completed_at", formatTime(*patch.CompletedAt))
	}
	if patch.Summary != nil {
		set("summary", *patch.Summary)
	}
	if patch.Commits != nil {
		set("commits", encodeList(*patch.Commits))
	}

	query := "UPDATE tasks SET " + strings.Join(sets, ", ") + " WHERE task_id = ?"
	args = append(args, taskID)
	if patch.IfStatus != nil {
		query += " AND status = ?"
		args = append(args, string(*patch.IfStatus))
	}
	if patch.IfStatusNot != nil {
		query += " AND status != ?"
		args = append(args, string(*patch.IfStatusNot))
	}

	res, err := s.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("patching task %s: %w", taskID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("patching task %s: %w", taskID, err)
	}
	return affected, nil
}

// DeleteTask removes a task row and reports rows affected.
func (s *Store) DeleteTask(ctx context.Context, taskID string) (int64, error) {
	res, err := s.q.ExecContext(ctx, `DELETE FROM tasks WHERE task_id = ?`, taskID)
	if err != nil {
		return 0, fmt.Errorf("deleting task %s: %w", taskID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deleting task %s: %w", taskID, err)
	}
	return affected, nil
}

// --- row scanning ---

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (*models.Task, error) {
	var (
		t                           models.Task
		taskType, status            string
		filesEx, filesRO, filesFB   string
		verify, doneCriteria        string
		dependsOn, blocks, commits  string
		blockerReason, blockerNeeds sql.NullString
		blockerSince, completedAt   sql.NullString
		summary                     sql.NullString
		created, updated            string
	)

	err := row.Scan(
		&t.TaskID, &t.ProjectID, &taskType, &t.Name, &status, &t.Priority,
		&t.Description, &t.Action, &filesEx, &filesRO, &filesFB,
		&verify, &doneCriteria, &t.ExecutionStrategy, &t.CheckpointType,
		&dependsOn, &blocks, &t.ParentID,
		&blockerReason, &blockerSince, &blockerNeeds,
		&completedAt, &summary, &commits, &created, &updated,
	)
	if err != nil {
		return nil, err
	}

	t.Type = models.TaskType(taskType)
	t.Status = models.TaskStatus(status)
	t.FilesExclusive = decodeList(filesEx)
	t.FilesReadonly = decodeList(filesRO)
	t.FilesForbidden = decodeList(filesFB)
	t.Verify = decodeList(verify)
	t.DoneCriteria = decodeList(doneCriteria)
	t.DependsOn = decodeList(dependsOn)
	t.Blocks = decodeList(blocks)
	t.Commits = decodeList(commits)
	t.BlockerReason = blockerReason.String
	t.BlockerNeeds = blockerNeeds.String
	t.Summary = summary.String
	if blockerSince.Valid {
		ts := parseTime(blockerSince.String)
		t.BlockerSince = &ts
	}
	if completedAt.Valid {
		ts := parseTime(completedAt.String)
		t.CompletedAt = &ts
	}
	t.Created = parseTime(created)
	t.Updated = parseTime(updated)
	return &t, nil
}

// --- list encoding ---

// String lists are stored as JSON arrays in TEXT columns.

func encodeList(list []string) string {
	if len(list) == 0 {
		return "[]"
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func decodeList(data string) []string {
	if data == "" || data == "[]" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(data), &list); err != nil {
		return nil
	}
	return list
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}
