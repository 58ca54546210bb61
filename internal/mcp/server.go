// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the backlog engine as tools for AI coding assistants.
//
// The tool surface enforces single-task loading: list_tasks returns summaries
// only, and get_task / get_next_task return the full context of ONE task at a
// time, to keep an agent focused on one item and prevent scope creep.
package mcp

import (
	"context"
	"errors"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/valter-silva-au/agent-backlog/internal/core"
	"github.com/valter-silva-au/agent-backlog/pkg/models"
)

const serverInstructions = `Backlog management with single-task loading.

Use list_tasks() for summaries, then get_task() or get_next_task() for the
FULL context of ONE task at a time. This prevents scope creep and ensures
focused implementation.`

// Server wraps the backlog engine and exposes it as MCP tools.
type Server struct {
	server  *gomcp.Server
	backlog core.BacklogManager
}

// NewServer creates a new MCP server over the given backlog engine.
func NewServer(backlog core.BacklogManager, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{backlog: backlog}
	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "backlog", Version: version},
		&gomcp.ServerOptions{Instructions: serverInstructions},
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio, blocking until the client disconnects
// or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type createProjectInput struct {
	Name        string `json:"name" jsonschema:"required,project name (e.g. JaCore)"`
	Prefix      string `json:"prefix" jsonschema:"required,ID prefix (e.g. JC -> JC-TASK-001)"`
	Description string `json:"description,omitempty" jsonschema:"optional project description"`
}

type createProjectOutput struct {
	Created bool   `json:"created"`
	ID      int64  `json:"id"`
	Prefix  string `json:"prefix"`
}

type listProjectsInput struct{}

type projectOutput struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Prefix      string `json:"prefix"`
	Description string `json:"description,omitempty"`
}

type listProjectsOutput struct {
	Projects []projectOutput `json:"projects"`
	Count    int             `json:"count"`
}

type listTasksInput struct {
	Project string `json:"project,omitempty" jsonschema:"filter by project prefix (e.g. JC)"`
	Status  string `json:"status,omitempty" jsonschema:"filter by status (backlog, ready, in_progress, blocked, done)"`
	Type    string `json:"type,omitempty" jsonschema:"filter by type (task, bug, spike, epic)"`
	Limit   int    `json:"limit,omitempty" jsonschema:"maximum results (default 20)"`
}

type taskSummaryOutput struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Status   string `json:"status"`
	Priority int    `json:"priority"`
	ParentID string `json:"parent_id,omitempty"`
}

type listTasksOutput struct {
	Tasks []taskSummaryOutput `json:"tasks"`
	Count int                 `json:"count"`
	Note  string              `json:"note"`
}

type getTaskInput struct {
	TaskID string `json:"task_id" jsonschema:"required,the task identifier (e.g. JC-TASK-001)"`
}

type taskOutput struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Type              string   `json:"type"`
	Status            string   `json:"status"`
	Priority          int      `json:"priority"`
	Description       string   `json:"description,omitempty"`
	Action            string   `json:"action"`
	FilesExclusive    []string `json:"files_exclusive,omitempty"`
	FilesReadonly     []string `json:"files_readonly,omitempty"`
	FilesForbidden    []string `json:"files_forbidden,omitempty"`
	Verify            []string `json:"verify,omitempty"`
	DoneCriteria      []string `json:"done_criteria,omitempty"`
	ExecutionStrategy string   `json:"execution_strategy,omitempty"`
	CheckpointType    string   `json:"checkpoint_type,omitempty"`
	DependsOn         []string `json:"depends_on,omitempty"`
	Blocks            []string `json:"blocks,omitempty"`
	ParentID          string   `json:"parent_id,omitempty"`
	BlockerReason     string   `json:"blocker_reason,omitempty"`
	BlockerSince      string   `json:"blocker_since,omitempty"`
	BlockerNeeds      string   `json:"blocker_needs,omitempty"`
	CompletedAt       string   `json:"completed_at,omitempty"`
	Summary           string   `json:"summary,omitempty"`
	Commits           []string `json:"commits,omitempty"`
	Created           string   `json:"created_at"`
	Updated           string   `json:"updated_at"`
}

type getTaskOutput struct {
	Found bool        `json:"found"`
	Task  *taskOutput `json:"task,omitempty"`
}

type getNextTaskInput struct {
	Project string `json:"project,omitempty" jsonschema:"filter by project prefix"`
	Type    string `json:"type,omitempty" jsonschema:"filter by type (task, bug, spike, epic)"`
}

type getNextTaskOutput struct {
	Found   bool        `json:"found"`
	Task    *taskOutput `json:"task,omitempty"`
	Message string      `json:"message,omitempty"`
}

type createTaskInput struct {
	Project           string   `json:"project" jsonschema:"required,project prefix (e.g. JC)"`
	Type              string   `json:"type" jsonschema:"required,task type (task, bug, spike, epic)"`
	Name              string   `json:"name" jsonschema:"required,task name"`
	Action            string   `json:"action" jsonschema:"required,implementation instructions"`
	Priority          int      `json:"priority,omitempty" jsonschema:"priority: 1=critical 2=high 3=medium 4=low (default 3)"`
	Description       string   `json:"description,omitempty" jsonschema:"optional longer description"`
	FilesExclusive    []string `json:"files_exclusive,omitempty" jsonschema:"files only this task modifies"`
	FilesReadonly     []string `json:"files_readonly,omitempty" jsonschema:"files this task can only read"`
	FilesForbidden    []string `json:"files_forbidden,omitempty" jsonschema:"files this task must not touch"`
	Verify            []string `json:"verify,omitempty" jsonschema:"verification commands/checks"`
	DoneCriteria      []string `json:"done_criteria,omitempty" jsonschema:"completion checklist items"`
	DependsOn         []string `json:"depends_on,omitempty" jsonschema:"task IDs that must complete first"`
	ParentID          string   `json:"parent_id,omitempty" jsonschema:"parent epic ID"`
	ExecutionStrategy string   `json:"execution_strategy,omitempty" jsonschema:"A (auto), B (human-verify), C (decision)"`
	CheckpointType    string   `json:"checkpoint_type,omitempty" jsonschema:"auto, human-verify, decision"`
}

type createTaskOutput struct {
	Created bool   `json:"created"`
	ID      string `json:"id"`
	Status  string `json:"status"`
}

type updateTaskStatusInput struct {
	TaskID        string `json:"task_id" jsonschema:"required,task ID to update"`
	Status        string `json:"status" jsonschema:"required,new status (backlog, ready, in_progress, blocked, done)"`
	BlockerReason string `json:"blocker_reason,omitempty" jsonschema:"reason if setting to blocked"`
	BlockerNeeds  string `json:"blocker_needs,omitempty" jsonschema:"what's needed to unblock"`
}

type updateTaskStatusOutput struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type completeTaskInput struct {
	TaskID  string   `json:"task_id" jsonschema:"required,task ID to complete"`
	Summary string   `json:"summary,omitempty" jsonschema:"brief summary of what was done"`
	Commits []string `json:"commits,omitempty" jsonschema:"commit hashes/messages"`
}

type completeTaskOutput struct {
	Completed bool     `json:"completed"`
	ID        string   `json:"id"`
	Unblocked []string `json:"unblocked"`
}

type deleteTaskInput struct {
	TaskID string `json:"task_id" jsonschema:"required,task ID to delete"`
}

type deleteTaskOutput struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
}

type getParallelGroupsInput struct {
	EpicID string `json:"epic_id" jsonschema:"required,the epic whose children to schedule"`
}

type getParallelGroupsOutput struct {
	Groups         [][]string          `json:"groups"`
	Conflicts      map[string][]string `json:"conflicts"`
	Parallelizable bool                `json:"parallelizable"`
	Cyclic         bool                `json:"cyclic"`
	Unplaced       []string            `json:"unplaced,omitempty"`
}

type getBacklogSummaryInput struct {
	Project string `json:"project,omitempty" jsonschema:"filter by project prefix"`
}

type getBacklogSummaryOutput struct {
	Project    string              `json:"project,omitempty"`
	Total      int                 `json:"total"`
	ByStatus   map[string]int      `json:"by_status"`
	ByType     map[string]int      `json:"by_type"`
	InProgress []taskSummaryOutput `json:"in_progress,omitempty"`
	Blocked    []taskSummaryOutput `json:"blocked,omitempty"`
	NextUp     *taskSummaryOutput  `json:"next_up,omitempty"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "create_project",
		Description: "Create a new project for backlog management. The prefix becomes the task ID prefix (e.g. JC -> JC-TASK-001).",
	}, s.handleCreateProject)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_projects",
		Description: "List all projects with name and prefix.",
	}, s.handleListProjects)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_tasks",
		Description: "List task SUMMARIES only (id, name, status, priority). Use get_task for the full context of ONE task.",
	}, s.handleListTasks)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_task",
		Description: "Get the FULL context for ONE task: files, action instructions, verification steps, done criteria.",
	}, s.handleGetTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_next_task",
		Description: "Get the highest-priority READY task with full context. Returns ONE task ready for work.",
	}, s.handleGetNextTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "create_task",
		Description: "Create a new task in the backlog. Initial status is computed: ready without dependencies, backlog otherwise.",
	}, s.handleCreateTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "update_task_status",
		Description: "Update a task's status directly. Valid statuses: backlog, ready, in_progress, blocked, done.",
	}, s.handleUpdateTaskStatus)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "complete_task",
		Description: "Mark a task done and unblock dependent tasks. Returns the IDs that became ready.",
	}, s.handleCompleteTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "delete_task",
		Description: "Delete a task from the backlog.",
	}, s.handleDeleteTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_parallel_groups",
		Description: "Partition an epic's child tasks into batches that can run concurrently, honoring dependencies and exclusive-file conflicts.",
	}, s.handleGetParallelGroups)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_backlog_summary",
		Description: "Get a backlog overview: counts by status and type, active and blocked tasks, and the next ready task.",
	}, s.handleGetBacklogSummary)
}

// --- Tool handlers ---

func (s *Server) handleCreateProject(ctx context.Context, _ *gomcp.CallToolRequest, input createProjectInput) (*gomcp.CallToolResult, createProjectOutput, error) {
	if input.Name == "" || input.Prefix == "" {
		return errorResult("name and prefix are required"), createProjectOutput{}, nil
	}

	project, err := s.backlog.CreateProject(ctx, input.Name, input.Prefix, input.Description)
	if err != nil {
		return errorResult(err.Error()), createProjectOutput{}, nil
	}

	return nil, createProjectOutput{Created: true, ID: project.ID, Prefix: project.Prefix}, nil
}

func (s *Server) handleListProjects(ctx context.Context, _ *gomcp.CallToolRequest, _ listProjectsInput) (*gomcp.CallToolResult, listProjectsOutput, error) {
	projects, err := s.backlog.ListProjects(ctx)
	if err != nil {
		return errorResult(err.Error()), listProjectsOutput{}, nil
	}

	out := listProjectsOutput{
		Projects: make([]projectOutput, len(projects)),
		Count:    len(projects),
	}
	for i, p := range projects {
		out.Projects[i] = projectOutput{ID: p.ID, Name: p.Name, Prefix: p.Prefix, Description: p.Description}
	}
	return nil, out, nil
}

func (s *Server) handleListTasks(ctx context.Context, _ *gomcp.CallToolRequest, input listTasksInput) (*gomcp.CallToolResult, listTasksOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	summaries, err := s.backlog.ListTasks(ctx, input.Project, models.TaskStatus(input.Status), models.TaskType(input.Type), limit)
	if err != nil {
		return errorResult(err.Error()), listTasksOutput{}, nil
	}

	out := listTasksOutput{
		Tasks: make([]taskSummaryOutput, len(summaries)),
		Count: len(summaries),
		Note:  "Summaries only. Use get_task(id) for full context.",
	}
	for i, sum := range summaries {
		out.Tasks[i] = summaryToOutput(sum)
	}
	return nil, out, nil
}

func (s *Server) handleGetTask(ctx context.Context, _ *gomcp.CallToolRequest, input getTaskInput) (*gomcp.CallToolResult, getTaskOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), getTaskOutput{}, nil
	}

	task, err := s.backlog.GetTask(ctx, input.TaskID)
	if err != nil {
		if errors.Is(err, core.ErrTaskNotFound) {
			return nil, getTaskOutput{Found: false}, nil
		}
		return errorResult(err.Error()), getTaskOutput{}, nil
	}

	out := taskToOutput(task)
	return nil, getTaskOutput{Found: true, Task: &out}, nil
}

func (s *Server) handleGetNextTask(ctx context.Context, _ *gomcp.CallToolRequest, input getNextTaskInput) (*gomcp.CallToolResult, getNextTaskOutput, error) {
	task, err := s.backlog.NextReadyTask(ctx, input.Project, models.TaskType(input.Type))
	if err != nil {
		return errorResult(err.Error()), getNextTaskOutput{}, nil
	}
	if task == nil {
		return nil, getNextTaskOutput{Found: false, Message: "No ready tasks found"}, nil
	}

	out := taskToOutput(task)
	return nil, getNextTaskOutput{Found: true, Task: &out}, nil
}

func (s *Server) handleCreateTask(ctx context.Context, _ *gomcp.CallToolRequest, input createTaskInput) (*gomcp.CallToolResult, createTaskOutput, error) {
	if input.Project == "" || input.Type == "" || input.Name == "" || input.Action == "" {
		return errorResult("project, type, name, and action are required"), createTaskOutput{}, nil
	}

	task, err := s.backlog.CreateTask(ctx, core.CreateTaskRequest{
		Project:           input.Project,
		Type:              models.TaskType(input.Type),
		Name:              input.Name,
		Action:            input.Action,
		Priority:          input.Priority,
		Description:       input.Description,
		FilesExclusive:    input.FilesExclusive,
		FilesReadonly:     input.FilesReadonly,
		FilesForbidden:    input.FilesForbidden,
		Verify:            input.Verify,
		DoneCriteria:      input.DoneCriteria,
		DependsOn:         input.DependsOn,
		ParentID:          input.ParentID,
		ExecutionStrategy: input.ExecutionStrategy,
		CheckpointType:    input.CheckpointType,
	})
	if err != nil {
		return errorResult(err.Error()), createTaskOutput{}, nil
	}

	return nil, createTaskOutput{Created: true, ID: task.TaskID, Status: string(task.Status)}, nil
}

func (s *Server) handleUpdateTaskStatus(ctx context.Context, _ *gomcp.CallToolRequest, input updateTaskStatusInput) (*gomcp.CallToolResult, updateTaskStatusOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), updateTaskStatusOutput{}, nil
	}
	if input.Status == "" {
		return errorResult("status is required"), updateTaskStatusOutput{}, nil
	}

	task, err := s.backlog.UpdateTaskStatus(ctx, input.TaskID, models.TaskStatus(input.Status), input.BlockerReason, input.BlockerNeeds)
	if err != nil {
		return errorResult(err.Error()), updateTaskStatusOutput{}, nil
	}

	return nil, updateTaskStatusOutput{ID: task.TaskID, Status: string(task.Status)}, nil
}

func (s *Server) handleCompleteTask(ctx context.Context, _ *gomcp.CallToolRequest, input completeTaskInput) (*gomcp.CallToolResult, completeTaskOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), completeTaskOutput{}, nil
	}

	unblocked, err := s.backlog.CompleteTask(ctx, input.TaskID, input.Summary, input.Commits)
	if err != nil {
		return errorResult(err.Error()), completeTaskOutput{}, nil
	}

	if unblocked == nil {
		unblocked = []string{}
	}
	return nil, completeTaskOutput{Completed: true, ID: input.TaskID, Unblocked: unblocked}, nil
}

func (s *Server) handleDeleteTask(ctx context.Context, _ *gomcp.CallToolRequest, input deleteTaskInput) (*gomcp.CallToolResult, deleteTaskOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), deleteTaskOutput{}, nil
	}

	if err := s.backlog.DeleteTask(ctx, input.TaskID); err != nil {
		return errorResult(err.Error()), deleteTaskOutput{}, nil
	}
	return nil, deleteTaskOutput{Deleted: true, ID: input.TaskID}, nil
}

func (s *Server) handleGetParallelGroups(ctx context.Context, _ *gomcp.CallToolRequest, input getParallelGroupsInput) (*gomcp.CallToolResult, getParallelGroupsOutput, error) {
	if input.EpicID == "" {
		return errorResult("epic_id is required"), getParallelGroupsOutput{}, nil
	}

	plan, err := s.backlog.ParallelGroups(ctx, input.EpicID)
	if err != nil {
		return errorResult(err.Error()), getParallelGroupsOutput{}, nil
	}

	out := getParallelGroupsOutput{
		Groups:         plan.Groups,
		Conflicts:      plan.Conflicts,
		Parallelizable: plan.Parallelizable,
		Cyclic:         plan.Cyclic,
		Unplaced:       plan.Unplaced,
	}
	if out.Conflicts == nil {
		out.Conflicts = map[string][]string{}
	}
	return nil, out, nil
}

func (s *Server) handleGetBacklogSummary(ctx context.Context, _ *gomcp.CallToolRequest, input getBacklogSummaryInput) (*gomcp.CallToolResult, getBacklogSummaryOutput, error) {
	summary, err := s.backlog.Summary(ctx, input.Project)
	if err != nil {
		return errorResult(err.Error()), getBacklogSummaryOutput{}, nil
	}

	out := getBacklogSummaryOutput{
		Project:  summary.Project,
		Total:    summary.Total,
		ByStatus: summary.ByStatus,
		ByType:   summary.ByType,
	}
	for _, sum := range summary.InProgress {
		out.InProgress = append(out.InProgress, summaryToOutput(sum))
	}
	for _, sum := range summary.Blocked {
		out.Blocked = append(out.Blocked, summaryToOutput(sum))
	}
	if summary.NextUp != nil {
		next := summaryToOutput(*summary.NextUp)
		out.NextUp = &next
	}
	return nil, out, nil
}

// --- Helpers ---

func summaryToOutput(sum models.TaskSummary) taskSummaryOutput {
	return taskSummaryOutput{
		ID:       sum.TaskID,
		Name:     sum.Name,
		Type:     string(sum.Type),
		Status:   string(sum.Status),
		Priority: sum.Priority,
		ParentID: sum.ParentID,
	}
}

func taskToOutput(t *models.Task) taskOutput {
	out := taskOutput{
		ID:                t.TaskID,
		Name:              t.Name,
		Type:              string(t.Type),
		Status:            string(t.Status),
		Priority:          t.Priority,
		Description:       t.Description,
		Action:            t.Action,
		FilesExclusive:    t.FilesExclusive,
		FilesReadonly:     t.FilesReadonly,
		FilesForbidden:    t.FilesForbidden,
		Verify:            t.Verify,
		DoneCriteria:      t.DoneCriteria,
		ExecutionStrategy: t.ExecutionStrategy,
		CheckpointType:    t.CheckpointType,
		DependsOn:         t.DependsOn,
		Blocks:            t.Blocks,
		ParentID:          t.ParentID,
		BlockerReason:     t.BlockerReason,
		BlockerNeeds:      t.BlockerNeeds,
		Summary:           t.Summary,
		Commits:           t.Commits,
		Created:           t.Created.Format(time.RFC3339),
		Updated:           t.Updated.Format(time.RFC3339),
	}
	if t.BlockerSince != nil {
		out.BlockerSince = t.BlockerSince.Format(time.RFC3339)
	}
	if t.CompletedAt != nil {
		out.CompletedAt = t.CompletedAt.Format(time.RFC3339)
	}
	return out
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
