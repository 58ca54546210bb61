package core_test

import (
	"context"
	"errors"
	"testing"

	"github.com/valter-silva-au/agent-backlog/internal/core"
	"github.com/valter-silva-au/agent-backlog/internal/storage"
	"github.com/valter-silva-au/agent-backlog/pkg/models"
)

// newTestManager creates a BacklogManager over an in-memory store with one
// registered project (prefix JC).
func newTestManager(t *testing.T) (core.BacklogManager, context.Context) {
	t.Helper()

	ctx := context.Background()
	store, err := storage.NewMemoryStore(ctx)
	if err != nil {
		t.Fatalf("failed to create memory store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	mgr := core.NewBacklogManager(store, nil, models.PriorityMedium)
	if _, err := mgr.CreateProject(ctx, "JaCore", "jc", "test project"); err != nil {
		t.Fatalf("failed to create project: %v", err)
	}
	return mgr, ctx
}

// mustCreate creates a task and fails the test on error.
func mustCreate(t *testing.T, mgr core.BacklogManager, ctx context.Context, req core.CreateTaskRequest) *models.Task {
	t.Helper()
	if req.Project == "" {
		req.Project = "JC"
	}
	if req.Type == "" {
		req.Type = models.TaskTypeTask
	}
	if req.Action == "" {
		req.Action = "do the work"
	}
	task, err := mgr.CreateTask(ctx, req)
	if err != nil {
		t.Fatalf("failed to create task %q: %v", req.Name, err)
	}
	return task
}

func TestCreateProject_NormalizesPrefix(t *testing.T) {
	mgr, ctx := newTestManager(t)

	projects, err := mgr.ListProjects(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(projects) != 1 {
		t.Fatalf("expected 1 project, got %d", len(projects))
	}
	if projects[0].Prefix != "JC" {
		t.Errorf("prefix = %q, want JC", projects[0].Prefix)
	}
}

func TestCreateProject_DuplicatePrefix(t *testing.T) {
	mgr, ctx := newTestManager(t)

	_, err := mgr.CreateProject(ctx, "Other", "JC", "")
	if !errors.Is(err, core.ErrDuplicatePrefix) {
		t.Errorf("expected ErrDuplicatePrefix, got %v", err)
	}

	// Case-insensitive: jc collides with JC too.
	_, err = mgr.CreateProject(ctx, "Other", "jc", "")
	if !errors.Is(err, core.ErrDuplicatePrefix) {
		t.Errorf("expected ErrDuplicatePrefix for lowercase collision, got %v", err)
	}
}

func TestCreateProject_RejectsBadPrefix(t *testing.T) {
	mgr, ctx := newTestManager(t)

	for _, prefix := range []string{"MY-APP", "1X", "J C", ""} {
		if _, err := mgr.CreateProject(ctx, "Bad", prefix, ""); err == nil {
			t.Errorf("expected error for prefix %q", prefix)
		}
	}
}

func TestCreateTask_NoDependenciesStartsReady(t *testing.T) {
	mgr, ctx := newTestManager(t)

	task := mustCreate(t, mgr, ctx, core.CreateTaskRequest{Name: "standalone"})

	if task.TaskID != "JC-TASK-001" {
		t.Errorf("task ID = %q, want JC-TASK-001", task.TaskID)
	}
	if task.Status != models.StatusReady {
		t.Errorf("status = %q, want ready", task.Status)
	}
	if task.Priority != models.PriorityMedium {
		t.Errorf("priority = %d, want default %d", task.Priority, models.PriorityMedium)
	}
}

func TestCreateTask_WithDependenciesStartsBacklog(t *testing.T) {
	mgr, ctx := newTestManager(t)

	dep := mustCreate(t, mgr, ctx, core.CreateTaskRequest{Name: "dep"})
	task := mustCreate(t, mgr, ctx, core.CreateTaskRequest{
		Name:      "dependent",
		DependsOn: []string{dep.TaskID},
	})

	if task.Status != models.StatusBacklog {
		t.Errorf("status = %q, want backlog", task.Status)
	}

	// The dependency's blocks list gains the new task in the same operation.
	reloaded, err := mgr.GetTask(ctx, dep.TaskID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reloaded.Blocks) != 1 || reloaded.Blocks[0] != task.TaskID {
		t.Errorf("dependency blocks = %v, want [%s]", reloaded.Blocks, task.TaskID)
	}
}

func TestCreateTask_UnknownDependencyRejected(t *testing.T) {
	mgr, ctx := newTestManager(t)

	_, err := mgr.CreateTask(ctx, core.CreateTaskRequest{
		Project:   "JC",
		Type:      models.TaskTypeTask,
		Name:      "broken",
		Action:    "x",
		DependsOn: []string{"JC-TASK-999"},
	})
	if !errors.Is(err, core.ErrDependencyNotFound) {
		t.Fatalf("expected ErrDependencyNotFound, got %v", err)
	}

	// The rejected creation must leave nothing behind: the next create gets
	// the first ID.
	task := mustCreate(t, mgr, ctx, core.CreateTaskRequest{Name: "clean"})
	if task.TaskID != "JC-TASK-001" {
		t.Errorf("task ID after rollback = %q, want JC-TASK-001", task.TaskID)
	}
}

func TestCreateTask_DuplicateDependenciesDeduped(t *testing.T) {
	mgr, ctx := newTestManager(t)

	dep := mustCreate(t, mgr, ctx, core.CreateTaskRequest{Name: "dep"})
	task := mustCreate(t, mgr, ctx, core.CreateTaskRequest{
		Name:      "dependent",
		DependsOn: []string{dep.TaskID, dep.TaskID},
	})

	if len(task.DependsOn) != 1 {
		t.Errorf("depends_on = %v, want a single entry", task.DependsOn)
	}
	reloaded, _ := mgr.GetTask(ctx, dep.TaskID)
	if len(reloaded.Blocks) != 1 {
		t.Errorf("blocks = %v, want a single entry", reloaded.Blocks)
	}
}

func TestCreateTask_ValidationErrors(t *testing.T) {
	mgr, ctx := newTestManager(t)

	tests := []struct {
		name string
		req  core.CreateTaskRequest
	}{
		{"invalid type", core.CreateTaskRequest{Project: "JC", Type: "feature", Name: "x", Action: "y"}},
		{"missing name", core.CreateTaskRequest{Project: "JC", Type: models.TaskTypeTask, Action: "y"}},
		{"missing action", core.CreateTaskRequest{Project: "JC", Type: models.TaskTypeTask, Name: "x"}},
		{"priority out of range", core.CreateTaskRequest{Project: "JC", Type: models.TaskTypeTask, Name: "x", Action: "y", Priority: 9}},
		{"unknown project", core.CreateTaskRequest{Project: "NOPE", Type: models.TaskTypeTask, Name: "x", Action: "y"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := mgr.CreateTask(ctx, tt.req); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestCompleteTask_ChainUnblocks(t *testing.T) {
	mgr, ctx := newTestManager(t)

	t1 := mustCreate(t, mgr, ctx, core.CreateTaskRequest{Name: "first"})
	t2 := mustCreate(t, mgr, ctx, core.CreateTaskRequest{Name: "second", DependsOn: []string{t1.TaskID}})

	unblocked, err := mgr.CompleteTask(ctx, t1.TaskID, "did it", []string{"abc123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(unblocked) != 1 || unblocked[0] != t2.TaskID {
		t.Errorf("unblocked = %v, want [%s]", unblocked, t2.TaskID)
	}

	done, _ := mgr.GetTask(ctx, t1.TaskID)
	if done.Status != models.StatusDone {
		t.Errorf("completed task status = %q, want done", done.Status)
	}
	if done.CompletedAt == nil {
		t.Error("completed_at not set")
	}
	if done.Summary != "did it" {
		t.Errorf("summary = %q, want %q", done.Summary, "did it")
	}

	promoted, _ := mgr.GetTask(ctx, t2.TaskID)
	if promoted.Status != models.StatusReady {
		t.Errorf("dependent status = %q, want ready", promoted.Status)
	}
}

func TestCompleteTask_DiamondWaitsForAllDependencies(t *testing.T) {
	mgr, ctx := newTestManager(t)

	t1 := mustCreate(t, mgr, ctx, core.CreateTaskRequest{Name: "left"})
	t2 := mustCreate(t, mgr, ctx, core.CreateTaskRequest{Name: "right"})
	t3 := mustCreate(t, mgr, ctx, core.CreateTaskRequest{Name: "join", DependsOn: []string{t1.TaskID, t2.TaskID}})

	unblocked, err := mgr.CompleteTask(ctx, t1.TaskID, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(unblocked) != 0 {
		t.Errorf("unblocked after first completion = %v, want none", unblocked)
	}
	mid, _ := mgr.GetTask(ctx, t3.TaskID)
	if mid.Status != models.StatusBacklog {
		t.Errorf("join status = %q, want backlog while one dependency remains", mid.Status)
	}

	unblocked, err = mgr.CompleteTask(ctx, t2.TaskID, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(unblocked) != 1 || unblocked[0] != t3.TaskID {
		t.Errorf("unblocked after second completion = %v, want [%s]", unblocked, t3.TaskID)
	}
}

func TestCompleteTask_SecondCompletionRejected(t *testing.T) {
	mgr, ctx := newTestManager(t)

	task := mustCreate(t, mgr, ctx, core.CreateTaskRequest{Name: "once"})

	if _, err := mgr.CompleteTask(ctx, task.TaskID, "", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := mgr.CompleteTask(ctx, task.TaskID, "", nil)
	if !errors.Is(err, core.ErrConcurrentModification) {
		t.Errorf("expected ErrConcurrentModification, got %v", err)
	}
}

func TestCompleteTask_ResolverOnlyPromotesBacklog(t *testing.T) {
	mgr, ctx := newTestManager(t)

	t1 := mustCreate(t, mgr, ctx, core.CreateTaskRequest{Name: "dep"})
	t2 := mustCreate(t, mgr, ctx, core.CreateTaskRequest{Name: "dependent", DependsOn: []string{t1.TaskID}})

	// A manual override takes the dependent out of the resolver's reach.
	if _, err := mgr.UpdateTaskStatus(ctx, t2.TaskID, models.StatusBlocked, "waiting on review", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	unblocked, err := mgr.CompleteTask(ctx, t1.TaskID, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(unblocked) != 0 {
		t.Errorf("unblocked = %v, want none for a manually blocked dependent", unblocked)
	}

	reloaded, _ := mgr.GetTask(ctx, t2.TaskID)
	if reloaded.Status != models.StatusBlocked {
		t.Errorf("status = %q, want blocked preserved", reloaded.Status)
	}
}

func TestCompleteTask_BlockedTaskClearsBlockerOnDone(t *testing.T) {
	mgr, ctx := newTestManager(t)

	task := mustCreate(t, mgr, ctx, core.CreateTaskRequest{Name: "stuck"})
	if _, err := mgr.UpdateTaskStatus(ctx, task.TaskID, models.StatusBlocked, "flaky CI", "green build"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := mgr.CompleteTask(ctx, task.TaskID, "fixed", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	done, _ := mgr.GetTask(ctx, task.TaskID)
	if done.BlockerReason != "" || done.BlockerSince != nil || done.BlockerNeeds != "" {
		t.Errorf("blocker fields not cleared: %+v", done)
	}
}

func TestUpdateTaskStatus_BlockedDefaultsReason(t *testing.T) {
	mgr, ctx := newTestManager(t)

	task := mustCreate(t, mgr, ctx, core.CreateTaskRequest{Name: "stuck"})

	updated, err := mgr.UpdateTaskStatus(ctx, task.TaskID, models.StatusBlocked, "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.BlockerReason != "Unknown" {
		t.Errorf("blocker_reason = %q, want Unknown", updated.BlockerReason)
	}
	if updated.BlockerSince == nil {
		t.Error("blocker_since not stamped")
	}
}

func TestUpdateTaskStatus_LeavingBlockedClearsFields(t *testing.T) {
	mgr, ctx := newTestManager(t)

	task := mustCreate(t, mgr, ctx, core.CreateTaskRequest{Name: "stuck"})
	if _, err := mgr.UpdateTaskStatus(ctx, task.TaskID, models.StatusBlocked, "waiting", "input"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, err := mgr.UpdateTaskStatus(ctx, task.TaskID, models.StatusInProgress, "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != models.StatusInProgress {
		t.Errorf("status = %q, want in_progress", updated.Status)
	}
	if updated.BlockerReason != "" || updated.BlockerSince != nil || updated.BlockerNeeds != "" {
		t.Errorf("blocker fields not cleared: %+v", updated)
	}
}

func TestUpdateTaskStatus_InvalidStatus(t *testing.T) {
	mgr, ctx := newTestManager(t)

	task := mustCreate(t, mgr, ctx, core.CreateTaskRequest{Name: "x"})

	if _, err := mgr.UpdateTaskStatus(ctx, task.TaskID, "archived", "", ""); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestUpdateTaskStatus_UnknownTask(t *testing.T) {
	mgr, ctx := newTestManager(t)

	_, err := mgr.UpdateTaskStatus(ctx, "JC-TASK-999", models.StatusReady, "", "")
	if !errors.Is(err, core.ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestDeleteTask_RemovesInverseEdges(t *testing.T) {
	mgr, ctx := newTestManager(t)

	dep := mustCreate(t, mgr, ctx, core.CreateTaskRequest{Name: "dep"})
	task := mustCreate(t, mgr, ctx, core.CreateTaskRequest{Name: "doomed", DependsOn: []string{dep.TaskID}})

	if err := mgr.DeleteTask(ctx, task.TaskID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := mgr.GetTask(ctx, task.TaskID); !errors.Is(err, core.ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound after delete, got %v", err)
	}

	reloaded, _ := mgr.GetTask(ctx, dep.TaskID)
	if len(reloaded.Blocks) != 0 {
		t.Errorf("dependency blocks = %v, want empty after dependent deleted", reloaded.Blocks)
	}
}

func TestDeleteTask_DanglingDependencyTreatedSatisfied(t *testing.T) {
	mgr, ctx := newTestManager(t)

	a := mustCreate(t, mgr, ctx, core.CreateTaskRequest{Name: "a"})
	b := mustCreate(t, mgr, ctx, core.CreateTaskRequest{Name: "b"})
	c := mustCreate(t, mgr, ctx, core.CreateTaskRequest{Name: "c", DependsOn: []string{a.TaskID, b.TaskID}})

	// Deleting a leaves a dangling reference in c's depends_on; completing b
	// must still promote c.
	if err := mgr.DeleteTask(ctx, a.TaskID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	unblocked, err := mgr.CompleteTask(ctx, b.TaskID, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(unblocked) != 1 || unblocked[0] != c.TaskID {
		t.Errorf("unblocked = %v, want [%s]", unblocked, c.TaskID)
	}
}

func TestDeleteTask_Unknown(t *testing.T) {
	mgr, ctx := newTestManager(t)

	if err := mgr.DeleteTask(ctx, "JC-TASK-404"); !errors.Is(err, core.ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestNextReadyTask_PriorityThenAge(t *testing.T) {
	mgr, ctx := newTestManager(t)

	mustCreate(t, mgr, ctx, core.CreateTaskRequest{Name: "low", Priority: models.PriorityLow})
	urgent := mustCreate(t, mgr, ctx, core.CreateTaskRequest{Name: "urgent", Priority: models.PriorityCritical})
	mustCreate(t, mgr, ctx, core.CreateTaskRequest{Name: "mid", Priority: models.PriorityMedium})

	next, err := mgr.NextReadyTask(ctx, "JC", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next == nil || next.TaskID != urgent.TaskID {
		t.Errorf("next = %+v, want %s", next, urgent.TaskID)
	}
}

func TestNextReadyTask_NoneReady(t *testing.T) {
	mgr, ctx := newTestManager(t)

	dep := mustCreate(t, mgr, ctx, core.CreateTaskRequest{Name: "dep"})
	mustCreate(t, mgr, ctx, core.CreateTaskRequest{Name: "waiting", DependsOn: []string{dep.TaskID}})
	if _, err := mgr.UpdateTaskStatus(ctx, dep.TaskID, models.StatusInProgress, "", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	next, err := mgr.NextReadyTask(ctx, "JC", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != nil {
		t.Errorf("expected nil, got %+v", next)
	}
}

func TestListTasks_Filters(t *testing.T) {
	mgr, ctx := newTestManager(t)

	mustCreate(t, mgr, ctx, core.CreateTaskRequest{Name: "plain task"})
	mustCreate(t, mgr, ctx, core.CreateTaskRequest{Name: "a bug", Type: models.TaskTypeBug})
	mustCreate(t, mgr, ctx, core.CreateTaskRequest{Name: "a spike", Type: models.TaskTypeSpike})

	bugs, err := mgr.ListTasks(ctx, "JC", "", models.TaskTypeBug, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bugs) != 1 || bugs[0].Name != "a bug" {
		t.Errorf("bugs = %v, want one entry", bugs)
	}

	ready, err := mgr.ListTasks(ctx, "JC", models.StatusReady, "", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ready) != 3 {
		t.Errorf("ready count = %d, want 3", len(ready))
	}

	limited, err := mgr.ListTasks(ctx, "JC", "", "", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limited count = %d, want 2", len(limited))
	}
}

func TestSummary_CountsAndNextUp(t *testing.T) {
	mgr, ctx := newTestManager(t)

	t1 := mustCreate(t, mgr, ctx, core.CreateTaskRequest{Name: "one", Priority: models.PriorityCritical})
	t2 := mustCreate(t, mgr, ctx, core.CreateTaskRequest{Name: "two"})
	mustCreate(t, mgr, ctx, core.CreateTaskRequest{Name: "bug", Type: models.TaskTypeBug})

	if _, err := mgr.UpdateTaskStatus(ctx, t2.TaskID, models.StatusInProgress, "", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	summary, err := mgr.Summary(ctx, "JC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Total != 3 {
		t.Errorf("total = %d, want 3", summary.Total)
	}
	if summary.ByStatus["ready"] != 2 || summary.ByStatus["in_progress"] != 1 {
		t.Errorf("by_status = %v", summary.ByStatus)
	}
	if summary.ByType["task"] != 2 || summary.ByType["bug"] != 1 {
		t.Errorf("by_type = %v", summary.ByType)
	}
	if len(summary.InProgress) != 1 || summary.InProgress[0].TaskID != t2.TaskID {
		t.Errorf("in_progress = %v", summary.InProgress)
	}
	if summary.NextUp == nil || summary.NextUp.TaskID != t1.TaskID {
		t.Errorf("next_up = %+v, want %s", summary.NextUp, t1.TaskID)
	}
}

func TestParallelGroups_UnknownEpic(t *testing.T) {
	mgr, ctx := newTestManager(t)

	_, err := mgr.ParallelGroups(ctx, "JC-EPIC-404")
	if !errors.Is(err, core.ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestParallelGroups_EndToEnd(t *testing.T) {
	mgr, ctx := newTestManager(t)

	epic := mustCreate(t, mgr, ctx, core.CreateTaskRequest{Name: "the epic", Type: models.TaskTypeEpic})
	t1 := mustCreate(t, mgr, ctx, core.CreateTaskRequest{
		Name: "t1", ParentID: epic.TaskID, FilesExclusive: []string{"shared.go"},
	})
	t2 := mustCreate(t, mgr, ctx, core.CreateTaskRequest{
		Name: "t2", ParentID: epic.TaskID, FilesExclusive: []string{"shared.go"},
	})
	t3 := mustCreate(t, mgr, ctx, core.CreateTaskRequest{
		Name: "t3", ParentID: epic.TaskID, DependsOn: []string{t1.TaskID},
	})

	plan, err := mgr.ParallelGroups(ctx, epic.TaskID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Cyclic {
		t.Fatalf("unexpected cyclic plan: %+v", plan)
	}

	batchOf := make(map[string]int)
	for i, group := range plan.Groups {
		for _, id := range group {
			batchOf[id] = i
		}
	}
	if len(batchOf) != 3 {
		t.Fatalf("placed %d tasks, want 3: %v", len(batchOf), plan.Groups)
	}
	if batchOf[t1.TaskID] == batchOf[t2.TaskID] {
		t.Errorf("conflicting tasks share a batch: %v", plan.Groups)
	}
	if batchOf[t3.TaskID] <= batchOf[t1.TaskID] {
		t.Errorf("dependent scheduled before its dependency: %v", plan.Groups)
	}
}

func TestImportPlan_ResolvesLocalKeys(t *testing.T) {
	mgr, ctx := newTestManager(t)

	// The dependent entry appears before the entry it references.
	plan := `
project: JC
tasks:
  - key: wire
    type: task
    name: Wire the handler
    action: Wire it up
    depends_on: [schema]
  - key: schema
    type: task
    name: Define the schema
    action: Write the schema
`
	created, err := mgr.ImportPlan(ctx, []byte(plan))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("created = %v, want 2 tasks", created)
	}

	// schema had no deps so it was created first and starts ready.
	first, _ := mgr.GetTask(ctx, created[0])
	if first.Name != "Define the schema" || first.Status != models.StatusReady {
		t.Errorf("first created = %+v", first)
	}

	second, _ := mgr.GetTask(ctx, created[1])
	if second.Name != "Wire the handler" || second.Status != models.StatusBacklog {
		t.Errorf("second created = %+v", second)
	}
	if len(second.DependsOn) != 1 || second.DependsOn[0] != first.TaskID {
		t.Errorf("depends_on = %v, want [%s]", second.DependsOn, first.TaskID)
	}
}

func TestImportPlan_CycleAmongKeysFails(t *testing.T) {
	mgr, ctx := newTestManager(t)

	plan := `
project: JC
tasks:
  - key: a
    type: task
    name: A
    action: x
    depends_on: [b]
  - key: b
    type: task
    name: B
    action: x
    depends_on: [a]
`
	if _, err := mgr.ImportPlan(ctx, []byte(plan)); err == nil {
		t.Fatal("expected error for cyclic keys")
	}
}

func TestImportPlan_DuplicateKeyRejected(t *testing.T) {
	mgr, ctx := newTestManager(t)

	plan := `
project: JC
tasks:
  - key: dup
    type: task
    name: First
    action: x
  - key: dup
    type: task
    name: Second
    action: x
`
	if _, err := mgr.ImportPlan(ctx, []byte(plan)); err == nil {
		t.Fatal("expected error for duplicate key")
	}
}
