package core

import (
	"reflect"
	"testing"

	"github.com/valter-silva-au/agent-backlog/pkg/models"
)

// planTask builds a minimal child task for planner tests.
func planTask(id string, dependsOn, filesExclusive []string) models.Task {
	return models.Task{
		TaskID:         id,
		Type:           models.TaskTypeTask,
		Name:           id,
		Status:         models.StatusBacklog,
		Priority:       models.PriorityMedium,
		DependsOn:      dependsOn,
		FilesExclusive: filesExclusive,
		ParentID:       "JC-EPIC-001",
	}
}

func batchIndex(t *testing.T, groups [][]string, id string) int {
	t.Helper()
	for i, group := range groups {
		for _, member := range group {
			if member == id {
				return i
			}
		}
	}
	t.Fatalf("task %s not placed in any batch: %v", id, groups)
	return -1
}

func TestPlanGroups_IndependentTasksSingleBatch(t *testing.T) {
	tasks := []models.Task{
		planTask("JC-TASK-001", nil, nil),
		planTask("JC-TASK-002", nil, nil),
		planTask("JC-TASK-003", nil, nil),
	}

	result := planGroups("JC-EPIC-001", tasks)

	if result.Cyclic {
		t.Fatal("unexpected cyclic result")
	}
	if len(result.Groups) != 1 {
		t.Fatalf("expected 1 batch, got %d: %v", len(result.Groups), result.Groups)
	}
	if len(result.Groups[0]) != 3 {
		t.Errorf("expected 3 tasks in batch, got %v", result.Groups[0])
	}
	if !result.Parallelizable {
		t.Error("expected parallelizable=true")
	}
	if len(result.Conflicts) != 0 {
		t.Errorf("expected no conflicts, got %v", result.Conflicts)
	}
}

func TestPlanGroups_LinearChain(t *testing.T) {
	tasks := []models.Task{
		planTask("JC-TASK-001", nil, nil),
		planTask("JC-TASK-002", []string{"JC-TASK-001"}, nil),
		planTask("JC-TASK-003", []string{"JC-TASK-002"}, nil),
	}

	result := planGroups("JC-EPIC-001", tasks)

	want := [][]string{{"JC-TASK-001"}, {"JC-TASK-002"}, {"JC-TASK-003"}}
	if !reflect.DeepEqual(result.Groups, want) {
		t.Errorf("groups = %v, want %v", result.Groups, want)
	}
	if result.Parallelizable {
		t.Error("expected parallelizable=false for a pure chain")
	}
	wantOrder := []string{"JC-TASK-001", "JC-TASK-002", "JC-TASK-003"}
	if !reflect.DeepEqual(result.Order, wantOrder) {
		t.Errorf("order = %v, want %v", result.Order, wantOrder)
	}
}

func TestPlanGroups_ExclusiveFileConflictSplitsBatches(t *testing.T) {
	// T1 and T2 both claim config.go; T3 depends on T1 and touches nothing
	// shared. T1 and T2 must never share a batch.
	tasks := []models.Task{
		planTask("JC-TASK-001", nil, []string{"internal/config.go"}),
		planTask("JC-TASK-002", nil, []string{"internal/config.go", "internal/server.go"}),
		planTask("JC-TASK-003", []string{"JC-TASK-001"}, []string{"internal/client.go"}),
	}

	result := planGroups("JC-EPIC-001", tasks)

	if result.Cyclic {
		t.Fatalf("unexpected cyclic result: %+v", result)
	}

	b1 := batchIndex(t, result.Groups, "JC-TASK-001")
	b2 := batchIndex(t, result.Groups, "JC-TASK-002")
	b3 := batchIndex(t, result.Groups, "JC-TASK-003")
	if b1 == b2 {
		t.Errorf("conflicting tasks share batch %d: %v", b1, result.Groups)
	}
	if b3 <= b1 {
		t.Errorf("dependent task in batch %d, dependency in batch %d", b3, b1)
	}

	wantConflicts := map[string][]string{
		"JC-TASK-001": {"JC-TASK-002"},
		"JC-TASK-002": {"JC-TASK-001"},
	}
	if !reflect.DeepEqual(result.Conflicts, wantConflicts) {
		t.Errorf("conflicts = %v, want %v", result.Conflicts, wantConflicts)
	}
}

func TestPlanGroups_ConflictMapSymmetric(t *testing.T) {
	tasks := []models.Task{
		planTask("JC-TASK-001", nil, []string{"a.go", "b.go"}),
		planTask("JC-TASK-002", nil, []string{"a.go"}),
		planTask("JC-TASK-003", nil, []string{"b.go"}),
	}

	result := planGroups("JC-EPIC-001", tasks)

	for id, others := range result.Conflicts {
		for _, other := range others {
			found := false
			for _, back := range result.Conflicts[other] {
				if back == id {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("conflict %s -> %s has no inverse entry", id, other)
			}
		}
	}
}

func TestPlanGroups_CycleDetected(t *testing.T) {
	tasks := []models.Task{
		planTask("JC-TASK-001", []string{"JC-TASK-002"}, nil),
		planTask("JC-TASK-002", []string{"JC-TASK-001"}, nil),
		planTask("JC-TASK-003", nil, nil),
	}

	result := planGroups("JC-EPIC-001", tasks)

	if !result.Cyclic {
		t.Fatal("expected cyclic=true")
	}
	want := [][]string{{"JC-TASK-003"}}
	if !reflect.DeepEqual(result.Groups, want) {
		t.Errorf("groups = %v, want %v", result.Groups, want)
	}
	wantUnplaced := []string{"JC-TASK-001", "JC-TASK-002"}
	if !reflect.DeepEqual(result.Unplaced, wantUnplaced) {
		t.Errorf("unplaced = %v, want %v", result.Unplaced, wantUnplaced)
	}
	if len(result.Order) != 0 {
		t.Errorf("expected empty order for cyclic set, got %v", result.Order)
	}
}

func TestPlanGroups_ExternalDependencyTreatedSatisfied(t *testing.T) {
	// A dependency on a task outside the epic (or already deleted) must not
	// stall the plan.
	tasks := []models.Task{
		planTask("JC-TASK-001", []string{"JC-TASK-999", "OTHER-TASK-001"}, nil),
	}

	result := planGroups("JC-EPIC-001", tasks)

	if result.Cyclic {
		t.Fatalf("unexpected cyclic result: %+v", result)
	}
	if len(result.Groups) != 1 || len(result.Groups[0]) != 1 {
		t.Errorf("expected the task in the first batch, got %v", result.Groups)
	}
}

func TestPlanGroups_EmptyTaskSet(t *testing.T) {
	result := planGroups("JC-EPIC-001", nil)

	if result.Cyclic {
		t.Error("unexpected cyclic result for empty set")
	}
	if len(result.Groups) != 0 {
		t.Errorf("expected no batches, got %v", result.Groups)
	}
	if result.Parallelizable {
		t.Error("expected parallelizable=false for empty set")
	}
}

func TestPlanGroups_Deterministic(t *testing.T) {
	tasks := []models.Task{
		planTask("JC-TASK-003", nil, []string{"x.go"}),
		planTask("JC-TASK-001", nil, []string{"x.go"}),
		planTask("JC-TASK-004", []string{"JC-TASK-001"}, nil),
		planTask("JC-TASK-002", nil, nil),
	}

	first := planGroups("JC-EPIC-001", append([]models.Task(nil), tasks...))
	second := planGroups("JC-EPIC-001", append([]models.Task(nil), tasks...))

	if !reflect.DeepEqual(first, second) {
		t.Errorf("plan not deterministic:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}
