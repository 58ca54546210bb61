package core

import (
	"context"
	"fmt"
	"sort"

	"github.com/gammazero/toposort"

	"github.com/valter-silva-au/agent-backlog/pkg/models"
)

// PlanResult is the output of the parallel group planner.
type PlanResult struct {
	EpicID string `json:"epic_id"`

	// Groups is an ordered sequence of batches. Every task in a batch can
	// execute concurrently; a task's batch comes strictly after the batches
	// of everything it depends on or conflicts with.
	Groups [][]string `json:"groups"`

	// Conflicts maps each task to the tasks it shares a files_exclusive
	// path with. Symmetric: if B is listed under A, A is listed under B.
	Conflicts map[string][]string `json:"conflicts"`

	// Parallelizable is true when any batch holds more than one task.
	Parallelizable bool `json:"parallelizable"`

	// Cyclic is true when the task set could not be fully ordered. Groups
	// then holds the batches computed before planning stalled, and Unplaced
	// the tasks participating in (or downstream of) the cycle.
	Cyclic   bool     `json:"cyclic"`
	Unplaced []string `json:"unplaced,omitempty"`

	// Order is a flat topological order over the effective dependency
	// graph, for callers that dispatch strictly sequentially. Empty when
	// the set is cyclic.
	Order []string `json:"order,omitempty"`
}

// ParallelGroups partitions the children of one epic into maximal batches
// honoring both explicit depends_on edges and implicit file-ownership
// conflicts. It is a pure read-then-compute pass over a single snapshot of
// the epic's children; it takes no locks and writes nothing.
func (m *backlogManager) ParallelGroups(ctx context.Context, epicID string) (*PlanResult, error) {
	if _, err := m.store.GetTask(ctx, epicID); err != nil {
		return nil, fmt.Errorf("planning groups for %s: %w", epicID, err)
	}

	tasks, err := m.store.ListTasksByParent(ctx, epicID)
	if err != nil {
		return nil, fmt.Errorf("planning groups for %s: %w", epicID, err)
	}

	return planGroups(epicID, tasks), nil
}

// planGroups runs the batching algorithm over an in-memory task set.
// Split out from ParallelGroups so it can be tested without a store.
func planGroups(epicID string, tasks []models.Task) *PlanResult {
	// Deterministic iteration everywhere below.
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].TaskID < tasks[j].TaskID })

	inSet := make(map[string]bool, len(tasks))
	for i := range tasks {
		inSet[tasks[i].TaskID] = true
	}

	// Conflict map: any files_exclusive path claimed by two or more tasks
	// produces edges between all pairs of claimants.
	claimants := make(map[string][]string)
	for i := range tasks {
		for _, path := range tasks[i].FilesExclusive {
			claimants[path] = appendUnique(claimants[path], tasks[i].TaskID)
		}
	}
	conflicts := make(map[string][]string)
	for _, ids := range claimants {
		if len(ids) < 2 {
			continue
		}
		for _, a := range ids {
			for _, b := range ids {
				if a != b {
					conflicts[a] = appendUnique(conflicts[a], b)
				}
			}
		}
	}
	for id := range conflicts {
		sort.Strings(conflicts[id])
	}

	// Effective dependency set per task: explicit depends_on plus synthetic
	// conflict edges, merged into one structure so a single batching routine
	// handles both. The synthetic edges are directed (each claimant waits on
	// the conflicting claimants with a smaller task ID); a symmetric edge
	// would read as a two-task cycle to any topological pass. Dependencies
	// outside the epic's task set (external or dangling IDs) are not
	// schedulable here and count as satisfied.
	effective := make(map[string][]string, len(tasks))
	for i := range tasks {
		id := tasks[i].TaskID
		var deps []string
		for _, depID := range tasks[i].DependsOn {
			if inSet[depID] && depID != id {
				deps = appendUnique(deps, depID)
			}
		}
		for _, conflictID := range conflicts[id] {
			if conflictID < id {
				deps = appendUnique(deps, conflictID)
			}
		}
		effective[id] = deps
	}

	result := &PlanResult{
		EpicID:    epicID,
		Groups:    [][]string{},
		Conflicts: conflicts,
	}

	// Repeatedly collect every unplaced task whose effective dependencies
	// all sit in prior batches. A round that places nothing while tasks
	// remain means a dependency cycle; stop and report the partial plan
	// rather than looping forever.
	placed := make(map[string]bool, len(tasks))
	for len(placed) < len(tasks) {
		var batch []string
		for i := range tasks {
			id := tasks[i].TaskID
			if placed[id] {
				continue
			}
			eligible := true
			for _, depID := range effective[id] {
				if !placed[depID] {
					eligible = false
					break
				}
			}
			if eligible {
				batch = append(batch, id)
			}
		}

		if len(batch) == 0 {
			result.Cyclic = true
			for i := range tasks {
				if !placed[tasks[i].TaskID] {
					result.Unplaced = append(result.Unplaced, tasks[i].TaskID)
				}
			}
			break
		}

		for _, id := range batch {
			placed[id] = true
		}
		result.Groups = append(result.Groups, batch)
		if len(batch) > 1 {
			result.Parallelizable = true
		}
	}

	if !result.Cyclic {
		result.Order = topoOrder(effective)
	}
	return result
}

// topoOrder flattens the acyclic effective dependency graph into one sequence.
func topoOrder(effective map[string][]string) []string {
	ids := make([]string, 0, len(effective))
	for id := range effective {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var edges []toposort.Edge
	for _, id := range ids {
		deps := effective[id]
		if len(deps) == 0 {
			edges = append(edges, toposort.Edge{nil, id})
			continue
		}
		for _, depID := range deps {
			edges = append(edges, toposort.Edge{depID, id})
		}
	}

	sorted, err := toposort.Toposort(edges)
	if err != nil {
		// Unreachable once batching succeeded; the order is advisory anyway.
		return nil
	}

	order := make([]string, 0, len(sorted))
	for _, id := range sorted {
		if id != nil {
			order = append(order, id.(string))
		}
	}
	return order
}
