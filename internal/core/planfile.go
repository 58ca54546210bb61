package core

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/valter-silva-au/agent-backlog/pkg/models"
)

// PlanFile is the YAML format for bulk-importing an epic and its tasks.
// Entries reference each other by local key, so a whole dependency graph can
// be written down before any task ID exists.
type PlanFile struct {
	Project string          `yaml:"project"`
	Tasks   []PlanFileEntry `yaml:"tasks"`
}

// PlanFileEntry describes one task in a plan file. DependsOn and Parent may
// name either a local key from the same file or an existing task ID.
type PlanFileEntry struct {
	Key               string   `yaml:"key"`
	Type              string   `yaml:"type"`
	Name              string   `yaml:"name"`
	Action            string   `yaml:"action"`
	Priority          int      `yaml:"priority,omitempty"`
	Description       string   `yaml:"description,omitempty"`
	FilesExclusive    []string `yaml:"files_exclusive,omitempty"`
	FilesReadonly     []string `yaml:"files_readonly,omitempty"`
	FilesForbidden    []string `yaml:"files_forbidden,omitempty"`
	Verify            []string `yaml:"verify,omitempty"`
	DoneCriteria      []string `yaml:"done_criteria,omitempty"`
	DependsOn         []string `yaml:"depends_on,omitempty"`
	Parent            string   `yaml:"parent,omitempty"`
	ExecutionStrategy string   `yaml:"execution_strategy,omitempty"`
	CheckpointType    string   `yaml:"checkpoint_type,omitempty"`
}

// ImportPlan parses a YAML plan file and creates its tasks in dependency
// order, resolving local keys to the task IDs assigned as entries are
// created. Returns the created IDs in creation order. Entries whose
// references never resolve (a cycle among keys, or a typo) fail the import
// after everything creatable was created.
func (m *backlogManager) ImportPlan(ctx context.Context, data []byte) ([]string, error) {
	var plan PlanFile
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("parsing plan file: %w", err)
	}
	if plan.Project == "" {
		return nil, fmt.Errorf("importing plan: project is required")
	}
	if len(plan.Tasks) == 0 {
		return nil, fmt.Errorf("importing plan: no tasks")
	}

	keys := make(map[string]bool, len(plan.Tasks))
	for i, entry := range plan.Tasks {
		if entry.Key == "" {
			return nil, fmt.Errorf("importing plan: task %d has no key", i+1)
		}
		if keys[entry.Key] {
			return nil, fmt.Errorf("importing plan: duplicate key %q", entry.Key)
		}
		keys[entry.Key] = true
	}

	// Work-list creation: an entry is creatable once every local reference
	// it names has been assigned an ID. References that are not local keys
	// are taken as existing task IDs and validated by CreateTask itself.
	idByKey := make(map[string]string, len(plan.Tasks))
	var created []string
	remaining := append([]PlanFileEntry(nil), plan.Tasks...)

	for len(remaining) > 0 {
		var deferred []PlanFileEntry
		progress := false

		for _, entry := range remaining {
			if !resolvable(entry, keys, idByKey) {
				deferred = append(deferred, entry)
				continue
			}

			req := CreateTaskRequest{
				Project:           plan.Project,
				Type:              models.TaskType(entry.Type),
				Name:              entry.Name,
				Action:            entry.Action,
				Priority:          entry.Priority,
				Description:       entry.Description,
				FilesExclusive:    entry.FilesExclusive,
				FilesReadonly:     entry.FilesReadonly,
				FilesForbidden:    entry.FilesForbidden,
				Verify:            entry.Verify,
				DoneCriteria:      entry.DoneCriteria,
				DependsOn:         resolveRefs(entry.DependsOn, idByKey),
				ParentID:          resolveRef(entry.Parent, idByKey),
				ExecutionStrategy: entry.ExecutionStrategy,
				CheckpointType:    entry.CheckpointType,
			}

			task, err := m.CreateTask(ctx, req)
			if err != nil {
				return created, fmt.Errorf("importing plan entry %q: %w", entry.Key, err)
			}
			idByKey[entry.Key] = task.TaskID
			created = append(created, task.TaskID)
			progress = true
		}

		if !progress {
			var stuck []string
			for _, entry := range deferred {
				stuck = append(stuck, entry.Key)
			}
			return created, fmt.Errorf("importing plan: unresolvable references among entries %s (cycle or missing key)", strings.Join(stuck, ", "))
		}
		remaining = deferred
	}

	return created, nil
}

// resolvable reports whether every local-key reference of an entry already
// has an assigned task ID.
func resolvable(entry PlanFileEntry, keys map[string]bool, idByKey map[string]string) bool {
	for _, ref := range entry.DependsOn {
		if keys[ref] {
			if _, ok := idByKey[ref]; !ok {
				return false
			}
		}
	}
	if entry.Parent != "" && keys[entry.Parent] {
		if _, ok := idByKey[entry.Parent]; !ok {
			return false
		}
	}
	return true
}

func resolveRefs(refs []string, idByKey map[string]string) []string {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		out = append(out, resolveRef(ref, idByKey))
	}
	return out
}

func resolveRef(ref string, idByKey map[string]string) string {
	if id, ok := idByKey[ref]; ok {
		return id
	}
	return ref
}
