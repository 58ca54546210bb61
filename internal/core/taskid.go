package core

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/valter-silva-au/agent-backlog/pkg/models"
)

// taskIDPattern matches PREFIX-TYPE-NNN task IDs.
var taskIDPattern = regexp.MustCompile(`^([A-Z0-9]+)-([A-Z]+)-(\d+)$`)

// prefixPattern constrains project prefixes so generated task IDs always
// parse back with taskIDPattern.
var prefixPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]*$`)

// NextTaskID computes the next unused task ID for a (project, type) pair as
// {prefix}-{TYPE}-{seq}, where seq is one greater than the maximum sequence
// number currently persisted for that pair. It is a pure read-then-compute:
// no counter is stored, so it stays correct across process restarts, and a
// gap left by deleting a mid-sequence task is never refilled. The caller must
// use the returned ID in the same transaction as the insert.
//
// Stored IDs that do not parse as the expected format are skipped.
func NextTaskID(ctx context.Context, s Store, project *models.Project, taskType models.TaskType) (string, error) {
	summaries, err := s.ListTasks(ctx, TaskFilter{ProjectID: project.ID, Type: taskType})
	if err != nil {
		return "", fmt.Errorf("listing %s tasks for %s: %w", taskType, project.Prefix, err)
	}

	typeSegment := strings.ToUpper(string(taskType))

	maxSeq := 0
	for _, summary := range summaries {
		m := taskIDPattern.FindStringSubmatch(summary.TaskID)
		if m == nil || m[1] != project.Prefix || m[2] != typeSegment {
			continue
		}
		seq, err := strconv.Atoi(m[3])
		if err != nil {
			continue
		}
		if seq > maxSeq {
			maxSeq = seq
		}
	}

	return fmt.Sprintf("%s-%s-%03d", project.Prefix, typeSegment, maxSeq+1), nil
}
