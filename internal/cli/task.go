package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/agent-backlog/internal/core"
	"github.com/valter-silva-au/agent-backlog/pkg/models"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks (create, list, show, status, complete, delete, next, import)",
	Long: `Unified task management commands.

Create tasks with dependencies and file claims, inspect them, move them
through the status lifecycle, and complete them to unblock dependents.`,
}

var (
	taskCreateType      string
	taskCreateAction    string
	taskCreatePriority  int
	taskCreateDesc      string
	taskCreateDeps      []string
	taskCreateParent    string
	taskCreateExclusive []string
	taskCreateReadonly  []string
	taskCreateForbidden []string
	taskCreateVerify    []string
	taskCreateDone      []string
)

var taskCreateCmd = &cobra.Command{
	Use:   "create <project-prefix> <name>",
	Short: "Create a new task",
	Long: `Create a new task in the given project.

The task ID is generated from the project prefix and task type
(e.g. JC-TASK-001). Initial status is computed: a task with no
dependencies starts ready, otherwise it starts in backlog.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Backlog == nil {
			return fmt.Errorf("backlog manager not initialized")
		}

		task, err := Backlog.CreateTask(cmd.Context(), core.CreateTaskRequest{
			Project:        args[0],
			Type:           models.TaskType(taskCreateType),
			Name:           args[1],
			Action:         taskCreateAction,
			Priority:       taskCreatePriority,
			Description:    taskCreateDesc,
			DependsOn:      taskCreateDeps,
			ParentID:       taskCreateParent,
			FilesExclusive: taskCreateExclusive,
			FilesReadonly:  taskCreateReadonly,
			FilesForbidden: taskCreateForbidden,
			Verify:         taskCreateVerify,
			DoneCriteria:   taskCreateDone,
		})
		if err != nil {
			return fmt.Errorf("creating %s task: %w", taskCreateType, err)
		}

		fmt.Printf("Created task %s\n", task.TaskID)
		fmt.Printf("  Type:     %s\n", task.Type)
		fmt.Printf("  Status:   %s\n", task.Status)
		fmt.Printf("  Priority: %d\n", task.Priority)
		if len(task.DependsOn) > 0 {
			fmt.Printf("  Depends:  %s\n", strings.Join(task.DependsOn, ", "))
		}
		return nil
	},
}

var (
	taskListProject string
	taskListStatus  string
	taskListType    string
	taskListLimit   int
)

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List task summaries",
	Long: `List task summaries sorted by priority, then age.

Use --project, --status, and --type to filter, and "abl task show" to see
the full context of a single task.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Backlog == nil {
			return fmt.Errorf("backlog manager not initialized")
		}

		limit := taskListLimit
		if limit <= 0 {
			limit = ListLimit
		}

		summaries, err := Backlog.ListTasks(cmd.Context(), taskListProject,
			models.TaskStatus(taskListStatus), models.TaskType(taskListType), limit)
		if err != nil {
			return fmt.Errorf("listing tasks: %w", err)
		}

		if len(summaries) == 0 {
			fmt.Println("No tasks found.")
			return nil
		}

		fmt.Printf("  %-16s %-4s %-6s %-12s %s\n", "ID", "PRI", "TYPE", "STATUS", "NAME")
		fmt.Printf("  %-16s %-4s %-6s %-12s %s\n", "----", "---", "----", "------", "----")
		for _, s := range summaries {
			fmt.Printf("  %-16s P%-3d %-6s %-12s %s\n", s.TaskID, s.Priority, s.Type, s.Status, s.Name)
		}
		return nil
	},
}

var taskShowCmd = &cobra.Command{
	Use:   "show <task-id>",
	Short: "Show the full context of a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Backlog == nil {
			return fmt.Errorf("backlog manager not initialized")
		}

		task, err := Backlog.GetTask(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("fetching task: %w", err)
		}

		printTask(task)
		return nil
	},
}

var (
	taskStatusReason string
	taskStatusNeeds  string
)

var taskStatusCmd = &cobra.Command{
	Use:   "status <task-id> <status>",
	Short: "Update a task's status",
	Long: `Update a task's status directly.

Valid statuses: backlog, ready, in_progress, blocked, done.
Setting a task to blocked records --reason and --needs; leaving blocked
clears them.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Backlog == nil {
			return fmt.Errorf("backlog manager not initialized")
		}

		task, err := Backlog.UpdateTaskStatus(cmd.Context(), args[0],
			models.TaskStatus(args[1]), taskStatusReason, taskStatusNeeds)
		if err != nil {
			return fmt.Errorf("updating status: %w", err)
		}

		fmt.Printf("%s is now %s\n", task.TaskID, task.Status)
		return nil
	},
}

var (
	taskCompleteSummary string
	taskCompleteCommits []string
)

var taskCompleteCmd = &cobra.Command{
	Use:   "complete <task-id>",
	Short: "Mark a task done and unblock dependents",
	Long: `Mark a task done, recording an optional summary and commit list.

Backlog tasks whose dependencies are now all done are promoted to ready
and reported.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Backlog == nil {
			return fmt.Errorf("backlog manager not initialized")
		}

		unblocked, err := Backlog.CompleteTask(cmd.Context(), args[0], taskCompleteSummary, taskCompleteCommits)
		if err != nil {
			return fmt.Errorf("completing task: %w", err)
		}

		fmt.Printf("Completed %s\n", args[0])
		if len(unblocked) > 0 {
			fmt.Printf("  Unblocked: %s\n", strings.Join(unblocked, ", "))
		}
		return nil
	},
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete <task-id>",
	Short: "Delete a task from the backlog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Backlog == nil {
			return fmt.Errorf("backlog manager not initialized")
		}

		if err := Backlog.DeleteTask(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("deleting task: %w", err)
		}

		fmt.Printf("Deleted %s\n", args[0])
		return nil
	},
}

var (
	taskNextProject string
	taskNextType    string
)

var taskNextCmd = &cobra.Command{
	Use:   "next",
	Short: "Show the highest-priority ready task",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Backlog == nil {
			return fmt.Errorf("backlog manager not initialized")
		}

		task, err := Backlog.NextReadyTask(cmd.Context(), taskNextProject, models.TaskType(taskNextType))
		if err != nil {
			return fmt.Errorf("fetching next task: %w", err)
		}
		if task == nil {
			fmt.Println("No ready tasks found.")
			return nil
		}

		printTask(task)
		return nil
	},
}

var taskImportCmd = &cobra.Command{
	Use:   "import <plan-file.yaml>",
	Short: "Import a plan file of tasks",
	Long: `Import tasks from a YAML plan file into the backlog.

Tasks in the file may reference each other by local key in depends_on and
parent; references are resolved to generated task IDs during import.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Backlog == nil {
			return fmt.Errorf("backlog manager not initialized")
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading plan file: %w", err)
		}

		created, err := Backlog.ImportPlan(cmd.Context(), data)
		if err != nil {
			return fmt.Errorf("importing plan: %w", err)
		}

		fmt.Printf("Imported %d task(s):\n", len(created))
		for _, id := range created {
			fmt.Printf("  %s\n", id)
		}
		return nil
	},
}

// printTask prints the full context of a single task.
func printTask(t *models.Task) {
	fmt.Printf("%s  %s\n", t.TaskID, t.Name)
	fmt.Printf("  Type:     %s\n", t.Type)
	fmt.Printf("  Status:   %s\n", t.Status)
	fmt.Printf("  Priority: P%d\n", t.Priority)
	if t.ParentID != "" {
		fmt.Printf("  Parent:   %s\n", t.ParentID)
	}
	if t.Description != "" {
		fmt.Printf("  Description: %s\n", t.Description)
	}
	fmt.Printf("  Action:   %s\n", t.Action)
	printList("Exclusive files", t.FilesExclusive)
	printList("Readonly files", t.FilesReadonly)
	printList("Forbidden files", t.FilesForbidden)
	printList("Verify", t.Verify)
	printList("Done criteria", t.DoneCriteria)
	printList("Depends on", t.DependsOn)
	printList("Blocks", t.Blocks)
	if t.Status == models.StatusBlocked {
		fmt.Printf("  Blocker:  %s\n", t.BlockerReason)
		if t.BlockerNeeds != "" {
			fmt.Printf("  Needs:    %s\n", t.BlockerNeeds)
		}
		if t.BlockerSince != nil {
			fmt.Printf("  Since:    %s\n", t.BlockerSince.Format("2006-01-02 15:04 UTC"))
		}
	}
	if t.Summary != "" {
		fmt.Printf("  Summary:  %s\n", t.Summary)
	}
	printList("Commits", t.Commits)
}

func printList(label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Printf("  %s:\n", label)
	for _, item := range items {
		fmt.Printf("    - %s\n", item)
	}
}

func init() {
	// task create flags
	taskCreateCmd.Flags().StringVar(&taskCreateType, "type", "task", "Task type: task, bug, spike, or epic")
	taskCreateCmd.Flags().StringVar(&taskCreateAction, "action", "", "Implementation instructions for the agent")
	taskCreateCmd.Flags().IntVar(&taskCreatePriority, "priority", 0, "Priority 1 (critical) to 4 (low); 0 uses the configured default")
	taskCreateCmd.Flags().StringVar(&taskCreateDesc, "description", "", "Optional longer description")
	taskCreateCmd.Flags().StringSliceVar(&taskCreateDeps, "depends-on", nil, "Task IDs that must complete first")
	taskCreateCmd.Flags().StringVar(&taskCreateParent, "parent", "", "Parent epic ID")
	taskCreateCmd.Flags().StringSliceVar(&taskCreateExclusive, "files-exclusive", nil, "Files only this task modifies")
	taskCreateCmd.Flags().StringSliceVar(&taskCreateReadonly, "files-readonly", nil, "Files this task can only read")
	taskCreateCmd.Flags().StringSliceVar(&taskCreateForbidden, "files-forbidden", nil, "Files this task must not touch")
	taskCreateCmd.Flags().StringSliceVar(&taskCreateVerify, "verify", nil, "Verification commands or checks")
	taskCreateCmd.Flags().StringSliceVar(&taskCreateDone, "done-criteria", nil, "Completion checklist items")
	_ = taskCreateCmd.MarkFlagRequired("action")

	// task list flags
	taskListCmd.Flags().StringVar(&taskListProject, "project", "", "Filter by project prefix")
	taskListCmd.Flags().StringVar(&taskListStatus, "status", "", "Filter by status (backlog, ready, in_progress, blocked, done)")
	taskListCmd.Flags().StringVar(&taskListType, "type", "", "Filter by type (task, bug, spike, epic)")
	taskListCmd.Flags().IntVar(&taskListLimit, "limit", 0, "Maximum results; 0 uses the configured default")

	// task status flags
	taskStatusCmd.Flags().StringVar(&taskStatusReason, "reason", "", "Reason when setting status to blocked")
	taskStatusCmd.Flags().StringVar(&taskStatusNeeds, "needs", "", "What is needed to unblock")

	// task complete flags
	taskCompleteCmd.Flags().StringVar(&taskCompleteSummary, "summary", "", "Brief summary of what was done")
	taskCompleteCmd.Flags().StringSliceVar(&taskCompleteCommits, "commits", nil, "Commit hashes or messages")

	// task next flags
	taskNextCmd.Flags().StringVar(&taskNextProject, "project", "", "Filter by project prefix")
	taskNextCmd.Flags().StringVar(&taskNextType, "type", "", "Filter by type (task, bug, spike, epic)")

	taskCmd.AddCommand(taskCreateCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskShowCmd)
	taskCmd.AddCommand(taskStatusCmd)
	taskCmd.AddCommand(taskCompleteCmd)
	taskCmd.AddCommand(taskDeleteCmd)
	taskCmd.AddCommand(taskNextCmd)
	taskCmd.AddCommand(taskImportCmd)
	rootCmd.AddCommand(taskCmd)
}
