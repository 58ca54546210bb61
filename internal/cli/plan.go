package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	planTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	planBatchStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	planConflictStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	planCyclicStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	planSerialStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

var planCmd = &cobra.Command{
	Use:   "plan <epic-id>",
	Short: "Partition an epic's tasks into parallel execution batches",
	Long: `Compute an execution plan for an epic's child tasks.

Tasks within a batch can run concurrently: no dependency edges between
them and no overlapping exclusive file claims. Batches must run in order.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Backlog == nil {
			return fmt.Errorf("backlog manager not initialized")
		}

		plan, err := Backlog.ParallelGroups(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("planning epic: %w", err)
		}

		fmt.Println(planTitleStyle.Render(fmt.Sprintf("Execution plan for %s", plan.EpicID)))
		fmt.Println()

		if len(plan.Groups) == 0 && !plan.Cyclic {
			fmt.Println("No child tasks to schedule.")
			return nil
		}

		for i, group := range plan.Groups {
			fmt.Println(planBatchStyle.Render(fmt.Sprintf("Batch %d", i+1)))
			for _, id := range group {
				fmt.Printf("  %s\n", id)
			}
			fmt.Println()
		}

		if len(plan.Conflicts) > 0 {
			fmt.Println(planConflictStyle.Render("File conflicts:"))
			ids := make([]string, 0, len(plan.Conflicts))
			for id := range plan.Conflicts {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				fmt.Printf("  %s <-> %s\n", id, strings.Join(plan.Conflicts[id], ", "))
			}
			fmt.Println()
		}

		if plan.Cyclic {
			fmt.Println(planCyclicStyle.Render("Cyclic dependencies detected."))
			if len(plan.Unplaced) > 0 {
				fmt.Printf("  Unplaced: %s\n", strings.Join(plan.Unplaced, ", "))
			}
		} else if !plan.Parallelizable {
			fmt.Println(planSerialStyle.Render("No parallelism available; batches are sequential."))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(planCmd)
}
