package cli

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/agent-backlog/pkg/models"
)

var (
	summaryHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("62"))

	statusInProgress = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	statusReady      = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	statusBlocked    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	statusDone       = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	statusBacklog    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

var summaryProject string

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show a backlog overview",
	Long: `Show counts by status and type, tasks currently in progress or
blocked, and the next ready task.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Backlog == nil {
			return fmt.Errorf("backlog manager not initialized")
		}

		summary, err := Backlog.Summary(cmd.Context(), summaryProject)
		if err != nil {
			return fmt.Errorf("building summary: %w", err)
		}

		title := "Backlog summary"
		if summary.Project != "" {
			title = fmt.Sprintf("Backlog summary for %s", summary.Project)
		}
		fmt.Println(summaryHeaderStyle.Render(title))
		fmt.Printf("  %d task(s) total\n\n", summary.Total)

		if summary.Total == 0 {
			return nil
		}

		fmt.Println(summaryHeaderStyle.Render("By status"))
		statusOrder := []models.TaskStatus{
			models.StatusInProgress,
			models.StatusBlocked,
			models.StatusReady,
			models.StatusBacklog,
			models.StatusDone,
		}
		for _, status := range statusOrder {
			if n := summary.ByStatus[string(status)]; n > 0 {
				fmt.Printf("  %s %d\n", styleForStatus(status).Render(fmt.Sprintf("%-12s", status)), n)
			}
		}
		fmt.Println()

		fmt.Println(summaryHeaderStyle.Render("By type"))
		types := make([]string, 0, len(summary.ByType))
		for t := range summary.ByType {
			types = append(types, t)
		}
		sort.Strings(types)
		for _, t := range types {
			fmt.Printf("  %-12s %d\n", t, summary.ByType[t])
		}
		fmt.Println()

		if len(summary.InProgress) > 0 {
			fmt.Println(summaryHeaderStyle.Render("In progress"))
			for _, s := range summary.InProgress {
				fmt.Printf("  %-16s %s\n", s.TaskID, s.Name)
			}
			fmt.Println()
		}

		if len(summary.Blocked) > 0 {
			fmt.Println(summaryHeaderStyle.Render("Blocked"))
			for _, s := range summary.Blocked {
				fmt.Printf("  %-16s %s\n", s.TaskID, s.Name)
			}
			fmt.Println()
		}

		if summary.NextUp != nil {
			fmt.Println(summaryHeaderStyle.Render("Next up"))
			fmt.Printf("  %-16s %s\n", summary.NextUp.TaskID, summary.NextUp.Name)
		}

		return nil
	},
}

func styleForStatus(status models.TaskStatus) lipgloss.Style {
	switch status {
	case models.StatusInProgress:
		return statusInProgress
	case models.StatusReady:
		return statusReady
	case models.StatusBlocked:
		return statusBlocked
	case models.StatusDone:
		return statusDone
	case models.StatusBacklog:
		return statusBacklog
	default:
		return lipgloss.NewStyle()
	}
}

func init() {
	summaryCmd.Flags().StringVar(&summaryProject, "project", "", "Filter by project prefix")
	rootCmd.AddCommand(summaryCmd)
}
