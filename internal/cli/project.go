package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects (create, list)",
	Long: `Project management commands.

Every task belongs to a project; the project's prefix forms the first
segment of each task ID (e.g. prefix JC gives JC-TASK-001).`,
}

var projectCreateDescription string

var projectCreateCmd = &cobra.Command{
	Use:   "create <name> <prefix>",
	Short: "Create a new project",
	Long: `Create a new project with the given name and ID prefix.

The prefix is uppercased and must be unique across projects.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Backlog == nil {
			return fmt.Errorf("backlog manager not initialized")
		}

		project, err := Backlog.CreateProject(cmd.Context(), args[0], args[1], projectCreateDescription)
		if err != nil {
			return fmt.Errorf("creating project: %w", err)
		}

		fmt.Printf("Created project %s\n", project.Name)
		fmt.Printf("  Prefix: %s\n", project.Prefix)
		if project.Description != "" {
			fmt.Printf("  Description: %s\n", project.Description)
		}
		return nil
	},
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all projects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Backlog == nil {
			return fmt.Errorf("backlog manager not initialized")
		}

		projects, err := Backlog.ListProjects(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing projects: %w", err)
		}

		if len(projects) == 0 {
			fmt.Println("No projects found.")
			return nil
		}

		fmt.Printf("  %-8s %-20s %s\n", "PREFIX", "NAME", "DESCRIPTION")
		fmt.Printf("  %-8s %-20s %s\n", "------", "----", "-----------")
		for _, p := range projects {
			fmt.Printf("  %-8s %-20s %s\n", p.Prefix, p.Name, p.Description)
		}
		return nil
	},
}

func init() {
	projectCreateCmd.Flags().StringVar(&projectCreateDescription, "description", "", "Optional project description")

	projectCmd.AddCommand(projectCreateCmd)
	projectCmd.AddCommand(projectListCmd)
	rootCmd.AddCommand(projectCmd)
}
