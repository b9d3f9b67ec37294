package main

import (
	"fmt"
	"io"
	"strconv"

	"expensetracker/internal/boundary"

	"github.com/spf13/cobra"
)

func init() {
	projectsCmd.AddCommand(projectsListCmd, projectsCreateCmd, projectsDeleteCmd)
	rootCmd.AddCommand(projectsCmd)
}

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Manage projects",
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects sorted by name",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		projects, err := app.Service.ListProjects(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, boundary.NewProjectViews(projects))
		}

		counts := make([]int, len(projects))
		for i, p := range projects {
			if counts[i], err = app.Service.CountExpenses(ctx, p.ID); err != nil {
				return err
			}
		}
		return table(out, "ID\tNAME\tEXPENSES\tCREATED", func(tw io.Writer) {
			for i, p := range projects {
				fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", p.ID, p.Name, counts[i], ago(p.CreatedAt))
			}
		})
	},
}

var projectsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a project",
	Long: `Create a project. Names are trimmed and must be unique (case-sensitive).

Examples:
  expensetracker projects create "Kitchen remodel"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := app.Service.CreateProject(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), boundary.NewProjectView(p))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created project %d %q\n", p.ID, p.Name)
		return nil
	},
}

var projectsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a project with all its expenses and receipts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "project id")
		if err != nil {
			return err
		}
		if err := app.Service.DeleteProject(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %d\n", id)
		return nil
	},
}

func parseID(s, name string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, s)
	}
	return id, nil
}
