package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/keyz-man/changelogai-app/internal/models"
	"github.com/keyz-man/changelogai-app/internal/services"
)

func newProjectsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"ls"},
		Short:   "List imported projects",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd, opts, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			projects, err := a.projects.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No projects yet. Import one with: changelogai projects add <repository-url>")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCOMMITS\tREPOSITORY")
			for _, p := range projects {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", p.ID, p.Name, len(p.Commits), p.RepositoryURL)
			}
			return tw.Flush()
		},
	}

	cmd.AddCommand(newProjectsAddCmd(opts), newProjectsDeleteCmd(opts))
	return cmd
}

func newProjectsAddCmd(opts *rootOptions) *cobra.Command {
	var req services.CreateProjectRequest

	cmd := &cobra.Command{
		Use:   "add <repository-url>",
		Short: "Import a repository's commits as a new project",
		Example: `  changelogai projects add https://github.com/acme/widget
  changelogai projects add ./path/to/checkout --name widget`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts, appOptions{localRepos: true})
			if err != nil {
				return err
			}
			defer a.Close()

			req.RepositoryURL = args[0]
			p, err := a.projects.Create(cmd.Context(), req)
			if err != nil {
				return err
			}

			green := color.New(color.FgGreen).SprintFunc()
			fmt.Fprintf(cmd.OutOrStdout(), "%s Imported %s with %d commits\n", green("✓"), p.Name, len(p.Commits))
			fmt.Fprintf(cmd.OutOrStdout(), "  id: %s\n", p.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "project name (default: repository name)")
	cmd.Flags().StringVar(&req.Description, "description", "", "project description (default: repository description)")
	return cmd
}

func newProjectsDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <project-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a project and its changelogs",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.projects.Delete(cmd.Context(), models.UUID(args[0])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %s\n", args[0])
			return nil
		},
	}
}
