package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	apperrors "github.com/keyz-man/changelogai-app/internal/errors"
	"github.com/keyz-man/changelogai-app/internal/models"
	"github.com/keyz-man/changelogai-app/internal/services"
)

type generateOptions struct {
	projectID string
	from      string
	to        string
	commits   []string
	save      bool
	version   string
	manual    bool
}

func newGenerateCmd(opts *rootOptions) *cobra.Command {
	g := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a changelog from a project's commits",
		Long: `Generate a changelog for a date window of a project's commits and print
it as Markdown. Without --commit every commit in the window is used.
Without --from and --to the window spans the project's whole history.`,
		Example: `  # Every commit in March
  changelogai generate --project 3f1c... --from 2024-03-01 --to 2024-03-31

  # Two specific commits, saved as version 1.2.0
  changelogai generate --project 3f1c... --from 2024-03-01 --to 2024-03-31 \
    --commit a1b2c3 --commit d4e5f6 --save --version 1.2.0

  # List the commits without calling the model
  changelogai generate --project 3f1c... --manual`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd, opts, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()
			return runGenerate(cmd.Context(), a, g, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&g.projectID, "project", "p", "", "project id (required)")
	f.StringVar(&g.from, "from", "", "window start, YYYY-MM-DD")
	f.StringVar(&g.to, "to", "", "window end, YYYY-MM-DD")
	f.StringSliceVar(&g.commits, "commit", nil, "commit id to include (repeatable)")
	f.BoolVar(&g.save, "save", false, "save the generated changelog")
	f.StringVar(&g.version, "version", "", "version label, required with --save")
	f.BoolVar(&g.manual, "manual", false, "list the commits instead of calling the model")
	cmd.MarkFlagRequired("project")
	return cmd
}

func runGenerate(ctx context.Context, a *app, g *generateOptions, out, errOut io.Writer) error {
	if g.save && g.version == "" {
		return apperrors.Validation("Version is required with --save")
	}

	req, err := resolveSelection(ctx, a, g)
	if err != nil {
		return err
	}

	stop := startSpinner(errOut, fmt.Sprintf("Generating changelog from %d commits...", len(req.CommitIDs)))
	generated, err := a.changelogs.Run(ctx, req)
	stop()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "# %s\n\n%s\n", generated.Title, generated.Content)

	if !g.save {
		return nil
	}
	cl, err := a.changelogs.Save(ctx, models.ChangelogDraft{
		ProjectID: req.ProjectID,
		Title:     generated.Title,
		Version:   g.version,
		Content:   generated.Content,
		FromDate:  req.FromDate,
		ToDate:    req.ToDate,
	})
	if err != nil {
		return err
	}
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintf(errOut, "%s Saved changelog %s (version %s)\n", green("✓"), cl.ID, cl.Version)
	return nil
}

// resolveSelection fills in the window and commit ids the flags left out.
func resolveSelection(ctx context.Context, a *app, g *generateOptions) (services.GenerateRequest, error) {
	req := services.GenerateRequest{
		ProjectID: models.UUID(g.projectID),
		CommitIDs: g.commits,
		FromDate:  g.from,
		ToDate:    g.to,
		Manual:    g.manual,
	}
	if len(req.CommitIDs) > 0 && req.FromDate != "" && req.ToDate != "" {
		return req, nil
	}

	sel, err := a.projects.Commits(ctx, req.ProjectID, g.from, g.to)
	if err != nil {
		return req, err
	}
	req.FromDate, req.ToDate = sel.FromDate, sel.ToDate
	if len(req.CommitIDs) == 0 {
		for _, c := range sel.Commits {
			req.CommitIDs = append(req.CommitIDs, c.ID)
		}
	}
	if len(req.CommitIDs) == 0 {
		if req.FromDate == "" {
			return req, apperrors.Validation("Project %s has no commits", req.ProjectID)
		}
		return req, apperrors.Validation("No commits between %s and %s", req.FromDate, req.ToDate)
	}
	return req, nil
}

// startSpinner shows progress on w when it is a terminal. The returned
// function stops it.
func startSpinner(w io.Writer, message string) func() {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return func() {}
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(f))
	s.Suffix = " " + message
	s.Start()
	return s.Stop
}
