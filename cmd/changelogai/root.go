package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	apperrors "github.com/keyz-man/changelogai-app/internal/errors"
)

// Exit codes for the changelogai command.
const (
	ExitSuccess          = 0
	ExitFailure          = 1
	ExitInvalidArguments = 3
	ExitNotConfigured    = 4
	ExitUpstreamFailed   = 5
)

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "changelogai",
		Short: "Generate changelogs from git history",
		Long: `ChangelogAI imports a repository's commits, asks a text-generation
service to summarise a date window of them, and keeps the resulting
changelogs for browsing and export.`,
		Example: `  # Start the API and public pages
  changelogai serve

  # Draft a changelog for a project from its last commits
  changelogai generate --project 3f1c... --from 2024-03-01 --to 2024-03-31

  # Check the generation credential
  changelogai ai-check`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		"config file (YAML or JSON, default ./changelogai.yaml when present)")

	cmd.AddCommand(
		newServeCmd(opts),
		newProjectsCmd(opts),
		newGenerateCmd(opts),
		newAICheckCmd(opts),
		newExportCmd(opts),
		newResetCmd(opts),
		newMigrateCmd(opts),
	)
	return cmd
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	switch apperrors.CodeOf(err) {
	case apperrors.ErrValidation, apperrors.ErrNotFound:
		return ExitInvalidArguments
	case apperrors.ErrConfiguration:
		return ExitNotConfigured
	case apperrors.ErrGeneration, apperrors.ErrCommitSource:
		return ExitUpstreamFailed
	default:
		return ExitFailure
	}
}

// hint returns a follow-up suggestion for err, or "".
func hint(err error) string {
	switch apperrors.CodeOf(err) {
	case apperrors.ErrConfiguration:
		return "Set CHANGELOGAI_AI__API_KEY (or GOOGLE_AI_API_KEY), or ai.api_key in the config file"
	case apperrors.ErrNotFound:
		return "List projects with: changelogai projects"
	}
	return ""
}

// printError writes err in red with an optional dimmed hint.
func printError(w io.Writer, err error) {
	red := color.New(color.FgRed, color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	fmt.Fprintf(w, "%s %s\n", red("Error:"), apperrors.MessageOf(err))
	if h := hint(err); h != "" {
		fmt.Fprintf(w, "  %s\n", dim(h))
	}
}
