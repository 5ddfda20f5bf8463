package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	apperrors "github.com/keyz-man/changelogai-app/internal/errors"
	"github.com/keyz-man/changelogai-app/internal/models"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <changelog-id>",
		Short: "Print a saved changelog as Markdown with front matter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			_, data, err := a.changelogs.Export(cmd.Context(), models.UUID(args[0]))
			if err != nil {
				return err
			}

			if output == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0644); err != nil {
				return apperrors.Wrap(apperrors.ErrInternal, fmt.Sprintf("failed to write %s", output), err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")
	return cmd
}
