package main

import (
	"fmt"

	"github.com/spf13/cobra"

	apperrors "github.com/keyz-man/changelogai-app/internal/errors"
)

func newResetCmd(opts *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every project and changelog in the configured store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return apperrors.Validation("Refusing to reset without --yes")
			}

			a, err := loadApp(cmd, opts, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Data store has been reset to empty state")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the reset")
	return cmd
}
