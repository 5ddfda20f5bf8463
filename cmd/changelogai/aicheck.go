package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newAICheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "ai-check",
		Aliases: []string{"check"},
		Short:   "Verify the text-generation credential",
		Long:    "Send a short prompt to the configured provider and report whether the credential works.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd, opts, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			stop := startSpinner(cmd.ErrOrStderr(), "Contacting "+string(a.llm.Provider())+"...")
			result, err := a.llm.Probe(cmd.Context())
			stop()
			if err != nil {
				return err
			}

			green := color.New(color.FgGreen, color.Bold).SprintFunc()
			dim := color.New(color.Faint).SprintFunc()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s API key is working properly\n", green("✓"))
			fmt.Fprintf(out, "  %s %s\n", dim("provider:"), result.Provider)
			fmt.Fprintf(out, "  %s %s\n", dim("model:   "), result.Model)
			if result.MaskedKey != "" {
				fmt.Fprintf(out, "  %s %s\n", dim("api key: "), result.MaskedKey)
			}
			fmt.Fprintf(out, "  %s %s\n", dim("sample:  "), result.Sample)
			return nil
		},
	}
}
