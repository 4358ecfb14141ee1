package main

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"glacia/internal/services"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:           "glacia",
		Short:         "Glacia creative media workstation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// One correlation id per invocation, threaded through every
			// downstream log line.
			cmd.SetContext(services.WithRequestID(cmd.Context(), uuid.NewString()))
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newCreateCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newMergeCommand(ctx))
	rootCmd.AddCommand(newAccountCommand(ctx))
	rootCmd.AddCommand(newConfigCommand())

	return rootCmd
}
