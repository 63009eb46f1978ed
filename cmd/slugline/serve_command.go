package main

import (
	"github.com/spf13/cobra"

	"slugline/internal/daemon"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the API server and job processor in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemon.Run(cmd.Context(), cfg, daemon.Options{LogLevel: logLevel})
		},
	}

	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override configured log level (debug, info, warn, error)")
	return cmd
}
