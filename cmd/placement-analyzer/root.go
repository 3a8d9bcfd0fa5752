package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var logLevel string
	var redisAddr string

	ctx := newCommandContext(&logLevel, &redisAddr)

	rootCmd := &cobra.Command{
		Use:           "placement-analyzer",
		Short:         "Analyze student placements and generate college reports",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig(cmd)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			ctx.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides PLACEMENT_LOG_LEVEL")
	rootCmd.PersistentFlags().StringVar(&redisAddr, "redis", "", "Redis address; overrides PLACEMENT_REDIS_ADDR")

	rootCmd.AddCommand(newAnalyzeCommand(ctx))
	rootCmd.AddCommand(newKeysCommand(ctx))
	rootCmd.AddCommand(newCacheCommand(ctx))
	rootCmd.AddCommand(newCandidatesCommand(ctx))
	rootCmd.AddCommand(newRenderCommand())
	rootCmd.AddCommand(newServeCommand(ctx))

	return rootCmd
}
