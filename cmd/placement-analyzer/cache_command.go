package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/cache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached model responses",
	}

	var mode string
	purgeCmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete cached model responses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := cache.Mode(mode)
			switch m {
			case "", cache.ModePlacement, cache.ModeReport:
			default:
				return fmt.Errorf("unknown mode %q: want %s or %s", mode, cache.ModePlacement, cache.ModeReport)
			}

			client, err := ctx.redisClient(cmd.Context())
			if err != nil {
				return err
			}
			removed, err := cache.NewManager(client).Purge(cmd.Context(), m)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached responses\n", removed)
			return nil
		},
	}
	purgeCmd.Flags().StringVar(&mode, "mode", "", "Only purge placement or report responses")
	cmd.AddCommand(purgeCmd)

	return cmd
}
