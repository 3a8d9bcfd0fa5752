package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/credentials"
)

func newKeysCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage the stored API keys",
		Long:  "Manage the ordered list of API keys kept in Redis. Keys are tried in list order when one is rejected or rate limited.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored keys (masked)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.credentialStore(cmd.Context())
			if err != nil {
				return err
			}
			keys, err := store.Load(cmd.Context())
			if err != nil {
				return err
			}
			if len(keys) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No API keys stored. Add one with `placement-analyzer keys add <key>`.")
				return nil
			}
			rows := make([][]string, len(keys))
			for i, k := range keys {
				rows[i] = []string{strconv.Itoa(i), credentials.Mask(k)}
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Index", "Key"}, rows, []columnAlignment{alignRight}))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <key>",
		Short: "Append a key to the rotation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateKeys(cmd, ctx, func(keys []string) ([]string, error) {
				key := strings.TrimSpace(args[0])
				if key == "" {
					return nil, fmt.Errorf("key must not be blank")
				}
				return credentials.Add(keys, key), nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <index>",
		Short: "Remove the key at index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateKeys(cmd, ctx, func(keys []string) ([]string, error) {
				index, err := strconv.Atoi(args[0])
				if err != nil || index < 0 || index >= len(keys) {
					return nil, fmt.Errorf("invalid index %q: %d keys stored", args[0], len(keys))
				}
				return credentials.Remove(keys, index), nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every stored key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateKeys(cmd, ctx, func([]string) ([]string, error) { return nil, nil })
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show rate-limit cooldowns of the stored keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.credentialStore(cmd.Context())
			if err != nil {
				return err
			}
			keys, err := store.Load(cmd.Context())
			if err != nil {
				return err
			}
			limiter := ctx.rateLimiter(cmd.Context())

			rows := make([][]string, len(keys))
			for i, k := range keys {
				state, err := limiter.GetState(cmd.Context(), k)
				if err != nil {
					return err
				}
				status, remaining := "ready", "-"
				if state.Active() {
					status = "cooling down"
					remaining = state.Remaining().Round(time.Second).String()
				}
				rows[i] = []string{strconv.Itoa(i), credentials.Mask(k), status, remaining, strconv.Itoa(state.Hits)}
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Index", "Key", "Status", "Remaining", "429s"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight},
			))
			return nil
		},
	})

	return cmd
}

func updateKeys(cmd *cobra.Command, ctx *commandContext, mutate func([]string) ([]string, error)) error {
	store, err := ctx.credentialStore(cmd.Context())
	if err != nil {
		return err
	}
	keys, err := store.Load(cmd.Context())
	if err != nil {
		return err
	}
	next, err := mutate(keys)
	if err != nil {
		return err
	}
	if err := store.Save(cmd.Context(), next); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d API keys stored\n", len(next))
	return nil
}
