package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/candidates"
)

func newCandidatesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "candidates",
		Short: "Browse the candidate search service",
	}

	var search string
	listsCmd := &cobra.Command{
		Use:   "lists",
		Short: "List saved candidate lists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := candidatesClient(ctx)
			if err != nil {
				return err
			}
			lists, err := client.ListCandidateLists(cmd.Context(), search)
			if err != nil {
				return err
			}
			if len(lists) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No candidate lists found")
				return nil
			}
			rows := make([][]string, len(lists))
			for i, l := range lists {
				rows[i] = []string{l.ID, l.Name}
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "Name"}, rows, nil))
			return nil
		},
	}
	listsCmd.Flags().StringVarP(&search, "search", "s", "", "Only lists whose name contains this text")
	cmd.AddCommand(listsCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "fetch <list-id>",
		Short: "Show the candidates of a list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := candidatesClient(ctx)
			if err != nil {
				return err
			}
			found, err := client.FetchCandidates(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			rows := make([][]string, len(found))
			for i, c := range found {
				rows[i] = []string{c.Name(), c.Source.Title, c.Source.Location, c.Source.LinkedInProfile, c.AvatarURL()}
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Name", "Title", "Location", "LinkedIn", "Picture"}, rows, nil))
			fmt.Fprintf(cmd.OutOrStdout(), "%d candidates\n", len(found))
			return nil
		},
	})

	return cmd
}

func candidatesClient(ctx *commandContext) (*candidates.Client, error) {
	if !ctx.config.CandidatesEnabled() {
		return nil, fmt.Errorf("candidate service not configured: set PLACEMENT_CANDIDATES_BASE_URL and PLACEMENT_CANDIDATES_TOKEN")
	}
	return candidates.New(ctx.config.CandidatesClient())
}
