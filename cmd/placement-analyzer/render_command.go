package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/report"
)

func newRenderCommand() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "render <report.md|->",
		Short: "Render a markdown report as HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				md  []byte
				err error
			)
			if args[0] == "-" {
				md, err = io.ReadAll(cmd.InOrStdin())
			} else {
				md, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("read report: %w", err)
			}

			html, err := report.RenderHTML(string(md))
			if err != nil {
				return err
			}
			if out == "" {
				_, err = io.WriteString(cmd.OutOrStdout(), html)
				return err
			}
			return os.WriteFile(out, []byte(html), 0o644)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write HTML to this file instead of stdout")
	return cmd
}
