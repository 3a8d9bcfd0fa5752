package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/analyzer"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/progress"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/report"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/roster"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/stats"
)

type analyzeOptions struct {
	out        string
	statsCSV   string
	statsXLSX  string
	reportMD   string
	reportHTML string
	batchSize  int
	keys       []string
	quiet      bool
}

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze <roster.csv|roster.xlsx>",
		Short: "Infer placements for every student in a roster",
		Long: "Infer placements for every student in a roster.\n\n" +
			"Credentials come from --key flags or, when none are given, from the stored key list.\n" +
			"If the run stops early the students processed so far are still written.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, ctx, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Write processed results as CSV to this file")
	cmd.Flags().StringVar(&opts.statsCSV, "stats-csv", "", "Write placement statistics as CSV to this file")
	cmd.Flags().StringVar(&opts.statsXLSX, "stats-xlsx", "", "Write placement statistics as XLSX to this file")
	cmd.Flags().StringVar(&opts.reportMD, "report", "", "Generate the college report and write its markdown to this file")
	cmd.Flags().StringVar(&opts.reportHTML, "report-html", "", "Also write the report rendered as HTML to this file")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", 0, "Students per model call (default from PLACEMENT_BATCH_SIZE)")
	cmd.Flags().StringArrayVarP(&opts.keys, "key", "k", nil, "API key to use; repeat to configure several in rotation order")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "Do not print the results table")

	return cmd
}

func runAnalyze(cmd *cobra.Command, ctx *commandContext, path string, opts analyzeOptions) error {
	cfg := ctx.config
	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()

	parsed, err := roster.Load(path)
	if err != nil {
		return fmt.Errorf("%s: %w", analyzer.FriendlyMessage(err), err)
	}
	if parsed.Skipped > 0 {
		fmt.Fprintf(stderr, "Skipped %d rows without a first and last name\n", parsed.Skipped)
	}

	client, err := ctx.inferenceClient(cmd.Context())
	if err != nil {
		return err
	}

	batchCfg := cfg.Batch()
	if opts.batchSize > 0 {
		batchCfg.BatchSize = opts.batchSize
	}

	sessionCfg := analyzer.Config{Inferrer: client, Generator: client, Batch: batchCfg}
	session := analyzer.NewSession(sessionCfg)
	if len(opts.keys) > 0 {
		if err := session.SetCredentials(cmd.Context(), opts.keys); err != nil {
			return err
		}
	} else {
		store, err := ctx.credentialStore(cmd.Context())
		if err != nil {
			return fmt.Errorf("no --key given and the key store is unavailable: %w", err)
		}
		keys, err := store.Load(cmd.Context())
		if err != nil {
			return err
		}
		if err := session.SetCredentials(cmd.Context(), keys); err != nil {
			return err
		}
	}

	session.Subscribe(func(s progress.State) {
		fmt.Fprintf(stderr, "\rProcessed %d/%d students (%.0f%%)", s.Completed, s.Total, s.Percent())
	})

	summary, runErr := session.Analyze(cmd.Context(), parsed)
	fmt.Fprintln(stderr)

	results := session.Results()
	if len(results) > 0 {
		if err := writeOutputs(session, opts); err != nil {
			return err
		}
		if !opts.quiet {
			fmt.Fprintln(stdout, resultsTable(results))
		}
		st := stats.ComputeStats(results)
		fmt.Fprintln(stdout, statsTable(st))
	}

	if runErr != nil {
		return fmt.Errorf("%s (%d of %d students processed): %w",
			analyzer.FriendlyMessage(runErr), len(results), parsed.Len(), runErr)
	}
	fmt.Fprintf(stderr, "Analyzed %d students in %d batches (%d sentinel, %d key rotations) in %s\n",
		summary.Committed, summary.Batches, summary.SentinelBatches, summary.Rotations, summary.Duration.Round(time.Millisecond))

	if opts.reportMD != "" || opts.reportHTML != "" {
		md, err := session.GenerateReport(cmd.Context())
		if err != nil {
			return fmt.Errorf("%s: %w", analyzer.FriendlyMessage(err), err)
		}
		if err := writeReport(md, opts); err != nil {
			return err
		}
	}
	return nil
}

func writeOutputs(session *analyzer.Session, opts analyzeOptions) error {
	results := session.Results()
	if opts.out != "" {
		if err := writeFile(opts.out, func(w io.Writer) error {
			return roster.WriteProcessedCSV(w, results, session.ExtraColumns())
		}); err != nil {
			return err
		}
	}

	st := stats.ComputeStats(results)
	if opts.statsCSV != "" {
		if err := writeFile(opts.statsCSV, func(w io.Writer) error { return report.WriteStatsCSV(w, st) }); err != nil {
			return err
		}
	}
	if opts.statsXLSX != "" {
		if err := writeFile(opts.statsXLSX, func(w io.Writer) error { return report.WriteStatsXLSX(w, st) }); err != nil {
			return err
		}
	}
	return nil
}

func writeReport(md string, opts analyzeOptions) error {
	if opts.reportMD != "" {
		if err := os.WriteFile(opts.reportMD, []byte(md), 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	if opts.reportHTML != "" {
		html, err := report.RenderHTML(md)
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.reportHTML, []byte(html), 0o644); err != nil {
			return fmt.Errorf("write report html: %w", err)
		}
	}
	return nil
}

// writeFile renders into memory first so a failed render leaves no partial file.
func writeFile(path string, render func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func resultsTable(records []roster.ProcessedRecord) string {
	rows := make([][]string, 0, len(records))
	for i, rec := range records {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			rec.Name(),
			rec.Role,
			rec.PlacementInfo.Company,
			rec.Salary,
			rec.Confidence,
		})
	}
	return renderTable(
		[]string{"#", "Student", "Role", "Company", "Salary", "Confidence"},
		rows,
		[]columnAlignment{alignRight},
	)
}

func statsTable(st stats.AggregateStats) string {
	rows := [][]string{
		{"Total Students Analyzed", strconv.Itoa(st.TotalStudents)},
		{"Total Students Placed", strconv.Itoa(st.TotalPlaced)},
		{"Placement Rate (%)", st.PlacementRate},
		{"Number of Companies Recruiting", strconv.Itoa(st.UniqueCompaniesCount)},
	}
	return renderTable([]string{"Stat", "Value"}, rows, []columnAlignment{alignLeft, alignRight})
}
