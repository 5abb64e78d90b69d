// Command indicators computes student indicators offline and exchanges
// datasets with a running service.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/mentorpulse/internal/dataset"
	"github.com/okian/mentorpulse/internal/domain/indicators"
	model "github.com/okian/mentorpulse/internal/domain/model"
	"github.com/okian/mentorpulse/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "indicators",
		Short:         "Student indicator engine tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.InitWith(cmd.ErrOrStderr(), logger.FormatText); err != nil {
				return err
			}
			return logger.SetLevelString(logLevel)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug|info|warn|error")

	root.AddCommand(newReportCmd())
	root.AddCommand(newGenerateCmd())
	root.AddCommand(newSubmitCmd())
	return root
}

func newReportCmd() *cobra.Command {
	var (
		file, now, format, organization string
		threshold                       float64
		workers                         int
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Compute indicators for a YAML dataset and print a dashboard",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, err := dataset.Load(file)
			if err != nil {
				return err
			}
			opts := []indicators.Option{indicators.WithApprovalThreshold(threshold)}
			if now != "" {
				d, err := model.ParseDate(now)
				if err != nil {
					return fmt.Errorf("--now: %w", err)
				}
				opts = append(opts, indicators.WithClock(func() time.Time { return d.Time }))
			}
			students, err := indicators.NewCalculator(opts...).CalculateCohortParallel(cmd.Context(), ds, workers)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if organization != "" {
				d := indicators.ComposeOrganizationDashboard(students, organization)
				if d.Overview.TotalStudents == 0 {
					return fmt.Errorf("organization %q has no students", organization)
				}
				if format == "json" {
					return writeJSON(out, d)
				}
				return writeOrganization(out, d)
			}
			d := indicators.ComposeGlobalDashboard(students)
			if format == "json" {
				return writeJSON(out, d)
			}
			return writeGlobal(out, d)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML dataset file")
	cmd.Flags().StringVar(&now, "now", "", "reference date for cycle status (YYYY-MM-DD), default today")
	cmd.Flags().StringVar(&format, "format", "text", "output format: text|json")
	cmd.Flags().StringVar(&organization, "organization", "", "print the dashboard of one organization")
	cmd.Flags().Float64Var(&threshold, "threshold", 7.0, "approval threshold on the 0-10 scale")
	cmd.Flags().IntVar(&workers, "workers", runtime.NumCPU(), "parallel computations")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newGenerateCmd() *cobra.Command {
	cfg := dataset.DefaultGenerateConfig()
	var out string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic dataset",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, err := dataset.Generate(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				return dataset.Encode(cmd.OutOrStdout(), ds)
			}
			if err := dataset.Save(out, ds); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %d students, %d records to %s\n", len(ds.StudentIDs()), ds.Len(), out)
			return nil
		},
	}
	cmd.Flags().IntVar(&cfg.Students, "students", cfg.Students, "number of students")
	cmd.Flags().IntVar(&cfg.Organizations, "organizations", cfg.Organizations, "number of organizations")
	cmd.Flags().IntVar(&cfg.CohortsPerOrganization, "cohorts", cfg.CohortsPerOrganization, "cohorts per organization")
	cmd.Flags().IntVar(&cfg.Sessions, "sessions", cfg.Sessions, "mentoring sessions per student")
	cmd.Flags().IntVar(&cfg.Events, "events", cfg.Events, "events per student")
	cmd.Flags().IntVar(&cfg.Competencies, "competencies", cfg.Competencies, "competencies per student")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed")
	cmd.Flags().BoolVar(&cfg.WithPlans, "plans", cfg.WithPlans, "attach execution cycles and mandatory plans")
	cmd.Flags().StringVar(&out, "out", "", "output file, stdout when empty")
	return cmd
}

func newSubmitCmd() *cobra.Command {
	var (
		url, file string
		opts      dataset.RunOptions
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Post a YAML dataset to a running service as one batch",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, err := dataset.Load(file)
			if err != nil {
				return err
			}
			client := dataset.NewClient(url, dataset.WithTimeout(timeout))
			report, err := dataset.Run(cmd.Context(), client, ds, opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "batch %s: %s (%d students)\n", report.Ack.BatchID, report.Ack.Status, report.Ack.Students)
			if report.Verified {
				_, _ = fmt.Fprintf(out, "leaderboard verified: top %d in %s\n", len(report.Leaderboard), report.Took.Round(time.Millisecond))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "http://localhost:9080", "service base URL")
	cmd.Flags().StringVar(&file, "file", "", "YAML dataset file")
	cmd.Flags().StringVar(&opts.BatchID, "batch-id", "", "batch id, a fresh uuid when empty")
	cmd.Flags().BoolVar(&opts.Verify, "verify", false, "wait for recomputation and compare the leaderboard with a local computation")
	cmd.Flags().IntVar(&opts.Top, "top", 10, "leaderboard entries compared by --verify")
	cmd.Flags().DurationVar(&opts.Wait, "wait", 30*time.Second, "how long --verify waits")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "HTTP request timeout")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeGlobal(w io.Writer, d indicators.GlobalDashboard) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	writeAggregate(tw, d.Overview)
	_, _ = fmt.Fprintln(tw)
	_, _ = fmt.Fprintln(tw, "ORGANIZATION\tSTUDENTS\tGRADE\tENGAGEMENT\tOVERALL")
	for _, a := range d.ByOrganization {
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\t%.2f\n", a.Identifier, a.TotalStudents, a.MeanFinalGrade, a.MeanEngagement, a.MeanOverallPerformance)
	}
	writeStudents(tw, "TOP", d.TopStudents)
	writeStudents(tw, "ATTENTION", d.AttentionStudents)
	return tw.Flush()
}

func writeOrganization(w io.Writer, d indicators.OrganizationDashboard) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	writeAggregate(tw, d.Overview)
	_, _ = fmt.Fprintln(tw)
	_, _ = fmt.Fprintln(tw, "COHORT\tSTUDENTS\tGRADE\tENGAGEMENT\tOVERALL")
	for _, a := range d.ByCohort {
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\t%.2f\n", a.Identifier, a.TotalStudents, a.MeanFinalGrade, a.MeanEngagement, a.MeanOverallPerformance)
	}
	writeStudents(tw, "STUDENTS", d.Students)
	return tw.Flush()
}

func writeAggregate(w io.Writer, a indicators.AggregatedIndicators) {
	_, _ = fmt.Fprintf(w, "%s\t%d students\tmean grade %.2f\n", a.Identifier, a.TotalStudents, a.MeanFinalGrade)
	_, _ = fmt.Fprintf(w, "attendance\t%.2f%%\ttasks\t%.2f%%\n", a.MeanMentoringAttendance, a.MeanPracticalTasks)
	_, _ = fmt.Fprintf(w, "engagement\t%.2f%%\tevents\t%.2f%%\n", a.MeanEngagement, a.MeanEventParticipation)
	for _, t := range a.Distribution {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%.2f%%\n", t.Name, t.Count, t.Percent)
	}
}

func writeStudents(w io.Writer, title string, students []indicators.StudentIndicators) {
	if len(students) == 0 {
		return
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "%s\tORGANIZATION\tGRADE\tTIER\n", title)
	for _, s := range students {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\n", s.StudentName, s.Organization, s.FinalGrade, s.Tier)
	}
}
