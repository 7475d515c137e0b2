package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/neubio/neubio/cmd/neubio/app/options"
	"github.com/neubio/neubio/pkg/batch"
	"github.com/neubio/neubio/pkg/metrics"
	"github.com/neubio/neubio/pkg/plot"
)

// NewAnalyzeCommand runs the peak and slope analysis of a recipe.
func NewAnalyzeCommand(ctx context.Context) *cobra.Command {
	opts := options.NewAnalyzeOptions()

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Measure EPSP amplitudes and slopes of the recipe groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			printFlags(cmd.Flags())
			if err := opts.Complete(); err != nil {
				return fmt.Errorf("opts complete failed: %v", err)
			}
			if err := opts.Validate(); err != nil {
				return fmt.Errorf("opts validate failed: %v", err)
			}
			klog.V(4).InfoS("Analyze options", "options", opts.String())
			return runAnalyze(ctx, cmd.OutOrStdout(), opts)
		},
	}

	opts.AddFlags(cmd.Flags())
	return cmd
}

func runAnalyze(ctx context.Context, out io.Writer, opts *options.AnalyzeOptions) error {
	config, err := opts.Recipe.BatchConfig()
	if err != nil {
		return err
	}
	runner, err := batch.NewRunner(config)
	if err != nil {
		return err
	}
	src, err := opts.Source.Open()
	if err != nil {
		return err
	}
	klog.InfoS("Starting analysis", "runID", runner.RunID(), "input", opts.Source.Input, "frames", len(src.Numbers()))

	var reports []*batch.Report
	for _, g := range opts.Selected() {
		start, end := g.Range()
		frames, err := src.Frames(start, end)
		if err != nil {
			klog.ErrorS(err, "Skipping group", "group", g.Name)
			continue
		}

		report, err := runner.WithAverage(g.Average).Run(ctx, g.Name, frames)
		if err != nil {
			return err
		}
		reports = append(reports, report)

		if err := printReport(out, report, config.PairedPulse); err != nil {
			return err
		}
	}

	if opts.OutputFile != "" {
		if err := writeFile(opts.OutputFile, func(w io.Writer) error {
			return batch.WriteCSV(w, reports...)
		}); err != nil {
			return err
		}
	}
	if opts.PlotFile != "" {
		if err := writeFile(opts.PlotFile, func(w io.Writer) error {
			return plot.Render(w, reports...)
		}); err != nil {
			return err
		}
	}
	if opts.MetricsFile != "" {
		if err := metrics.WriteTextfile(opts.MetricsFile); err != nil {
			return err
		}
	}
	return nil
}

func printReport(out io.Writer, report *batch.Report, paired bool) error {
	summaries, err := batch.Summarize(report)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "[%s] %d failed, %d discarded\n", report.Group, report.Failed, report.Discarded)
	fmt.Fprintln(w, "PULSE\tN\tAMPLITUDE\tSLOPE")
	for _, s := range summaries {
		fmt.Fprintf(w, "%d\t%d\t%.4f +/- %.4f\t%.4f +/- %.4f\n",
			s.Pulse+1, s.N, s.AmplitudeMean, s.AmplitudeStd, s.SlopeMean, s.SlopeStd)
	}
	if paired {
		if _, ratio, err := batch.PairedPulseRatio(report); err != nil {
			klog.ErrorS(err, "No paired-pulse ratio", "group", report.Group)
		} else {
			fmt.Fprintf(w, "paired-pulse ratio\t%.4f\n", ratio)
		}
	}
	fmt.Fprintln(w)
	return w.Flush()
}

func writeFile(path string, write func(io.Writer) error) error {
	fd, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(fd); err != nil {
		fd.Close()
		return err
	}
	klog.InfoS("Wrote output", "path", path)
	return fd.Close()
}
