package app

import (
	"context"
	"flag"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"k8s.io/klog/v2"
)

// NewRootCommand creates the neubio command with all of its subcommands.
func NewRootCommand(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "neubio",
		Short: "EPSP analysis of Signal3 recordings",
		Long: `neubio detects the EPSP peak of every recorded frame and measures the slope of
its rising edge, then summarizes them per condition group.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	cmd.AddCommand(
		NewAnalyzeCommand(ctx),
		NewConvertCommand(),
		NewFramesCommand(),
		NewVersionCommand(),
	)
	return cmd
}

func printFlags(flags *pflag.FlagSet) {
	flags.VisitAll(func(flag *pflag.Flag) {
		klog.V(4).Infof("FLAG: --%s=%q", flag.Name, flag.Value)
	})
}
