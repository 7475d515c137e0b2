package app

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/neubio/neubio/cmd/neubio/app/options"
)

// NewFramesCommand lists the frames of an export.
func NewFramesCommand() *cobra.Command {
	opts := options.NewSourceOptions()

	cmd := &cobra.Command{
		Use:   "frames",
		Short: "List the frames found in an export",
		RunE: func(cmd *cobra.Command, args []string) error {
			printFlags(cmd.Flags())
			if err := opts.Complete(); err != nil {
				return fmt.Errorf("opts complete failed: %v", err)
			}
			if err := opts.Validate(); err != nil {
				return fmt.Errorf("opts validate failed: %v", err)
			}

			src, err := opts.Open()
			if err != nil {
				return err
			}
			frames, err := src.Frames(0, -1)
			if err != nil {
				return err
			}
			klog.V(2).InfoS("Listing frames", "input", opts.Input, "frames", len(frames))

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "FRAME\tSAMPLES\tSTART\tEND")
			for _, f := range frames {
				start, end := 0.0, 0.0
				if n := len(f.Time); n > 0 {
					start, end = f.Time[0], f.Time[n-1]
				}
				fmt.Fprintf(w, "%d\t%d\t%g\t%g\n", f.Number, len(f.Time), start, end)
			}
			return w.Flush()
		},
	}

	opts.AddFlags(cmd.Flags())
	return cmd
}
