package app

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/neubio/neubio/pkg/providers/csv"
	"github.com/neubio/neubio/pkg/providers/signal3"
)

// NewConvertCommand converts a Signal3 ASCII export into a directory of frame CSV files.
func NewConvertCommand() *cobra.Command {
	var (
		output     string
		start, end int
	)

	cmd := &cobra.Command{
		Use:   "convert PATH",
		Short: "Convert a Signal3 ASCII export into per-frame CSV files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printFlags(cmd.Flags())
			path := args[0]

			src, err := signal3.Open(path)
			if err != nil {
				return err
			}
			frames, err := src.Frames(start, end)
			if err != nil {
				return err
			}

			if output == "" {
				root := strings.TrimSuffix(path, filepath.Ext(path))
				output = fmt.Sprintf("%s_frame%d-%d", root, frames[0].Number, frames[len(frames)-1].Number)
			}
			if err := csv.WriteDir(output, frames); err != nil {
				return err
			}
			klog.InfoS("Converted frames", "input", path, "output", output, "frames", len(frames))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Target directory, <input>_frame<start>-<end> by default")
	cmd.Flags().IntVar(&start, "start", 0, "First frame to convert")
	cmd.Flags().IntVar(&end, "end", -1, "Last frame to convert, negative for the last one")
	return cmd
}
