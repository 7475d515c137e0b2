package options

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/neubio/neubio/pkg/providers"
	"github.com/neubio/neubio/pkg/providers/csv"
	"github.com/neubio/neubio/pkg/providers/signal3"
)

// SourceOptions selects the frame export to read.
type SourceOptions struct {
	Input  string `json:"input"`
	Format string `json:"format"`
}

func NewSourceOptions() *SourceOptions {
	return &SourceOptions{}
}

func (o *SourceOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.Input, "input", "i", o.Input, "Signal3 ASCII export, or a directory of frame_<n>.csv files")
	fs.StringVar(&o.Format, "format", o.Format, "Input format, signal3 or csv. Detected from the input when empty")
}

// Complete detects the format of the input when it was not given.
func (o *SourceOptions) Complete() error {
	if o.Format != "" || o.Input == "" {
		return nil
	}
	info, err := os.Stat(o.Input)
	if err != nil {
		return err
	}
	if info.IsDir() {
		o.Format = string(providers.FormatCSV)
	} else {
		o.Format = string(providers.FormatSignal3)
	}
	return nil
}

func (o *SourceOptions) Validate() error {
	if o.Input == "" {
		return fmt.Errorf("no input given")
	}
	_, err := providers.ParseFormat(o.Format)
	return err
}

// Open loads the frames of the input.
func (o *SourceOptions) Open() (providers.Interface, error) {
	switch providers.Format(o.Format) {
	case providers.FormatSignal3:
		return signal3.Open(o.Input)
	case providers.FormatCSV:
		return csv.NewProvider(o.Input)
	}
	return nil, fmt.Errorf("unknown frame format %q", o.Format)
}
