package batch

import (
	"fmt"

	"github.com/neubio/neubio/pkg/analysis"
	"github.com/neubio/neubio/pkg/filter"
)

const (
	DefaultLowPassCutoff = 1000.0
	DefaultStimulusDelay = 0.1
	DefaultStimulusMask  = 100
	DefaultWorkers       = 4
)

// Config describes how every frame of a group is preprocessed and analyzed.
type Config struct {
	// LowPassCutoff in hertz of the filtered copy used for detection. Zero disables it.
	LowPassCutoff float64
	// HighPassCutoff in hertz removes slow drift from both copies. Zero disables it.
	HighPassCutoff float64
	FilterOrder    int
	// NotchFrequency in hertz removed from both copies. Zero disables it.
	NotchFrequency float64
	NotchQ         float64

	// StimulusDelay ends the baseline window, the median before it is subtracted.
	StimulusDelay float64

	// CropStart and CropEnd bound the analyzed window in seconds. A non-positive CropEnd
	// keeps the samples through the end of the frame.
	CropStart float64
	CropEnd   float64

	// PairedPulse splits every frame at the two stimulus onsets and analyzes each
	// response separately; the crop window is then ignored.
	PairedPulse bool
	// StimulusMask is the number of samples hidden after the first stimulus maximum.
	StimulusMask int

	// Average analyzes the mean trace of the group instead of every frame.
	Average bool

	Peak  analysis.PeakConfig
	Slope analysis.SlopeConfig
	// MinCorrelation discards fits with |r| below it.
	MinCorrelation float64

	Workers int
}

// DefaultConfig returns the settings of the EPSP recipes.
func DefaultConfig() Config {
	return Config{
		LowPassCutoff:  DefaultLowPassCutoff,
		FilterOrder:    filter.DefaultOrder,
		NotchQ:         filter.DefaultNotchQ,
		StimulusDelay:  DefaultStimulusDelay,
		StimulusMask:   DefaultStimulusMask,
		Peak:           analysis.DefaultPeakConfig(),
		Slope:          analysis.DefaultSlopeConfig(),
		MinCorrelation: analysis.DefaultMinCorrelation,
		Workers:        DefaultWorkers,
	}
}

func (c Config) Validate() error {
	if c.LowPassCutoff < 0 || c.HighPassCutoff < 0 || c.NotchFrequency < 0 {
		return fmt.Errorf("invalid filter settings: lowPass %v, highPass %v, notch %v",
			c.LowPassCutoff, c.HighPassCutoff, c.NotchFrequency)
	}
	if c.LowPassCutoff > 0 && c.HighPassCutoff >= c.LowPassCutoff {
		return fmt.Errorf("high-pass cutoff %v is above the low-pass cutoff %v", c.HighPassCutoff, c.LowPassCutoff)
	}
	if c.NotchFrequency > 0 && c.NotchQ <= 0 {
		return fmt.Errorf("invalid notch quality factor %v", c.NotchQ)
	}
	if c.StimulusDelay <= 0 {
		return fmt.Errorf("invalid stimulus delay %v", c.StimulusDelay)
	}
	if c.CropStart < 0 || (c.CropEnd > 0 && c.CropEnd <= c.CropStart) {
		return fmt.Errorf("invalid crop range [%v, %v]", c.CropStart, c.CropEnd)
	}
	if c.PairedPulse && c.StimulusMask <= 0 {
		return fmt.Errorf("invalid stimulus mask %d", c.StimulusMask)
	}
	if c.MinCorrelation < 0 || c.MinCorrelation > 1 {
		return fmt.Errorf("invalid minimum correlation %v", c.MinCorrelation)
	}
	if c.Workers < 1 {
		return fmt.Errorf("invalid workers %d", c.Workers)
	}
	if err := c.Peak.Validate(); err != nil {
		return err
	}
	return c.Slope.Validate()
}
