package analysis

import (
	"fmt"
	"math"

	"github.com/neubio/neubio/pkg/common"
)

const (
	// DefaultWindowPercent trims 20% of the peak amplitude off both ends of the rising edge.
	DefaultWindowPercent = 0.2
	// DefaultMinCorrelation is the |r| a fit needs to be accepted.
	DefaultMinCorrelation = 0.7
)

// SlopeConfig holds the parameters of ExtractSlope.
type SlopeConfig struct {
	// WindowPercent is the single-sided intensity windowing fraction, in (0, 0.5).
	WindowPercent float64
	// Search locates the window boundaries. Defaults to the zero-crossing search.
	Search BoundarySearch
	// Reference is an optional smoothed companion of the trace. When set, the window
	// boundaries are searched on it while the regression still runs on the trace.
	Reference *common.Trace
}

// DefaultSlopeConfig returns a 20% intensity window with the zero-crossing search.
func DefaultSlopeConfig() SlopeConfig {
	return SlopeConfig{
		WindowPercent: DefaultWindowPercent,
		Search:        NewZeroCrossingSearch(),
	}
}

func (c SlopeConfig) String() string {
	search := "<default>"
	if c.Search != nil {
		search = c.Search.String()
	}
	return fmt.Sprintf("Slope Config: {windowPercent: %g, search: %s, reference: %t}",
		c.WindowPercent, search, c.Reference != nil)
}

// Validate checks the config for values the extractor cannot work with.
func (c SlopeConfig) Validate() error {
	if !(c.WindowPercent > 0 && c.WindowPercent < 0.5) {
		return fmt.Errorf("%w: windowPercent %v not in (0, 0.5)", ErrInvalidConfig, c.WindowPercent)
	}
	return nil
}

// SlopeWindow is the inclusive index range [StartIndex, EndIndex] the line is fitted on.
type SlopeWindow struct {
	StartIndex int
	EndIndex   int
	StartTime  float64
	EndTime    float64
	StartValue float64
	EndValue   float64
}

// Len returns the number of samples in the window.
func (w SlopeWindow) Len() int {
	return w.EndIndex - w.StartIndex + 1
}

// SlopeResult is the least-squares fit of the rising edge.
type SlopeResult struct {
	// Slope is in value units per second.
	Slope     float64
	Intercept float64
	// R is the Pearson correlation coefficient of the fit.
	R float64
	// Amplitude is the trace value at the peak.
	Amplitude   float64
	PeakIndex   int
	Window      SlopeWindow
	Diagnostics []Diagnostic
}

// Accept reports whether the fit passes the |r| >= rMin quality gate.
func (r *SlopeResult) Accept(rMin float64) bool {
	return math.Abs(r.R) >= rMin
}

// Line returns the fitted value at the window boundaries, for plotting.
func (r *SlopeResult) Line() ([2]float64, [2]float64) {
	t := [2]float64{r.Window.StartTime, r.Window.EndTime}
	return t, [2]float64{r.Slope*t[0] + r.Intercept, r.Slope*t[1] + r.Intercept}
}

// ExtractSlope fits a line to the rising edge of the peak at peakIndex.
func ExtractSlope(trace *common.Trace, peakIndex int, config SlopeConfig, opts ...Option) (*SlopeResult, error) {
	if config.WindowPercent == 0 {
		config.WindowPercent = DefaultWindowPercent
	}
	if config.Search == nil {
		config.Search = NewZeroCrossingSearch()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if trace == nil || trace.Len() == 0 {
		return nil, fmt.Errorf("%w: empty trace", ErrInvalidTrace)
	}
	// At least two samples must precede the peak to fit a line.
	if peakIndex < 2 || peakIndex >= trace.Len() {
		return nil, fmt.Errorf("%w: %d not in [2, %d)", ErrInvalidPeakIndex, peakIndex, trace.Len())
	}

	reference := trace
	if config.Reference != nil {
		if config.Reference.Len() != trace.Len() {
			return nil, fmt.Errorf("%w: reference has %d samples, trace has %d",
				ErrInvalidTrace, config.Reference.Len(), trace.Len())
		}
		reference = config.Reference
	}

	rec := newRecorder(opts)

	peak := trace.Samples[peakIndex].Value
	low, high := config.WindowPercent*peak, (1-config.WindowPercent)*peak
	rec.emit(DiagnosticIntensityWindow, "intensity window", "low", low, "high", high)

	y := reference.Values()[:peakIndex]
	iLow, err := config.Search.Locate(y, low)
	if err != nil {
		return nil, err
	}
	iHigh, err := config.Search.Locate(y, high)
	if err != nil {
		return nil, err
	}
	start, end := min(iLow, iHigh), max(iLow, iHigh)
	if end-start+1 < 2 {
		return nil, fmt.Errorf("%w: [%d, %d]", ErrDegenerateWindow, start, end)
	}

	points := make([]point, 0, end-start+1)
	for i := start; i <= end; i++ {
		s := trace.Samples[i]
		points = append(points, point{x: s.Timestamp, y: s.Value})
	}
	slope, intercept, r, err := fit(points)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDegenerateWindow, err)
	}

	return &SlopeResult{
		Slope:     slope,
		Intercept: intercept,
		R:         r,
		Amplitude: peak,
		PeakIndex: peakIndex,
		Window: SlopeWindow{
			StartIndex: start,
			EndIndex:   end,
			StartTime:  trace.Samples[start].Timestamp,
			EndTime:    trace.Samples[end].Timestamp,
			StartValue: trace.Samples[start].Value,
			EndValue:   trace.Samples[end].Value,
		},
		Diagnostics: rec.diagnostics,
	}, nil
}
