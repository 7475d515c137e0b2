package analysis

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"github.com/neubio/neubio/pkg/common"
)

// PeakMode selects the candidate filtering heuristic of the peak detector.
type PeakMode string

const (
	// PeakModeAdaptive infers polarity from the signal extremes and keeps local maxima
	// above a noise-derived height threshold.
	PeakModeAdaptive PeakMode = "adaptive"
	// PeakModeConstrained keeps local maxima that satisfy a minimum separation and a
	// minimum width, retrying on the negated trace when nothing is found.
	PeakModeConstrained PeakMode = "constrained"
)

const (
	// DefaultHeightSigma is the adaptive height threshold in standard deviations.
	DefaultHeightSigma = 2.0
	// DefaultMinDistance is the constrained minimum peak separation in seconds.
	DefaultMinDistance = 0.001
	// DefaultMinWidth is the constrained minimum peak width in seconds.
	DefaultMinWidth = 0.005
)

// PeakConfig holds the tunable parameters of DetectPeak. All durations are in seconds.
type PeakConfig struct {
	Mode PeakMode `json:"mode"`
	// IgnoreDelay excludes the leading samples, e.g. the stimulus artifact, from the
	// candidate search. Zero excludes nothing.
	IgnoreDelay float64 `json:"ignoreDelay"`
	// HeightSigma scales the standard deviation of the searched region into the minimum
	// peak height. Adaptive mode only.
	HeightSigma float64 `json:"heightSigma"`
	// MinDistance is the minimum time between two peaks. Constrained mode only.
	MinDistance float64 `json:"minDistance"`
	// MinWidth is the minimum peak width at half prominence. Constrained mode only.
	MinWidth float64 `json:"minWidth"`
	// MinHeight is the minimum peak value on the searched signal. Zero disables it.
	// Constrained mode only.
	MinHeight float64 `json:"minHeight,omitempty"`
}

// DefaultPeakConfig returns the adaptive detector configuration.
func DefaultPeakConfig() PeakConfig {
	return PeakConfig{
		Mode:        PeakModeAdaptive,
		HeightSigma: DefaultHeightSigma,
		MinDistance: DefaultMinDistance,
		MinWidth:    DefaultMinWidth,
	}
}

func (c PeakConfig) String() string {
	return fmt.Sprintf("Peak Config: {mode: %s, ignoreDelay: %g, heightSigma: %g, minDistance: %g, minWidth: %g, minHeight: %g}",
		c.Mode, c.IgnoreDelay, c.HeightSigma, c.MinDistance, c.MinWidth, c.MinHeight)
}

// Validate checks the config for values the detector cannot work with.
func (c PeakConfig) Validate() error {
	switch c.Mode {
	case PeakModeAdaptive:
		if !(c.HeightSigma >= 0) {
			return fmt.Errorf("%w: heightSigma %v", ErrInvalidConfig, c.HeightSigma)
		}
	case PeakModeConstrained:
		if c.MinDistance < 0 || c.MinWidth < 0 || c.MinHeight < 0 {
			return fmt.Errorf("%w: minDistance %v, minWidth %v, minHeight %v",
				ErrInvalidConfig, c.MinDistance, c.MinWidth, c.MinHeight)
		}
	default:
		return fmt.Errorf("%w: unknown peak mode %q", ErrInvalidConfig, c.Mode)
	}
	if c.IgnoreDelay < 0 {
		return fmt.Errorf("%w: ignoreDelay %v", ErrInvalidConfig, c.IgnoreDelay)
	}
	return nil
}

// ParsePeakMode maps a mode name to a PeakMode.
func ParsePeakMode(s string) (PeakMode, error) {
	switch PeakMode(s) {
	case PeakModeAdaptive, PeakModeConstrained:
		return PeakMode(s), nil
	}
	return "", fmt.Errorf("%w: unknown peak mode %q", ErrInvalidConfig, s)
}

// PeakCandidate is the peak DetectPeak settled on.
type PeakCandidate struct {
	// Index is the absolute sample index of the peak in the input trace.
	Index int
	// Inverted reports whether the peak was found on the negated trace.
	Inverted bool
	// Candidates is the number of peaks that passed the filter.
	Candidates int
	Properties  PeakProperties
	Diagnostics []Diagnostic
}

// DetectPeak locates the single dominant EPSP peak of a trace.
func DetectPeak(trace *common.Trace, config PeakConfig, opts ...Option) (*PeakCandidate, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	dt, err := SamplingInterval(trace)
	if err != nil {
		return nil, err
	}

	rec := newRecorder(opts)
	rec.emit(DiagnosticSamplingInterval, "estimated sampling interval", "interval", dt)

	offset := toSamples(config.IgnoreDelay, dt)
	if offset >= trace.Len() {
		return nil, fmt.Errorf("%w: ignore delay %gs covers the whole trace", ErrNoPeakFound, config.IgnoreDelay)
	}

	y := trace.Values()

	var peaks []int
	var x []float64
	inverted := false
	switch config.Mode {
	case PeakModeConstrained:
		distance := int(math.Ceil(config.MinDistance / dt))
		minWidth := config.MinWidth / dt

		x = y[offset:]
		peaks = constrainedPeaks(x, distance, minWidth, config.MinHeight)
		if len(peaks) == 0 {
			rec.emit(DiagnosticPolarityRetry, "searching in reversed polarity")
			x = negate(x)
			inverted = true
			peaks = constrainedPeaks(x, distance, minWidth, config.MinHeight)
		}
	default:
		lo, hi := extremes(y)
		if math.Abs(lo) > math.Abs(hi) {
			rec.emit(DiagnosticPolarityInverted, "negative extreme dominates, searching inverted trace", "min", lo, "max", hi)
			y = negate(y)
			inverted = true
		}
		x = y[offset:]

		std, err := stats.StdDevP(x)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTrace, err)
		}
		height := config.HeightSigma * std
		peaks = selectByHeight(x, localMaxima(x), height)
	}

	if len(peaks) == 0 {
		return nil, ErrNoPeakFound
	}
	if len(peaks) > 1 {
		rec.emit(DiagnosticAmbiguousPeak, "multiple candidates found, use the first one",
			"candidates", len(peaks), "first", peaks[0]+offset)
	}

	return &PeakCandidate{
		Index:       peaks[0] + offset,
		Inverted:    inverted,
		Candidates:  len(peaks),
		Properties:  shiftProperties(peakProperties(x, peaks[0]), offset),
		Diagnostics: rec.diagnostics,
	}, nil
}

func constrainedPeaks(x []float64, distance int, minWidth, minHeight float64) []int {
	peaks := localMaxima(x)
	if minHeight > 0 {
		peaks = selectByHeight(x, peaks, minHeight)
	}
	peaks = selectByDistance(x, peaks, distance)
	return selectByWidth(x, peaks, minWidth)
}

func shiftProperties(p PeakProperties, offset int) PeakProperties {
	p.LeftBase += offset
	p.RightBase += offset
	p.LeftIP += float64(offset)
	p.RightIP += float64(offset)
	return p
}

func extremes(y []float64) (float64, float64) {
	lo, hi := y[0], y[0]
	for _, v := range y[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

func negate(y []float64) []float64 {
	out := make([]float64, len(y))
	for i, v := range y {
		out[i] = -v
	}
	return out
}
