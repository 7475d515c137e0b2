package analysis

import "errors"

var (
	// ErrNoPeakFound is returned when no candidate passes the detection filter.
	ErrNoPeakFound = errors.New("unable to find an EPSP signature")
	// ErrDegenerateWindow is returned when fewer than two samples fall between the slope boundaries.
	ErrDegenerateWindow = errors.New("degenerate slope window")
	// ErrNoZeroCrossing is returned when an amplitude level is never crossed before the peak.
	ErrNoZeroCrossing = errors.New("amplitude level never crossed before peak")
	// ErrInvalidPeakIndex is returned when the peak index is outside the trace.
	ErrInvalidPeakIndex = errors.New("invalid peak index")
	// ErrInvalidTrace is returned for traces that cannot be analyzed at all.
	ErrInvalidTrace = errors.New("invalid trace")
	// ErrInvalidConfig is returned for out-of-range detector or extractor parameters.
	ErrInvalidConfig = errors.New("invalid config")
)
