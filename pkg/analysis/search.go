package analysis

import (
	"fmt"
	"math"
)

// Names accepted by ParseBoundarySearch.
const (
	SearchNearestValue = "nearest"
	SearchZeroCrossing = "zero-crossing"
)

// BoundarySearch locates the sample of a rising edge that corresponds to an amplitude level.
type BoundarySearch interface {
	// Locate searches y, which ends right before the peak, for level.
	Locate(y []float64, level float64) (int, error)
	String() string
}

// NewNearestValueSearch returns the search that picks the sample whose value is closest
// to the level anywhere before the peak.
func NewNearestValueSearch() BoundarySearch {
	return &nearestValueSearch{}
}

// NewZeroCrossingSearch returns the search that picks the level crossing closest to the peak.
func NewZeroCrossingSearch() BoundarySearch {
	return &zeroCrossingSearch{}
}

// ParseBoundarySearch maps a search name to its implementation.
func ParseBoundarySearch(name string) (BoundarySearch, error) {
	switch name {
	case SearchNearestValue:
		return NewNearestValueSearch(), nil
	case SearchZeroCrossing, "":
		return NewZeroCrossingSearch(), nil
	}
	return nil, fmt.Errorf("%w: unknown boundary search %q", ErrInvalidConfig, name)
}

type nearestValueSearch struct{}

type zeroCrossingSearch struct{}

func (s *nearestValueSearch) Locate(y []float64, level float64) (int, error) {
	if len(y) == 0 {
		return 0, ErrDegenerateWindow
	}
	best := 0
	for i := 1; i < len(y); i++ {
		if math.Abs(y[i]-level) < math.Abs(y[best]-level) {
			best = i
		}
	}
	return best, nil
}

func (s *nearestValueSearch) String() string {
	return SearchNearestValue
}

// Locate returns the index of the last sample before a sign change of y-level, i.e. the
// crossing nearest to the peak.
func (s *zeroCrossingSearch) Locate(y []float64, level float64) (int, error) {
	for i := len(y) - 2; i >= 0; i-- {
		if sign(y[i]-level) != sign(y[i+1]-level) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: level %g", ErrNoZeroCrossing, level)
}

func (s *zeroCrossingSearch) String() string {
	return SearchZeroCrossing
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
