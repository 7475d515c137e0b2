package analysis

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"github.com/neubio/neubio/pkg/common"
)

// SamplingInterval estimates the sampling interval of a trace as the mean of the
// consecutive timestamp differences.
func SamplingInterval(trace *common.Trace) (float64, error) {
	if trace == nil || trace.Len() < 2 {
		return 0, fmt.Errorf("%w: need at least 2 samples", ErrInvalidTrace)
	}

	diffs := make([]float64, trace.Len()-1)
	for i := 1; i < trace.Len(); i++ {
		diffs[i-1] = trace.Samples[i].Timestamp - trace.Samples[i-1].Timestamp
	}
	dt, err := stats.Mean(diffs)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidTrace, err)
	}
	if !(dt > 0) || math.IsInf(dt, 0) {
		return 0, fmt.Errorf("%w: sampling interval %v", ErrInvalidTrace, dt)
	}
	return dt, nil
}

// toSamples converts a duration in seconds to a sample count.
func toSamples(seconds, dt float64) int {
	if seconds <= 0 {
		return 0
	}
	return int(seconds / dt)
}

func min(x, y int) int {
	if x <= y {
		return x
	}
	return y
}

func max(x, y int) int {
	if x >= y {
		return x
	}
	return y
}
