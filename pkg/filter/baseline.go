package filter

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"github.com/neubio/neubio/pkg/common"
)

// SubtractBaseline uses the recording prior to the stimulus as baseline and subtracts
// its median from the whole trace to zero the offset. stimulusDelay is the timestamp
// the stimulus occurs at.
func SubtractBaseline(trace *common.Trace, stimulusDelay float64) (*common.Trace, error) {
	i := firstAtOrAfter(trace, stimulusDelay)
	if i <= 0 {
		return nil, fmt.Errorf("no baseline samples before %gs", stimulusDelay)
	}

	baseline := trace.Slice(0, i).Values()
	yb, err := stats.Median(baseline)
	if err != nil {
		return nil, err
	}
	return trace.WithValues(func(_ int, v float64) float64 {
		return v - yb
	}), nil
}

// Crop keeps the samples from the first timestamp at or after start through the first
// timestamp at or after end, both inclusive.
func Crop(trace *common.Trace, start, end float64) (*common.Trace, error) {
	if end <= start {
		return nil, fmt.Errorf("invalid crop range [%g, %g]", start, end)
	}
	i := firstAtOrAfter(trace, start)
	j := firstAtOrAfter(trace, end) + 1
	if j > trace.Len() {
		j = trace.Len()
	}
	if i >= j {
		return nil, fmt.Errorf("crop range [%g, %g] is outside the trace", start, end)
	}
	return trace.Slice(i, j), nil
}

// CropFrom keeps the samples from the first timestamp at or after start.
func CropFrom(trace *common.Trace, start float64) (*common.Trace, error) {
	i := firstAtOrAfter(trace, start)
	if i >= trace.Len() {
		return nil, fmt.Errorf("crop start %g is outside the trace", start)
	}
	return trace.Slice(i, trace.Len()), nil
}

// OffsetTime shifts the timestamps so that the trace starts at zero.
func OffsetTime(trace *common.Trace) *common.Trace {
	out := trace.Slice(0, trace.Len())
	if out.Len() == 0 {
		return out
	}
	t0 := out.Samples[0].Timestamp
	for i := range out.Samples {
		out.Samples[i].Timestamp -= t0
	}
	return out
}

// Average returns the sample-wise mean of equal-length traces on the time base of the first.
func Average(traces ...*common.Trace) (*common.Trace, error) {
	if len(traces) == 0 {
		return nil, fmt.Errorf("nothing to average")
	}
	n := traces[0].Len()
	for _, tr := range traces[1:] {
		if tr.Len() != n {
			return nil, fmt.Errorf("cannot average traces of %d and %d samples", n, tr.Len())
		}
	}

	column := make([]float64, len(traces))
	return traces[0].WithValues(func(i int, _ float64) float64 {
		for k, tr := range traces {
			column[k] = tr.Samples[i].Value
		}
		mean, _ := stats.Mean(column)
		return mean
	}), nil
}

// firstAtOrAfter returns the index of the first sample with timestamp >= t, or the
// trace length when there is none.
func firstAtOrAfter(trace *common.Trace, t float64) int {
	for i, s := range trace.Samples {
		if s.Timestamp >= t {
			return i
		}
	}
	return trace.Len()
}
