package filter

import (
	"fmt"
	"math"

	"github.com/mjibson/go-dsp/fft"

	"github.com/neubio/neubio/pkg/common"
)

const (
	DefaultOrder   = 5
	DefaultNotchF0 = 60.0
	DefaultNotchQ  = 30.0
)

// Response is the power gain of a zero-phase filter at frequency f in hertz.
type Response func(f float64) float64

// LowPass attenuates components above cutoff hertz with a Butterworth response of
// the given order, applied forward and backward.
func LowPass(trace *common.Trace, cutoff float64, order int) (*common.Trace, error) {
	if cutoff <= 0 {
		return nil, fmt.Errorf("invalid low-pass cutoff %v", cutoff)
	}
	order = orderOrDefault(order)
	return Apply(trace, func(f float64) float64 {
		return 1 / (1 + math.Pow(f/cutoff, float64(2*order)))
	})
}

// HighPass attenuates components below cutoff hertz, including the DC offset.
func HighPass(trace *common.Trace, cutoff float64, order int) (*common.Trace, error) {
	if cutoff <= 0 {
		return nil, fmt.Errorf("invalid high-pass cutoff %v", cutoff)
	}
	order = orderOrDefault(order)
	return Apply(trace, func(f float64) float64 {
		if f == 0 {
			return 0
		}
		return 1 / (1 + math.Pow(cutoff/f, float64(2*order)))
	})
}

// Notch removes a narrow band around f0 hertz, e.g. AC mains harmonics.
// The rejected bandwidth is f0/q.
func Notch(trace *common.Trace, f0, q float64) (*common.Trace, error) {
	if f0 <= 0 || q <= 0 {
		return nil, fmt.Errorf("invalid notch f0 %v, q %v", f0, q)
	}
	bw := f0 / q
	return Apply(trace, func(f float64) float64 {
		d := f*f - f0*f0
		g := d * d / (d*d + f*f*bw*bw)
		return g * g
	})
}

// Apply filters the trace in the frequency domain. Every spectrum bin is scaled by the
// response at its frequency, so the output has no phase shift.
func Apply(trace *common.Trace, response Response) (*common.Trace, error) {
	fs, err := SampleRate(trace)
	if err != nil {
		return nil, err
	}

	X := fft.FFTReal(trace.Values())
	n := len(X)
	for k := range X {
		// Bins above n/2 mirror the negative frequencies.
		m := k
		if k > n/2 {
			m = n - k
		}
		f := float64(m) * fs / float64(n)
		X[k] *= complex(response(f), 0)
	}
	x := fft.IFFT(X)

	filtered := trace.WithValues(func(i int, _ float64) float64 {
		return real(x[i])
	})
	filtered.AppendLabel(common.LabelNameFiltered, "true")
	return filtered, nil
}

// SampleRate derives the sampling rate in hertz from the mean timestamp difference.
func SampleRate(trace *common.Trace) (float64, error) {
	if trace == nil || trace.Len() < 2 {
		return 0, fmt.Errorf("trace too short to estimate sample rate")
	}
	n := trace.Len()
	dt := (trace.Samples[n-1].Timestamp - trace.Samples[0].Timestamp) / float64(n-1)
	if !(dt > 0) {
		return 0, fmt.Errorf("invalid sampling interval %v", dt)
	}
	return 1 / dt, nil
}

func orderOrDefault(order int) int {
	if order <= 0 {
		return DefaultOrder
	}
	return order
}
