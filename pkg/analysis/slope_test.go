package analysis

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neubio/neubio/pkg/common"
)

const rampPeak = 60

func TestExtractSlope_LinearRamp(t *testing.T) {
	trace := ramp(100, rampPeak)

	for _, search := range []BoundarySearch{NewZeroCrossingSearch(), NewNearestValueSearch()} {
		res, err := ExtractSlope(trace, rampPeak, SlopeConfig{WindowPercent: 0.2, Search: search})
		require.NoError(t, err, search.String())

		// 0.5 per sample at 1ms per sample.
		assert.InDelta(t, 500, res.Slope, 1e-6, search.String())
		assert.InDelta(t, 2.25, res.Intercept, 1e-9, search.String())
		assert.InDelta(t, 1.0, math.Abs(res.R), 1e-9, search.String())
		assert.Equal(t, 8, res.Window.StartIndex, search.String())
		assert.Equal(t, 47, res.Window.EndIndex, search.String())
		assert.Equal(t, 32.25, res.Amplitude)
		assert.Equal(t, rampPeak, res.PeakIndex)
	}
}

func TestExtractSlope_WindowValues(t *testing.T) {
	trace := ramp(100, rampPeak)
	res, err := ExtractSlope(trace, rampPeak, DefaultSlopeConfig())
	require.NoError(t, err)

	w := res.Window
	assert.Equal(t, trace.Samples[w.StartIndex].Timestamp, w.StartTime)
	assert.Equal(t, trace.Samples[w.EndIndex].Timestamp, w.EndTime)
	assert.Equal(t, trace.Samples[w.StartIndex].Value, w.StartValue)
	assert.Equal(t, trace.Samples[w.EndIndex].Value, w.EndValue)
	assert.Equal(t, 40, w.Len())

	tl, yl := res.Line()
	assert.Equal(t, w.StartTime, tl[0])
	assert.InDelta(t, w.StartValue, yl[0], 1e-9)
	assert.InDelta(t, w.EndValue, yl[1], 1e-9)
}

func TestExtractSlope_WindowMonotonicity(t *testing.T) {
	trace := ramp(100, rampPeak)

	last := math.MaxInt32
	for _, p := range []float64{0.1, 0.2, 0.3, 0.4, 0.45} {
		res, err := ExtractSlope(trace, rampPeak, SlopeConfig{WindowPercent: p})
		require.NoError(t, err, "windowPercent %v", p)
		assert.Less(t, res.Window.Len(), last, "windowPercent %v", p)
		last = res.Window.Len()
	}

	_, err := ExtractSlope(trace, rampPeak, SlopeConfig{WindowPercent: 0.499})
	assert.True(t, errors.Is(err, ErrDegenerateWindow), "%v", err)
}

func TestExtractSlope_BoundaryOrdering(t *testing.T) {
	trace := synthesize(nSamples, 0, 0, epsp)
	peak := 1000

	for _, search := range []BoundarySearch{NewZeroCrossingSearch(), NewNearestValueSearch()} {
		res, err := ExtractSlope(trace, peak, SlopeConfig{WindowPercent: 0.2, Search: search})
		require.NoError(t, err)
		w := res.Window
		assert.Less(t, w.StartIndex, w.EndIndex)
		assert.Less(t, w.EndIndex, peak)
		assert.Greater(t, math.Abs(w.EndValue), math.Abs(w.StartValue))
		assert.Greater(t, res.Slope, 0.0)
	}
}

func TestExtractSlope_NegativePeak(t *testing.T) {
	trace := synthesize(nSamples, 0, 0, gaussian{t0: 0.1, amplitude: -5, sigma: 0.005})

	res, err := ExtractSlope(trace, 1000, DefaultSlopeConfig())
	require.NoError(t, err)
	assert.Less(t, res.Slope, 0.0)
	assert.Less(t, res.R, -0.9)
	assert.Less(t, res.Window.EndIndex, 1000)
	assert.True(t, res.Accept(DefaultMinCorrelation))
}

func TestExtractSlope_ZeroCrossingIgnoresFarOscillations(t *testing.T) {
	trace := ramp(100, rampPeak)
	// An early excursion hitting the high level exactly.
	trace.Samples[3].Value = 25.8

	res, err := ExtractSlope(trace, rampPeak, SlopeConfig{WindowPercent: 0.2, Search: NewZeroCrossingSearch()})
	require.NoError(t, err)
	assert.Equal(t, 8, res.Window.StartIndex)
	assert.Equal(t, 47, res.Window.EndIndex)

	res, err = ExtractSlope(trace, rampPeak, SlopeConfig{WindowPercent: 0.2, Search: NewNearestValueSearch()})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Window.StartIndex)
	assert.Equal(t, 8, res.Window.EndIndex)
}

func TestExtractSlope_NoZeroCrossing(t *testing.T) {
	y := make([]float64, 60)
	x := make([]float64, 60)
	for i := range y {
		x[i] = float64(i) * 1e-3
		y[i] = 10
	}
	y[50] = 12
	trace := common.NewTrace(x, y)

	_, err := ExtractSlope(trace, 50, DefaultSlopeConfig())
	assert.True(t, errors.Is(err, ErrNoZeroCrossing), "%v", err)
}

func TestExtractSlope_Reference(t *testing.T) {
	clean := ramp(100, rampPeak)
	noisy := clean.WithValues(func(i int, v float64) float64 {
		if i%2 == 0 {
			return v + 0.3
		}
		return v - 0.3
	})

	res, err := ExtractSlope(noisy, rampPeak, SlopeConfig{WindowPercent: 0.2, Reference: clean})
	require.NoError(t, err)
	assert.Equal(t, 8, res.Window.StartIndex)
	assert.Equal(t, 47, res.Window.EndIndex)
	// Amplitude and window values come from the measured trace.
	assert.Equal(t, noisy.Samples[rampPeak].Value, res.Amplitude)
	assert.Equal(t, noisy.Samples[8].Value, res.Window.StartValue)
	assert.InDelta(t, 500, res.Slope, 5)
	assert.Less(t, res.R, 1.0)

	_, err = ExtractSlope(noisy, rampPeak, SlopeConfig{WindowPercent: 0.2, Reference: clean.Slice(0, 50)})
	assert.True(t, errors.Is(err, ErrInvalidTrace))
}

func TestExtractSlope_InvalidInput(t *testing.T) {
	trace := ramp(100, rampPeak)

	for _, idx := range []int{-1, 0, 1, 100, 1000} {
		for _, search := range []BoundarySearch{NewZeroCrossingSearch(), NewNearestValueSearch()} {
			_, err := ExtractSlope(trace, idx, SlopeConfig{Search: search})
			assert.True(t, errors.Is(err, ErrInvalidPeakIndex), "index %d, %s: %v", idx, search, err)
		}
	}

	for _, p := range []float64{0.5, 0.7, -0.1} {
		_, err := ExtractSlope(trace, rampPeak, SlopeConfig{WindowPercent: p})
		assert.True(t, errors.Is(err, ErrInvalidConfig), "windowPercent %v", p)
	}

	// Two samples before the peak are enough for a line.
	res, err := ExtractSlope(trace, 2, SlopeConfig{Search: NewNearestValueSearch()})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Window.StartIndex)
	assert.Equal(t, 1, res.Window.EndIndex)

	_, err = ExtractSlope(&common.Trace{}, 0, DefaultSlopeConfig())
	assert.True(t, errors.Is(err, ErrInvalidTrace))
}

func TestExtractSlope_Determinism(t *testing.T) {
	trace := synthesize(nSamples, 0.05, 11, epsp)
	cfg := DefaultSlopeConfig()

	first, err := ExtractSlope(trace, 1000, cfg)
	require.NoError(t, err)
	second, err := ExtractSlope(trace, 1000, cfg)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSlopeResult_Accept(t *testing.T) {
	assert.True(t, (&SlopeResult{R: -0.8}).Accept(0.7))
	assert.True(t, (&SlopeResult{R: 0.7}).Accept(0.7))
	assert.False(t, (&SlopeResult{R: 0.69}).Accept(0.7))
}

func TestParseBoundarySearch(t *testing.T) {
	s, err := ParseBoundarySearch("nearest")
	require.NoError(t, err)
	assert.Equal(t, SearchNearestValue, s.String())

	s, err = ParseBoundarySearch("")
	require.NoError(t, err)
	assert.Equal(t, SearchZeroCrossing, s.String())

	_, err = ParseBoundarySearch("argmin")
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}
