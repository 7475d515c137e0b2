package filter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neubio/neubio/pkg/common"
)

var (
	sampleRate = 10e3 // Hz
	nSamples   = 1000
)

func sines(fs float64, n int, freqs ...float64) *common.Trace {
	t := make([]float64, n)
	y := make([]float64, n)
	for i := range t {
		t[i] = float64(i) / fs
		for _, f := range freqs {
			y[i] += math.Sin(2 * math.Pi * f * t[i])
		}
	}
	return common.NewTrace(t, y)
}

func TestSampleRate(t *testing.T) {
	fs, err := SampleRate(sines(sampleRate, nSamples))
	require.NoError(t, err)
	assert.InDelta(t, sampleRate, fs, 1e-6)

	_, err = SampleRate(common.NewTrace([]float64{0}, []float64{1}))
	assert.Error(t, err)
}

func TestLowPass(t *testing.T) {
	in := sines(sampleRate, nSamples, 10, 2000)
	want := sines(sampleRate, nSamples, 10)

	out, err := LowPass(in, 500, 0)
	require.NoError(t, err)
	require.Equal(t, in.Len(), out.Len())
	assert.InDeltaSlice(t, want.Values(), out.Values(), 1e-3)
	assert.Equal(t, in.Timestamps(), out.Timestamps())
	assert.Equal(t, "true", common.GetValueByName(out.Labels, common.LabelNameFiltered))

	// The input is left untouched.
	assert.Empty(t, common.GetValueByName(in.Labels, common.LabelNameFiltered))
}

func TestHighPass(t *testing.T) {
	in := sines(sampleRate, nSamples, 10, 2000)
	in = in.WithValues(func(_ int, v float64) float64 { return v + 3 })
	want := sines(sampleRate, nSamples, 2000)

	out, err := HighPass(in, 500, DefaultOrder)
	require.NoError(t, err)
	assert.InDeltaSlice(t, want.Values(), out.Values(), 1e-3)
}

func TestNotch(t *testing.T) {
	in := sines(1000, 1000, 10, DefaultNotchF0)
	want := sines(1000, 1000, 10)

	out, err := Notch(in, DefaultNotchF0, DefaultNotchQ)
	require.NoError(t, err)
	assert.InDeltaSlice(t, want.Values(), out.Values(), 1e-2)
}

func TestInvalidFilterParameters(t *testing.T) {
	in := sines(sampleRate, nSamples, 10)

	_, err := LowPass(in, 0, 5)
	assert.Error(t, err)
	_, err = HighPass(in, -1, 5)
	assert.Error(t, err)
	_, err = Notch(in, 60, 0)
	assert.Error(t, err)
}
