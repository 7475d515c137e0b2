package batch

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neubio/neubio/pkg/analysis"
	"github.com/neubio/neubio/pkg/common"
	"github.com/neubio/neubio/pkg/metrics"
)

const dt = 1e-4

type epsp struct {
	onset     float64
	amplitude float64
}

// recording builds a frame of n samples on a 0.5 offset. Every EPSP peaks 50ms after
// its stimulus pulse.
func recording(number, n int, pulses ...epsp) *common.Frame {
	f := &common.Frame{
		Number:   number,
		Time:     make([]float64, n),
		Response: make([]float64, n),
		Stimuli:  make([]float64, n),
	}
	const sigma = 0.005
	for i := 0; i < n; i++ {
		t := float64(i) * dt
		f.Time[i] = t
		f.Response[i] = 0.5
		for _, p := range pulses {
			u := t - (p.onset + 0.05)
			f.Response[i] += p.amplitude * math.Exp(-u*u/(2*sigma*sigma))
		}
	}
	for _, p := range pulses {
		k := int(math.Round(p.onset / dt))
		for i := k; i < k+5; i++ {
			f.Stimuli[i] = 5
		}
	}
	return f
}

func singlePulseConfig() Config {
	config := DefaultConfig()
	config.CropStart = 0.1
	config.Workers = 2
	return config
}

func TestRun(t *testing.T) {
	late := recording(4, 3000, epsp{0.1, 5})
	for i := range late.Time {
		late.Time[i] += 0.2
	}
	frames := []*common.Frame{
		recording(3, 3000, epsp{0.1, 6}),
		recording(1, 3000, epsp{0.1, 5}),
		late,
		recording(2, 3000, epsp{0.1, 4}),
	}

	runner, err := NewRunner(singlePulseConfig())
	require.NoError(t, err)

	failed := testutil.ToFloat64(metrics.FramesFailed.WithLabelValues("run", "preprocess"))
	analyzed := testutil.ToFloat64(metrics.FramesAnalyzed.WithLabelValues("run"))

	report, err := runner.Run(context.TODO(), "run", frames)
	require.NoError(t, err)
	assert.Equal(t, runner.RunID(), report.RunID)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 0, report.Discarded)

	require.Len(t, report.Results, 4)
	for i, res := range report.Results {
		assert.Equal(t, i+1, res.Frame)
	}
	assert.Error(t, report.Results[3].Err)
	assert.False(t, report.Results[3].Accepted())

	for i, amplitude := range []float64{5, 4, 6} {
		res := report.Results[i]
		require.NoError(t, res.Err, "frame %d", res.Frame)
		assert.True(t, res.Accepted())
		assert.InDelta(t, 500, res.PeakIndex, 2)
		assert.InDelta(t, 0.05, res.PeakTime, 2e-4)
		assert.InDelta(t, amplitude, res.Amplitude, 0.01)
		assert.Greater(t, res.Slope, 0.0)
		assert.Greater(t, res.R, 0.95)
		assert.Less(t, res.Window.EndIndex, res.PeakIndex)
		assert.Equal(t, res.Trace.Len(), res.Filtered.Len())
	}

	assert.Equal(t, failed+1, testutil.ToFloat64(metrics.FramesFailed.WithLabelValues("run", "preprocess")))
	assert.Equal(t, analyzed+3, testutil.ToFloat64(metrics.FramesAnalyzed.WithLabelValues("run")))

	summaries, err := Summarize(report)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 3, summaries[0].N)
	assert.InDelta(t, 5, summaries[0].AmplitudeMean, 0.01)
	assert.InDelta(t, math.Sqrt(2.0/3.0), summaries[0].AmplitudeStd, 0.01)
	assert.Greater(t, summaries[0].SlopeMean, 0.0)
	assert.Equal(t, summaries[0].SlopeMean, testutil.ToFloat64(metrics.Slope.WithLabelValues("run", "1", "mean")))
}

func TestRunDiscards(t *testing.T) {
	config := singlePulseConfig()
	// a gaussian rising edge is never perfectly straight
	config.MinCorrelation = 0.99999

	runner, err := NewRunner(config)
	require.NoError(t, err)
	report, err := runner.Run(context.TODO(), "discards", []*common.Frame{
		recording(1, 3000, epsp{0.1, 5}),
		recording(2, 3000, epsp{0.1, 5}),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Discarded)
	assert.Equal(t, 0, report.Failed)
	for _, res := range report.Results {
		assert.True(t, res.Discarded)
		assert.NoError(t, res.Err)
	}

	summaries, err := Summarize(report)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 0, summaries[0].N)
}

func TestRunAverage(t *testing.T) {
	frames := []*common.Frame{
		recording(7, 3000, epsp{0.1, 4}),
		recording(8, 3000, epsp{0.1, 6}),
	}
	runner, err := NewRunner(singlePulseConfig())
	require.NoError(t, err)

	averaged := runner.WithAverage(true)
	assert.Equal(t, runner.RunID(), averaged.RunID())

	report, err := averaged.Run(context.TODO(), "average", frames)
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, 7, report.Results[0].Frame)
	assert.InDelta(t, 5, report.Results[0].Amplitude, 0.01)

	report, err = runner.Run(context.TODO(), "average", frames)
	require.NoError(t, err)
	assert.Len(t, report.Results, 2)
}

func TestRunHighPass(t *testing.T) {
	config := singlePulseConfig()
	config.HighPassCutoff = 1

	f := recording(1, 3000, epsp{0.1, 5})
	for i := range f.Response {
		f.Response[i] += 2 * f.Time[i]
	}

	runner, err := NewRunner(config)
	require.NoError(t, err)
	report, err := runner.Run(context.TODO(), "highpass", []*common.Frame{f})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	require.NoError(t, report.Results[0].Err)
	assert.InDelta(t, 500, report.Results[0].PeakIndex, 2)
}

func TestRunPairedPulse(t *testing.T) {
	config := DefaultConfig()
	config.PairedPulse = true

	var frames []*common.Frame
	for i := 1; i <= 3; i++ {
		frames = append(frames, recording(i, 6000, epsp{0.1, 4}, epsp{0.3, 6}))
	}

	runner, err := NewRunner(config)
	require.NoError(t, err)
	report, err := runner.Run(context.TODO(), "paired", frames)
	require.NoError(t, err)
	require.Len(t, report.Results, 6)
	for i, res := range report.Results {
		require.NoError(t, res.Err)
		assert.Equal(t, i/2+1, res.Frame)
		assert.Equal(t, i%2, res.Pulse)
	}
	assert.InDelta(t, 4, report.Results[0].Amplitude, 0.01)
	assert.InDelta(t, 6, report.Results[1].Amplitude, 0.01)

	summaries, err := Summarize(report)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, 3, summaries[1].N)
	assert.InDelta(t, 6, summaries[1].AmplitudeMean, 0.01)
	assert.Equal(t, summaries[0].AmplitudeMean, testutil.ToFloat64(metrics.Amplitude.WithLabelValues("paired", "1", "mean")))
	assert.Equal(t, summaries[1].AmplitudeMean, testutil.ToFloat64(metrics.Amplitude.WithLabelValues("paired", "2", "mean")))

	ratios, mean, err := PairedPulseRatio(report)
	require.NoError(t, err)
	require.Len(t, ratios, 3)
	assert.InDelta(t, 1.5, mean, 0.01)
	assert.Equal(t, 2, ratios[1].Frame)
}

func TestPairedPulseRatioErrors(t *testing.T) {
	report := &Report{Group: "single", Results: []*Result{
		{Frame: 1, Pulse: 0, Amplitude: 1},
		{Frame: 2, Pulse: 1, Amplitude: 1},
		{Frame: 3, Pulse: 0, Amplitude: 1},
		{Frame: 3, Pulse: 1, Amplitude: 1, Discarded: true},
	}}
	_, _, err := PairedPulseRatio(report)
	assert.Error(t, err)
}

func TestRunErrors(t *testing.T) {
	runner, err := NewRunner(singlePulseConfig())
	require.NoError(t, err)

	_, err = runner.Run(context.TODO(), "empty", nil)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.TODO())
	cancel()
	_, err = runner.Run(ctx, "cancelled", []*common.Frame{recording(1, 3000, epsp{0.1, 5})})
	assert.ErrorIs(t, err, context.Canceled)

	paired := singlePulseConfig()
	paired.PairedPulse = true
	runner, err = NewRunner(paired)
	require.NoError(t, err)
	_, err = runner.Run(context.TODO(), "unpaired", []*common.Frame{recording(1, 3000, epsp{0.1, 5})})
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cases := map[string]func(*Config){
		"lowpass":     func(c *Config) { c.LowPassCutoff = -1 },
		"highpass":    func(c *Config) { c.HighPassCutoff = 2000 },
		"notch q":     func(c *Config) { c.NotchFrequency = 50; c.NotchQ = 0 },
		"delay":       func(c *Config) { c.StimulusDelay = 0 },
		"crop":        func(c *Config) { c.CropStart = 0.2; c.CropEnd = 0.1 },
		"mask":        func(c *Config) { c.PairedPulse = true; c.StimulusMask = 0 },
		"correlation": func(c *Config) { c.MinCorrelation = 1.5 },
		"workers":     func(c *Config) { c.Workers = 0 },
		"peak":        func(c *Config) { c.Peak.Mode = "unknown" },
		"slope":       func(c *Config) { c.Slope.WindowPercent = 0.5 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			config := DefaultConfig()
			mutate(&config)
			_, err := NewRunner(config)
			assert.Error(t, err)
		})
	}
}

func TestFailureReason(t *testing.T) {
	cases := map[error]string{
		analysis.ErrNoPeakFound:                               "no_peak",
		fmt.Errorf("wrapped: %w", analysis.ErrNoZeroCrossing): "no_zero_crossing",
		analysis.ErrDegenerateWindow:                          "degenerate_window",
		analysis.ErrInvalidPeakIndex:                          "invalid_trace",
		fmt.Errorf("other"):                                   "other",
	}
	for err, want := range cases {
		assert.Equal(t, want, FailureReason(err))
	}
}
