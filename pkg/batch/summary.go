package batch

import (
	"fmt"
	"strconv"

	"github.com/montanaflynn/stats"

	"github.com/neubio/neubio/pkg/metrics"
)

// Summary is the population statistics of the accepted results of one pulse.
type Summary struct {
	Group         string
	Pulse         int
	N             int
	AmplitudeMean float64
	AmplitudeStd  float64
	SlopeMean     float64
	SlopeStd      float64
}

func (s Summary) String() string {
	return fmt.Sprintf("%s (pulse %d): n=%d, amplitude=%.4f +/- %.4f, slope=%.4f +/- %.4f",
		s.Group, s.Pulse+1, s.N, s.AmplitudeMean, s.AmplitudeStd, s.SlopeMean, s.SlopeStd)
}

// Summarize computes the statistics of every pulse in the report and publishes them
// as gauges labelled with the 1-based pulse number.
func Summarize(report *Report) ([]Summary, error) {
	var amplitudes, slopes [][]float64
	for _, res := range report.Results {
		for len(amplitudes) <= res.Pulse {
			amplitudes = append(amplitudes, nil)
			slopes = append(slopes, nil)
		}
		if !res.Accepted() {
			continue
		}
		amplitudes[res.Pulse] = append(amplitudes[res.Pulse], res.Amplitude)
		slopes[res.Pulse] = append(slopes[res.Pulse], res.Slope)
	}

	summaries := make([]Summary, 0, len(amplitudes))
	for pulse := range amplitudes {
		s := Summary{Group: report.Group, Pulse: pulse, N: len(amplitudes[pulse])}
		if s.N > 0 {
			var err error
			if s.AmplitudeMean, s.AmplitudeStd, err = meanStd(amplitudes[pulse]); err != nil {
				return nil, err
			}
			if s.SlopeMean, s.SlopeStd, err = meanStd(slopes[pulse]); err != nil {
				return nil, err
			}
		}
		summaries = append(summaries, s)

		label := strconv.Itoa(pulse + 1)
		metrics.Amplitude.WithLabelValues(report.Group, label, "mean").Set(s.AmplitudeMean)
		metrics.Amplitude.WithLabelValues(report.Group, label, "stddev").Set(s.AmplitudeStd)
		metrics.Slope.WithLabelValues(report.Group, label, "mean").Set(s.SlopeMean)
		metrics.Slope.WithLabelValues(report.Group, label, "stddev").Set(s.SlopeStd)
	}
	return summaries, nil
}

func meanStd(x []float64) (float64, float64, error) {
	mean, err := stats.Mean(x)
	if err != nil {
		return 0, 0, err
	}
	std, err := stats.StdDevP(x)
	if err != nil {
		return 0, 0, err
	}
	return mean, std, nil
}

// PulseRatio is the second over the first EPSP amplitude of a paired-pulse frame.
type PulseRatio struct {
	Frame int
	Ratio float64
}

// PairedPulseRatio returns the ratio of every frame whose two pulses were both accepted,
// and their mean.
func PairedPulseRatio(report *Report) ([]PulseRatio, float64, error) {
	first := map[int]float64{}
	for _, res := range report.Results {
		if res.Pulse == 0 && res.Accepted() && res.Amplitude != 0 {
			first[res.Frame] = res.Amplitude
		}
	}

	var ratios []PulseRatio
	var values []float64
	for _, res := range report.Results {
		if res.Pulse != 1 || !res.Accepted() {
			continue
		}
		a1, ok := first[res.Frame]
		if !ok {
			continue
		}
		ratios = append(ratios, PulseRatio{Frame: res.Frame, Ratio: res.Amplitude / a1})
		values = append(values, res.Amplitude/a1)
	}
	if len(ratios) == 0 {
		return nil, 0, fmt.Errorf("no frame of group %s has two accepted pulses", report.Group)
	}
	mean, err := stats.Mean(values)
	if err != nil {
		return nil, 0, err
	}
	return ratios, mean, nil
}
