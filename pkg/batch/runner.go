package batch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"k8s.io/klog/v2"

	"github.com/neubio/neubio/pkg/analysis"
	"github.com/neubio/neubio/pkg/common"
	"github.com/neubio/neubio/pkg/filter"
	"github.com/neubio/neubio/pkg/log"
	"github.com/neubio/neubio/pkg/metrics"
	"github.com/neubio/neubio/pkg/providers"
)

// Result is the outcome of one pulse of one frame.
type Result struct {
	Frame int
	// Pulse is 0 for single pulse recordings, 0 or 1 for paired-pulse recordings.
	Pulse int

	PeakIndex int
	PeakTime  float64
	Amplitude float64
	Slope     float64
	R         float64
	Inverted  bool
	Window    analysis.SlopeWindow

	// Discarded is set when the fit correlation is below the acceptance threshold.
	Discarded bool
	// Err is set when the pulse could not be analyzed at all.
	Err error

	// Trace and Filtered are the preprocessed traces the pulse was analyzed on.
	Trace    *common.Trace
	Filtered *common.Trace
	Fit      *analysis.SlopeResult
}

// Accepted reports whether the result counts towards the group statistics.
func (r *Result) Accepted() bool {
	return r.Err == nil && !r.Discarded
}

// Report collects the results of a group, sorted by frame and pulse.
type Report struct {
	RunID     string
	Group     string
	Results   []*Result
	Failed    int
	Discarded int
	Duration  time.Duration
}

// Runner analyzes groups of frames concurrently.
type Runner struct {
	config Config
	runID  string
}

func NewRunner(config Config) (*Runner, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Runner{config: config, runID: uuid.New().String()}, nil
}

// RunID identifies every report produced by this runner.
func (r *Runner) RunID() string {
	return r.runID
}

// WithAverage returns a runner of the same run whose groups are averaged or not.
func (r *Runner) WithAverage(average bool) *Runner {
	c := *r
	c.config.Average = average
	return &c
}

type pulseWindow struct {
	start, end float64
}

// Run analyzes the frames of one condition group. A frame that fails is recorded in the
// report and never stops the others; only cancellation and setup errors are returned.
func (r *Runner) Run(ctx context.Context, group string, frames []*common.Frame) (*Report, error) {
	begin := time.Now()
	if len(frames) == 0 {
		return nil, providers.ErrNoFrames
	}
	windows, err := r.windows(frames[0])
	if err != nil {
		return nil, err
	}
	traces, err := providers.FrameTraces(frames, r.config.Average)
	if err != nil {
		return nil, err
	}
	klog.V(2).InfoS("Analyzing group", "runID", r.runID, "group", group, "traces", len(traces), "pulses", len(windows))

	var mu sync.Mutex
	var results []*Result
	sem := semaphore.NewWeighted(int64(r.config.Workers))
	eg, egCtx := errgroup.WithContext(ctx)
	for _, trace := range traces {
		trace := trace
		if err := sem.Acquire(egCtx, 1); err != nil {
			break
		}
		eg.Go(func() error {
			defer sem.Release(1)
			if err := egCtx.Err(); err != nil {
				return err
			}
			number := frameNumber(trace)
			for pulse, w := range windows {
				res := r.analyze(group, number, pulse, trace, w)
				mu.Lock()
				results = append(results, res)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Frame != results[j].Frame {
			return results[i].Frame < results[j].Frame
		}
		return results[i].Pulse < results[j].Pulse
	})

	report := &Report{RunID: r.runID, Group: group, Results: results, Duration: time.Since(begin)}
	for _, res := range results {
		switch {
		case res.Err != nil:
			report.Failed++
		case res.Discarded:
			report.Discarded++
		}
	}
	metrics.RunDuration.WithLabelValues(group).Observe(report.Duration.Seconds())
	klog.InfoS("Group analyzed", "runID", r.runID, "group", group, "results", len(results),
		"failed", report.Failed, "discarded", report.Discarded)
	return report, nil
}

// windows returns the crop range of every pulse. Paired-pulse ranges come from the
// stimulus channel of the first frame.
func (r *Runner) windows(first *common.Frame) ([]pulseWindow, error) {
	if !r.config.PairedPulse {
		return []pulseWindow{{start: r.config.CropStart, end: r.config.CropEnd}}, nil
	}

	i1, i2, err := providers.StimulusOnsets(first, r.config.StimulusMask)
	if err != nil {
		return nil, err
	}
	ts1, ts2 := first.Time[i1], first.Time[i2]
	klog.V(4).InfoS("Stimulus onsets", "first", ts1, "second", ts2)
	return []pulseWindow{{start: ts1, end: ts2}, {start: ts2, end: 2*ts2 - ts1}}, nil
}

func (r *Runner) analyze(group string, number, pulse int, trace *common.Trace, w pulseWindow) *Result {
	res := &Result{Frame: number, Pulse: pulse}
	logger := log.FrameLogger("batch", group, number, pulse)

	measured, filtered, err := r.preprocess(trace, w)
	if err != nil {
		res.Err = err
		metrics.FramesFailed.WithLabelValues(group, "preprocess").Inc()
		logger.Error(err, "Preprocessing failed")
		return res
	}
	res.Trace, res.Filtered = measured, filtered

	sink := analysis.WithSink(func(d analysis.Diagnostic) {
		switch d.Kind {
		case analysis.DiagnosticAmbiguousPeak, analysis.DiagnosticPolarityInverted, analysis.DiagnosticPolarityRetry:
			logger.V(2).Info(d.Message, "kind", d.Kind, "fields", d.Fields)
		default:
			logger.V(6).Info(d.Message, "kind", d.Kind, "fields", d.Fields)
		}
	})

	peak, err := analysis.DetectPeak(filtered, r.config.Peak, sink)
	if err != nil {
		res.Err = err
		metrics.FramesFailed.WithLabelValues(group, FailureReason(err)).Inc()
		logger.Error(err, "Peak detection failed")
		return res
	}

	slopeConfig := r.config.Slope
	slopeConfig.Reference = filtered
	fit, err := analysis.ExtractSlope(measured, peak.Index, slopeConfig, sink)
	if err != nil {
		res.Err = err
		metrics.FramesFailed.WithLabelValues(group, FailureReason(err)).Inc()
		logger.Error(err, "Slope extraction failed")
		return res
	}

	res.PeakIndex = peak.Index
	res.PeakTime = measured.Samples[peak.Index].Timestamp
	res.Inverted = peak.Inverted
	res.Amplitude = fit.Amplitude
	res.Slope = fit.Slope
	res.R = fit.R
	res.Window = fit.Window
	res.Fit = fit

	metrics.Correlation.WithLabelValues(group).Observe(math.Abs(fit.R))
	if !fit.Accept(r.config.MinCorrelation) {
		res.Discarded = true
		metrics.FramesDiscarded.WithLabelValues(group).Inc()
		logger.V(1).Info("Discarded frame", "r", fit.R, "minCorrelation", r.config.MinCorrelation)
		return res
	}
	metrics.FramesAnalyzed.WithLabelValues(group).Inc()
	return res
}

// preprocess returns the measured and the low-passed copies of a trace, both baseline
// subtracted, cropped to the pulse window and shifted to start at zero.
func (r *Runner) preprocess(trace *common.Trace, w pulseWindow) (*common.Trace, *common.Trace, error) {
	var err error
	measured := trace
	if r.config.NotchFrequency > 0 {
		if measured, err = filter.Notch(measured, r.config.NotchFrequency, r.config.NotchQ); err != nil {
			return nil, nil, err
		}
	}
	if r.config.HighPassCutoff > 0 {
		if measured, err = filter.HighPass(measured, r.config.HighPassCutoff, r.config.FilterOrder); err != nil {
			return nil, nil, err
		}
	}
	filtered := measured
	if r.config.LowPassCutoff > 0 {
		if filtered, err = filter.LowPass(measured, r.config.LowPassCutoff, r.config.FilterOrder); err != nil {
			return nil, nil, err
		}
	}

	out := make([]*common.Trace, 0, 2)
	for _, tr := range []*common.Trace{measured, filtered} {
		tr, err = filter.SubtractBaseline(tr, r.config.StimulusDelay)
		if err != nil {
			return nil, nil, err
		}
		switch {
		case w.end > 0:
			tr, err = filter.Crop(tr, w.start, w.end)
		case w.start > 0:
			tr, err = filter.CropFrom(tr, w.start)
		}
		if err != nil {
			return nil, nil, err
		}
		out = append(out, filter.OffsetTime(tr))
	}
	return out[0], out[1], nil
}

// FailureReason maps an analysis error to a short metric label.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, analysis.ErrNoPeakFound):
		return "no_peak"
	case errors.Is(err, analysis.ErrNoZeroCrossing):
		return "no_zero_crossing"
	case errors.Is(err, analysis.ErrDegenerateWindow):
		return "degenerate_window"
	case errors.Is(err, analysis.ErrInvalidTrace), errors.Is(err, analysis.ErrInvalidPeakIndex):
		return "invalid_trace"
	}
	return "other"
}

func frameNumber(trace *common.Trace) int {
	n, err := strconv.Atoi(common.GetValueByName(trace.Labels, common.LabelNameFrame))
	if err != nil {
		return -1
	}
	return n
}

func (r *Report) String() string {
	return fmt.Sprintf("run %s, group %s: %d results, %d failed, %d discarded",
		r.RunID, r.Group, len(r.Results), r.Failed, r.Discarded)
}
