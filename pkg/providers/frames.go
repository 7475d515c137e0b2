package providers

import (
	"errors"
	"fmt"
	"sort"

	"k8s.io/klog/v2"

	"github.com/neubio/neubio/pkg/common"
	"github.com/neubio/neubio/pkg/filter"
)

var ErrNoFrames = errors.New("no frames")

// FrameSet indexes loaded frames by their number.
type FrameSet map[int]*common.Frame

// Numbers returns the frame numbers in ascending order.
func (s FrameSet) Numbers() []int {
	numbers := make([]int, 0, len(s))
	for n := range s {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	return numbers
}

// Select picks frames start..end out of the set. A negative end means the last frame.
func (s FrameSet) Select(start, end int) ([]*common.Frame, error) {
	numbers := s.Numbers()
	if len(numbers) == 0 {
		return nil, ErrNoFrames
	}
	if end < 0 {
		end = numbers[len(numbers)-1]
	}
	if start > end {
		return nil, fmt.Errorf("invalid frame range %d->%d", start, end)
	}

	klog.V(4).InfoS("Selecting frames", "start", start, "end", end)
	var frames []*common.Frame
	ignored := 0
	for n := start; n <= end; n++ {
		f, ok := s[n]
		if !ok {
			ignored++
			continue
		}
		frames = append(frames, f)
	}
	if ignored > 0 {
		klog.Warningf("%d frames not found in range %d->%d", ignored, start, end)
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("%w in range %d->%d", ErrNoFrames, start, end)
	}
	return frames, nil
}

// FrameTraces returns the response trace of every frame, or a single trace holding
// their sample-wise mean when average is set.
func FrameTraces(frames []*common.Frame, average bool) ([]*common.Trace, error) {
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}
	traces := make([]*common.Trace, 0, len(frames))
	for _, f := range frames {
		traces = append(traces, f.ResponseTrace())
	}
	if !average {
		return traces, nil
	}

	mean, err := filter.Average(traces...)
	if err != nil {
		return nil, err
	}
	mean.AppendLabel(common.LabelNameAveraged, fmt.Sprint(len(traces)))
	return []*common.Trace{mean}, nil
}

// StimulusOnsets returns the sample indices of the two stimulus pulses of a paired-pulse
// frame. The first pulse is the global maximum of the stimulus channel; it is masked
// for maskSamples samples before the second maximum is searched.
func StimulusOnsets(frame *common.Frame, maskSamples int) (int, int, error) {
	if len(frame.Stimuli) == 0 {
		return 0, 0, fmt.Errorf("frame %d has no stimulus channel", frame.Number)
	}
	stim := make([]float64, len(frame.Stimuli))
	copy(stim, frame.Stimuli)

	first := argmax(stim)
	for i := first; i < first+maskSamples && i < len(stim); i++ {
		stim[i] = 0
	}
	second := argmax(stim)
	if second <= first {
		return 0, 0, fmt.Errorf("frame %d: no second stimulus after sample %d", frame.Number, first)
	}
	return first, second, nil
}

// argmax returns the first index of the largest value.
func argmax(x []float64) int {
	k := 0
	for i, v := range x {
		if v > x[k] {
			k = i
		}
	}
	return k
}
