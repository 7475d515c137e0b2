package common

import "fmt"

const (
	LabelNameFrame     = "Frame"
	LabelNameChannel   = "Channel"
	LabelNameAveraged  = "Averaged"
	LabelNameFiltered  = "Filtered"
	ChannelResponse    = "response"
	ChannelStimuli     = "stimuli"
	ChannelTime        = "time"
	DefaultFrameFormat = "frame_%d"
)

// Trace is one recorded voltage time series.
type Trace struct {
	// A collection of Labels attached by the loader, e.g. the frame number
	// the trace was recorded in.
	Labels []Label
	// A collection of Samples in chronological order.
	Samples []Sample
}

// Sample pairs a Value with a Timestamp in seconds.
type Sample struct {
	Value     float64
	Timestamp float64
}

// A Label is a Name and Value pair that provides additional information about the trace.
type Label struct {
	Name  string
	Value string
}

// NewTrace pairs timestamps and values. The shorter slice decides the length.
func NewTrace(t, y []float64) *Trace {
	n := len(t)
	if len(y) < n {
		n = len(y)
	}
	samples := make([]Sample, n)
	for i := 0; i < n; i++ {
		samples[i] = Sample{Timestamp: t[i], Value: y[i]}
	}
	return &Trace{
		Labels:  make([]Label, 0),
		Samples: samples,
	}
}

func (tr *Trace) Len() int {
	return len(tr.Samples)
}

func (tr *Trace) AppendLabel(key, val string) {
	tr.Labels = append(tr.Labels, Label{key, val})
}

// Timestamps returns a copy of the sample timestamps.
func (tr *Trace) Timestamps() []float64 {
	t := make([]float64, len(tr.Samples))
	for i := range tr.Samples {
		t[i] = tr.Samples[i].Timestamp
	}
	return t
}

// Values returns a copy of the sample values.
func (tr *Trace) Values() []float64 {
	y := make([]float64, len(tr.Samples))
	for i := range tr.Samples {
		y[i] = tr.Samples[i].Value
	}
	return y
}

// Slice returns a new trace holding a copy of samples [i, j).
func (tr *Trace) Slice(i, j int) *Trace {
	samples := make([]Sample, j-i)
	copy(samples, tr.Samples[i:j])
	return &Trace{
		Labels:  tr.copyLabels(),
		Samples: samples,
	}
}

// Negate returns a new trace with every value sign-flipped.
func (tr *Trace) Negate() *Trace {
	return tr.WithValues(func(i int, v float64) float64 { return -v })
}

// WithValues returns a new trace on the same time base whose values are computed by fn.
func (tr *Trace) WithValues(fn func(i int, v float64) float64) *Trace {
	samples := make([]Sample, len(tr.Samples))
	for i, s := range tr.Samples {
		samples[i] = Sample{Timestamp: s.Timestamp, Value: fn(i, s.Value)}
	}
	return &Trace{
		Labels:  tr.copyLabels(),
		Samples: samples,
	}
}

func (tr *Trace) copyLabels() []Label {
	labels := make([]Label, len(tr.Labels))
	copy(labels, tr.Labels)
	return labels
}

// Frame is one recorded sweep. Both channels share the time base.
type Frame struct {
	Number   int
	Time     []float64
	Response []float64
	Stimuli  []float64
}

func (f *Frame) String() string {
	return fmt.Sprintf(DefaultFrameFormat, f.Number)
}

// ResponseTrace returns the response channel as a labelled trace.
func (f *Frame) ResponseTrace() *Trace {
	tr := NewTrace(f.Time, f.Response)
	tr.AppendLabel(LabelNameFrame, fmt.Sprint(f.Number))
	tr.AppendLabel(LabelNameChannel, ChannelResponse)
	return tr
}

func GetValueByName(labels []Label, name string) string {
	for _, v := range labels {
		if v.Name == name {
			return v.Value
		}
	}

	return ""
}
