package analysis

import "fmt"

// DiagnosticKind classifies a non-fatal condition met during analysis.
type DiagnosticKind string

const (
	// DiagnosticAmbiguousPeak fires when several candidates qualify and the earliest is kept.
	DiagnosticAmbiguousPeak DiagnosticKind = "AmbiguousPeak"

	// DiagnosticPolarityInverted fires when the trace was negated before the search.
	DiagnosticPolarityInverted DiagnosticKind = "PolarityInverted"

	// DiagnosticPolarityRetry fires when constrained detection retried on the negated trace.
	DiagnosticPolarityRetry DiagnosticKind = "PolarityRetry"

	DiagnosticSamplingInterval DiagnosticKind = "SamplingInterval"
	DiagnosticIntensityWindow  DiagnosticKind = "IntensityWindow"
)

// Diagnostic is one structured message emitted by the detector or the extractor.
type Diagnostic struct {
	Kind    DiagnosticKind
	Message string
	Fields  map[string]interface{}
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s %v", d.Kind, d.Message, d.Fields)
}

// DiagnosticSink receives diagnostics as they are emitted.
type DiagnosticSink func(Diagnostic)

// Option customizes a single DetectPeak or ExtractSlope call.
type Option func(*options)

type options struct {
	sink DiagnosticSink
}

// WithSink forwards every diagnostic to sink in addition to attaching it to the result.
func WithSink(sink DiagnosticSink) Option {
	return func(o *options) {
		o.sink = sink
	}
}

type recorder struct {
	sink        DiagnosticSink
	diagnostics []Diagnostic
}

func newRecorder(opts []Option) *recorder {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return &recorder{sink: o.sink}
}

func (r *recorder) emit(kind DiagnosticKind, msg string, keysAndValues ...interface{}) {
	d := Diagnostic{Kind: kind, Message: msg, Fields: map[string]interface{}{}}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		d.Fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	r.diagnostics = append(r.diagnostics, d)
	if r.sink != nil {
		r.sink(d)
	}
}
