package plot

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/neubio/neubio/pkg/batch"
	"github.com/neubio/neubio/pkg/common"
)

// Trace draws a trace as a line on a time axis.
func Trace(line *charts.Line, name string, trace *common.Trace, color string) {
	data := make([]opts.LineData, 0, trace.Len())
	for _, s := range trace.Samples {
		data = append(data, opts.LineData{Value: []interface{}{s.Timestamp, s.Value}, Symbol: "none"})
	}
	line.AddSeries(name, data, charts.WithLineStyleOpts(opts.LineStyle{Color: color, Width: 1}))
}

// Result draws the measured and filtered traces of one pulse, its peak and the fitted
// slope segment.
func Result(line *charts.Line, res *batch.Result) {
	if res.Trace == nil {
		return
	}
	name := fmt.Sprintf(common.DefaultFrameFormat, res.Frame)
	if res.Pulse > 0 {
		name = fmt.Sprintf("%s/%d", name, res.Pulse+1)
	}
	Trace(line, name, res.Trace, "")
	if res.Filtered != nil && res.Filtered != res.Trace {
		Trace(line, name+" filtered", res.Filtered, "")
	}
	if res.Fit == nil {
		return
	}

	peak := res.Trace.Samples[res.PeakIndex]
	line.AddSeries(name+" peak", []opts.LineData{{
		Value:      []interface{}{peak.Timestamp, peak.Value},
		Symbol:     "pin",
		SymbolSize: 20,
	}})

	t, y := res.Fit.Line()
	line.AddSeries(name+" slope", []opts.LineData{
		{Value: []interface{}{t[0], y[0]}, Symbol: "none"},
		{Value: []interface{}{t[1], y[1]}, Symbol: "none"},
	}, charts.WithLineStyleOpts(opts.LineStyle{Width: 3, Type: "dashed"}))
}

// Group draws every analyzed pulse of a report on one chart.
func Group(report *batch.Report) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "1200px", Theme: types.ThemeRoma}),
		charts.WithTitleOpts(opts.Title{
			Title:    report.Group,
			Subtitle: fmt.Sprintf("%d pulses, %d failed, %d discarded", len(report.Results), report.Failed, report.Discarded),
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "time (s)", Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "response"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside"}),
	)
	for _, res := range report.Results {
		Result(line, res)
	}
	return line
}

// Render writes an HTML page holding one chart per report.
func Render(w io.Writer, reports ...*batch.Report) error {
	page := components.NewPage()
	page.PageTitle = "neubio"
	for _, report := range reports {
		page.AddCharts(Group(report))
	}
	return page.Render(w)
}
