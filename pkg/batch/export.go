package batch

import (
	"encoding/csv"
	"io"
	"strconv"
)

var exportHeader = []string{"run", "group", "frame", "pulse", "status", "peak_time", "amplitude", "slope", "r", "window_start", "window_end", "error"}

// WriteCSV writes one row per result of every report.
func WriteCSV(w io.Writer, reports ...*Report) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeader); err != nil {
		return err
	}
	for _, report := range reports {
		for _, res := range report.Results {
			if err := writer.Write(record(report, res)); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

func record(report *Report, res *Result) []string {
	status := "accepted"
	switch {
	case res.Err != nil:
		status = "failed"
	case res.Discarded:
		status = "discarded"
	}

	row := []string{report.RunID, report.Group, strconv.Itoa(res.Frame), strconv.Itoa(res.Pulse + 1), status}
	if res.Err != nil {
		return append(row, "", "", "", "", "", "", res.Err.Error())
	}
	return append(row,
		formatFloat(res.PeakTime),
		formatFloat(res.Amplitude),
		formatFloat(res.Slope),
		formatFloat(res.R),
		formatFloat(res.Window.StartTime),
		formatFloat(res.Window.EndTime),
		"",
	)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
