package providers

import "fmt"

// Format names an on-disk frame layout.
type Format string

const (
	FormatSignal3 Format = "signal3"
	FormatCSV     Format = "csv"
)

// ParseFormat maps a format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatSignal3, FormatCSV:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown frame format %q", s)
}
