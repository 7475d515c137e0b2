package providers

import (
	"github.com/neubio/neubio/pkg/common"
)

// Interface is a source of recorded frames, such as a Signal3 ASCII export or a
// directory of per-frame CSV files.
type Interface interface {
	// Frames returns the frames numbered start through end, both inclusive, in
	// ascending order. A negative end selects through the last frame. Frame numbers
	// missing from the source are skipped.
	Frames(start, end int) ([]*common.Frame, error)

	// Numbers returns the frame numbers available in the source in ascending order.
	Numbers() []int
}
