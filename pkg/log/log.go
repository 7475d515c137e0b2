package log

import (
	"fmt"
	"sync"

	"github.com/go-logr/logr"
	"k8s.io/klog/v2/klogr"
)

var (
	once   sync.Once
	logger logr.Logger
)

// Logger returns the process logger, backed by klog so that -v applies to it.
func Logger() logr.Logger {
	once.Do(func() {
		logger = klogr.New()
	})
	return logger
}

func NewLogger(name string) logr.Logger {
	return Logger().WithName(name)
}

// FrameLogger carries the group, frame and pulse of the analyzed trace.
func FrameLogger(name, group string, frame, pulse int) logr.Logger {
	return NewLogger(name).WithValues("group", group, "frame", GenerateKey(frame, pulse))
}

// GenerateKey names a pulse of a frame, e.g. frame_12/2.
func GenerateKey(frame, pulse int) string {
	return fmt.Sprintf("frame_%d/%d", frame, pulse+1)
}
