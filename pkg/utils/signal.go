package utils

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"k8s.io/klog/v2"
)

var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// SetupSignalContext returns a context cancelled on SIGINT or SIGTERM. A second signal
// exits the process with status 1.
func SetupSignalContext(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)

	shutdownHandler := make(chan os.Signal, 2)
	signal.Notify(shutdownHandler, shutdownSignals...)
	go func() {
		sig := <-shutdownHandler
		klog.InfoS("Interrupted, stopping the analysis", "signal", sig.String())
		cancel()
		<-shutdownHandler
		klog.Flush()
		os.Exit(1)
	}()

	return ctx
}
