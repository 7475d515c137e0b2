package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"k8s.io/klog/v2"

	"github.com/neubio/neubio/cmd/neubio/app"
	"github.com/neubio/neubio/pkg/utils"
)

// neubio main.
func main() {
	klog.InitFlags(flag.CommandLine)
	defer klog.Flush()

	ctx := utils.SetupSignalContext(context.Background())

	root := app.NewRootCommand(ctx)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		klog.Flush()
		os.Exit(1)
	}
}
