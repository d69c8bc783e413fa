package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

const AppVersion = "1.0.0"

func main() {
	runtime.GOMAXPROCS(runtime.NumCPU())

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "stereo-depth",
		Short:         "Compute disparity maps from rectified stereo pairs",
		Version:       AppVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newComputeCommand())
	root.AddCommand(newEnginesCommand())

	return root
}
