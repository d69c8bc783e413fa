package main

import (
	"fmt"

	"stereo-depth/internal/algorithms"
	"stereo-depth/internal/config"
	"stereo-depth/internal/logger"
	"stereo-depth/internal/models"
	"stereo-depth/internal/opencv"
	"stereo-depth/internal/processing"

	"github.com/spf13/cobra"
)

func newEngineManager(log logger.Logger) *algorithms.Manager {
	manager := algorithms.NewManager(log)
	manager.RegisterDetector(models.DetectorCanny, opencv.NewCannyFactory)
	return manager
}

// newFilterChains returns the input and disparity filter chains.
func newFilterChains() (pre, post *processing.Chain) {
	return processing.NewChain(opencv.NewGaussianFilter()), processing.NewChain(opencv.NewMedianFilter())
}

func newEnginesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "engines",
		Short: "List the registered engines and edge detectors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			manager := newEngineManager(logger.Nop())
			settings, err := config.Load("")
			if err != nil {
				return err
			}
			if err := manager.SetCurrentEngine(settings.Engine); err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, "Engines:")
			for _, name := range manager.Available() {
				engine, err := manager.GetEngine(name)
				if err != nil {
					return err
				}
				marker := " "
				if name == manager.CurrentEngine() {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %-14s %s\n", marker, name, engine.GetDescription())
			}

			fmt.Fprintln(out, "Edge detectors:")
			for _, name := range manager.AvailableDetectors() {
				fmt.Fprintf(out, "  %s\n", name)
			}
			return nil
		},
	}
}
