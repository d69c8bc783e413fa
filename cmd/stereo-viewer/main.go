package main

import (
	"fmt"
	"os"
	"runtime"

	"stereo-depth/internal/app"
	"stereo-depth/internal/config"
	"stereo-depth/internal/logger"

	"github.com/spf13/cobra"
)

func main() {
	runtime.GOMAXPROCS(runtime.NumCPU())

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string
	var openCVDecode bool

	cmd := &cobra.Command{
		Use:           "stereo-viewer [left right]",
		Short:         "Show a stereo pair and its disparity map",
		Version:       app.AppVersion,
		Args:          cobra.MatchAll(cobra.MaximumNArgs(2), pairArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load(configPath)
			if err != nil {
				return err
			}

			log, err := logger.New(settings.LogFormat, settings.LogLevel)
			if err != nil {
				return err
			}

			options := app.Options{
				Settings:     settings,
				OpenCVDecode: openCVDecode,
			}
			if len(args) == 2 {
				options.LeftPath, options.RightPath = args[0], args[1]
			}

			application, err := app.NewApplication(cmd.Context(), options, log)
			if err != nil {
				return fmt.Errorf("application initialization failed: %w", err)
			}
			return application.Run()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "TOML settings file")
	cmd.Flags().BoolVar(&openCVDecode, "opencv-decode", false, "decode inputs with OpenCV")

	return cmd
}

// pairArgs accepts no paths or exactly a left and right path.
func pairArgs(_ *cobra.Command, args []string) error {
	if len(args) == 1 {
		return fmt.Errorf("expected both a left and a right image, got %q", args[0])
	}
	return nil
}
