package main

import (
	"fmt"

	"stereo-depth/internal/config"
	"stereo-depth/internal/logger"
	"stereo-depth/internal/models"
	"stereo-depth/internal/opencv"
	"stereo-depth/internal/pipeline"
	"stereo-depth/internal/services"
	"stereo-depth/internal/shutdown"

	"github.com/spf13/cobra"
)

// defaultBadPixelThreshold is in pixels of disparity.
const defaultBadPixelThreshold = 1.0

type computeOptions struct {
	left         string
	right        string
	out          string
	configPath   string
	groundTruth  string
	badThreshold float64
	openCVDecode bool

	engine       string
	maxDisparity int
	window       int
	bands        int
	perChannel   bool
	grayscale    bool
	detector     string
	threshold    int
	seed         int64
	scale        float64
	logLevel     string
	logFormat    string
	preBlur      float64
	median       int
}

func newComputeCommand() *cobra.Command {
	return computeCommand(&computeOptions{})
}

func computeCommand(opts *computeOptions) *cobra.Command {
	defaults := models.DefaultStereoSettings()

	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Compute a disparity map for a left/right pair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCompute(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.left, "left", "", "left image path")
	flags.StringVar(&opts.right, "right", "", "right image path")
	flags.StringVarP(&opts.out, "out", "o", "disparity.png", "output disparity map path")
	flags.StringVarP(&opts.configPath, "config", "c", "", "TOML settings file")
	flags.StringVar(&opts.groundTruth, "ground-truth", "", "ground truth disparity map to score against")
	flags.Float64Var(&opts.badThreshold, "bad-threshold", defaultBadPixelThreshold, "error in pixels above which a pixel counts as bad")
	flags.BoolVar(&opts.openCVDecode, "opencv-decode", false, "decode inputs with OpenCV")

	flags.StringVarP(&opts.engine, "engine", "e", defaults.Engine, "engine: local-window|edge-bounded")
	flags.IntVarP(&opts.maxDisparity, "max-disparity", "d", defaults.MaxDisparity, "largest disparity searched, in pixels")
	flags.IntVarP(&opts.window, "window", "w", defaults.WindowSize, "local window size")
	flags.IntVarP(&opts.bands, "bands", "b", defaults.Bands, "horizontal bands computed in parallel")
	flags.BoolVar(&opts.perChannel, "per-channel", defaults.PerChannel, "match each colour channel and average")
	flags.BoolVar(&opts.grayscale, "grayscale", defaults.Grayscale, "convert inputs to a single channel")
	flags.StringVar(&opts.detector, "edge-detector", defaults.EdgeDetector, "edge detector for edge-bounded: susan|canny")
	flags.IntVar(&opts.threshold, "edge-threshold", defaults.EdgeThreshold, "edge detector threshold")
	flags.Int64Var(&opts.seed, "seed", defaults.Seed, "random seed, 0 seeds from the clock")
	flags.Float64Var(&opts.scale, "scale", defaults.Scale, "downscale factor in (0,1]")
	flags.StringVar(&opts.logLevel, "log-level", defaults.LogLevel, "debug|info|warn|error")
	flags.StringVar(&opts.logFormat, "log-format", defaults.LogFormat, "console|json")
	flags.Float64Var(&opts.preBlur, "pre-blur", defaults.PreBlurSigma, "gaussian sigma applied to both inputs, 0 disables")
	flags.IntVar(&opts.median, "median", defaults.MedianSize, "median aperture applied to the result: 0, 3 or 5")

	_ = cmd.MarkFlagRequired("left")
	_ = cmd.MarkFlagRequired("right")

	return cmd
}

// resolveSettings layers explicitly set flags over the config file and
// environment.
func resolveSettings(cmd *cobra.Command, opts *computeOptions) (models.StereoSettings, error) {
	settings, err := config.Load(opts.configPath)
	if err != nil {
		return settings, err
	}

	flags := cmd.Flags()
	if flags.Changed("engine") {
		settings.Engine = opts.engine
	}
	if flags.Changed("max-disparity") {
		settings.MaxDisparity = opts.maxDisparity
	}
	if flags.Changed("window") {
		settings.WindowSize = opts.window
	}
	if flags.Changed("bands") {
		settings.Bands = opts.bands
	}
	if flags.Changed("per-channel") {
		settings.PerChannel = opts.perChannel
	}
	if flags.Changed("grayscale") {
		settings.Grayscale = opts.grayscale
	}
	if flags.Changed("edge-detector") {
		settings.EdgeDetector = opts.detector
	}
	if flags.Changed("edge-threshold") {
		settings.EdgeThreshold = opts.threshold
	}
	if flags.Changed("seed") {
		settings.Seed = opts.seed
	}
	if flags.Changed("scale") {
		settings.Scale = opts.scale
	}
	if flags.Changed("log-level") {
		settings.LogLevel = opts.logLevel
	}
	if flags.Changed("log-format") {
		settings.LogFormat = opts.logFormat
	}
	if flags.Changed("pre-blur") {
		settings.PreBlurSigma = opts.preBlur
	}
	if flags.Changed("median") {
		settings.MedianSize = opts.median
	}

	if err := settings.Validate(); err != nil {
		return settings, err
	}
	return settings, nil
}

func runCompute(cmd *cobra.Command, opts *computeOptions) error {
	settings, err := resolveSettings(cmd, opts)
	if err != nil {
		return err
	}
	log, err := logger.New(settings.LogFormat, settings.LogLevel)
	if err != nil {
		return err
	}
	if settings.PerChannel && settings.Grayscale {
		log.Warning("Compute", "per-channel matching on grayscale input runs a single channel", nil)
	}

	shutdownManager := shutdown.NewManager(cmd.Context(), log)
	stop := shutdownManager.Listen()
	defer stop()
	defer shutdownManager.Shutdown()

	engineManager := newEngineManager(log)
	if err := engineManager.ValidateSettings(settings); err != nil {
		return err
	}

	loaderOptions := pipeline.LoaderOptions{
		Scale:     settings.Scale,
		Grayscale: settings.Grayscale,
	}
	if opts.openCVDecode {
		loaderOptions.Decode = opencv.ReadImage
	}

	repository := models.NewPairRepository()
	loader := pipeline.NewLoader(log, loaderOptions)
	images := services.NewImageService(loader, pipeline.NewSaver(log), repository, log)
	stereoService := services.NewStereoService(engineManager, repository, log)
	stereoService.SetFilters(newFilterChains())
	shutdownManager.Register(stereoService)

	ctx := shutdownManager.Context()

	if _, err := images.LoadPair(ctx, opts.left, opts.right); err != nil {
		return err
	}

	result, err := stereoService.ComputeCurrentPair(ctx, settings)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("computation interrupted: %w", err)
		}
		return err
	}

	if err := images.SaveDisparity(ctx, opts.out, result); err != nil {
		return err
	}

	stats, err := pipeline.Summarize(result.Disparity)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	scale := float64(settings.MaxDisparity)
	fmt.Fprintf(out, "run:       %s\n", result.RunID)
	fmt.Fprintf(out, "engine:    %s\n", result.Engine)
	fmt.Fprintf(out, "size:      %dx%d\n", result.Disparity.Width(), result.Disparity.Height())
	fmt.Fprintf(out, "range:     %.0f-%.0f px\n", stats.Min*scale, stats.Max*scale)
	fmt.Fprintf(out, "mean:      %.2f px\n", stats.Mean*scale)
	fmt.Fprintf(out, "coverage:  %.1f%%\n", stats.Coverage*100)
	fmt.Fprintf(out, "time:      %s\n", result.ProcessTime)
	fmt.Fprintf(out, "output:    %s\n", opts.out)

	if opts.groundTruth == "" {
		return nil
	}

	truth, err := loader.LoadFile(opts.groundTruth)
	if err != nil {
		return fmt.Errorf("ground truth: %w", err)
	}
	metrics, err := pipeline.CompareDisparity(result.Disparity, truth, settings.MaxDisparity, opts.badThreshold)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "rmse:      %.3f px\n", metrics.RMSE)
	fmt.Fprintf(out, "bad:       %.1f%% (> %.1f px)\n", metrics.BadPixels*100, metrics.Threshold)

	return nil
}
