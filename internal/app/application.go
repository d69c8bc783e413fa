// Package app wires the stereo viewer window to the engine registry and
// services.
package app

import (
	"context"

	"stereo-depth/internal/algorithms"
	"stereo-depth/internal/gui"
	"stereo-depth/internal/gui/widgets"
	"stereo-depth/internal/logger"
	"stereo-depth/internal/models"
	"stereo-depth/internal/opencv"
	"stereo-depth/internal/pipeline"
	"stereo-depth/internal/processing"
	"stereo-depth/internal/services"
	"stereo-depth/internal/shutdown"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
)

const (
	AppName         = "Stereo Depth"
	AppID           = "com.imageprocessing.stereodepth"
	AppVersion      = "1.0.0"
	StatusBarHeight = 40
	ControlsHeight  = 120
)

type Options struct {
	Settings     models.StereoSettings
	LeftPath     string
	RightPath    string
	OpenCVDecode bool
}

type Application struct {
	fyneApp    fyne.App
	window     fyne.Window
	guiManager *gui.Manager
	controller *gui.Controller
	stereo     *services.StereoService
	shutdown   *shutdown.Manager
	logger     logger.Logger
	options    Options
}

func NewApplication(ctx context.Context, options Options, log logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.Nop()
	}
	if err := options.Settings.Validate(); err != nil {
		return nil, err
	}

	fyneApp := app.NewWithID(AppID)
	window := fyneApp.NewWindow(AppName)
	window.Resize(calculateWindowSize())
	window.CenterOnScreen()
	window.SetMaster()

	log.Info("Application", "starting application", map[string]interface{}{
		"version": AppVersion,
		"engine":  options.Settings.Engine,
	})

	shutdownManager := shutdown.NewManager(ctx, log)

	engineManager := algorithms.NewManager(log)
	engineManager.RegisterDetector(models.DetectorCanny, opencv.NewCannyFactory)
	if err := engineManager.SetCurrentEngine(options.Settings.Engine); err != nil {
		return nil, err
	}

	loaderOptions := pipeline.LoaderOptions{
		Scale:     options.Settings.Scale,
		Grayscale: options.Settings.Grayscale,
	}
	if options.OpenCVDecode {
		loaderOptions.Decode = opencv.ReadImage
	}

	repository := models.NewPairRepository()
	imageService := services.NewImageService(
		pipeline.NewLoader(log, loaderOptions),
		pipeline.NewSaver(log),
		repository,
		log,
	)
	stereoService := services.NewStereoService(engineManager, repository, log)
	stereoService.SetFilters(
		processing.NewChain(opencv.NewGaussianFilter()),
		processing.NewChain(opencv.NewMedianFilter()),
	)

	initial := options.Settings
	initial.Engine = stereoService.CurrentEngine()
	guiManager := gui.NewManager(window, stereoService.AvailableEngines(), initial, log)
	controller := gui.NewController(shutdownManager.Context(), guiManager, imageService, stereoService, log)

	// stopped in reverse: controller first, services last
	shutdownManager.Register(stereoService)
	shutdownManager.Register(shutdown.Func(guiManager.Shutdown))
	shutdownManager.Register(shutdown.Func(controller.Shutdown))

	log.Info("Application", "initialization complete", nil)

	return &Application{
		fyneApp:    fyneApp,
		window:     window,
		guiManager: guiManager,
		controller: controller,
		stereo:     stereoService,
		shutdown:   shutdownManager,
		logger:     log,
		options:    options,
	}, nil
}

func calculateWindowSize() fyne.Size {
	// three image panes side by side
	return fyne.NewSize(
		float32(widgets.ImageAreaWidth*3),
		float32(widgets.ImageAreaHeight+ControlsHeight+StatusBarHeight),
	)
}

// Run shows the window and blocks until it is closed or a shutdown signal
// arrives.
func (a *Application) Run() error {
	stop := a.shutdown.Listen()
	defer stop()

	a.window.SetCloseIntercept(func() {
		a.logger.Info("Application", "shutdown requested", nil)
		a.shutdown.Shutdown()
		a.window.Close()
	})

	go func() {
		<-a.shutdown.Done()
		fyne.Do(a.fyneApp.Quit)
	}()

	a.window.SetContent(a.guiManager.GetMainContainer())

	if a.options.LeftPath != "" && a.options.RightPath != "" {
		a.controller.LoadPair(a.options.LeftPath, a.options.RightPath)
	}

	a.window.Show()
	a.logger.Info("Application", "GUI displayed", nil)
	a.fyneApp.Run()

	a.shutdown.Shutdown()
	return nil
}
