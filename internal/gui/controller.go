package gui

import (
	"context"
	"fmt"
	"sync"

	"stereo-depth/internal/logger"
	"stereo-depth/internal/models"
	"stereo-depth/internal/pipeline"
	"stereo-depth/internal/services"
)

// Controller connects the viewer's controls to the image and stereo
// services.
type Controller struct {
	view   *Manager
	images *services.ImageService
	stereo *services.StereoService
	logger logger.Logger

	ctx              context.Context
	processingActive bool
	latest           *models.StereoResult
	mu               sync.RWMutex
}

func NewController(ctx context.Context, view *Manager, images *services.ImageService, stereo *services.StereoService, log logger.Logger) *Controller {
	if log == nil {
		log = logger.Nop()
	}

	c := &Controller{
		view:   view,
		images: images,
		stereo: stereo,
		logger: log,
		ctx:    ctx,
	}

	controls := view.Controls()
	controls.SetLoadHandler(c.LoadPairDialog)
	controls.SetComputeHandler(c.Compute)
	controls.SetSaveHandler(c.SaveDialog)
	controls.SetEngineChangeHandler(c.SelectEngine)

	return c
}

// SelectEngine makes engine the current one. The controls only offer
// registered engines, so a failure is reported as an error dialog.
func (c *Controller) SelectEngine(engine string) {
	if err := c.stereo.SelectEngine(engine); err != nil {
		c.handleError("Engine selection error", err)
	}
}

// LoadPairDialog asks for the left view, then the right one.
func (c *Controller) LoadPairDialog() {
	c.view.ShowFileOpen("Left image", func(leftPath string) {
		c.view.ShowFileOpen("Right image", func(rightPath string) {
			c.LoadPair(leftPath, rightPath)
		})
	})
}

// LoadPair loads and displays a pair in the background.
func (c *Controller) LoadPair(leftPath, rightPath string) {
	c.view.UpdateStatus("Loading pair...")

	go func() {
		pair, err := c.images.LoadPair(c.ctx, leftPath, rightPath)
		if err != nil {
			c.handleError("Pair load error", err)
			c.view.UpdateStatus("Ready")
			return
		}

		c.showPair(pair)
	}()
}

func (c *Controller) showPair(pair *models.StereoPair) {
	left, err := pipeline.ToImage(pair.Left)
	if err != nil {
		c.handleError("Pair display error", err)
		c.view.UpdateStatus("Ready")
		return
	}
	right, err := pipeline.ToImage(pair.Right)
	if err != nil {
		c.handleError("Pair display error", err)
		c.view.UpdateStatus("Ready")
		return
	}

	c.view.SetPair(left, right)
	c.view.UpdateStatus(fmt.Sprintf("Loaded %dx%d pair", pair.Left.Width(), pair.Left.Height()))
}

// Compute runs the engine on the current pair with the settings shown in
// the controls.
func (c *Controller) Compute() {
	if !c.startProcessing() {
		c.logger.Debug("Controller", "computation already active", nil)
		return
	}

	settings := c.view.Controls().Settings()
	c.view.SetBusy(true)
	c.view.UpdateStatus("Computing disparity...")

	go func() {
		defer func() {
			c.setProcessing(false)
			c.view.SetBusy(false)
		}()

		result, err := c.stereo.ComputeCurrentPair(c.ctx, settings)
		if err != nil {
			c.handleError("Computation error", err)
			c.view.UpdateStatus("Computation failed")
			return
		}

		c.mu.Lock()
		c.latest = result
		c.mu.Unlock()

		c.view.SetDisparity(pipeline.ToGray(result.Disparity))
		if stats, err := pipeline.Summarize(result.Disparity); err == nil {
			c.view.UpdateMetrics(stats, settings.MaxDisparity, result.ProcessTime)
		}
		c.view.UpdateStatus("Computation completed")
	}()
}

func (c *Controller) SaveDialog() {
	if c.Latest() == nil {
		c.handleError("Save error", fmt.Errorf("no disparity map to save"))
		return
	}
	c.view.ShowFileSave("Save disparity", c.Save)
}

func (c *Controller) Save(path string) {
	result := c.Latest()

	go func() {
		if err := c.images.SaveDisparity(c.ctx, path, result); err != nil {
			c.handleError("Save error", err)
			return
		}
		c.view.UpdateStatus("Disparity saved")
	}()
}

// Latest returns the most recent result, or nil.
func (c *Controller) Latest() *models.StereoResult {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latest
}

func (c *Controller) handleError(title string, err error) {
	c.view.ShowError(title, err)
}

func (c *Controller) startProcessing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.processingActive {
		return false
	}
	c.processingActive = true
	return true
}

func (c *Controller) setProcessing(active bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.processingActive = active
}

func (c *Controller) Shutdown() {
	c.logger.Info("Controller", "shutdown completed", nil)
}
