package gui

import (
	"image"
	"time"

	"stereo-depth/internal/gui/components"
	"stereo-depth/internal/gui/widgets"
	"stereo-depth/internal/logger"
	"stereo-depth/internal/models"
	"stereo-depth/internal/pipeline"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
)

// Manager owns the viewer's widgets. Every method is safe to call from any
// goroutine.
type Manager struct {
	window     fyne.Window
	logger     logger.Logger
	isShutdown bool

	display   *widgets.StereoDisplay
	controls  *components.ControlsPanel
	statusBar *components.StatusBar
}

func NewManager(window fyne.Window, engines []string, settings models.StereoSettings, log logger.Logger) *Manager {
	if log == nil {
		log = logger.Nop()
	}

	manager := &Manager{
		window:    window,
		logger:    log,
		display:   widgets.NewStereoDisplay(),
		controls:  components.NewControlsPanel(engines, settings),
		statusBar: components.NewStatusBar(),
	}

	log.Debug("GUIManager", "initialized", map[string]interface{}{
		"image_width":  widgets.ImageAreaWidth,
		"image_height": widgets.ImageAreaHeight,
		"engines":      len(engines),
	})

	return manager
}

func (m *Manager) GetMainContainer() *fyne.Container {
	return container.NewBorder(
		m.controls.GetContainer(),
		m.statusBar.GetContainer(),
		nil, nil,
		m.display.GetContainer(),
	)
}

func (m *Manager) GetWindow() fyne.Window {
	return m.window
}

func (m *Manager) Controls() *components.ControlsPanel {
	return m.controls
}

func (m *Manager) SetPair(left, right image.Image) {
	fyne.Do(func() {
		m.display.SetPair(left, right)
	})
}

func (m *Manager) SetDisparity(img image.Image) {
	fyne.Do(func() {
		m.display.SetDisparity(img)
	})
}

func (m *Manager) UpdateStatus(status string) {
	fyne.Do(func() {
		m.statusBar.SetStatus(status)
	})
	m.logger.Debug("GUIManager", "status updated", map[string]interface{}{
		"status": status,
	})
}

func (m *Manager) UpdateMetrics(stats pipeline.DisparityStats, maxDisparity int, elapsed time.Duration) {
	fyne.Do(func() {
		m.statusBar.SetMetrics(stats, maxDisparity, elapsed)
	})
}

func (m *Manager) SetBusy(busy bool) {
	fyne.Do(func() {
		m.controls.SetBusy(busy)
	})
}

func (m *Manager) ShowError(title string, err error) {
	m.logger.Error("GUIManager", err, map[string]interface{}{
		"title": title,
	})

	fyne.Do(func() {
		dialog.ShowError(err, m.window)
	})
}

func (m *Manager) ShowFileOpen(title string, callback func(path string)) {
	fyne.Do(func() {
		d := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
			if err != nil {
				m.ShowError(title, err)
				return
			}
			if reader == nil {
				return
			}
			path := reader.URI().Path()
			reader.Close()
			callback(path)
		}, m.window)
		d.Show()
	})
}

func (m *Manager) ShowFileSave(title string, callback func(path string)) {
	fyne.Do(func() {
		d := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
			if err != nil {
				m.ShowError(title, err)
				return
			}
			if writer == nil {
				return
			}
			path := writer.URI().Path()
			writer.Close()
			callback(path)
		}, m.window)
		d.SetFileName("disparity.png")
		d.Show()
	})
}

func (m *Manager) Shutdown() {
	if m.isShutdown {
		return
	}

	m.isShutdown = true
	m.logger.Debug("GUIManager", "shutdown initiated", nil)
}
