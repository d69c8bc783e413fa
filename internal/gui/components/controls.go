package components

import (
	"fmt"

	"stereo-depth/internal/models"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// uiMaxDisparity caps the slider; larger values are reachable from the
// config file.
const uiMaxDisparity = 128

type ControlsPanel struct {
	container *fyne.Container
	settings  models.StereoSettings

	EngineSelect  *widget.Select
	MaxDisparity  *widget.Slider
	WindowSize    *widget.Slider
	Bands         *widget.Slider
	PerChannel    *widget.Check
	LoadButton    *widget.Button
	ComputeButton *widget.Button
	SaveButton    *widget.Button

	disparityLabel *widget.Label
	windowLabel    *widget.Label
	bandsLabel     *widget.Label

	loadHandler    func()
	computeHandler func()
	saveHandler    func()
	engineHandler  func(string)
}

func NewControlsPanel(engines []string, settings models.StereoSettings) *ControlsPanel {
	panel := &ControlsPanel{settings: settings}
	panel.setupControls(engines)
	return panel
}

func newSlider(r models.ParameterRange, max int, value int, changed func(int)) *widget.Slider {
	if r.Max < max {
		max = r.Max
	}
	slider := widget.NewSlider(float64(r.Min), float64(max))
	slider.Step = 1
	slider.Value = float64(value)
	slider.OnChanged = func(v float64) { changed(int(v)) }
	return slider
}

func (cp *ControlsPanel) setupControls(engines []string) {
	ranges := models.Ranges()

	cp.disparityLabel = widget.NewLabel("")
	cp.windowLabel = widget.NewLabel("")
	cp.bandsLabel = widget.NewLabel("")

	cp.EngineSelect = widget.NewSelect(engines, cp.onEngineSelected)
	cp.EngineSelect.Selected = cp.settings.Engine

	cp.MaxDisparity = newSlider(ranges["max_disparity"], uiMaxDisparity, cp.settings.MaxDisparity, func(v int) {
		cp.settings.MaxDisparity = v
		cp.refreshLabels()
	})
	cp.WindowSize = newSlider(ranges["window_size"], 31, cp.settings.WindowSize, func(v int) {
		cp.settings.WindowSize = v
		cp.refreshLabels()
	})
	cp.Bands = newSlider(ranges["bands"], 32, cp.settings.Bands, func(v int) {
		cp.settings.Bands = v
		cp.refreshLabels()
	})

	cp.PerChannel = widget.NewCheck("Per channel", func(checked bool) {
		cp.settings.PerChannel = checked
	})
	cp.PerChannel.Checked = cp.settings.PerChannel

	cp.LoadButton = widget.NewButton("Load Pair", func() { callIfSet(cp.loadHandler) })
	cp.ComputeButton = widget.NewButton("Compute", func() { callIfSet(cp.computeHandler) })
	cp.ComputeButton.Importance = widget.HighImportance
	cp.SaveButton = widget.NewButton("Save Disparity", func() { callIfSet(cp.saveHandler) })

	cp.refreshLabels()

	parameters := container.NewGridWithColumns(2,
		cp.disparityLabel, cp.MaxDisparity,
		cp.windowLabel, cp.WindowSize,
		cp.bandsLabel, cp.Bands,
	)

	cp.container = container.NewVBox(
		container.NewHBox(cp.LoadButton, cp.SaveButton, widget.NewSeparator(), cp.EngineSelect, cp.PerChannel, cp.ComputeButton),
		parameters,
	)
}

func callIfSet(handler func()) {
	if handler != nil {
		handler()
	}
}

func (cp *ControlsPanel) refreshLabels() {
	cp.disparityLabel.SetText(fmt.Sprintf("Max disparity: %d", cp.settings.MaxDisparity))
	cp.windowLabel.SetText(fmt.Sprintf("Window size: %d", cp.settings.WindowSize))
	cp.bandsLabel.SetText(fmt.Sprintf("Bands: %d", cp.settings.Bands))
}

func (cp *ControlsPanel) onEngineSelected(engine string) {
	cp.settings.Engine = engine

	// edge-bounded windows cannot be split into bands
	if engine == models.EngineEdgeBounded {
		cp.Bands.SetValue(1)
		cp.Bands.Disable()
		cp.WindowSize.Disable()
	} else {
		cp.Bands.Enable()
		cp.WindowSize.Enable()
	}

	if cp.engineHandler != nil {
		cp.engineHandler(engine)
	}
}

func (cp *ControlsPanel) GetContainer() *fyne.Container {
	return cp.container
}

// Settings returns the settings as currently shown.
func (cp *ControlsPanel) Settings() models.StereoSettings {
	return cp.settings
}

func (cp *ControlsPanel) SetLoadHandler(handler func()) {
	cp.loadHandler = handler
}

func (cp *ControlsPanel) SetComputeHandler(handler func()) {
	cp.computeHandler = handler
}

func (cp *ControlsPanel) SetSaveHandler(handler func()) {
	cp.saveHandler = handler
}

func (cp *ControlsPanel) SetEngineChangeHandler(handler func(string)) {
	cp.engineHandler = handler
}

// SetBusy disables the action buttons while a computation runs.
func (cp *ControlsPanel) SetBusy(busy bool) {
	for _, b := range []*widget.Button{cp.LoadButton, cp.ComputeButton, cp.SaveButton} {
		if busy {
			b.Disable()
		} else {
			b.Enable()
		}
	}
}
