package components

import (
	"fmt"
	"time"

	"stereo-depth/internal/pipeline"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

type StatusBar struct {
	container    *fyne.Container
	statusLabel  *widget.Label
	rangeLabel   *widget.Label
	averageLabel *widget.Label
	timeLabel    *widget.Label
}

func NewStatusBar() *StatusBar {
	statusLabel := widget.NewLabel("Ready")
	rangeLabel := widget.NewLabel("Range: --")
	averageLabel := widget.NewLabel("Mean: --")
	timeLabel := widget.NewLabel("Time: --")

	metricsContainer := container.NewHBox(
		rangeLabel,
		widget.NewSeparator(),
		averageLabel,
		widget.NewSeparator(),
		timeLabel,
	)

	mainContainer := container.NewBorder(
		nil, nil,
		statusLabel,
		metricsContainer,
	)

	return &StatusBar{
		container:    mainContainer,
		statusLabel:  statusLabel,
		rangeLabel:   rangeLabel,
		averageLabel: averageLabel,
		timeLabel:    timeLabel,
	}
}

func (sb *StatusBar) GetContainer() *fyne.Container {
	return sb.container
}

func (sb *StatusBar) Status() string {
	return sb.statusLabel.Text
}

func (sb *StatusBar) SetStatus(status string) {
	sb.statusLabel.SetText(status)
}

// SetMetrics shows disparity statistics in pixels.
func (sb *StatusBar) SetMetrics(stats pipeline.DisparityStats, maxDisparity int, elapsed time.Duration) {
	scale := float64(maxDisparity)
	sb.rangeLabel.SetText(fmt.Sprintf("Range: %.0f-%.0f px", stats.Min*scale, stats.Max*scale))
	sb.averageLabel.SetText(fmt.Sprintf("Mean: %.2f px (%.0f%% matched)", stats.Mean*scale, stats.Coverage*100))
	sb.timeLabel.SetText(fmt.Sprintf("Time: %s", elapsed.Round(time.Millisecond)))
}
