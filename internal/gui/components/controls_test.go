package components

import (
	"testing"
	"time"

	"stereo-depth/internal/models"
	"stereo-depth/internal/pipeline"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
)

func TestControlsPanelTracksSettings(t *testing.T) {
	test.NewTempApp(t)

	engines := []string{models.EngineEdgeBounded, models.EngineLocalWindow}
	panel := NewControlsPanel(engines, models.DefaultStereoSettings())

	panel.MaxDisparity.SetValue(12)
	panel.WindowSize.SetValue(5)
	panel.Bands.SetValue(4)
	panel.PerChannel.SetChecked(true)

	settings := panel.Settings()
	assert.Equal(t, 12, settings.MaxDisparity)
	assert.Equal(t, 5, settings.WindowSize)
	assert.Equal(t, 4, settings.Bands)
	assert.True(t, settings.PerChannel)

	var changed string
	panel.SetEngineChangeHandler(func(engine string) { changed = engine })
	panel.EngineSelect.SetSelected(models.EngineEdgeBounded)

	assert.Equal(t, models.EngineEdgeBounded, changed)
	assert.Equal(t, 1, panel.Settings().Bands)
	assert.True(t, panel.Bands.Disabled())
}

func TestControlsPanelButtons(t *testing.T) {
	test.NewTempApp(t)

	panel := NewControlsPanel([]string{models.EngineLocalWindow}, models.DefaultStereoSettings())

	computed := 0
	panel.SetComputeHandler(func() { computed++ })
	test.Tap(panel.ComputeButton)
	assert.Equal(t, 1, computed)

	panel.SetBusy(true)
	assert.True(t, panel.ComputeButton.Disabled())
	panel.SetBusy(false)
	assert.False(t, panel.ComputeButton.Disabled())

	// unset handlers are ignored
	test.Tap(panel.LoadButton)
}

func TestStatusBarMetrics(t *testing.T) {
	test.NewTempApp(t)

	bar := NewStatusBar()
	bar.SetStatus("Computation completed")
	bar.SetMetrics(pipeline.DisparityStats{Min: 0, Max: 0.5, Mean: 0.25, Coverage: 0.8}, 20, 1500*time.Millisecond)

	assert.Equal(t, "Computation completed", bar.Status())
	assert.Equal(t, "Range: 0-10 px", bar.rangeLabel.Text)
	assert.Equal(t, "Mean: 5.00 px (80% matched)", bar.averageLabel.Text)
	assert.Equal(t, "Time: 1.5s", bar.timeLabel.Text)
}
