package services

import (
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"stereo-depth/internal/algorithms"
	"stereo-depth/internal/algorithms/stereo"
	"stereo-depth/internal/models"
	"stereo-depth/internal/pipeline"
	"stereo-depth/internal/processing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSettings() models.StereoSettings {
	settings := models.DefaultStereoSettings()
	settings.Seed = 1
	settings.MaxDisparity = 4
	settings.WindowSize = 3
	return settings
}

func newService() *StereoService {
	return NewStereoService(algorithms.NewManager(nil), models.NewPairRepository(), nil)
}

func TestComputeRecordsResult(t *testing.T) {
	s := newService()
	img := models.NewImage(12, 10, 1)

	result, err := s.Compute(context.Background(), testSettings(), img, img.Clone())
	require.NoError(t, err)

	_, err = uuid.Parse(result.RunID)
	assert.NoError(t, err)
	assert.Equal(t, models.EngineLocalWindow, result.Engine)
	assert.True(t, result.Disparity.SameSize(img))

	history := s.History()
	require.Len(t, history, 1)
	assert.Equal(t, result.RunID, history[0].RunID)

	stats := s.Stats()
	assert.Equal(t, 1, stats.TotalProcessed)
	assert.Equal(t, 1, stats.SuccessfulRuns)
	assert.Zero(t, stats.FailedRuns)
}

func TestComputeFailures(t *testing.T) {
	s := newService()
	left := models.NewImage(12, 10, 1)

	_, err := s.Compute(context.Background(), testSettings(), left, models.NewImage(12, 11, 1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, stereo.ErrDimensionMismatch))

	bad := testSettings()
	bad.MaxDisparity = -1
	_, err = s.Compute(context.Background(), bad, left, left)
	require.Error(t, err)
	var ve *models.ValidationError
	assert.True(t, errors.As(err, &ve))

	stats := s.Stats()
	assert.Equal(t, 2, stats.TotalProcessed)
	assert.Equal(t, 2, stats.FailedRuns)
	assert.Empty(t, s.History())
}

// fillStep replaces every sample with value when the median filter is on.
type fillStep struct {
	value float64
	runs  int
}

func (f *fillStep) Name() string { return "fill" }

func (f *fillStep) ShouldExecute(settings models.StereoSettings) bool {
	return settings.MedianSize > 1
}

func (f *fillStep) Apply(_ context.Context, input *models.Image, _ models.StereoSettings) (*models.Image, error) {
	f.runs++
	out := models.NewImage(input.Width(), input.Height(), input.NumChannels())
	for i := range out.Channel(0) {
		out.Channel(0)[i] = f.value
	}
	return out, nil
}

func TestComputeRunsFilters(t *testing.T) {
	s := newService()
	pre := &fillStep{value: 0.5}
	post := &fillStep{value: 0.75}
	s.SetFilters(processing.NewChain(pre), processing.NewChain(post))

	left := models.NewImage(12, 10, 1)
	right := models.NewImage(12, 10, 1)
	right.Set(0, 3, 3, 1)

	settings := testSettings()
	result, err := s.Compute(context.Background(), settings, left, right)
	require.NoError(t, err)
	assert.Zero(t, pre.runs)
	assert.Zero(t, post.runs)

	settings.MedianSize = 3
	result, err = s.Compute(context.Background(), settings, left, right)
	require.NoError(t, err)
	assert.Equal(t, 2, pre.runs)
	assert.Equal(t, 1, post.runs)
	for _, v := range result.Disparity.Channel(0) {
		assert.Equal(t, 0.75, v)
	}
	assert.Equal(t, 1.0, right.At(0, 3, 3))
}

func TestComputeHonoursContext(t *testing.T) {
	s := newService()
	img := models.NewImage(4, 4, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Compute(ctx, testSettings(), img, img)
	assert.ErrorIs(t, err, context.Canceled)

	// hold the only slot so the next call has to wait
	s.SetWorkerCount(1)
	<-s.workerPool
	defer func() { s.workerPool <- struct{}{} }()

	ctx, cancel = context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = s.Compute(ctx, testSettings(), img, img)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, s.Stats().TotalProcessed)
}

func TestWorkerCountBounds(t *testing.T) {
	s := newService()
	s.SetWorkerCount(0)
	assert.Equal(t, 1, s.GetWorkerCount())
	s.SetWorkerCount(1 << 20)
	assert.LessOrEqual(t, s.GetWorkerCount(), 1<<20)
	assert.Positive(t, s.GetWorkerCount())
}

func TestShutdownRejectsWork(t *testing.T) {
	s := newService()
	s.Shutdown()
	s.Shutdown()

	img := models.NewImage(4, 4, 1)
	_, err := s.Compute(context.Background(), testSettings(), img, img)
	assert.ErrorIs(t, err, ErrServiceClosed)
}

func TestComputeCurrentPair(t *testing.T) {
	repo := models.NewPairRepository()
	s := NewStereoService(algorithms.NewManager(nil), repo, nil)

	_, err := s.ComputeCurrentPair(context.Background(), testSettings())
	assert.Error(t, err)

	img := models.NewImage(8, 8, 3)
	repo.SetPair(&models.StereoPair{Left: img, Right: img.Clone()})

	settings := testSettings()
	settings.PerChannel = true
	result, err := s.ComputeCurrentPair(context.Background(), settings)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Disparity.NumChannels())
	assert.Contains(t, s.AvailableEngines(), models.EngineEdgeBounded)
}

func TestImageServiceLoadAndSave(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"l.png", "r.png"} {
		f, err := os.Create(filepath.Join(dir, name))
		require.NoError(t, err)
		require.NoError(t, png.Encode(f, image.NewGray(image.Rect(0, 0, 10, 8))))
		require.NoError(t, f.Close())
	}

	repo := models.NewPairRepository()
	images := NewImageService(
		pipeline.NewLoader(nil, pipeline.LoaderOptions{}),
		pipeline.NewSaver(nil),
		repo,
		nil,
	)

	pair, err := images.LoadPair(context.Background(), filepath.Join(dir, "l.png"), filepath.Join(dir, "r.png"))
	require.NoError(t, err)
	assert.Same(t, pair, images.CurrentPair())

	s := NewStereoService(algorithms.NewManager(nil), repo, nil)
	result, err := s.ComputeCurrentPair(context.Background(), testSettings())
	require.NoError(t, err)

	out := filepath.Join(dir, "disparity.png")
	require.NoError(t, images.SaveDisparity(context.Background(), out, result))
	_, err = os.Stat(out)
	assert.NoError(t, err)

	assert.Error(t, images.SaveDisparity(context.Background(), out, nil))
	assert.True(t, images.ValidateImageFormat("png"))
	assert.Contains(t, images.GetSupportedFormats(), "bmp")
}

func TestSelectEngine(t *testing.T) {
	s := newService()
	assert.Equal(t, models.EngineLocalWindow, s.CurrentEngine())

	require.NoError(t, s.SelectEngine(models.EngineEdgeBounded))
	assert.Equal(t, models.EngineEdgeBounded, s.CurrentEngine())

	assert.Error(t, s.SelectEngine("graph-cut"))
	assert.Equal(t, models.EngineEdgeBounded, s.CurrentEngine())
}
