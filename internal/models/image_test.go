package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewImageIsZeroFilled(t *testing.T) {
	img := NewImage(4, 3, 2)

	assert.Equal(t, 4, img.Width())
	assert.Equal(t, 3, img.Height())
	assert.Equal(t, 2, img.NumChannels())
	for c := 0; c < img.NumChannels(); c++ {
		assert.Len(t, img.Channel(c), 12)
		for _, v := range img.Channel(c) {
			assert.Zero(t, v)
		}
	}
}

func TestNewImageFromChannelsRejectsShortChannel(t *testing.T) {
	_, err := NewImageFromChannels(2, 2, []float64{0, 0, 0})
	require.Error(t, err)

	img, err := NewImageFromChannels(2, 1, []float64{0.25, 0.5})
	require.NoError(t, err)
	assert.Equal(t, 0.5, img.At(0, 1, 0))
}

func TestGrayscaleBytesRoundsHalfToEven(t *testing.T) {
	img, err := NewImageFromChannels(5, 1, []float64{0, 1, 0.5, -0.2, 1.4})
	require.NoError(t, err)

	// 255*0.5 = 127.5 rounds to the even neighbour
	assert.Equal(t, []byte{0, 255, 128, 0, 255}, img.GrayscaleBytes(0))
}

func TestResolveChannelFallsBackToZero(t *testing.T) {
	img := NewImage(1, 1, 3)

	assert.Equal(t, 2, img.ResolveChannel(2))
	assert.Equal(t, 0, img.ResolveChannel(3))
	assert.Equal(t, 0, img.ResolveChannel(-1))
}

func TestGrayscaleUsesLuminosityWeights(t *testing.T) {
	img := NewImage(1, 1, 3)
	img.Set(0, 0, 0, 1)
	img.Set(1, 0, 0, 1)
	img.Set(2, 0, 0, 1)

	gray := img.Grayscale()
	require.Equal(t, 1, gray.NumChannels())
	assert.InDelta(t, 1.0, gray.At(0, 0, 0), 1e-9)

	img.Set(1, 0, 0, 0)
	img.Set(2, 0, 0, 0)
	assert.InDelta(t, 0.299, img.Grayscale().At(0, 0, 0), 1e-9)
}

func TestCloneIsIndependent(t *testing.T) {
	img := NewImage(2, 2, 1)
	clone := img.Clone()
	clone.Set(0, 1, 1, 0.75)

	assert.Zero(t, img.At(0, 1, 1))
	assert.True(t, img.SameSize(clone))
	assert.False(t, img.SameSize(NewImage(2, 3, 1)))
	assert.False(t, img.SameSize(nil))
}

func TestPairRepositoryBoundsHistory(t *testing.T) {
	repo := NewPairRepository()
	_, ok := repo.Latest()
	assert.False(t, ok)

	for i := 0; i < 15; i++ {
		repo.AddResult(StereoResult{RunID: string(rune('a' + i))})
	}

	assert.Len(t, repo.History(), 10)
	latest, ok := repo.Latest()
	require.True(t, ok)
	assert.Equal(t, string(rune('a'+14)), latest.RunID)
}

func TestDefaultSettingsAreValid(t *testing.T) {
	require.NoError(t, DefaultStereoSettings().Validate())
}

func TestValidateRejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*StereoSettings)
		param  string
	}{
		{"unknown engine", func(s *StereoSettings) { s.Engine = "graph-cut" }, "engine"},
		{"negative disparity", func(s *StereoSettings) { s.MaxDisparity = -1 }, "max_disparity"},
		{"zero window", func(s *StereoSettings) { s.WindowSize = 0 }, "window_size"},
		{"zero bands", func(s *StereoSettings) { s.Bands = 0 }, "bands"},
		{"unknown detector", func(s *StereoSettings) { s.EdgeDetector = "sobel" }, "edge_detector"},
		{"scale above one", func(s *StereoSettings) { s.Scale = 1.5 }, "scale"},
		{"even median", func(s *StereoSettings) { s.MedianSize = 4 }, "median_size"},
		{"large median", func(s *StereoSettings) { s.MedianSize = 7 }, "median_size"},
		{"unknown log format", func(s *StereoSettings) { s.LogFormat = "xml" }, "log_format"},
		{"negative blur", func(s *StereoSettings) { s.PreBlurSigma = -0.5 }, "pre_blur_sigma"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultStereoSettings()
			tt.mutate(&s)

			err := s.Validate()
			require.Error(t, err)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.param, verr.Parameter)
		})
	}
}
