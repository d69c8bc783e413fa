package opencv

import (
	"context"
	"encoding/binary"
	"fmt"
	"image"
	"math"

	"stereo-depth/internal/models"

	"gocv.io/x/gocv"
)

// GaussianFilter smooths every channel of an input view.
type GaussianFilter struct{}

func NewGaussianFilter() *GaussianFilter {
	return &GaussianFilter{}
}

func (g *GaussianFilter) Name() string {
	return "gaussian_filter"
}

func (g *GaussianFilter) ShouldExecute(settings models.StereoSettings) bool {
	return settings.PreBlurSigma > 0
}

func (g *GaussianFilter) Apply(ctx context.Context, input *models.Image, settings models.StereoSettings) (*models.Image, error) {
	sigma := settings.PreBlurSigma
	ksize := gaussianKernelSize(sigma)

	return mapChannels(ctx, input, func(src gocv.Mat, dst *gocv.Mat) {
		gocv.GaussianBlur(src, dst, image.Point{X: ksize, Y: ksize}, sigma, sigma, gocv.BorderDefault)
	})
}

// gaussianKernelSize covers three sigma either side, clamped to 3..15.
func gaussianKernelSize(sigma float64) int {
	kernelSize := int(sigma*6) + 1
	if kernelSize%2 == 0 {
		kernelSize++
	}
	return max(3, min(kernelSize, 15))
}

// MedianFilter removes isolated outliers from a disparity map.
type MedianFilter struct{}

func NewMedianFilter() *MedianFilter {
	return &MedianFilter{}
}

func (m *MedianFilter) Name() string {
	return "median_filter"
}

func (m *MedianFilter) ShouldExecute(settings models.StereoSettings) bool {
	return settings.MedianSize > 1
}

func (m *MedianFilter) Apply(ctx context.Context, input *models.Image, settings models.StereoSettings) (*models.Image, error) {
	// 32-bit float input only supports apertures 3 and 5
	if settings.MedianSize != 3 && settings.MedianSize != 5 {
		return nil, models.NewValidationError("median_size", settings.MedianSize, "median_size must be 3 or 5")
	}

	return mapChannels(ctx, input, func(src gocv.Mat, dst *gocv.Mat) {
		gocv.MedianBlur(src, dst, settings.MedianSize)
	})
}

// mapChannels runs op over each channel as a 32-bit float Mat.
func mapChannels(ctx context.Context, input *models.Image, op func(src gocv.Mat, dst *gocv.Mat)) (*models.Image, error) {
	if input == nil || input.NumPixels() == 0 {
		return nil, fmt.Errorf("input image is empty")
	}

	out := models.NewImage(input.Width(), input.Height(), input.NumChannels())
	for c := 0; c < input.NumChannels(); c++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		src, err := channelToFloatMat(input, c)
		if err != nil {
			return nil, err
		}

		dst := gocv.NewMat()
		op(src, &dst)
		src.Close()

		if err := ValidateMatForOperation(dst, "filter output"); err != nil {
			dst.Close()
			return nil, err
		}
		err = floatMatToChannel(dst, out.Channel(c))
		dst.Close()
		if err != nil {
			return nil, err
		}
	}

	return out, nil
}

func channelToFloatMat(img *models.Image, channel int) (gocv.Mat, error) {
	ch := img.Channel(channel)
	data := make([]byte, 4*len(ch))
	for i, v := range ch {
		binary.LittleEndian.PutUint32(data[4*i:], math.Float32bits(float32(v)))
	}

	mat, err := gocv.NewMatFromBytes(img.Height(), img.Width(), gocv.MatTypeCV32F, data)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to create Mat: %w", err)
	}
	return mat, nil
}

func floatMatToChannel(mat gocv.Mat, dst []float64) error {
	data := mat.ToBytes()
	if len(data) != 4*len(dst) {
		return fmt.Errorf("filter output has %d bytes, want %d", len(data), 4*len(dst))
	}
	for i := range dst {
		dst[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:])))
	}
	return nil
}
