// Package opencv bridges models.Image and gocv Mats.
package opencv

import (
	"fmt"

	"stereo-depth/internal/models"

	"gocv.io/x/gocv"
)

// MatToImage converts an 8-bit gray or BGR Mat. BGR Mats become three
// channels in R, G, B order.
func MatToImage(mat gocv.Mat) (*models.Image, error) {
	if err := ValidateMatForOperation(mat, "Mat to image conversion"); err != nil {
		return nil, err
	}

	rows, cols := mat.Rows(), mat.Cols()
	data := mat.ToBytes()
	channels := mat.Channels()
	if len(data) != rows*cols*channels {
		return nil, fmt.Errorf("Mat data is not continuous: %d bytes for %dx%dx%d", len(data), cols, rows, channels)
	}

	if channels == 1 {
		out := models.NewImage(cols, rows, 1)
		ch := out.Channel(0)
		for i, v := range data {
			ch[i] = float64(v) / 255
		}
		return out, nil
	}

	out := models.NewImage(cols, rows, 3)
	r, g, b := out.Channel(0), out.Channel(1), out.Channel(2)
	for i := 0; i < rows*cols; i++ {
		b[i] = float64(data[3*i]) / 255
		g[i] = float64(data[3*i+1]) / 255
		r[i] = float64(data[3*i+2]) / 255
	}
	return out, nil
}

// ChannelToMat copies one channel of img into a new 8-bit single-channel
// Mat. The caller closes it.
func ChannelToMat(img *models.Image, channel int) (gocv.Mat, error) {
	if img == nil || img.NumPixels() == 0 {
		return gocv.NewMat(), fmt.Errorf("input image is empty")
	}

	data := img.GrayscaleBytes(channel)
	mat, err := gocv.NewMatFromBytes(img.Height(), img.Width(), gocv.MatTypeCV8UC1, data)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to create Mat: %w", err)
	}
	return mat, nil
}

// ImageToMat converts a one or three channel image to a gray or BGR Mat.
func ImageToMat(img *models.Image) (gocv.Mat, error) {
	if img == nil || img.NumPixels() == 0 {
		return gocv.NewMat(), fmt.Errorf("input image is empty")
	}

	switch img.NumChannels() {
	case 1:
		return ChannelToMat(img, 0)
	case 3:
		r, g, b := img.GrayscaleBytes(0), img.GrayscaleBytes(1), img.GrayscaleBytes(2)
		data := make([]byte, 3*len(r))
		for i := range r {
			data[3*i] = b[i]
			data[3*i+1] = g[i]
			data[3*i+2] = r[i]
		}
		mat, err := gocv.NewMatFromBytes(img.Height(), img.Width(), gocv.MatTypeCV8UC3, data)
		if err != nil {
			return gocv.NewMat(), fmt.Errorf("failed to create Mat: %w", err)
		}
		return mat, nil
	default:
		return gocv.NewMat(), fmt.Errorf("unsupported channel count: %d", img.NumChannels())
	}
}
