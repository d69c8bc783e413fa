package pipeline

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"stereo-depth/internal/models"
)

// FromImage converts a decoded image to samples in [0,1]. Gray images give
// one channel, everything else three (R, G, B). Alpha is dropped.
func FromImage(img image.Image) *models.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	switch src := img.(type) {
	case *image.Gray:
		out := models.NewImage(w, h, 1)
		ch := out.Channel(0)
		for y := 0; y < h; y++ {
			start := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			row := src.Pix[start : start+w]
			for x, v := range row {
				ch[y*w+x] = float64(v) / 255
			}
		}
		return out
	case *image.Gray16:
		out := models.NewImage(w, h, 1)
		ch := out.Channel(0)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				ch[y*w+x] = float64(src.Gray16At(bounds.Min.X+x, bounds.Min.Y+y).Y) / 65535
			}
		}
		return out
	}

	out := models.NewImage(w, h, 3)
	r, g, b := out.Channel(0), out.Channel(1), out.Channel(2)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			cr, cg, cb, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			i := y*w + x
			r[i] = float64(cr) / 65535
			g[i] = float64(cg) / 65535
			b[i] = float64(cb) / 65535
		}
	}
	return out
}

// ToImage converts samples back to 8 bits. One channel gives *image.Gray,
// three give *image.RGBA.
func ToImage(img *models.Image) (image.Image, error) {
	if img == nil {
		return nil, fmt.Errorf("no image to convert")
	}

	w, h := img.Width(), img.Height()
	switch img.NumChannels() {
	case 1:
		return ToGray(img), nil
	case 3:
		out := image.NewRGBA(image.Rect(0, 0, w, h))
		r, g, b := img.Channel(0), img.Channel(1), img.Channel(2)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				i := y*w + x
				out.SetRGBA(x, y, color.RGBA{R: toByte(r[i]), G: toByte(g[i]), B: toByte(b[i]), A: 255})
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported channel count: %d", img.NumChannels())
	}
}

// ToGray renders channel 0 as an 8-bit gray image, 0 black and 1 white.
func ToGray(img *models.Image) *image.Gray {
	w, h := img.Width(), img.Height()
	out := image.NewGray(image.Rect(0, 0, w, h))
	ch := img.Channel(0)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.Pix[y*out.Stride+x] = toByte(ch[y*w+x])
		}
	}
	return out
}

func toByte(v float64) uint8 {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(math.RoundToEven(v * 255))
}
