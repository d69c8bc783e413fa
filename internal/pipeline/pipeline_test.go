package pipeline

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"stereo-depth/internal/algorithms/stereo"
	"stereo-depth/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func colorImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 10), B: 200, A: 255})
		}
	}
	return img
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path     string
		detected string
		want     string
	}{
		{"out.PNG", "", "png"},
		{"out.jpg", "", "jpeg"},
		{"out.jpeg", "png", "jpeg"},
		{"out.bmp", "", "bmp"},
		{"out.tif", "", "tiff"},
		{"out", "gif", "gif"},
		{"out", "", "png"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatFromPath(tt.path, tt.detected), tt.path)
	}
	assert.True(t, IsSupportedFormat("TIFF"))
	assert.False(t, IsSupportedFormat("webp"))
}

func TestFromImageChannels(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 3, 2))
	gray.SetGray(2, 1, color.Gray{Y: 255})
	g := FromImage(gray)
	assert.Equal(t, 1, g.NumChannels())
	assert.Equal(t, 1.0, g.At(0, 2, 1))
	assert.Equal(t, 0.0, g.At(0, 0, 0))

	rgb := FromImage(colorImage(4, 3))
	require.Equal(t, 3, rgb.NumChannels())
	assert.InDelta(t, 30.0/255, rgb.At(0, 3, 0), 1e-9)
	assert.InDelta(t, 20.0/255, rgb.At(1, 0, 2), 1e-9)
	assert.InDelta(t, 200.0/255, rgb.At(2, 1, 1), 1e-9)
}

func TestToImageRoundTrip(t *testing.T) {
	src := colorImage(5, 4)
	img, err := ToImage(FromImage(src))
	require.NoError(t, err)
	assert.Equal(t, src.Pix, img.(*image.RGBA).Pix)

	_, err = ToImage(models.NewImage(2, 2, 2))
	assert.Error(t, err)
	_, err = ToImage(nil)
	assert.Error(t, err)
}

func TestToGrayClamps(t *testing.T) {
	img := models.NewImage(4, 1, 1)
	img.Set(0, 0, 0, -0.5)
	img.Set(0, 1, 0, 0.5)
	img.Set(0, 2, 0, 1)
	img.Set(0, 3, 0, 3)

	gray := ToGray(img)
	assert.Equal(t, []uint8{0, 128, 255, 255}, gray.Pix)
}

func TestLoadPair(t *testing.T) {
	dir := t.TempDir()
	left := writePNG(t, dir, "left.png", colorImage(8, 6))
	right := writePNG(t, dir, "right.png", colorImage(8, 6))

	pair, err := NewLoader(nil, LoaderOptions{Scale: 1}).LoadPair(left, right)
	require.NoError(t, err)
	assert.Equal(t, 3, pair.Left.NumChannels())
	assert.Equal(t, 8, pair.Right.Width())
	assert.Equal(t, left, pair.LeftPath)

	gray, err := NewLoader(nil, LoaderOptions{Grayscale: true}).LoadPair(left, right)
	require.NoError(t, err)
	assert.Equal(t, 1, gray.Left.NumChannels())
}

func TestLoadPairScales(t *testing.T) {
	dir := t.TempDir()
	left := writePNG(t, dir, "left.png", colorImage(40, 20))
	right := writePNG(t, dir, "right.png", colorImage(40, 20))

	pair, err := NewLoader(nil, LoaderOptions{Scale: 0.5}).LoadPair(left, right)
	require.NoError(t, err)
	assert.Equal(t, 20, pair.Left.Width())
	assert.Equal(t, 10, pair.Left.Height())
}

func TestLoadPairErrors(t *testing.T) {
	dir := t.TempDir()
	left := writePNG(t, dir, "left.png", colorImage(8, 6))
	small := writePNG(t, dir, "small.png", colorImage(4, 6))
	junk := filepath.Join(dir, "junk.png")
	require.NoError(t, os.WriteFile(junk, []byte("not an image"), 0o644))

	loader := NewLoader(nil, LoaderOptions{})

	_, err := loader.LoadPair(left, small)
	require.Error(t, err)
	assert.True(t, errors.Is(err, stereo.ErrDimensionMismatch))

	_, err = loader.LoadPair(left, junk)
	assert.Error(t, err)

	_, err = loader.LoadPair(filepath.Join(dir, "missing.png"), left)
	assert.Error(t, err)
}

func TestSaveDisparityFormats(t *testing.T) {
	dir := t.TempDir()
	disparity := models.NewImage(6, 4, 1)
	disparity.Set(0, 1, 1, 0.5)
	disparity.Set(0, 5, 3, 1)

	saver := NewSaver(nil)
	loader := NewLoader(nil, LoaderOptions{})

	for _, name := range []string{"d.png", "d.bmp", "d.tiff", "d.jpg"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, saver.SaveDisparity(path, disparity))

			loaded, err := loader.LoadFile(path)
			require.NoError(t, err)
			assert.Equal(t, 6, loaded.Width())
			assert.Equal(t, 4, loaded.Height())
		})
	}

	// lossless formats keep the exact bytes
	loaded, err := loader.LoadFile(filepath.Join(dir, "d.png"))
	require.NoError(t, err)
	assert.InDelta(t, 128.0/255, loaded.At(0, 1, 1), 1e-9)
	assert.Equal(t, 1.0, loaded.At(0, 5, 3))

	assert.Error(t, saver.SaveDisparity(filepath.Join(dir, "none.png"), nil))
}

func TestSaveToWriterUnknownFormatFallsBackToPNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewSaver(nil).SaveToWriter(&buf, image.NewGray(image.Rect(0, 0, 2, 2)), "webp"))

	_, format, err := image.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
}

func TestSummarize(t *testing.T) {
	img := models.NewImage(2, 2, 1)
	copy(img.Channel(0), []float64{0, 0.25, 0.75, 1})

	stats, err := Summarize(img)
	require.NoError(t, err)
	assert.Equal(t, 0.0, stats.Min)
	assert.Equal(t, 1.0, stats.Max)
	assert.InDelta(t, 0.5, stats.Mean, 1e-12)
	assert.InDelta(t, 0.75, stats.Coverage, 1e-12)

	_, err = Summarize(nil)
	assert.Error(t, err)
}

func TestCompareDisparity(t *testing.T) {
	truth := models.NewImage(2, 2, 1)
	copy(truth.Channel(0), []float64{0.5, 0.5, 0.5, 0.5})
	result := models.NewImage(2, 2, 1)
	copy(result.Channel(0), []float64{0.5, 0.5, 0.5, 0.75})

	metrics, err := CompareDisparity(result, truth, 8, 1)
	require.NoError(t, err)
	// one pixel off by 2 disparity steps
	assert.InDelta(t, 1.0, metrics.RMSE, 1e-12)
	assert.InDelta(t, 0.25, metrics.BadPixels, 1e-12)

	_, err = CompareDisparity(result, models.NewImage(3, 2, 1), 8, 1)
	assert.True(t, errors.Is(err, stereo.ErrDimensionMismatch))
}

func TestLoadFileWithCustomDecoder(t *testing.T) {
	var decoded []string
	loader := NewLoader(nil, LoaderOptions{
		Scale:     0.5,
		Grayscale: true,
		Decode: func(path string) (*models.Image, error) {
			decoded = append(decoded, path)
			return FromImage(colorImage(10, 4)), nil
		},
	})

	img, err := loader.LoadFile("frame.webp")
	require.NoError(t, err)
	assert.Equal(t, []string{"frame.webp"}, decoded)
	assert.Equal(t, 5, img.Width())
	assert.Equal(t, 2, img.Height())
	assert.Equal(t, 1, img.NumChannels())
}
