package pipeline

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"time"

	"stereo-depth/internal/algorithms/stereo"
	"stereo-depth/internal/logger"
	"stereo-depth/internal/models"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// LoaderOptions control how decoded images are turned into engine input.
type LoaderOptions struct {
	// Scale in (0,1] shrinks both images before processing; 1 keeps them.
	Scale float64
	// Grayscale collapses color images to one luminance channel.
	Grayscale bool
	// Decode replaces the Go image decoders for LoadFile when set.
	Decode func(path string) (*models.Image, error)
}

type Loader struct {
	options LoaderOptions
	logger  logger.Logger
}

func NewLoader(log logger.Logger, options LoaderOptions) *Loader {
	if log == nil {
		log = logger.Nop()
	}
	if options.Scale <= 0 || options.Scale > 1 {
		options.Scale = 1
	}
	return &Loader{options: options, logger: log}
}

func (l *Loader) Options() LoaderOptions {
	return l.options
}

// LoadPair loads both views of a stereo pair. The views must decode to the
// same size.
func (l *Loader) LoadPair(leftPath, rightPath string) (*models.StereoPair, error) {
	start := time.Now()

	left, err := l.LoadFile(leftPath)
	if err != nil {
		return nil, fmt.Errorf("left image: %w", err)
	}
	right, err := l.LoadFile(rightPath)
	if err != nil {
		return nil, fmt.Errorf("right image: %w", err)
	}

	if !left.SameSize(right) {
		return nil, fmt.Errorf("%w: %s is %dx%d, %s is %dx%d", stereo.ErrDimensionMismatch,
			leftPath, left.Width(), left.Height(), rightPath, right.Width(), right.Height())
	}

	l.logger.Info("ImageLoader", "stereo pair loaded", map[string]interface{}{
		"left":     leftPath,
		"right":    rightPath,
		"width":    left.Width(),
		"height":   left.Height(),
		"channels": left.NumChannels(),
		"duration": time.Since(start).String(),
	})

	return &models.StereoPair{
		Left:      left,
		Right:     right,
		LeftPath:  leftPath,
		RightPath: rightPath,
		LoadTime:  time.Now(),
	}, nil
}

func (l *Loader) LoadFile(path string) (*models.Image, error) {
	if l.options.Decode != nil {
		img, err := l.options.Decode(path)
		if err != nil {
			return nil, err
		}
		return l.prepare(img)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	return l.LoadFromReader(f, path)
}

// LoadFromReader decodes any registered format; name is only used for
// logging.
func (l *Loader) LoadFromReader(r io.Reader, name string) (*models.Image, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}

	bounds := img.Bounds()
	l.logger.Debug("ImageLoader", "image decoded", map[string]interface{}{
		"name":   name,
		"format": FormatFromPath(name, format),
		"width":  bounds.Dx(),
		"height": bounds.Dy(),
	})

	return l.finish(FromImage(l.scale(img))), nil
}

// prepare applies scaling and grayscale conversion to an already decoded
// image.
func (l *Loader) prepare(img *models.Image) (*models.Image, error) {
	if l.options.Scale < 1 {
		decoded, err := ToImage(img)
		if err != nil {
			return nil, err
		}
		img = FromImage(l.scale(decoded))
	}
	return l.finish(img), nil
}

func (l *Loader) scale(img image.Image) image.Image {
	if l.options.Scale >= 1 {
		return img
	}
	width := uint(float64(img.Bounds().Dx())*l.options.Scale + 0.5)
	if width == 0 {
		width = 1
	}
	return resize.Resize(width, 0, img, resize.Bilinear)
}

func (l *Loader) finish(img *models.Image) *models.Image {
	if l.options.Grayscale && img.NumChannels() > 1 {
		return img.Grayscale()
	}
	return img
}
