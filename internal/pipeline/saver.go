package pipeline

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"

	"stereo-depth/internal/logger"
	"stereo-depth/internal/models"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

type Saver struct {
	logger logger.Logger
}

func NewSaver(log logger.Logger) *Saver {
	if log == nil {
		log = logger.Nop()
	}
	return &Saver{logger: log}
}

// SaveDisparity writes a disparity map as an 8-bit gray image, choosing the
// encoder from the path's extension.
func (s *Saver) SaveDisparity(path string, disparity *models.Image) error {
	if disparity == nil {
		return fmt.Errorf("no disparity map to save")
	}
	return s.SaveImage(path, disparity)
}

// SaveImage writes a one or three channel image.
func (s *Saver) SaveImage(path string, img *models.Image) error {
	encoded, err := ToImage(img)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	format := FormatFromPath(path, "")
	if err := s.SaveToWriter(f, encoded, format); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	s.logger.Info("ImageSaver", "image saved", map[string]interface{}{
		"path":   path,
		"format": format,
	})
	return nil
}

func (s *Saver) SaveToWriter(writer io.Writer, img image.Image, format string) error {
	var err error
	switch format {
	case "jpeg":
		err = jpeg.Encode(writer, img, &jpeg.Options{Quality: 95})
	case "bmp":
		err = bmp.Encode(writer, img)
	case "tiff":
		err = tiff.Encode(writer, img, &tiff.Options{Compression: tiff.Deflate})
	case "png", "":
		err = png.Encode(writer, img)
	default:
		s.logger.Warning("ImageSaver", "format not supported, using PNG", map[string]interface{}{
			"requested_format": format,
		})
		err = png.Encode(writer, img)
	}

	if err != nil {
		s.logger.Error("ImageSaver", err, map[string]interface{}{
			"format": format,
		})
		return fmt.Errorf("failed to encode %s: %w", format, err)
	}
	return nil
}
