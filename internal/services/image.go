package services

import (
	"context"
	"fmt"

	"stereo-depth/internal/logger"
	"stereo-depth/internal/models"
	"stereo-depth/internal/pipeline"
)

// ImageService handles loading stereo pairs and saving disparity maps
type ImageService struct {
	loader     *pipeline.Loader
	saver      *pipeline.Saver
	repository *models.PairRepository
	logger     logger.Logger
}

func NewImageService(loader *pipeline.Loader, saver *pipeline.Saver, repo *models.PairRepository, log logger.Logger) *ImageService {
	if log == nil {
		log = logger.Nop()
	}
	return &ImageService{
		loader:     loader,
		saver:      saver,
		repository: repo,
		logger:     log,
	}
}

// LoadPair loads both views and makes them the current pair.
func (is *ImageService) LoadPair(ctx context.Context, leftPath, rightPath string) (*models.StereoPair, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	pair, err := is.loader.LoadPair(leftPath, rightPath)
	if err != nil {
		return nil, err
	}

	is.repository.SetPair(pair)
	return pair, nil
}

// SaveDisparity writes a result's map to path.
func (is *ImageService) SaveDisparity(ctx context.Context, path string, result *models.StereoResult) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if result == nil || result.Disparity == nil {
		return fmt.Errorf("no disparity map to save")
	}

	if err := is.saver.SaveDisparity(path, result.Disparity); err != nil {
		return err
	}

	is.logger.Debug("ImageService", "disparity saved", map[string]interface{}{
		"run_id": result.RunID,
		"path":   path,
	})
	return nil
}

// CurrentPair returns the loaded pair, or nil.
func (is *ImageService) CurrentPair() *models.StereoPair {
	return is.repository.Pair()
}

// ValidateImageFormat checks if a format is supported
func (is *ImageService) ValidateImageFormat(format string) bool {
	return pipeline.IsSupportedFormat(format)
}

// GetSupportedFormats returns list of supported image formats
func (is *ImageService) GetSupportedFormats() []string {
	return pipeline.SupportedFormats()
}
