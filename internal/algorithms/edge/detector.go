// Package edge holds the edge detectors used by the edge-bounded stereo
// engine to limit window growth.
package edge

import (
	"stereo-depth/internal/models"
)

// Detector finds edges in one channel of an image.
type Detector interface {
	// FindEdges returns a single-channel mask of the same size as img with
	// 1 where there is an edge and 0 elsewhere.
	FindEdges(img *models.Image) (*models.Image, error)

	// Copy returns an independent detector with the same configuration.
	Copy() Detector

	ImageChannel() int

	// SetImageChannel selects the channel to process. Channels that are out
	// of range for a given image fall back to channel 0.
	SetImageChannel(channel int)
}
