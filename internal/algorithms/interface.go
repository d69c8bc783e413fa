package algorithms

import (
	"stereo-depth/internal/algorithms/edge"
	"stereo-depth/internal/algorithms/stereo"
	"stereo-depth/internal/logger"
	"stereo-depth/internal/models"
	"stereo-depth/internal/random"
)

// Engine builds one kind of leaf stereo engine from validated settings.
type Engine interface {
	GetName() string
	GetDescription() string
	Build(settings models.StereoSettings, detector edge.Detector, src random.Source) (stereo.Stereo, error)
}

// DetectorFactory builds an edge detector for the given threshold.
type DetectorFactory func(threshold int) edge.Detector

// Loggable is implemented by engines that accept a logger.
type Loggable interface {
	SetLogger(log logger.Logger)
}
