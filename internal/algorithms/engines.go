package algorithms

import (
	"stereo-depth/internal/algorithms/edge"
	"stereo-depth/internal/algorithms/stereo"
	"stereo-depth/internal/models"
	"stereo-depth/internal/random"
)

type localWindowEngine struct{}

func (localWindowEngine) GetName() string {
	return models.EngineLocalWindow
}

func (localWindowEngine) GetDescription() string {
	return "fixed square window SSD matching; supports bands"
}

func (localWindowEngine) Build(settings models.StereoSettings, _ edge.Detector, src random.Source) (stereo.Stereo, error) {
	return stereo.NewLocalWindow(settings.MaxDisparity, settings.WindowSize, src), nil
}

type edgeBoundedEngine struct{}

func (edgeBoundedEngine) GetName() string {
	return models.EngineEdgeBounded
}

func (edgeBoundedEngine) GetDescription() string {
	return "windows grown out to image edges, one disparity per window"
}

func (edgeBoundedEngine) Build(settings models.StereoSettings, detector edge.Detector, src random.Source) (stereo.Stereo, error) {
	return stereo.NewEdgeBounded(settings.MaxDisparity, detector, src), nil
}
