package opencv

import (
	"fmt"

	"stereo-depth/internal/algorithms/edge"
	"stereo-depth/internal/models"

	"gocv.io/x/gocv"
)

// CannyDetector finds edges with OpenCV's Canny operator. The threshold is
// the lower hysteresis bound; the upper one is three times it.
type CannyDetector struct {
	threshold int
	channel   int
}

func NewCannyDetector(threshold int) *CannyDetector {
	return &CannyDetector{threshold: threshold}
}

// NewCannyFactory adapts NewCannyDetector for algorithms.Manager.
func NewCannyFactory(threshold int) edge.Detector {
	return NewCannyDetector(threshold)
}

func (c *CannyDetector) Threshold() int {
	return c.threshold
}

func (c *CannyDetector) ImageChannel() int {
	return c.channel
}

func (c *CannyDetector) SetImageChannel(channel int) {
	c.channel = channel
}

func (c *CannyDetector) Copy() edge.Detector {
	clone := *c
	return &clone
}

func (c *CannyDetector) FindEdges(img *models.Image) (*models.Image, error) {
	if img == nil {
		return nil, fmt.Errorf("no image to detect edges in")
	}
	if c.threshold <= 0 {
		return nil, fmt.Errorf("threshold must be positive, got: %d", c.threshold)
	}

	src, err := ChannelToMat(img, img.ResolveChannel(c.channel))
	if err != nil {
		return nil, err
	}
	defer src.Close()

	edges := gocv.NewMat()
	defer edges.Close()

	low := float32(c.threshold)
	gocv.Canny(src, &edges, low, 3*low)

	if err := ValidateMatForOperation(edges, "Canny"); err != nil {
		return nil, err
	}

	mask := models.NewImage(img.Width(), img.Height(), 1)
	out := mask.Channel(0)
	for i, v := range edges.ToBytes() {
		if v != 0 {
			out[i] = 1
		}
	}
	return mask, nil
}
