package stereo

import (
	"fmt"
	"math"

	"stereo-depth/internal/models"
	"stereo-depth/internal/random"
)

// LocalWindow matches a fixed square window around every pixel against the
// same window shifted left in the right image.
type LocalWindow struct {
	partialBase
	windowSize int
	rand       random.Source
}

// NewLocalWindow builds a fixed-window engine. windowSize is the window
// diameter; even sizes extend one extra pixel up and to the left. src
// supplies the intensities substituted for window pixels that displace out
// of the right image.
func NewLocalWindow(maxDisparity, windowSize int, src random.Source) *LocalWindow {
	return &LocalWindow{
		partialBase: newPartialBase(maxDisparity),
		windowSize:  windowSize,
		rand:        src,
	}
}

func (s *LocalWindow) WindowSize() int {
	return s.windowSize
}

func (s *LocalWindow) SetWindowSize(size int) {
	s.windowSize = size
}

func (s *LocalWindow) Copy() Stereo {
	return s.CopyPartial()
}

func (s *LocalWindow) CopyPartial() Partial {
	clone := *s
	return &clone
}

func (s *LocalWindow) ComputeDepthMap(left, right *models.Image) (*models.Image, error) {
	if err := checkPair(left, right); err != nil {
		return nil, err
	}
	if s.windowSize < 1 {
		return nil, fmt.Errorf("window size must be positive, got: %d", s.windowSize)
	}
	if s.maxDisparity < 0 {
		return nil, fmt.Errorf("max disparity must not be negative, got: %d", s.maxDisparity)
	}

	w := left.Width()
	h := left.Height()

	boxRad := s.windowSize / 2
	extra := 0
	if s.windowSize%2 == 0 {
		boxRad--
		extra = 1
	}
	startBox := boxRad + extra

	out := models.NewImage(w, h, 1)
	outChannel := out.Channel(0)

	// byte samples keep the inner loop in integer arithmetic
	leftChannel := left.GrayscaleBytes(s.channel)
	rightChannel := right.GrayscaleBytes(s.channel)

	xStart, xEnd, yStart, yEnd := s.region.pixelBounds(w, h)

	// leave room at image edges
	if yStart < startBox {
		yStart = startBox
	}
	if yEnd > h-boxRad-1 {
		yEnd = h - boxRad - 1
	}
	if xStart < startBox {
		xStart = startBox
	}
	if xEnd > w-boxRad-1 {
		xEnd = w - boxRad - 1
	}

	for y := yStart; y <= yEnd; y++ {
		for x := xStart; x <= xEnd; x++ {
			bestDisparity := 0
			bestCost := int64(math.MaxInt64)

			for d := 0; d <= s.maxDisparity; d++ {
				var cost int64

				for dy := -startBox; dy <= boxRad; dy++ {
					rowOffset := (y + dy) * w

					for dx := -startBox; dx <= boxRad; dx++ {
						px := x + dx
						index := rowOffset + px

						valLeft := int64(leftChannel[index])

						var valRight int64
						if px-d > 0 {
							valRight = int64(rightChannel[index-d])
						} else {
							// off-image landings get a random intensity so
							// they are never free
							valRight = int64(s.rand.BoundedInt(0, 255))
						}

						diff := valLeft - valRight
						cost += diff * diff
					}
				}

				// strict: ties keep the smallest displacement
				if cost < bestCost {
					bestDisparity = d
					bestCost = cost
				}
			}

			outChannel[y*w+x] = s.normalize(bestDisparity)
		}
	}

	return out, nil
}
