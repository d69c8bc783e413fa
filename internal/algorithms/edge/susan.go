package edge

import (
	"fmt"
	"math"

	"stereo-depth/internal/models"
)

const (
	DefaultSusanThreshold = 20

	// 37-pixel circular mask; the geometric threshold is 3/4 of the largest
	// possible USAN area.
	susanMaskArea  = 37
	susanMaxUSAN   = 100 * susanMaskArea
	susanGeometric = 3 * susanMaxUSAN / 4
	susanRadius    = 3
)

// susanMask lists the offsets of the circular mask, nucleus included.
var susanMask = buildSusanMask()

func buildSusanMask() [][2]int {
	widths := []int{1, 2, 3, 3, 3, 2, 1}
	mask := make([][2]int, 0, susanMaskArea)
	for row, half := range widths {
		dy := row - susanRadius
		for dx := -half; dx <= half; dx++ {
			mask = append(mask, [2]int{dx, dy})
		}
	}
	return mask
}

// Susan is a SUSAN (Smallest Univalue Segment Assimilating Nucleus) edge
// detector. Higher thresholds treat larger brightness differences as
// similar, so fewer edges are reported.
type Susan struct {
	threshold int
	channel   int
}

func NewSusan(threshold int) *Susan {
	return &Susan{threshold: threshold}
}

func (s *Susan) Threshold() int {
	return s.threshold
}

func (s *Susan) SetThreshold(threshold int) {
	s.threshold = threshold
}

func (s *Susan) ImageChannel() int {
	return s.channel
}

func (s *Susan) SetImageChannel(channel int) {
	s.channel = channel
}

func (s *Susan) Copy() Detector {
	return &Susan{threshold: s.threshold, channel: s.channel}
}

func (s *Susan) FindEdges(img *models.Image) (*models.Image, error) {
	if img == nil {
		return nil, fmt.Errorf("input image is nil")
	}
	if s.threshold <= 0 {
		return nil, fmt.Errorf("susan threshold must be positive, got: %d", s.threshold)
	}

	w := img.Width()
	h := img.Height()
	in := img.GrayscaleBytes(s.channel)

	lut := s.brightnessTable()

	response := make([]int, w*h)
	dirX := make([]float64, w*h)
	dirY := make([]float64, w*h)

	for y := susanRadius; y < h-susanRadius; y++ {
		for x := susanRadius; x < w-susanRadius; x++ {
			center := int(in[y*w+x])

			usan := 0
			var momentX, momentY int
			for _, off := range susanMask {
				c := lut[int(in[(y+off[1])*w+x+off[0]])-center+255]
				usan += c
				momentX += c * off[0]
				momentY += c * off[1]
			}

			if usan >= susanGeometric {
				continue
			}

			i := y*w + x
			response[i] = susanGeometric - usan
			// the USAN centroid sits on the bright-similar side, so the
			// vector from the nucleus points across the edge
			dirX[i] = float64(momentX) / float64(usan)
			dirY[i] = float64(momentY) / float64(usan)
		}
	}

	edges := models.NewImage(w, h, 1)
	out := edges.Channel(0)

	for y := susanRadius; y < h-susanRadius; y++ {
		for x := susanRadius; x < w-susanRadius; x++ {
			i := y*w + x
			r := response[i]
			if r == 0 {
				continue
			}

			stepX, stepY := quantizeDirection(dirX[i], dirY[i])
			ahead := response[(y+stepY)*w+x+stepX]
			behind := response[(y-stepY)*w+x-stepX]
			if r >= ahead && r > behind {
				out[i] = 1
			}
		}
	}

	return edges, nil
}

// brightnessTable holds 100*exp(-(d/t)^6) for d in [-255, 255].
func (s *Susan) brightnessTable() [511]int {
	var lut [511]int
	t := float64(s.threshold)
	for d := -255; d <= 255; d++ {
		r := float64(d) / t
		lut[d+255] = int(math.Round(100 * math.Exp(-math.Pow(r, 6))))
	}
	return lut
}

// quantizeDirection maps a direction vector to one of the eight neighbour
// steps; a zero vector falls back to horizontal.
func quantizeDirection(dx, dy float64) (int, int) {
	if dx == 0 && dy == 0 {
		return 1, 0
	}

	angle := math.Atan2(dy, dx)
	if angle < 0 {
		angle += math.Pi
	}

	switch {
	case angle < math.Pi/8 || angle >= 7*math.Pi/8:
		return 1, 0
	case angle < 3*math.Pi/8:
		return 1, 1
	case angle < 5*math.Pi/8:
		return 0, 1
	default:
		return -1, 1
	}
}
