package stereo

import (
	"fmt"
	"math"

	"stereo-depth/internal/algorithms/edge"
	"stereo-depth/internal/models"
	"stereo-depth/internal/random"
)

// EdgeBounded grows an irregular rectangle around randomly chosen unassigned
// pixels until each side touches an edge of the left image, the image
// border, or territory already claimed by an earlier window. The whole
// rectangle is matched as one unit and every pixel in it receives the
// winning disparity.
type EdgeBounded struct {
	base
	detector edge.Detector
	rand     random.Source
}

// NewEdgeBounded builds an edge-bounded engine. The detector is switched to
// the engine's channel; src drives the choice of seed pixels.
func NewEdgeBounded(maxDisparity int, detector edge.Detector, src random.Source) *EdgeBounded {
	s := &EdgeBounded{
		base:     newBase(maxDisparity),
		detector: detector,
		rand:     src,
	}
	detector.SetImageChannel(s.channel)
	return s
}

func (s *EdgeBounded) SetImageChannel(channel int) {
	s.base.SetImageChannel(channel)
	s.detector.SetImageChannel(channel)
}

func (s *EdgeBounded) Detector() edge.Detector {
	return s.detector
}

func (s *EdgeBounded) Copy() Stereo {
	clone := &EdgeBounded{
		base:     s.base,
		detector: s.detector.Copy(),
		rand:     s.rand,
	}
	clone.detector.SetImageChannel(clone.channel)
	return clone
}

func (s *EdgeBounded) ComputeDepthMap(left, right *models.Image) (*models.Image, error) {
	if err := checkPair(left, right); err != nil {
		return nil, err
	}
	if s.maxDisparity < 0 {
		return nil, fmt.Errorf("max disparity must not be negative, got: %d", s.maxDisparity)
	}

	w := left.Width()
	h := left.Height()

	edges, err := s.detector.FindEdges(left)
	if err != nil {
		return nil, fmt.Errorf("edge detection failed: %w", err)
	}
	if edges == nil || !edges.SameSize(left) {
		return nil, fmt.Errorf("edge detector returned an unusable mask")
	}

	out := models.NewImage(w, h, 1)
	windows := s.growWindows(
		left.Channel(left.ResolveChannel(s.channel)),
		right.Channel(right.ResolveChannel(s.channel)),
		edges.Channel(0),
		out.Channel(0),
		w, h,
	)

	s.log.Debug("EdgeBounded", "disparities computed", map[string]interface{}{
		"windows": len(windows),
		"width":   w,
		"height":  h,
	})

	return out, nil
}

// window is an inclusive pixel rectangle and the disparity it was given.
type window struct {
	minX, maxX int
	minY, maxY int
	disparity  int
	assigned   int
}

// boundary tracks how far one side of a window has grown.
type boundary struct {
	del     int
	running bool
	backup  bool
}

// step grows the boundary by one pixel, clamped to limit, or performs a
// pending backup, which retreats one pixel and stops the boundary.
func (b *boundary) step(limit int) {
	if !b.running {
		return
	}
	if b.backup {
		b.del--
		if b.del < 0 {
			b.del = 0
		}
		b.running = false
		b.backup = false
		return
	}
	b.del++
	if b.del > limit {
		b.del = limit
	}
}

// growWindows tiles the whole image with windows and writes the normalized
// disparities into out. It returns the windows in the order they were
// grown.
func (s *EdgeBounded) growWindows(left, right, edges, out []float64, w, h int) []window {
	numPixels := w * h
	assigned := make([]bool, numPixels)
	var windows []window

	numDone := 0
	for numDone < numPixels {
		y := s.rand.BoundedInt(0, h-1)
		x := s.rand.BoundedInt(0, w-1)

		i := y*w + x
		// walk forward until an unassigned pixel turns up
		for assigned[i] {
			i++
			if i >= numPixels {
				i = 0
			}
		}
		x = i % w
		y = i / w

		win := s.boundsAround(x, y, w, h, edges, assigned)
		win.disparity = s.bestDisparity(left, right, w, win)

		value := s.normalize(win.disparity)
		for wy := win.minY; wy <= win.maxY; wy++ {
			for wx := win.minX; wx <= win.maxX; wx++ {
				index := wy*w + wx
				if assigned[index] {
					continue
				}
				assigned[index] = true
				out[index] = value
				win.assigned++
			}
		}

		numDone += win.assigned
		windows = append(windows, win)
	}

	return windows
}

// boundsAround expands the four sides of a window around (x, y) one step at
// a time. A side stops when its new row or column reaches the image border
// or contains an edge pixel (the row is kept), or backs up one step and
// stops when the new row or column contains an assigned pixel.
func (s *EdgeBounded) boundsAround(x, y, w, h int, edges []float64, assigned []bool) window {
	north := boundary{running: true}
	south := boundary{running: true}
	west := boundary{running: true}
	east := boundary{running: true}

	// scan checks one row or column span and updates b accordingly
	scan := func(b *boundary, atBorder bool, from, to int, index func(int) int) {
		if atBorder {
			b.running = false
		}
		for k := from; k <= to; k++ {
			i := index(k)
			if edges[i] == 1 {
				b.running = false
			}
			if assigned[i] {
				b.running = true
				b.backup = true
				return
			}
		}
	}

	for north.running || south.running || west.running || east.running {
		north.step(y)
		south.step(h - y - 1)
		west.step(x)
		east.step(w - x - 1)

		if north.running && !north.backup {
			rowY := y - north.del
			scan(&north, rowY <= 0, x-west.del, x+east.del, func(k int) int { return rowY*w + k })
		}
		if south.running && !south.backup {
			rowY := y + south.del
			scan(&south, rowY >= h-1, x-west.del, x+east.del, func(k int) int { return rowY*w + k })
		}
		if west.running && !west.backup {
			colX := x - west.del
			scan(&west, colX <= 0, y-north.del, y+south.del, func(k int) int { return k*w + colX })
		}
		if east.running && !east.backup {
			colX := x + east.del
			scan(&east, colX >= w-1, y-north.del, y+south.del, func(k int) int { return k*w + colX })
		}
	}

	return window{
		minX: x - west.del,
		maxX: x + east.del,
		minY: y - north.del,
		maxY: y + south.del,
	}
}

// bestDisparity runs the SSD search over the whole window. Pixels that
// displace out of the right image compare against 0.
func (s *EdgeBounded) bestDisparity(left, right []float64, w int, win window) int {
	bestDisparity := 0
	bestCost := math.MaxFloat64

	for d := 0; d <= s.maxDisparity; d++ {
		cost := 0.0

		for wy := win.minY; wy <= win.maxY; wy++ {
			rowOffset := wy * w
			for wx := win.minX; wx <= win.maxX; wx++ {
				index := rowOffset + wx

				valRight := 0.0
				if wx-d > 0 {
					valRight = right[index-d]
				}

				diff := left[index] - valRight
				cost += diff * diff
			}
		}

		if cost < bestCost {
			bestDisparity = d
			bestCost = cost
		}
	}

	return bestDisparity
}
