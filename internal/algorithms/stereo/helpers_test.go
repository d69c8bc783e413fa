package stereo

import (
	"sync"
	"sync/atomic"

	"stereo-depth/internal/algorithms/edge"
	"stereo-depth/internal/models"
	"stereo-depth/internal/random"
)

// constantSource always yields the same value, making the off-image penalty
// deterministic.
type constantSource struct {
	value int
}

func (c constantSource) BoundedInt(lo, hi int) int {
	switch {
	case c.value < lo:
		return lo
	case c.value > hi:
		return hi
	}
	return c.value
}

// scriptedSource replays a fixed sequence and counts draws.
type scriptedSource struct {
	mu     sync.Mutex
	values []int
	draws  int
}

func (s *scriptedSource) BoundedInt(lo, hi int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := lo
	if s.draws < len(s.values) {
		v = s.values[s.draws]
	}
	s.draws++
	if v < lo || v > hi {
		return lo
	}
	return v
}

// columnDetector marks whole columns as edges.
type columnDetector struct {
	columns []int
	channel int
}

func (d *columnDetector) FindEdges(img *models.Image) (*models.Image, error) {
	mask := models.NewImage(img.Width(), img.Height(), 1)
	for _, x := range d.columns {
		for y := 0; y < img.Height(); y++ {
			mask.Set(0, x, y, 1)
		}
	}
	return mask, nil
}

func (d *columnDetector) Copy() edge.Detector {
	return &columnDetector{columns: append([]int(nil), d.columns...), channel: d.channel}
}

func (d *columnDetector) ImageChannel() int {
	return d.channel
}

func (d *columnDetector) SetImageChannel(channel int) {
	d.channel = channel
}

// fakeEngine fills its whole output with one value and can be told to fail.
type fakeEngine struct {
	partialBase
	value    func(f *fakeEngine) float64
	failWhen func(f *fakeEngine) bool
	err      error
	calls    *atomic.Int32
}

func newFakeEngine(value func(f *fakeEngine) float64) *fakeEngine {
	return &fakeEngine{
		partialBase: newPartialBase(4),
		value:       value,
		calls:       &atomic.Int32{},
	}
}

func (f *fakeEngine) Copy() Stereo {
	return f.CopyPartial()
}

func (f *fakeEngine) CopyPartial() Partial {
	clone := *f
	return &clone
}

func (f *fakeEngine) ComputeDepthMap(left, right *models.Image) (*models.Image, error) {
	f.calls.Add(1)
	if err := checkPair(left, right); err != nil {
		return nil, err
	}
	if f.failWhen != nil && f.failWhen(f) {
		return nil, f.err
	}

	out := models.NewImage(left.Width(), left.Height(), 1)
	v := f.value(f)
	for i := range out.Channel(0) {
		out.Channel(0)[i] = v
	}
	return out, nil
}

// texture builds a deterministic image of byte-exact random intensities.
func texture(w, h, channels int, seed int64) *models.Image {
	src := random.NewSource(seed)
	img := models.NewImage(w, h, channels)
	for c := 0; c < channels; c++ {
		ch := img.Channel(c)
		for i := range ch {
			ch[i] = float64(src.BoundedInt(0, 255)) / 255
		}
	}
	return img
}

// shiftedRight builds the right view of left for a uniform disparity:
// right(x) = left(x+shift). Columns without a source get fresh texture.
func shiftedRight(left *models.Image, shift int, seed int64) *models.Image {
	w, h := left.Width(), left.Height()
	filler := texture(w, h, left.NumChannels(), seed)
	right := models.NewImage(w, h, left.NumChannels())

	for c := 0; c < left.NumChannels(); c++ {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				if x+shift < w {
					right.Set(c, x, y, left.At(c, x+shift, y))
				} else {
					right.Set(c, x, y, filler.At(c, x, y))
				}
			}
		}
	}
	return right
}
