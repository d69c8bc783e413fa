package models

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// Image is a width x height grid with one or more channels. Each channel is
// a dense row-major slice of samples in [0,1].
type Image struct {
	width    int
	height   int
	channels [][]float64
}

// NewImage allocates a zero-filled image.
func NewImage(width, height, numChannels int) *Image {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	if numChannels < 1 {
		numChannels = 1
	}

	channels := make([][]float64, numChannels)
	for i := range channels {
		channels[i] = make([]float64, width*height)
	}

	return &Image{
		width:    width,
		height:   height,
		channels: channels,
	}
}

// NewImageFromChannels wraps existing channel data. Every channel must hold
// exactly width*height samples.
func NewImageFromChannels(width, height int, channels ...[]float64) (*Image, error) {
	if len(channels) == 0 {
		return nil, fmt.Errorf("at least one channel is required")
	}
	for i, ch := range channels {
		if len(ch) != width*height {
			return nil, fmt.Errorf("channel %d has %d samples, expected %d", i, len(ch), width*height)
		}
	}

	return &Image{
		width:    width,
		height:   height,
		channels: channels,
	}, nil
}

func (img *Image) Width() int {
	return img.width
}

func (img *Image) Height() int {
	return img.height
}

func (img *Image) NumChannels() int {
	return len(img.channels)
}

func (img *Image) NumPixels() int {
	return img.width * img.height
}

// Channel returns the backing slice of channel i; writes are visible to the
// image.
func (img *Image) Channel(i int) []float64 {
	return img.channels[i]
}

// ResolveChannel maps an out-of-range channel index to channel 0.
func (img *Image) ResolveChannel(i int) int {
	if i < 0 || i >= len(img.channels) {
		return 0
	}
	return i
}

// SameSize reports whether both images have identical width and height.
func (img *Image) SameSize(other *Image) bool {
	return other != nil && img.width == other.width && img.height == other.height
}

func (img *Image) Clone() *Image {
	channels := make([][]float64, len(img.channels))
	for i, ch := range img.channels {
		channels[i] = append([]float64(nil), ch...)
	}

	return &Image{
		width:    img.width,
		height:   img.height,
		channels: channels,
	}
}

// GrayscaleBytes quantizes one channel to a byte per pixel using
// round-half-even of 255*v.
func (img *Image) GrayscaleBytes(channel int) []byte {
	src := img.channels[img.ResolveChannel(channel)]
	bytes := make([]byte, len(src))

	for i, v := range src {
		q := math.RoundToEven(255 * v)
		switch {
		case q < 0:
			q = 0
		case q > 255:
			q = 255
		}
		bytes[i] = byte(q)
	}

	return bytes
}

// Grayscale collapses the image to one channel. Images with at least three
// channels use the NTSC luminosity weights on channels 0..2; anything else
// is copied from channel 0.
func (img *Image) Grayscale() *Image {
	gray := NewImage(img.width, img.height, 1)
	dst := gray.channels[0]

	if len(img.channels) < 3 {
		copy(dst, img.channels[0])
		return gray
	}

	red := img.channels[0]
	green := img.channels[1]
	blue := img.channels[2]

	for i := range dst {
		// NTSC luminosity
		dst[i] = .299*red[i] + .587*green[i] + .114*blue[i]
	}

	return gray
}

// At returns the sample at (x, y) in channel c.
func (img *Image) At(c, x, y int) float64 {
	return img.channels[c][y*img.width+x]
}

// Set writes the sample at (x, y) in channel c.
func (img *Image) Set(c, x, y int, v float64) {
	img.channels[c][y*img.width+x] = v
}

// StereoPair holds the images and the most recent disparity map shown by
// the viewer and produced by the CLI.
type StereoPair struct {
	Left      *Image
	Right     *Image
	LeftPath  string
	RightPath string
	LoadTime  time.Time
}

// StereoResult is the outcome of one depth-map computation.
type StereoResult struct {
	RunID       string
	Engine      string
	Disparity   *Image
	Settings    StereoSettings
	ProcessTime time.Duration
}

// PairRepository keeps the current pair and a bounded result history.
type PairRepository struct {
	mu             sync.RWMutex
	pair           *StereoPair
	history        []StereoResult
	maxHistorySize int
}

func NewPairRepository() *PairRepository {
	return &PairRepository{
		history:        make([]StereoResult, 0),
		maxHistorySize: 10,
	}
}

func (r *PairRepository) SetPair(pair *StereoPair) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pair = pair
}

func (r *PairRepository) Pair() *StereoPair {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pair
}

// AddResult appends a result, dropping the oldest beyond the history size.
func (r *PairRepository) AddResult(result StereoResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.history = append(r.history, result)
	if len(r.history) > r.maxHistorySize {
		r.history = r.history[1:]
	}
}

// Latest returns the most recent result, if any.
func (r *PairRepository) Latest() (StereoResult, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.history) == 0 {
		return StereoResult{}, false
	}
	return r.history[len(r.history)-1], true
}

func (r *PairRepository) History() []StereoResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]StereoResult(nil), r.history...)
}
