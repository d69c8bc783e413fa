// Package stereo computes disparity maps from rectified left/right image
// pairs by brute-force sum-of-squared-differences block matching.
//
// Every engine maps disparities linearly from [0, MaxDisparity] to [0, 1]
// in a single-channel output image. Leaf engines (LocalWindow, EdgeBounded)
// are synchronous and CPU bound. The coordinators (ThreadedPartial,
// ThreadedMultiChannel) clone a prototype engine once per worker on every
// call, run all workers concurrently, wait for every one of them, and only
// then merge. There is no cancellation: a stuck worker stalls the call.
package stereo

import (
	"errors"
	"fmt"

	"stereo-depth/internal/logger"
	"stereo-depth/internal/models"
)

// ErrDimensionMismatch is returned when the left and right images differ in
// width or height.
var ErrDimensionMismatch = errors.New("left and right images must be the same size")

// Stereo computes depth maps from stereo pairs.
type Stereo interface {
	// ComputeDepthMap returns a new single-channel disparity map the size
	// of the inputs. Inputs are never modified.
	ComputeDepthMap(left, right *models.Image) (*models.Image, error)

	// Copy returns an engine with identical configuration that can run
	// concurrently with the receiver.
	Copy() Stereo

	MaxDisparity() int
	SetMaxDisparity(max int)

	// ImageChannel is the channel processed from each image. Channels out
	// of range for an image fall back to channel 0.
	ImageChannel() int
	SetImageChannel(channel int)
}

// Partial is an engine that can be restricted to a sub-region of the image.
type Partial interface {
	Stereo

	Range() Region
	SetRange(r Region)

	// CopyPartial is Copy with the narrower return type.
	CopyPartial() Partial
}

// Region is a fractional rectangle in [0,1]^2.
type Region struct {
	XStart float64
	XEnd   float64
	YStart float64
	YEnd   float64
}

// FullRegion covers the whole image.
func FullRegion() Region {
	return Region{XStart: 0, XEnd: 1, YStart: 0, YEnd: 1}
}

// pixelBounds converts the region to inclusive pixel bounds for a w x h
// image.
func (r Region) pixelBounds(w, h int) (xStart, xEnd, yStart, yEnd int) {
	xStart = int(r.XStart * float64(w))
	xEnd = int(r.XEnd*float64(w)) - 1
	yStart = int(r.YStart * float64(h))
	yEnd = int(r.YEnd*float64(h)) - 1
	return
}

// base carries the configuration every engine shares.
type base struct {
	maxDisparity int
	channel      int
	log          logger.Logger
}

func newBase(maxDisparity int) base {
	return base{maxDisparity: maxDisparity, log: logger.Nop()}
}

func (b *base) MaxDisparity() int {
	return b.maxDisparity
}

func (b *base) SetMaxDisparity(max int) {
	b.maxDisparity = max
}

func (b *base) ImageChannel() int {
	return b.channel
}

func (b *base) SetImageChannel(channel int) {
	b.channel = channel
}

func (b *base) SetLogger(log logger.Logger) {
	if log == nil {
		log = logger.Nop()
	}
	b.log = log
}

// normalize maps a disparity to [0,1]. A zero maximum only admits zero
// disparity, which maps to 0.
func (b *base) normalize(d int) float64 {
	if b.maxDisparity <= 0 {
		return 0
	}
	return float64(d) / float64(b.maxDisparity)
}

// partialBase adds the processing region.
type partialBase struct {
	base
	region Region
}

func newPartialBase(maxDisparity int) partialBase {
	return partialBase{base: newBase(maxDisparity), region: FullRegion()}
}

func (p *partialBase) Range() Region {
	return p.region
}

func (p *partialBase) SetRange(r Region) {
	p.region = r
}

func checkPair(left, right *models.Image) error {
	if left == nil || right == nil {
		return fmt.Errorf("stereo pair is incomplete: left=%t right=%t", left != nil, right != nil)
	}
	if !left.SameSize(right) {
		return fmt.Errorf("%w: left %dx%d, right %dx%d", ErrDimensionMismatch,
			left.Width(), left.Height(), right.Width(), right.Height())
	}
	return nil
}
