package stereo

import (
	"fmt"

	"stereo-depth/internal/logger"
	"stereo-depth/internal/models"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// ThreadedMultiChannel runs one clone of a single-channel engine per channel
// of the left image concurrently and averages the resulting maps.
type ThreadedMultiChannel struct {
	stereo  Stereo
	channel int
	log     logger.Logger
}

// NewThreadedMultiChannel wraps proto, which becomes owned by the
// coordinator. proto should only process the channel given by its
// ImageChannel.
func NewThreadedMultiChannel(proto Stereo) *ThreadedMultiChannel {
	return &ThreadedMultiChannel{
		stereo: proto,
		log:    logger.Nop(),
	}
}

func (t *ThreadedMultiChannel) Prototype() Stereo {
	return t.stereo
}

// MaxDisparity and SetMaxDisparity control the wrapped engine.
func (t *ThreadedMultiChannel) MaxDisparity() int {
	return t.stereo.MaxDisparity()
}

func (t *ThreadedMultiChannel) SetMaxDisparity(max int) {
	t.stereo.SetMaxDisparity(max)
}

// ImageChannel is kept for the interface; every channel is processed.
func (t *ThreadedMultiChannel) ImageChannel() int {
	return t.channel
}

func (t *ThreadedMultiChannel) SetImageChannel(channel int) {
	t.channel = channel
}

func (t *ThreadedMultiChannel) SetLogger(log logger.Logger) {
	if log == nil {
		log = logger.Nop()
	}
	t.log = log
}

func (t *ThreadedMultiChannel) Copy() Stereo {
	return &ThreadedMultiChannel{
		stereo:  t.stereo.Copy(),
		channel: t.channel,
		log:     t.log,
	}
}

func (t *ThreadedMultiChannel) ComputeDepthMap(left, right *models.Image) (*models.Image, error) {
	if err := checkPair(left, right); err != nil {
		return nil, err
	}

	numChannels := left.NumChannels()
	workers := lo.Times(numChannels, func(i int) Stereo {
		worker := t.stereo.Copy()
		worker.SetImageChannel(i)
		return worker
	})
	outputs := make([]*models.Image, numChannels)

	t.log.Debug("ThreadedMultiChannel", "starting channel workers", map[string]interface{}{
		"channels": numChannels,
	})

	var g errgroup.Group
	for i, worker := range workers {
		g.Go(func() error {
			out, err := worker.ComputeDepthMap(left, right)
			if err != nil {
				return fmt.Errorf("channel %d: %w", i, err)
			}
			if out == nil {
				return fmt.Errorf("channel %d: worker returned no map", i)
			}
			if !out.SameSize(left) {
				return fmt.Errorf("channel %d: worker returned a %dx%d map", i, out.Width(), out.Height())
			}
			outputs[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		t.log.Error("ThreadedMultiChannel", err, map[string]interface{}{
			"channels": numChannels,
		})
		return nil, err
	}

	final := models.NewImage(left.Width(), left.Height(), 1)
	finalChannel := final.Channel(0)

	for _, out := range outputs {
		for p, v := range out.Channel(0) {
			finalChannel[p] += v
		}
	}

	invNumChannels := 1.0 / float64(numChannels)
	for p := range finalChannel {
		finalChannel[p] *= invNumChannels
	}

	return final, nil
}
