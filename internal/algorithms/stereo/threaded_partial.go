package stereo

import (
	"fmt"
	"math"

	"stereo-depth/internal/logger"
	"stereo-depth/internal/models"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// ThreadedPartial splits the image into equal horizontal bands and runs one
// clone of a Partial engine per band concurrently.
type ThreadedPartial struct {
	stereo Partial
	parts  int
	log    logger.Logger
}

// NewThreadedPartial wraps proto, which becomes owned by the coordinator.
func NewThreadedPartial(proto Partial, parts int) *ThreadedPartial {
	return &ThreadedPartial{
		stereo: proto,
		parts:  parts,
		log:    logger.Nop(),
	}
}

func (t *ThreadedPartial) Parts() int {
	return t.parts
}

func (t *ThreadedPartial) Prototype() Partial {
	return t.stereo
}

func (t *ThreadedPartial) MaxDisparity() int {
	return t.stereo.MaxDisparity()
}

func (t *ThreadedPartial) SetMaxDisparity(max int) {
	t.stereo.SetMaxDisparity(max)
}

func (t *ThreadedPartial) ImageChannel() int {
	return t.stereo.ImageChannel()
}

func (t *ThreadedPartial) SetImageChannel(channel int) {
	t.stereo.SetImageChannel(channel)
}

func (t *ThreadedPartial) SetLogger(log logger.Logger) {
	if log == nil {
		log = logger.Nop()
	}
	t.log = log
}

func (t *ThreadedPartial) Copy() Stereo {
	return &ThreadedPartial{
		stereo: t.stereo.CopyPartial(),
		parts:  t.parts,
		log:    t.log,
	}
}

// BandRegions returns the region assigned to each of n bands.
func BandRegions(n int) []Region {
	return lo.Times(n, func(i int) Region {
		return Region{
			XStart: 0,
			XEnd:   1,
			YStart: float64(i) / float64(n),
			YEnd:   float64(i+1) / float64(n),
		}
	})
}

// bandRows converts a band region to the inclusive rows it owns in an image
// of height h. Consecutive bands share no rows and leave no gaps.
func bandRows(r Region, h int) (start, end int) {
	start = int(float64(h) * r.YStart)
	end = int(math.Floor(float64(h)*r.YEnd - 1))
	return start, end
}

func (t *ThreadedPartial) ComputeDepthMap(left, right *models.Image) (*models.Image, error) {
	if err := checkPair(left, right); err != nil {
		return nil, err
	}
	if t.parts < 1 {
		return nil, fmt.Errorf("number of bands must be positive, got: %d", t.parts)
	}

	regions := BandRegions(t.parts)
	outputs := make([]*models.Image, t.parts)

	t.log.Debug("ThreadedPartial", "starting band workers", map[string]interface{}{
		"bands":  t.parts,
		"width":  left.Width(),
		"height": left.Height(),
	})

	// inputs are shared read-only; each worker owns its clone and its slot
	var g errgroup.Group
	for i, region := range regions {
		worker := t.stereo.CopyPartial()
		worker.SetRange(region)

		g.Go(func() error {
			out, err := worker.ComputeDepthMap(left, right)
			if err != nil {
				return fmt.Errorf("band %d: %w", i, err)
			}
			if out == nil {
				return fmt.Errorf("band %d: worker returned no map", i)
			}
			if !out.SameSize(left) {
				return fmt.Errorf("band %d: worker returned a %dx%d map", i, out.Width(), out.Height())
			}
			outputs[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		t.log.Error("ThreadedPartial", err, map[string]interface{}{
			"bands": t.parts,
		})
		return nil, err
	}

	w := left.Width()
	h := left.Height()
	final := models.NewImage(w, h, 1)
	finalChannel := final.Channel(0)

	for i, region := range regions {
		start, end := bandRows(region, h)
		channel := outputs[i].Channel(0)
		for y := start; y <= end; y++ {
			copy(finalChannel[y*w:(y+1)*w], channel[y*w:(y+1)*w])
		}
	}

	return final, nil
}
