// Package processing runs ordered filter steps over images before and after
// disparity computation.
package processing

import (
	"context"
	"fmt"

	"stereo-depth/internal/models"
)

type Step interface {
	Apply(ctx context.Context, input *models.Image, settings models.StereoSettings) (*models.Image, error)
	Name() string
	ShouldExecute(settings models.StereoSettings) bool
}

type Chain struct {
	steps []Step
}

func NewChain(steps ...Step) *Chain {
	return &Chain{
		steps: steps,
	}
}

// Execute feeds input through every step that is enabled by settings. The
// input is never modified; with no enabled steps it is returned as is.
func (c *Chain) Execute(ctx context.Context, input *models.Image, settings models.StereoSettings) (*models.Image, error) {
	if c == nil {
		return input, nil
	}

	current := input
	for _, step := range c.steps {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if !step.ShouldExecute(settings) {
			continue
		}

		result, err := step.Apply(ctx, current, settings)
		if err != nil {
			return nil, fmt.Errorf("step %s failed: %w", step.Name(), err)
		}
		current = result
	}

	return current, nil
}

// Active lists the names of the steps settings would run.
func (c *Chain) Active(settings models.StereoSettings) []string {
	if c == nil {
		return nil
	}

	var names []string
	for _, step := range c.steps {
		if step.ShouldExecute(settings) {
			names = append(names, step.Name())
		}
	}
	return names
}

func (c *Chain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.steps)
}
