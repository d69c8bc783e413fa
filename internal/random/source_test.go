package random

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoundedIntStaysInRange(t *testing.T) {
	src := NewSource(7)
	seen := make(map[int]bool)

	for i := 0; i < 5000; i++ {
		v := src.BoundedInt(0, 255)
		assert.GreaterOrEqual(t, v, 0)
		assert.LessOrEqual(t, v, 255)
		seen[v] = true
	}

	// both endpoints are reachable
	assert.True(t, seen[0])
	assert.True(t, seen[255])
}

func TestBoundedIntDegenerateRange(t *testing.T) {
	src := NewSource(1)
	assert.Equal(t, 4, src.BoundedInt(4, 4))
	assert.Equal(t, 4, src.BoundedInt(4, 2))
}

func TestSameSeedSameSequence(t *testing.T) {
	a := NewSource(42)
	b := NewSource(42)

	for i := 0; i < 100; i++ {
		assert.Equal(t, a.BoundedInt(0, 1000), b.BoundedInt(0, 1000))
	}
}

func TestConcurrentUse(t *testing.T) {
	src := NewTimeSeeded()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				v := src.BoundedInt(-3, 3)
				if v < -3 || v > 3 {
					t.Errorf("value out of range: %d", v)
				}
			}
		}()
	}
	wg.Wait()
}
