package shutdown

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdownRunsComponentsInReverseOrder(t *testing.T) {
	m := NewManager(context.Background(), nil)

	var order []int
	m.Register(Func(func() { order = append(order, 1) }))
	m.Register(Func(func() { order = append(order, 2) }))
	m.Register(Func(func() { order = append(order, 3) }))

	m.Shutdown()
	m.Shutdown()

	assert.Equal(t, []int{3, 2, 1}, order)
	require.Error(t, m.Context().Err())

	select {
	case <-m.Done():
	default:
		t.Fatal("done channel not closed")
	}
}

func TestShutdownTimesOutStuckComponent(t *testing.T) {
	m := NewManager(context.Background(), nil)
	m.SetTimeout(10 * time.Millisecond)

	release := make(chan struct{})
	defer close(release)

	ran := false
	m.Register(Func(func() { ran = true }))
	m.Register(Func(func() { <-release }))

	start := time.Now()
	m.Shutdown()
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.True(t, ran)
}

func TestParentCancellationPropagates(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	m := NewManager(parent, nil)
	cancel()
	assert.Error(t, m.Context().Err())
}

func TestListenStop(t *testing.T) {
	m := NewManager(context.Background(), nil)
	stop := m.Listen()
	stop()
	m.Shutdown()
}
