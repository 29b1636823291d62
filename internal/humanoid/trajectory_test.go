// Filename: internal/humanoid/trajectory_test.go
package humanoid

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockExecutor records every event and sleep instead of touching a browser.
type mockExecutor struct {
	mu     sync.Mutex
	events []MouseEventData
	sleeps []time.Duration

	failOnCall int
	returnErr  error
	cancelOn   int
	cancelFunc context.CancelFunc
}

func (m *mockExecutor) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sleeps = append(m.sleeps, d)
	return nil
}

func (m *mockExecutor) DispatchMouseEvent(ctx context.Context, data MouseEventData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOnCall > 0 && len(m.events)+1 >= m.failOnCall {
		return m.returnErr
	}
	m.events = append(m.events, data)
	if m.cancelOn > 0 && len(m.events) == m.cancelOn && m.cancelFunc != nil {
		m.cancelFunc()
	}
	return nil
}

func (m *mockExecutor) totalSleep() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total time.Duration
	for _, d := range m.sleeps {
		total += d
	}
	return total
}

func newTestHumanoid(exec Executor) *Humanoid {
	return New(DefaultConfig(), exec, zap.NewNop(), 42)
}

func TestComputeEaseInOutCubic(t *testing.T) {
	assert.InDelta(t, 0.0, computeEaseInOutCubic(0), 1e-9)
	assert.InDelta(t, 0.5, computeEaseInOutCubic(0.5), 1e-9)
	assert.InDelta(t, 1.0, computeEaseInOutCubic(1), 1e-9)

	prev := -1.0
	for i := 0; i <= 100; i++ {
		v := computeEaseInOutCubic(float64(i) / 100)
		require.GreaterOrEqual(t, v, prev, "easing must be monotonic")
		prev = v
	}
}

func TestCalculateFittsLaw(t *testing.T) {
	h := newTestHumanoid(&mockExecutor{})
	near := h.calculateFittsLaw(10)
	far := h.calculateFittsLaw(2000)
	assert.Greater(t, far, near, "longer moves take longer")
	assert.Greater(t, near, time.Duration(0))
}

func TestGenerateIdealPath(t *testing.T) {
	h := newTestHumanoid(&mockExecutor{})
	start := Vector2D{X: 0, Y: 0}
	end := Vector2D{X: 300, Y: 120}

	path := h.generateIdealPath(start, end, 25)
	require.Len(t, path, 25)
	assert.InDelta(t, start.X, path[0].X, 1e-9)
	assert.InDelta(t, start.Y, path[0].Y, 1e-9)
	assert.Equal(t, end, path[24])

	t.Run("short distance collapses to the endpoint", func(t *testing.T) {
		assert.Equal(t, []Vector2D{{X: 0.5, Y: 0}}, h.generateIdealPath(start, Vector2D{X: 0.5}, 10))
	})
}

func TestMoveTo(t *testing.T) {
	t.Run("lands exactly on target and paces the timeline", func(t *testing.T) {
		exec := &mockExecutor{}
		h := newTestHumanoid(exec)
		target := Vector2D{X: 640, Y: 360}

		require.NoError(t, h.MoveTo(context.Background(), target))

		require.GreaterOrEqual(t, len(exec.events), 2)
		lastEvent := exec.events[len(exec.events)-1]
		assert.Equal(t, MouseEventData{Type: MouseMove, X: 640, Y: 360}, lastEvent)
		assert.Equal(t, target, h.Position())
		for _, ev := range exec.events {
			assert.Equal(t, MouseMove, ev.Type)
		}
		assert.Greater(t, exec.totalSleep(), time.Duration(0))
	})

	t.Run("stops when the context is canceled mid move", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		exec := &mockExecutor{cancelOn: 2, cancelFunc: cancel}
		h := newTestHumanoid(exec)

		err := h.MoveTo(ctx, Vector2D{X: 1500, Y: 900})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Len(t, exec.events, 2)
	})

	t.Run("propagates dispatch errors", func(t *testing.T) {
		boom := errors.New("target closed")
		exec := &mockExecutor{failOnCall: 1, returnErr: boom}
		h := newTestHumanoid(exec)

		assert.ErrorIs(t, h.MoveTo(context.Background(), Vector2D{X: 10, Y: 10}), boom)
		assert.Equal(t, Vector2D{}, h.Position())
	})

	t.Run("requires an executor", func(t *testing.T) {
		h := New(DefaultConfig(), nil, nil, 1)
		assert.Error(t, h.MoveTo(context.Background(), Vector2D{X: 1, Y: 1}))
	})
}

func TestMoveToElement(t *testing.T) {
	exec := &mockExecutor{}
	h := newTestHumanoid(exec)
	geo := ElementGeometry{X: 100, Y: 200, Width: 80, Height: 20}

	for i := 0; i < 20; i++ {
		require.NoError(t, h.MoveToElement(context.Background(), geo))
		pos := h.Position()
		assert.GreaterOrEqual(t, pos.X, geo.X+1)
		assert.LessOrEqual(t, pos.X, geo.X+geo.Width-1)
		assert.GreaterOrEqual(t, pos.Y, geo.Y+1)
		assert.LessOrEqual(t, pos.Y, geo.Y+geo.Height-1)
	}

	t.Run("degenerate rect targets the center", func(t *testing.T) {
		tiny := ElementGeometry{X: 5, Y: 5, Width: 1, Height: 1}
		assert.Equal(t, tiny.Center(), h.calculateTargetPoint(tiny))
	})
}

func TestSeededTrajectoriesAreReproducible(t *testing.T) {
	run := func() []MouseEventData {
		exec := &mockExecutor{}
		h := newTestHumanoid(exec)
		require.NoError(t, h.MoveTo(context.Background(), Vector2D{X: 400, Y: 50}))
		return exec.events
	}
	assert.Equal(t, run(), run())
}
