// internal/humanoid/humanoid.go
package humanoid

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"sync"

	"go.uber.org/zap"
)

// Config tunes the pointer model.
type Config struct {
	// FittsA and FittsB are the Fitts's law intercept (ms) and slope (ms/bit).
	FittsA float64
	FittsB float64
	// TargetWidth is the assumed target width in pixels for the index of difficulty.
	TargetWidth float64
	// GaussianStrength is the standard deviation of per-step tremor in pixels.
	GaussianStrength float64
	// ArcFactor scales how far the Bezier control points bend away from the straight line.
	ArcFactor float64
	// StepsPerSecond is the sampling rate of the trajectory.
	StepsPerSecond float64
}

// DefaultConfig returns parameters that produce a relaxed desktop mouse.
func DefaultConfig() Config {
	return Config{
		FittsA:           80,
		FittsB:           120,
		TargetWidth:      30,
		GaussianStrength: 0.6,
		ArcFactor:        0.15,
		StepsPerSecond:   100,
	}
}

// Humanoid tracks one virtual pointer and moves it along human-like paths.
// It is safe for concurrent use, though a virtual user only ever drives it
// from one goroutine.
type Humanoid struct {
	cfg      Config
	executor Executor
	logger   *zap.Logger

	mu         sync.Mutex
	rng        *rand.Rand
	currentPos Vector2D
}

// New creates a Humanoid. The seed makes trajectories reproducible.
func New(cfg Config, executor Executor, logger *zap.Logger, seed uint64) *Humanoid {
	if cfg.StepsPerSecond <= 0 {
		cfg.StepsPerSecond = DefaultConfig().StepsPerSecond
	}
	if cfg.TargetWidth <= 0 {
		cfg.TargetWidth = DefaultConfig().TargetWidth
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Humanoid{
		cfg:      cfg,
		executor: executor,
		logger:   logger,
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Position returns the last dispatched pointer position.
func (h *Humanoid) Position() Vector2D {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.currentPos
}

// MoveTo moves the pointer from its current position to target. The final
// event lands exactly on target.
func (h *Humanoid) MoveTo(ctx context.Context, target Vector2D) error {
	if h.executor == nil {
		return errors.New("humanoid: no executor configured")
	}
	return h.simulateTrajectory(ctx, h.Position(), target)
}

// MoveToElement moves the pointer to a point inside geo, scattered around
// its center the way a person rarely hits dead center.
func (h *Humanoid) MoveToElement(ctx context.Context, geo ElementGeometry) error {
	return h.MoveTo(ctx, h.calculateTargetPoint(geo))
}

// calculateTargetPoint draws a point from a gaussian centered on the element,
// clamped one pixel inside its edges.
func (h *Humanoid) calculateTargetPoint(geo ElementGeometry) Vector2D {
	center := geo.Center()
	if geo.Width <= 2 || geo.Height <= 2 {
		return center
	}

	h.mu.Lock()
	offsetX := h.rng.NormFloat64() * geo.Width * 0.9 / 6.0
	offsetY := h.rng.NormFloat64() * geo.Height * 0.9 / 6.0
	h.mu.Unlock()

	x := math.Max(geo.X+1, math.Min(geo.X+geo.Width-1, center.X+offsetX))
	y := math.Max(geo.Y+1, math.Min(geo.Y+geo.Height-1, center.Y+offsetY))
	return Vector2D{X: x, Y: y}
}

// applyGaussianNoise adds high-frequency tremor to a coordinate.
func (h *Humanoid) applyGaussianNoise(point Vector2D) Vector2D {
	h.mu.Lock()
	defer h.mu.Unlock()
	strength := h.cfg.GaussianStrength * (0.5 + h.rng.Float64())
	return Vector2D{
		X: point.X + h.rng.NormFloat64()*strength,
		Y: point.Y + h.rng.NormFloat64()*strength,
	}
}
