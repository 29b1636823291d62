// internal/humanoid/trajectory.go
package humanoid

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"
)

// computeEaseInOutCubic provides a smooth acceleration and deceleration profile for movement.
func computeEaseInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

// calculateFittsLaw returns a movement time for the given distance, with
// +/- 15% jitter.
func (h *Humanoid) calculateFittsLaw(distance float64) time.Duration {
	id := math.Log2(1.0 + distance/h.cfg.TargetWidth)
	mt := h.cfg.FittsA + h.cfg.FittsB*id

	h.mu.Lock()
	mt += mt * (h.rng.Float64()*0.3 - 0.15)
	h.mu.Unlock()

	if mt < 0 {
		mt = 0
	}
	return time.Duration(mt * float64(time.Millisecond))
}

// generateIdealPath samples a cubic Bezier from start to end whose control
// points bow to one side of the straight line.
func (h *Humanoid) generateIdealPath(start, end Vector2D, numSteps int) []Vector2D {
	mainVec := end.Sub(start)
	dist := mainVec.Mag()
	if dist < 1.0 || numSteps <= 1 {
		return []Vector2D{end}
	}

	mainDir := mainVec.Normalize()
	perp := mainDir.Perp()

	h.mu.Lock()
	bend1 := (h.rng.Float64()*2 - 1) * h.cfg.ArcFactor * dist
	bend2 := (h.rng.Float64()*2 - 1) * h.cfg.ArcFactor * dist
	h.mu.Unlock()

	p0, p3 := start, end
	p1 := start.Add(mainDir.Mul(dist / 3.0)).Add(perp.Mul(bend1))
	p2 := start.Add(mainDir.Mul(dist * 2.0 / 3.0)).Add(perp.Mul(bend2))

	path := make([]Vector2D, numSteps)
	for i := 0; i < numSteps; i++ {
		t := float64(i) / float64(numSteps-1)
		omt := 1.0 - t
		omt2 := omt * omt
		omt3 := omt2 * omt
		t2 := t * t
		t3 := t2 * t

		path[i] = p0.Mul(omt3).Add(p1.Mul(3 * omt2 * t)).Add(p2.Mul(3 * omt * t2)).Add(p3.Mul(t3))
	}
	path[numSteps-1] = end
	return path
}

// simulateTrajectory dispatches one mouseMoved event per path sample, paced
// by the eased timeline. Intermediate samples get tremor; the last does not.
func (h *Humanoid) simulateTrajectory(ctx context.Context, start, end Vector2D) error {
	duration := h.calculateFittsLaw(start.Dist(end))
	numSteps := int(duration.Seconds() * h.cfg.StepsPerSecond)
	if numSteps < 2 {
		numSteps = 2
	}

	path := h.generateIdealPath(start, end, numSteps)
	last := len(path) - 1
	prevEased := 0.0

	for i, point := range path {
		if err := ctx.Err(); err != nil {
			return err
		}

		if last > 0 {
			eased := computeEaseInOutCubic(float64(i) / float64(last))
			if wait := time.Duration((eased - prevEased) * float64(duration)); wait > 0 {
				if err := h.executor.Sleep(ctx, wait); err != nil {
					return err
				}
			}
			prevEased = eased
		}

		if i != last {
			point = h.applyGaussianNoise(point)
		}

		if err := h.executor.DispatchMouseEvent(ctx, MouseEventData{Type: MouseMove, X: point.X, Y: point.Y}); err != nil {
			if ctx.Err() == nil {
				h.logger.Debug("Failed to dispatch mouse move event", zap.Error(err))
			}
			return err
		}

		h.mu.Lock()
		h.currentPos = point
		h.mu.Unlock()
	}
	return nil
}
