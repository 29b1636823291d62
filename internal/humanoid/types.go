// internal/humanoid/types.go
package humanoid

import (
	"context"
	"time"
)

// MouseEventType defines the type of mouse event. The values match the
// Input.dispatchMouseEvent type strings.
type MouseEventType string

const (
	MouseMove MouseEventType = "mouseMoved"
)

// MouseEventData holds the data required to dispatch a mouse event.
type MouseEventData struct {
	Type MouseEventType
	X    float64
	Y    float64
}

// ElementGeometry is an element's bounding client rect in CSS pixels.
type ElementGeometry struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Center returns the midpoint of the rect.
func (g ElementGeometry) Center() Vector2D {
	return Vector2D{X: g.X + g.Width/2, Y: g.Y + g.Height/2}
}

// Executor is the browser side of a movement: it pauses and dispatches
// pointer events. Keeping it this small lets tests record every event.
type Executor interface {
	// Sleep pauses execution, respecting context cancellation.
	Sleep(ctx context.Context, d time.Duration) error
	// DispatchMouseEvent sends one pointer event.
	DispatchMouseEvent(ctx context.Context, data MouseEventData) error
}
