// Filename: internal/humanoid/executor.go
package humanoid

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
)

// CDPExecutor is the production Executor. The context passed to each call
// must be (or derive from) a chromedp tab context.
type CDPExecutor struct{}

// NewCDPExecutor creates a new production executor.
func NewCDPExecutor() *CDPExecutor {
	return &CDPExecutor{}
}

func (e *CDPExecutor) Sleep(ctx context.Context, d time.Duration) error {
	return chromedp.Run(ctx, chromedp.Sleep(d))
}

func (e *CDPExecutor) DispatchMouseEvent(ctx context.Context, data MouseEventData) error {
	return chromedp.Run(ctx, input.DispatchMouseEvent(input.MouseType(data.Type), data.X, data.Y))
}
