// internal/browser/context_utils.go
package browser

import (
	"context"
)

// CombineContext returns a context derived from ctx1 that is also canceled
// when ctx2 is. Values (the chromedp target in particular) come from ctx1;
// ctx2 only contributes its cancellation.
func CombineContext(ctx1, ctx2 context.Context) (context.Context, context.CancelFunc) {
	combinedCtx, cancel := context.WithCancel(ctx1)
	stop := context.AfterFunc(ctx2, cancel)
	return combinedCtx, func() {
		stop()
		cancel()
	}
}

// Detach returns a context that inherits values from ctx but is not canceled
// when ctx is. Teardown that must run after a user's context expired uses it.
func Detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
