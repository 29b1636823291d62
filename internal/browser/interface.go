// internal/browser/interface.go
package browser

import (
	"context"
	"errors"
	"time"
)

// ErrDriverClosed is returned by every Driver operation after Quit.
var ErrDriverClosed = errors.New("browser driver is closed")

// ErrStaleElement is returned when an ElementRef no longer resolves in the
// current document.
var ErrStaleElement = errors.New("element reference is stale")

// ElementRef identifies an anchor within the document it was read from. It is
// only meaningful until the next navigation.
type ElementRef int

// Anchor is one <a> element as read from the page. Href is the resolved
// absolute href (empty when the attribute is absent).
type Anchor struct {
	Href   string
	Target string
	Ref    ElementRef
}

// Driver is the browser control surface a virtual user needs. One Driver
// belongs to exactly one virtual user for its whole life.
type Driver interface {
	// Navigate loads url in the current tab and waits for the load event.
	Navigate(ctx context.Context, url string) error
	// CurrentURL returns the document URL.
	CurrentURL(ctx context.Context) (string, error)
	// FindAnchors returns every anchor in the current document, in document order.
	FindAnchors(ctx context.Context) ([]Anchor, error)
	// Hover moves the pointer over the referenced element.
	Hover(ctx context.Context, ref ElementRef) error
	// MovePointer moves the pointer to viewport coordinates.
	MovePointer(ctx context.Context, x, y float64) error
	// SetImplicitWait bounds subsequent DOM queries against the page.
	SetImplicitWait(d time.Duration)
	// GetCookie returns the value of the named cookie and whether it exists.
	GetCookie(ctx context.Context, name string) (string, bool, error)
	// DeleteCookie removes every cookie with the given name.
	DeleteCookie(ctx context.Context, name string) error
	// DeleteAllCookies clears the browser cookie jar.
	DeleteAllCookies(ctx context.Context) error
	// Quit releases the browser. Calling it again is a no-op.
	Quit() error
}

// Launcher starts a fresh browser for a virtual user. The context passed to
// Launch bounds the browser's whole life; callers that must still talk to the
// browser after their own deadline pass a detached context (see Detach).
type Launcher interface {
	Launch(ctx context.Context) (Driver, error)
}
