// internal/browser/chrome.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/trafficsim/internal/humanoid"
)

const (
	defaultImplicitWait = 30 * time.Second
	navigationTimeout   = 90 * time.Second
)

// anchorsScript reads every anchor in one round trip. a.href is the resolved
// absolute URL; the attribute check keeps href-less anchors empty.
const anchorsScript = `Array.from(document.querySelectorAll('a')).map((a) => ({
	href: a.hasAttribute('href') ? a.href : '',
	target: a.getAttribute('target') || ''
}))`

// rectScript scrolls the i-th anchor into view and returns its client rect,
// or null when the index no longer resolves.
const rectScript = `(function(i) {
	const a = document.querySelectorAll('a')[i];
	if (!a) { return null; }
	a.scrollIntoView({block: 'center', inline: 'nearest'});
	const r = a.getBoundingClientRect();
	return {x: r.left, y: r.top, width: r.width, height: r.height};
})(%d)`

type rawAnchor struct {
	Href   string `json:"href"`
	Target string `json:"target"`
}

type rawRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ChromeDriver drives one Chrome instance over CDP through chromedp.
type ChromeDriver struct {
	ctx         context.Context // tab context; carries the CDP target
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	logger      *zap.Logger
	humanoid    *humanoid.Humanoid

	implicitWait atomic.Int64

	mu       sync.Mutex
	isClosed bool
}

var _ Driver = (*ChromeDriver)(nil)

func (d *ChromeDriver) closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.isClosed
}

// runActions executes actions bounded by both the browser lifetime and ctx.
func (d *ChromeDriver) runActions(ctx context.Context, actions ...chromedp.Action) error {
	if d.closed() {
		return ErrDriverClosed
	}
	runCtx, cancel := CombineContext(d.ctx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

// runQuery is runActions bounded additionally by the implicit wait.
func (d *ChromeDriver) runQuery(ctx context.Context, actions ...chromedp.Action) error {
	queryCtx, cancel := context.WithTimeout(ctx, time.Duration(d.implicitWait.Load()))
	defer cancel()
	return d.runActions(queryCtx, actions...)
}

func (d *ChromeDriver) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, navigationTimeout)
	defer cancel()
	if err := d.runActions(navCtx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

func (d *ChromeDriver) CurrentURL(ctx context.Context) (string, error) {
	var location string
	if err := d.runQuery(ctx, chromedp.Location(&location)); err != nil {
		return "", fmt.Errorf("read current url: %w", err)
	}
	return location, nil
}

func (d *ChromeDriver) FindAnchors(ctx context.Context) ([]Anchor, error) {
	var raw []rawAnchor
	err := d.runQuery(ctx,
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Evaluate(anchorsScript, &raw),
	)
	if err != nil {
		return nil, fmt.Errorf("read anchors: %w", err)
	}

	anchors := make([]Anchor, len(raw))
	for i, a := range raw {
		anchors[i] = Anchor{Href: a.Href, Target: a.Target, Ref: ElementRef(i)}
	}
	return anchors, nil
}

func (d *ChromeDriver) Hover(ctx context.Context, ref ElementRef) error {
	var rect *rawRect
	if err := d.runQuery(ctx, chromedp.Evaluate(fmt.Sprintf(rectScript, int(ref)), &rect)); err != nil {
		return fmt.Errorf("locate anchor %d: %w", ref, err)
	}
	if rect == nil {
		return ErrStaleElement
	}

	geo := humanoid.ElementGeometry{X: rect.X, Y: rect.Y, Width: rect.Width, Height: rect.Height}
	if d.humanoid == nil {
		center := geo.Center()
		return d.dispatchMove(ctx, center.X, center.Y)
	}

	runCtx, cancel := CombineContext(d.ctx, ctx)
	defer cancel()
	return d.humanoid.MoveToElement(runCtx, geo)
}

func (d *ChromeDriver) MovePointer(ctx context.Context, x, y float64) error {
	if d.humanoid == nil {
		return d.dispatchMove(ctx, x, y)
	}
	if d.closed() {
		return ErrDriverClosed
	}
	runCtx, cancel := CombineContext(d.ctx, ctx)
	defer cancel()
	return d.humanoid.MoveTo(runCtx, humanoid.Vector2D{X: x, Y: y})
}

func (d *ChromeDriver) dispatchMove(ctx context.Context, x, y float64) error {
	return d.runActions(ctx, input.DispatchMouseEvent(input.MouseMoved, x, y))
}

// SetImplicitWait bounds every later DOM query. Non-positive values restore
// the default.
func (d *ChromeDriver) SetImplicitWait(wait time.Duration) {
	if wait <= 0 {
		wait = defaultImplicitWait
	}
	d.implicitWait.Store(int64(wait))
}

func (d *ChromeDriver) cookies(ctx context.Context) ([]*network.Cookie, error) {
	var cookies []*network.Cookie
	err := d.runActions(ctx, chromedp.ActionFunc(func(c context.Context) error {
		var err error
		cookies, err = network.GetCookies().Do(c)
		return err
	}))
	return cookies, err
}

func (d *ChromeDriver) GetCookie(ctx context.Context, name string) (string, bool, error) {
	cookies, err := d.cookies(ctx)
	if err != nil {
		return "", false, fmt.Errorf("read cookie %q: %w", name, err)
	}
	for _, c := range cookies {
		if c.Name == name {
			return c.Value, true, nil
		}
	}
	return "", false, nil
}

func (d *ChromeDriver) DeleteCookie(ctx context.Context, name string) error {
	cookies, err := d.cookies(ctx)
	if err != nil {
		return fmt.Errorf("delete cookie %q: %w", name, err)
	}

	var actions []chromedp.Action
	for _, c := range cookies {
		if c.Name == name {
			actions = append(actions, network.DeleteCookies(name).WithDomain(c.Domain).WithPath(c.Path))
		}
	}
	if len(actions) == 0 {
		return nil
	}
	if err := d.runActions(ctx, actions...); err != nil {
		return fmt.Errorf("delete cookie %q: %w", name, err)
	}
	return nil
}

func (d *ChromeDriver) DeleteAllCookies(ctx context.Context) error {
	if err := d.runActions(ctx, network.ClearBrowserCookies()); err != nil {
		return fmt.Errorf("clear cookies: %w", err)
	}
	return nil
}

// Quit closes the browser and releases the allocator. Only the first call
// does anything.
func (d *ChromeDriver) Quit() error {
	d.mu.Lock()
	if d.isClosed {
		d.mu.Unlock()
		return nil
	}
	d.isClosed = true
	d.mu.Unlock()

	d.logger.Debug("Closing browser.")

	// chromedp.Cancel closes the browser gracefully for the first tab.
	var err error
	if chromedp.FromContext(d.ctx) != nil {
		err = chromedp.Cancel(d.ctx)
	}
	if d.cancel != nil {
		d.cancel()
	}
	if d.allocCancel != nil {
		d.allocCancel()
	}
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("close browser: %w", err)
	}
	return nil
}
