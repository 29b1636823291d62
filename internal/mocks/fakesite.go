package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/xkilldash9x/trafficsim/internal/browser"
)

// FakeSite is an in-memory website that hands out FakeDrivers. Pages are
// keyed by the exact URL the driver navigates to; navigating to an unknown
// URL succeeds and shows a page without links.
type FakeSite struct {
	mu       sync.Mutex
	pages    map[string][]string
	cookies  map[string]string
	navErrs  map[string]error
	drivers  []*FakeDriver
	launches int

	// LaunchErr, when set, fails every Launch.
	LaunchErr error
	// FailReads makes the first n FindAnchors calls of every driver fail.
	FailReads int
}

var _ browser.Launcher = (*FakeSite)(nil)

// NewFakeSite creates an empty site.
func NewFakeSite() *FakeSite {
	return &FakeSite{
		pages:   make(map[string][]string),
		cookies: make(map[string]string),
		navErrs: make(map[string]error),
	}
}

// AddPage registers url with the given anchor hrefs, in document order.
func (s *FakeSite) AddPage(url string, hrefs ...string) *FakeSite {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[url] = append([]string(nil), hrefs...)
	return s
}

// SetCookie makes every navigation store the cookie if the browser does not
// already hold one with that name.
func (s *FakeSite) SetCookie(name, value string) *FakeSite {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cookies[name] = value
	return s
}

// FailNavigation makes every navigation to url return err.
func (s *FakeSite) FailNavigation(url string, err error) *FakeSite {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.navErrs[url] = err
	return s
}

// Launch returns a fresh driver with an empty cookie jar. The driver stops
// working once ctx is done.
func (s *FakeSite) Launch(ctx context.Context) (browser.Driver, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.launches++
	if s.LaunchErr != nil {
		return nil, s.LaunchErr
	}
	d := &FakeDriver{
		life:      ctx,
		site:      s,
		cookies:   make(map[string]string),
		failReads: s.FailReads,
	}
	s.drivers = append(s.drivers, d)
	return d, nil
}

// Launches counts Launch calls, failed ones included.
func (s *FakeSite) Launches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.launches
}

// Drivers returns every driver handed out so far, in launch order.
func (s *FakeSite) Drivers() []*FakeDriver {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*FakeDriver(nil), s.drivers...)
}

func (s *FakeSite) page(url string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pages[url], s.navErrs[url]
}

func (s *FakeSite) siteCookies() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.cookies))
	for k, v := range s.cookies {
		out[k] = v
	}
	return out
}

// Point is a recorded MovePointer call.
type Point struct{ X, Y float64 }

// FakeDriver is a browser.Driver backed by a FakeSite.
type FakeDriver struct {
	// life is the Launch context; once it is done the browser is gone, like a
	// Chrome started on that context.
	life context.Context
	site *FakeSite

	mu             sync.Mutex
	current        string
	navigations    []string
	hovers         []browser.ElementRef
	pointer        []Point
	cookies        map[string]string
	deletedCookies []string
	clears         int
	failReads      int
	implicitWait   time.Duration
	quits          int
}

var _ browser.Driver = (*FakeDriver)(nil)

func (d *FakeDriver) check(ctx context.Context) error {
	if d.quits > 0 {
		return browser.ErrDriverClosed
	}
	if err := d.life.Err(); err != nil {
		return fmt.Errorf("browser process gone: %w", err)
	}
	return ctx.Err()
}

func (d *FakeDriver) Navigate(ctx context.Context, url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(ctx); err != nil {
		return err
	}
	d.navigations = append(d.navigations, url)
	if _, err := d.site.page(url); err != nil {
		return err
	}
	d.current = url
	for name, value := range d.site.siteCookies() {
		if _, ok := d.cookies[name]; !ok {
			d.cookies[name] = value
		}
	}
	return nil
}

func (d *FakeDriver) CurrentURL(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(ctx); err != nil {
		return "", err
	}
	return d.current, nil
}

func (d *FakeDriver) FindAnchors(ctx context.Context) ([]browser.Anchor, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(ctx); err != nil {
		return nil, err
	}
	if d.failReads > 0 {
		d.failReads--
		return nil, fmt.Errorf("fake read failure on %s", d.current)
	}
	hrefs, _ := d.site.page(d.current)
	anchors := make([]browser.Anchor, 0, len(hrefs))
	for i, h := range hrefs {
		anchors = append(anchors, browser.Anchor{Href: h, Ref: browser.ElementRef(i)})
	}
	return anchors, nil
}

func (d *FakeDriver) Hover(ctx context.Context, ref browser.ElementRef) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(ctx); err != nil {
		return err
	}
	d.hovers = append(d.hovers, ref)
	return nil
}

func (d *FakeDriver) MovePointer(ctx context.Context, x, y float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(ctx); err != nil {
		return err
	}
	d.pointer = append(d.pointer, Point{X: x, Y: y})
	return nil
}

func (d *FakeDriver) SetImplicitWait(wait time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.implicitWait = wait
}

func (d *FakeDriver) GetCookie(ctx context.Context, name string) (string, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(ctx); err != nil {
		return "", false, err
	}
	v, ok := d.cookies[name]
	return v, ok, nil
}

func (d *FakeDriver) DeleteCookie(ctx context.Context, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(ctx); err != nil {
		return err
	}
	delete(d.cookies, name)
	d.deletedCookies = append(d.deletedCookies, name)
	return nil
}

func (d *FakeDriver) DeleteAllCookies(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(ctx); err != nil {
		return err
	}
	d.cookies = make(map[string]string)
	d.clears++
	return nil
}

// Quit always succeeds; every call is counted.
func (d *FakeDriver) Quit() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.quits++
	return nil
}

// Navigations returns every URL passed to Navigate, failed ones included.
func (d *FakeDriver) Navigations() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.navigations...)
}

// Hovers returns the refs hovered so far.
func (d *FakeDriver) Hovers() []browser.ElementRef {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]browser.ElementRef(nil), d.hovers...)
}

// PointerMoves returns every MovePointer target.
func (d *FakeDriver) PointerMoves() []Point {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Point(nil), d.pointer...)
}

// Cookie returns a cookie from the jar without touching the quit state.
func (d *FakeDriver) Cookie(name string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.cookies[name]
	return v, ok
}

// DeletedCookies lists DeleteCookie names in call order.
func (d *FakeDriver) DeletedCookies() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.deletedCookies...)
}

// Clears counts DeleteAllCookies calls.
func (d *FakeDriver) Clears() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clears
}

// ImplicitWait returns the last value passed to SetImplicitWait.
func (d *FakeDriver) ImplicitWait() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.implicitWait
}

// Quits counts Quit calls.
func (d *FakeDriver) Quits() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.quits
}
