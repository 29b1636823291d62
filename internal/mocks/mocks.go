// File: internal/mocks/mocks.go
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/trafficsim/internal/browser"
	"github.com/xkilldash9x/trafficsim/internal/metrics"
)

// -- Browser Driver Mock --

// MockDriver mocks the browser.Driver interface.
type MockDriver struct {
	mock.Mock
}

var _ browser.Driver = (*MockDriver)(nil)

func (m *MockDriver) Navigate(ctx context.Context, url string) error {
	args := m.Called(ctx, url)
	return args.Error(0)
}

func (m *MockDriver) CurrentURL(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// FindAnchors returns the configured anchors. A nil first return value is
// allowed.
func (m *MockDriver) FindAnchors(ctx context.Context) ([]browser.Anchor, error) {
	args := m.Called(ctx)
	var anchors []browser.Anchor
	if a := args.Get(0); a != nil {
		anchors = a.([]browser.Anchor)
	}
	return anchors, args.Error(1)
}

func (m *MockDriver) Hover(ctx context.Context, ref browser.ElementRef) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}

func (m *MockDriver) MovePointer(ctx context.Context, x, y float64) error {
	args := m.Called(ctx, x, y)
	return args.Error(0)
}

func (m *MockDriver) SetImplicitWait(d time.Duration) {
	m.Called(d)
}

func (m *MockDriver) GetCookie(ctx context.Context, name string) (string, bool, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockDriver) DeleteCookie(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *MockDriver) DeleteAllCookies(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockDriver) Quit() error {
	args := m.Called()
	return args.Error(0)
}

// -- Browser Launcher Mock --

// MockLauncher mocks the browser.Launcher interface.
type MockLauncher struct {
	mock.Mock
}

var _ browser.Launcher = (*MockLauncher)(nil)

func (m *MockLauncher) Launch(ctx context.Context) (browser.Driver, error) {
	args := m.Called(ctx)
	var d browser.Driver
	if v := args.Get(0); v != nil {
		d = v.(browser.Driver)
	}
	return d, args.Error(1)
}

// -- Metrics Recorder Mock --

// MockRecorder mocks the metrics.Recorder interface.
type MockRecorder struct {
	mock.Mock
}

var _ metrics.Recorder = (*MockRecorder)(nil)

func (m *MockRecorder) PageOpened(dwell time.Duration) { m.Called(dwell) }
func (m *MockRecorder) LinkRejected(reason string)     { m.Called(reason) }
func (m *MockRecorder) DeadEnd()                       { m.Called() }
func (m *MockRecorder) SessionReset()                  { m.Called() }
func (m *MockRecorder) UserStarted()                   { m.Called() }
func (m *MockRecorder) UserFinished(outcome string)    { m.Called(outcome) }
