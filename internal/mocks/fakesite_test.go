package mocks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/trafficsim/internal/browser"
)

func TestFakeDriverDiesWithLaunchContext(t *testing.T) {
	site := NewFakeSite().AddPage("https://base.com/a").SetCookie("id", "1")
	launchCtx, cancel := context.WithCancel(context.Background())
	drv, err := site.Launch(launchCtx)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, drv.Navigate(ctx, "https://base.com/a"))
	v, found, err := drv.GetCookie(ctx, "id")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "1", v)

	cancel()
	_, _, err = drv.GetCookie(ctx, "id")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, drv.Navigate(ctx, "https://base.com/a"), context.Canceled)
	assert.NoError(t, drv.Quit())
}

func TestFakeDriverQuitIsIdempotent(t *testing.T) {
	drv, err := NewFakeSite().Launch(context.Background())
	require.NoError(t, err)

	assert.NoError(t, drv.Quit())
	assert.NoError(t, drv.Quit())
	assert.Equal(t, 2, drv.(*FakeDriver).Quits())
	assert.ErrorIs(t, drv.DeleteAllCookies(context.Background()), browser.ErrDriverClosed)
}
