package browse

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/trafficsim/internal/mocks"
)

const identityCookie = "ASP.NET_SessionId"

func TestResetPolicyEnabled(t *testing.T) {
	p := NewResetPolicy(identityCookie, nil, nil)
	assert.False(t, p.Enabled(0))
	assert.False(t, p.Enabled(1))
	assert.True(t, p.Enabled(2))
	assert.True(t, p.Enabled(4))
}

func TestResetPolicyApply(t *testing.T) {
	ctx := context.Background()
	site := mocks.NewFakeSite().
		AddPage("https://base.com/a").
		SetCookie(identityCookie, "abc").
		SetCookie("SC_ANALYTICS_GLOBAL_COOKIE", "visitor-1")
	drv, err := site.Launch(ctx)
	require.NoError(t, err)
	d := drv.(*mocks.FakeDriver)
	require.NoError(t, d.Navigate(ctx, "https://base.com/a"))

	s := beganSession(t, "base.com")
	require.NoError(t, s.AddSkip("https://base.com/private"))
	s.MarkVisited("https://base.com/a")
	s.MarkVisited("https://base.com/b")

	rec := new(mocks.MockRecorder)
	rec.On("SessionReset").Once()

	p := NewResetPolicy(identityCookie, rec, nil)
	require.NoError(t, p.Apply(ctx, s, d))

	assert.Zero(t, s.VisitedCount())
	assert.True(t, s.IsSkipped("https://base.com/private"))
	assert.Equal(t, "base.com", s.Scope().Domain())
	assert.Equal(t, "https://base.com/", s.EntryURL())

	_, ok := d.Cookie(identityCookie)
	assert.False(t, ok, "identity cookie must be gone")
	v, ok := d.Cookie("SC_ANALYTICS_GLOBAL_COOKIE")
	assert.True(t, ok)
	assert.Equal(t, "visitor-1", v)
	assert.Equal(t, []string{identityCookie}, d.DeletedCookies())
	assert.Zero(t, d.Quits(), "the browser survives a reset")
	assert.Zero(t, d.Clears())
	assert.Len(t, site.Drivers(), 1)
	rec.AssertExpectations(t)
}

func TestResetPolicyDeleteFailure(t *testing.T) {
	ctx := context.Background()
	d := new(mocks.MockDriver)
	d.On("DeleteCookie", mock.Anything, identityCookie).Return(errors.New("cdp gone"))
	rec := new(mocks.MockRecorder)

	s := beganSession(t, "base.com")
	s.MarkVisited("https://base.com/a")

	err := NewResetPolicy(identityCookie, rec, nil).Apply(ctx, s, d)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session reset")
	assert.Contains(t, err.Error(), "cdp gone")
	assert.Zero(t, s.VisitedCount())
	rec.AssertNotCalled(t, "SessionReset")
	d.AssertExpectations(t)
}

func TestResetPolicyWithoutCookieOnlyClearsHistory(t *testing.T) {
	d := new(mocks.MockDriver)
	s := beganSession(t, "base.com")
	s.MarkVisited("https://base.com/a")

	require.NoError(t, NewResetPolicy("", nil, nil).Apply(context.Background(), s, d))
	assert.Zero(t, s.VisitedCount())
	d.AssertNotCalled(t, "DeleteCookie", mock.Anything, mock.Anything)
}
