package browse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/trafficsim/internal/browser"
)

func TestReasonString(t *testing.T) {
	assert.Equal(t, "none", ReasonNone.String())
	assert.Equal(t, "out_of_scope", ReasonOutOfScope.String())
	assert.Equal(t, "visited", ReasonVisited.String())
	assert.Equal(t, "unknown", Reason(99).String())
	assert.Equal(t, "unknown", Reason(-1).String())
}

func TestFilterEvaluate(t *testing.T) {
	const current = "https://base.com/page"
	s := beganSession(t, "base.com")
	require.NoError(t, s.AddSkip("https://base.com/account"))
	s.MarkVisited("https://base.com/seen")
	f := NewFilter(nil)

	tests := []struct {
		name string
		href string
		want Reason
	}{
		{"empty", "", ReasonEmptyHref},
		{"blank", "   ", ReasonEmptyHref},
		{"javascript", "javascript:void(0)", ReasonScheme},
		{"mailto", "MAILTO:someone@base.com", ReasonScheme},
		{"tel", "tel:+15550100", ReasonScheme},
		{"same page", "https://base.com/page", ReasonSamePage},
		{"same page anchor", "https://base.com/page#top", ReasonSamePage},
		{"relative", "/about", ReasonUnparsable},
		{"ftp", "ftp://base.com/file", ReasonUnparsable},
		{"other domain", "https://other.com/x", ReasonOutOfScope},
		{"subdomain without widening", "https://www.base.com/x", ReasonOutOfScope},
		{"asset", "https://base.com/-/media/logo.png", ReasonAsset},
		{"asset any case", "https://base.com/-/MEDIA/logo.png", ReasonAsset},
		{"skipped exact", "https://base.com/account", ReasonSkipped},
		{"skipped below", "https://base.com/account/orders", ReasonSkipped},
		{"visited", "https://base.com/seen/", ReasonVisited},
		{"visited with fragment", "https://base.com/seen#x", ReasonVisited},
		{"eligible", "https://base.com/about", ReasonNone},
		{"eligible with query", "https://base.com/search?q=1", ReasonNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, reason := f.Evaluate(browser.Anchor{Href: tt.href, Target: "_self", Ref: 3}, current, s)
			assert.Equal(t, tt.want, reason, "reason was %s", reason)
			assert.Equal(t, tt.href, c.Href)
			assert.Equal(t, browser.ElementRef(3), c.Ref)
			if tt.want == ReasonNone {
				assert.NotNil(t, c.URL)
				assert.NotEmpty(t, c.Normalized)
			}
		})
	}
}

func TestFilterCheckOrder(t *testing.T) {
	s := beganSession(t, "base.com")
	require.NoError(t, s.AddSkip("https://base.com/-/media"))
	s.MarkVisited("https://base.com/account")
	require.NoError(t, s.AddSkip("https://base.com/account"))
	f := NewFilter(nil)

	tests := []struct {
		name string
		href string
		want Reason
	}{
		{"scheme before scope", "mailto:x@other.com", ReasonScheme},
		{"scope before asset", "https://other.com/-/media/x.png", ReasonOutOfScope},
		{"asset before skip", "https://base.com/-/media/x.png", ReasonAsset},
		{"skip before visited", "https://base.com/account", ReasonSkipped},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, reason := f.Evaluate(browser.Anchor{Href: tt.href}, "https://base.com/", s)
			assert.Equal(t, tt.want, reason)
		})
	}
}

func TestFilterCustomAssetMarkers(t *testing.T) {
	s := beganSession(t, "base.com")
	f := NewFilter([]string{" /Downloads/ ", ""})

	_, reason := f.Evaluate(browser.Anchor{Href: "https://base.com/downloads/a.pdf"}, "", s)
	assert.Equal(t, ReasonAsset, reason)
	_, reason = f.Evaluate(browser.Anchor{Href: "https://base.com/-/media/a.png"}, "", s)
	assert.Equal(t, ReasonNone, reason, "custom markers replace the defaults")
}

func TestFilterIncludeSubdomains(t *testing.T) {
	s := NewSession(true)
	require.NoError(t, s.Begin(Entry{URL: "https://www.base.com/", Scope: "www.base.com"}))
	f := NewFilter(nil)

	_, reason := f.Evaluate(browser.Anchor{Href: "https://shop.base.com/cart"}, "", s)
	assert.Equal(t, ReasonNone, reason)
	_, reason = f.Evaluate(browser.Anchor{Href: "https://base.com.evil.net/"}, "", s)
	assert.Equal(t, ReasonOutOfScope, reason)
}

func TestFilterOnlyInScopeAnchorEverEligible(t *testing.T) {
	anchors := []browser.Anchor{
		{Href: "https://other.com/x", Ref: 0},
		{Href: "https://base.com/y", Ref: 1},
	}
	s := beganSession(t, "base.com")
	f := NewFilter(nil)
	rng := NewRand(42)

	eligible := map[string]int{}
	for i := 0; i < 200; i++ {
		a, ok := Pick(anchors, rng)
		require.True(t, ok)
		c, reason := f.Evaluate(a, "https://base.com/", s)
		if a.Ref == 0 {
			assert.Equal(t, ReasonOutOfScope, reason)
			continue
		}
		require.Equal(t, ReasonNone, reason)
		eligible[c.Normalized]++
	}
	require.Len(t, eligible, 1)
	assert.Contains(t, eligible, "https://base.com/y")
}

func TestPick(t *testing.T) {
	_, ok := Pick(nil, newSeqRand())
	assert.False(t, ok)

	anchors := []browser.Anchor{{Href: "a"}, {Href: "b"}, {Href: "c"}}
	rng := newSeqRand(2, 0, 4)
	var got []string
	for i := 0; i < 3; i++ {
		a, ok := Pick(anchors, rng)
		require.True(t, ok)
		got = append(got, a.Href)
	}
	assert.Equal(t, []string{"c", "a", "b"}, got)
}
