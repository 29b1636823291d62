package browse

import (
	"net/url"
	"strings"

	"github.com/xkilldash9x/trafficsim/internal/browser"
)

// Reason says why the filter rejected a link. ReasonNone means eligible.
// The order of the constants is the order the checks run in.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonEmptyHref
	ReasonScheme
	ReasonSamePage
	ReasonUnparsable
	ReasonOutOfScope
	ReasonAsset
	ReasonSkipped
	ReasonVisited
)

var reasonNames = [...]string{
	ReasonNone:       "none",
	ReasonEmptyHref:  "empty_href",
	ReasonScheme:     "scheme",
	ReasonSamePage:   "same_page",
	ReasonUnparsable: "unparsable",
	ReasonOutOfScope: "out_of_scope",
	ReasonAsset:      "asset",
	ReasonSkipped:    "skipped",
	ReasonVisited:    "visited",
}

// String returns the stable name used in logs and metric labels.
func (r Reason) String() string {
	if r < 0 || int(r) >= len(reasonNames) {
		return "unknown"
	}
	return reasonNames[r]
}

// nonNavigational are href prefixes that never load a page.
var nonNavigational = []string{"javascript:", "mailto:", "tel:"}

// DefaultAssetMarkers exclude Sitecore media library paths.
var DefaultAssetMarkers = []string{"/-/media/"}

// Candidate is an anchor that has been through the filter. URL and
// Normalized are only set once the href parsed.
type Candidate struct {
	Href       string
	Target     string
	Ref        browser.ElementRef
	URL        *url.URL
	Normalized string
}

// Filter decides whether a drawn anchor may be opened next.
type Filter struct {
	assetMarkers []string
}

// NewFilter creates a filter. Markers are matched case-insensitively
// anywhere in the href; nil selects DefaultAssetMarkers.
func NewFilter(assetMarkers []string) *Filter {
	if assetMarkers == nil {
		assetMarkers = DefaultAssetMarkers
	}
	f := &Filter{}
	for _, m := range assetMarkers {
		if m = strings.TrimSpace(m); m != "" {
			f.assetMarkers = append(f.assetMarkers, strings.ToLower(m))
		}
	}
	return f
}

// Evaluate runs the checks in order and stops at the first that fails.
// current is the URL of the page the anchor was read from.
func (f *Filter) Evaluate(a browser.Anchor, current string, s *Session) (Candidate, Reason) {
	c := Candidate{Href: a.Href, Target: a.Target, Ref: a.Ref}

	href := strings.TrimSpace(a.Href)
	if href == "" {
		return c, ReasonEmptyHref
	}

	lower := strings.ToLower(href)
	for _, prefix := range nonNavigational {
		if strings.HasPrefix(lower, prefix) {
			return c, ReasonScheme
		}
	}

	if current != "" {
		cur := strings.ToLower(current)
		if lower == cur || strings.HasPrefix(lower, cur+"#") {
			return c, ReasonSamePage
		}
	}

	u, err := parseAbsolute(href)
	if err != nil {
		return c, ReasonUnparsable
	}
	c.URL = u

	if !s.Scope().Contains(u.Hostname()) {
		return c, ReasonOutOfScope
	}

	for _, marker := range f.assetMarkers {
		if strings.Contains(lower, marker) {
			return c, ReasonAsset
		}
	}

	c.Normalized = normalizeURL(u)
	if s.IsSkipped(c.Normalized) {
		return c, ReasonSkipped
	}
	if s.IsVisited(c.Normalized) {
		return c, ReasonVisited
	}
	return c, ReasonNone
}

// Pick draws one anchor uniformly over all of them, eligible or not.
func Pick(anchors []browser.Anchor, rng Rand) (browser.Anchor, bool) {
	if len(anchors) == 0 {
		return browser.Anchor{}, false
	}
	return anchors[rng.IntN(len(anchors))], true
}
