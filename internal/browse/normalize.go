package browse

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Normalize canonicalizes an absolute http(s) URL for the visited and skip
// sets: lowercase scheme and host, no default port, no fragment, no trailing
// slash on the path. The query is kept as is.
func Normalize(raw string) (string, error) {
	u, err := parseAbsolute(raw)
	if err != nil {
		return "", err
	}
	return normalizeURL(u), nil
}

// parseAbsolute parses raw and requires an http(s) scheme and a host.
func parseAbsolute(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, fmt.Errorf("not an absolute http(s) url: %q", raw)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("url has no host: %q", raw)
	}
	return u, nil
}

func normalizeURL(u *url.URL) string {
	n := *u
	n.Scheme = strings.ToLower(n.Scheme)
	n.Fragment = ""
	n.RawFragment = ""

	host := strings.ToLower(n.Hostname())
	port := n.Port()
	if (n.Scheme == "http" && port == "80") || (n.Scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		host = net.JoinHostPort(host, port)
	} else if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	n.Host = host

	n.Path = strings.TrimRight(n.Path, "/")
	n.RawPath = ""
	if n.RawQuery == "" {
		n.ForceQuery = false
	}
	return n.String()
}
