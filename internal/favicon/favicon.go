// Package favicon turns bookmark URLs into favicon image addresses.
package favicon

import (
	"net/url"
	"strings"
)

const (
	// DefaultEndpoint is the favicon service queried by domain.
	DefaultEndpoint = "https://www.google.com/s2/favicons"
	// FallbackDomain is used when a bookmark URL has no usable host.
	FallbackDomain = "default"
)

// Resolver builds favicon addresses against a configurable endpoint.
type Resolver struct {
	endpoint string
}

// NewResolver creates a resolver. An empty endpoint means DefaultEndpoint.
func NewResolver(endpoint string) *Resolver {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "?")
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Resolver{endpoint: endpoint}
}

// URL returns the favicon address for raw. Malformed input falls back to the
// default domain instead of failing.
func (r *Resolver) URL(raw string) string {
	return r.endpoint + "?domain=" + url.QueryEscape(Host(raw))
}

// Host extracts the hostname of an absolute URL, or FallbackDomain.
// Scheme-only URLs such as mailto: have no hostname and also fall back.
func Host(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Hostname() == "" {
		return FallbackDomain
	}
	return u.Hostname()
}
