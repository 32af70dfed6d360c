package offline

import (
	"fmt"
	"net/url"
)

// DefaultAPIMarker is the URL substring that selects the network-only strategy
const DefaultAPIMarker = "/api/"

// Config is the immutable description of one cache generation.
// Two managers with different Configs can share a storage without interfering
// as long as their Names differ.
type Config struct {
	// Name tags the cache generation. Change it whenever Manifest changes.
	Name string

	// Manifest lists absolute URLs that must be cached at install.
	Manifest []string

	// APIMarker selects the network-only class by substring match on the URL.
	APIMarker string
}

func (c Config) validate() (Config, error) {
	if c.Name == "" {
		return c, fmt.Errorf("cache name is required")
	}
	if c.APIMarker == "" {
		c.APIMarker = DefaultAPIMarker
	}
	manifest := make([]string, len(c.Manifest))
	for i, raw := range c.Manifest {
		u, err := url.Parse(raw)
		if err != nil {
			return c, fmt.Errorf("invalid manifest entry %q: %w", raw, err)
		}
		if !u.IsAbs() {
			return c, fmt.Errorf("manifest entry must be an absolute URL: %q", raw)
		}
		manifest[i] = raw
	}
	// Own copy so later mutation of the caller's slice cannot leak in
	c.Manifest = manifest
	return c, nil
}
