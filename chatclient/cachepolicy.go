package chatclient

import (
	"net/url"
	"path"
	"strings"
)

// CachePolicy is the fetch strategy the offline cache layer applies to one
// resource class.
type CachePolicy int

const (
	// PolicyNetworkFirst fetches from the network and falls back to the
	// cache on failure. Default for pages, scripts and styles.
	PolicyNetworkFirst CachePolicy = iota
	// PolicyStaleWhileRevalidate serves the cached copy immediately when
	// present and refreshes it in the background. Applied to the API host.
	PolicyStaleWhileRevalidate
	// PolicyCacheFirst serves the cached copy and only fetches on a miss.
	// Applied to image assets.
	PolicyCacheFirst
)

// String names the policy for logs.
func (p CachePolicy) String() string {
	switch p {
	case PolicyStaleWhileRevalidate:
		return "stale-while-revalidate"
	case PolicyCacheFirst:
		return "cache-first"
	default:
		return "network-first"
	}
}

var imageExtensions = map[string]bool{
	".webp": true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".svg":  true,
}

// ClassifyRequest picks the cache policy for a request URL. apiHost is the
// backend API hostname; requests to it get stale-while-revalidate so the
// room list paints instantly from cache while a fresh copy loads. Uploaded
// product images and static image assets are cache-first. Everything else
// is network-first so deploys are picked up whenever the network is there.
func ClassifyRequest(rawURL, apiHost string) CachePolicy {
	u, err := url.Parse(rawURL)
	if err != nil {
		return PolicyNetworkFirst
	}

	if apiHost != "" && strings.EqualFold(u.Hostname(), apiHost) {
		return PolicyStaleWhileRevalidate
	}

	if strings.Contains(u.Path, "/product_images/") {
		return PolicyCacheFirst
	}
	if imageExtensions[strings.ToLower(path.Ext(u.Path))] {
		return PolicyCacheFirst
	}

	return PolicyNetworkFirst
}
