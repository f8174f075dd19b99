package client

import (
	"net/http"

	"github.com/gregjones/httpcache"
	"github.com/gregjones/httpcache/diskcache"
)

// NewCachingTransport wraps next with a disk-based HTTP cache.
// This is only used for job result downloads, which never change once a job
// has completed. Catalog queries always go to the server.
func NewCachingTransport(cacheDir string, next http.RoundTripper) http.RoundTripper {
	if cacheDir == "" {
		// Use in-memory cache if no cache directory specified
		transport := httpcache.NewTransport(httpcache.NewMemoryCache())
		transport.Transport = next
		return transport
	}

	transport := httpcache.NewTransport(diskcache.New(cacheDir))
	transport.Transport = next

	return transport
}

// FromCache reports whether the response was served by the caching transport.
func FromCache(resp *http.Response) bool {
	return resp.Header.Get(httpcache.XFromCache) == "1"
}
