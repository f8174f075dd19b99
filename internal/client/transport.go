package client

import (
	"net/http"

	"github.com/google/uuid"
)

// headerTransport attaches the API key and a request id to every request.
type headerTransport struct {
	apiKey string
	next   http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTrippers must not modify the caller's request
	req = req.Clone(req.Context())
	req.Header.Set(APIKeyHeader, t.apiKey)
	if req.Header.Get(RequestIDHeader) == "" {
		req.Header.Set(RequestIDHeader, uuid.NewString())
	}
	return t.next.RoundTrip(req)
}
