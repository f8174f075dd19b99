package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"
)

// Downloader streams the result file of a completed job.
type Downloader interface {
	Get(ctx context.Context, jobID string) (io.ReadCloser, error)
}

var _ Downloader = (*RESTClient)(nil)

// RESTClient fetches job results from {endpoint}{jobID}/result.
type RESTClient struct {
	httpClient *http.Client
	endpoint   string
}

// NewRESTClient creates a client for endpoint, which must end with a slash.
func NewRESTClient(httpClient *http.Client, endpoint string) *RESTClient {
	return &RESTClient{httpClient: httpClient, endpoint: endpoint}
}

// ResultURL returns the URL the result of jobID is downloaded from.
func (c *RESTClient) ResultURL(jobID string) string {
	return c.endpoint + url.PathEscape(jobID) + "/result"
}

// Get implements Downloader. The caller must close the returned body.
func (c *RESTClient) Get(ctx context.Context, jobID string) (io.ReadCloser, error) {
	const op = "GET job result"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ResultURL(jobID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create result request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Operation: op, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &TransportError{Operation: op, StatusCode: resp.StatusCode, Body: truncate(string(body), 512)}
	}

	zerolog.Ctx(ctx).Debug().
		Str("job_id", jobID).
		Bool("from_cache", FromCache(resp)).
		Int64("content_length", resp.ContentLength).
		Msg("downloading job result")

	return resp.Body, nil
}
