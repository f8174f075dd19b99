package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/dewrangle/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// maxResponseBytes bounds how much of a GraphQL response is read.
const maxResponseBytes = 32 << 20

// Executor runs a GraphQL document and decodes the data field into out.
// It fails only on transport problems or top-level GraphQL errors; mutation
// payload errors are left for the caller to check with CheckMutation.
type Executor interface {
	Execute(ctx context.Context, document string, variables map[string]any, out any) error
}

var _ Executor = (*GraphQLClient)(nil)

// GraphQLClient executes documents against the GraphQL endpoint over HTTP.
type GraphQLClient struct {
	httpClient *http.Client
	endpoint   string
	maxRetries uint
	newBackOff func() backoff.BackOff
}

// NewGraphQLClient creates a client for endpoint using the given http client.
func NewGraphQLClient(httpClient *http.Client, endpoint string, maxRetries uint) *GraphQLClient {
	return &GraphQLClient{
		httpClient: httpClient,
		endpoint:   endpoint,
		maxRetries: maxRetries,
		newBackOff: defaultBackOff,
	}
}

type graphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Execute implements Executor.
func (c *GraphQLClient) Execute(ctx context.Context, document string, variables map[string]any, out any) error {
	name := OperationName(document)
	kind := "query"
	if IsMutation(document) {
		kind = "mutation"
	}

	ctx, span := telemetry.Tracer().Start(ctx, "graphql "+name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("graphql.operation.name", name),
			attribute.String("graphql.operation.type", kind),
		))
	defer span.End()

	started := time.Now()

	data, err := c.executeWithRetry(ctx, name, kind, document, variables)

	telemetry.GetMetrics().RecordAPICall(ctx, name, kind, time.Since(started), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if out == nil || len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		err = &TransportError{Operation: name, Err: fmt.Errorf("failed to decode response data: %w", err)}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func (c *GraphQLClient) executeWithRetry(ctx context.Context, name, kind, document string, variables map[string]any) (json.RawMessage, error) {
	// mutations are not idempotent, a retry could create a second volume
	if kind == "mutation" || c.maxRetries == 0 {
		return c.do(ctx, name, document, variables)
	}

	attempt := 0
	operation := func() (json.RawMessage, error) {
		attempt++
		data, err := c.do(ctx, name, document, variables)
		if err == nil {
			return data, nil
		}

		var transportErr *TransportError
		if errors.As(err, &transportErr) && transportErr.Temporary() {
			return nil, err
		}

		return nil, backoff.Permanent(err)
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxTries(c.maxRetries+1),
		backoff.WithNotify(func(err error, next time.Duration) {
			zerolog.Ctx(ctx).Warn().
				Err(err).
				Str("operation", name).
				Int("attempt", attempt).
				Dur("next_retry", next).
				Msg("query failed, will retry")
		}),
	)
}

func (c *GraphQLClient) do(ctx context.Context, name, document string, variables map[string]any) (json.RawMessage, error) {
	body, err := json.Marshal(graphQLRequest{
		Query:         document,
		OperationName: operationNameOrEmpty(name),
		Variables:     variables,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Operation: name, Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &TransportError{Operation: name, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{Operation: name, StatusCode: resp.StatusCode, Body: truncate(string(payload), 512)}
	}

	var gr graphQLResponse
	if err := json.Unmarshal(payload, &gr); err != nil {
		return nil, &TransportError{Operation: name, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	if len(gr.Errors) > 0 {
		msgs := make([]string, 0, len(gr.Errors))
		for _, e := range gr.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, &GraphQLError{Operation: name, Messages: msgs}
	}

	return gr.Data, nil
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	return b
}

var operationPattern = regexp.MustCompile(`^\s*(query|mutation)\s+([A-Za-z_][A-Za-z0-9_]*)`)

// OperationName returns the name of the first operation in document, or
// "anonymous" when it has none.
func OperationName(document string) string {
	if m := operationPattern.FindStringSubmatch(document); m != nil {
		return m[2]
	}
	return "anonymous"
}

// IsMutation reports whether document is a mutation.
func IsMutation(document string) bool {
	return strings.HasPrefix(strings.TrimSpace(document), "mutation")
}

func operationNameOrEmpty(name string) string {
	if name == "anonymous" {
		return ""
	}
	return name
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
