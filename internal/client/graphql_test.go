package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClients(t *testing.T, handler http.HandlerFunc) (*Clients, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	clients, err := NewClients(Config{
		Endpoint:     srv.URL + "/api/graphql",
		RESTEndpoint: srv.URL + "/api/rest/jobs",
		APIKey:       "secret-key",
		Timeout:      5 * time.Second,
		MaxRetries:   2,
	}, zerolog.Nop())
	require.NoError(t, err)

	clients.GraphQL.newBackOff = func() backoff.BackOff {
		return backoff.NewConstantBackOff(time.Millisecond)
	}

	return clients, srv
}

func TestNewClients_RequiresAPIKey(t *testing.T) {
	_, err := NewClients(Config{}, zerolog.Nop())
	require.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestGraphQLClient_Execute(t *testing.T) {
	clients, _ := newTestClients(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/graphql", r.URL.Path)
		assert.Equal(t, "secret-key", r.Header.Get(APIKeyHeader))
		assert.NotEmpty(t, r.Header.Get(RequestIDHeader))

		var req graphQLRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "StudyVolumes", req.OperationName)
		assert.Equal(t, "S1", req.Variables["id"])

		_, _ = io.WriteString(w, `{"data":{"study":{"id":"S1"}}}`)
	})

	var out struct {
		Study struct {
			ID string `json:"id"`
		} `json:"study"`
	}

	err := clients.GraphQL.Execute(context.Background(),
		`query StudyVolumes($id: ID!) { study: node(id: $id) { id } }`,
		map[string]any{"id": "S1"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "S1", out.Study.ID)
}

func TestGraphQLClient_GraphQLErrors(t *testing.T) {
	clients, _ := newTestClients(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":null,"errors":[{"message":"not authorized"},{"message":"try again"}]}`)
	})

	err := clients.GraphQL.Execute(context.Background(), `query Viewer { viewer { id } }`, nil, nil)

	var gqlErr *GraphQLError
	require.ErrorAs(t, err, &gqlErr)
	assert.Equal(t, "Viewer", gqlErr.Operation)
	assert.Equal(t, []string{"not authorized", "try again"}, gqlErr.Messages)
}

func TestGraphQLClient_RetriesQueries(t *testing.T) {
	var calls atomic.Int32

	clients, _ := newTestClients(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, `{"data":{"ok":true}}`)
	})

	var out struct {
		OK bool `json:"ok"`
	}
	err := clients.GraphQL.Execute(context.Background(), `query Health { ok }`, nil, &out)
	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGraphQLClient_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32

	clients, _ := newTestClients(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	err := clients.GraphQL.Execute(context.Background(), `query Health { ok }`, nil, nil)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, http.StatusServiceUnavailable, transportErr.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGraphQLClient_DoesNotRetryMutations(t *testing.T) {
	var calls atomic.Int32

	clients, _ := newTestClients(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	err := clients.GraphQL.Execute(context.Background(),
		`mutation VolumeCreate($input: VolumeCreateInput!) { volumeCreate(input: $input) { volume { id } } }`,
		map[string]any{"input": map[string]any{"name": "bucket"}}, nil)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGraphQLClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32

	clients, _ := newTestClients(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, "invalid api key")
	})

	err := clients.GraphQL.Execute(context.Background(), `query Health { ok }`, nil, nil)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, http.StatusUnauthorized, transportErr.StatusCode)
	assert.Contains(t, err.Error(), "invalid api key")
	assert.Equal(t, int32(1), calls.Load())
}

func TestOperationName(t *testing.T) {
	assert.Equal(t, "AllStudies", OperationName("\n  query AllStudies {\n viewer { id } }"))
	assert.Equal(t, "VolumeCreate", OperationName("mutation VolumeCreate($input: X!) { x }"))
	assert.Equal(t, "anonymous", OperationName("{ viewer { id } }"))
	assert.True(t, IsMutation("  mutation VolumeDelete { x }"))
	assert.False(t, IsMutation("query Q { x }"))
}

func TestCheckMutation(t *testing.T) {
	require.NoError(t, CheckMutation("volumeCreate", nil))

	var errs []MutationError
	require.NoError(t, json.Unmarshal([]byte(`[
		{"message":"name has already been taken","field":"name"},
		{"message":"invalid region","field":["input","region"]},
		{"message":"something broke","field":null}
	]`), &errs))

	err := CheckMutation("volumeCreate", errs)

	var failed *MutationFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, []string{
		"name has already been taken (field: name)",
		"invalid region (field: input.region)",
		"something broke",
	}, failed.Messages())
	assert.Contains(t, err.Error(), "volumeCreate failed")
}
