package client

import (
	"crypto/sha256"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/mr-tron/base58"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/dewrangle/internal/logger"
)

const (
	// DefaultEndpoint is the Dewrangle GraphQL endpoint.
	DefaultEndpoint = "https://dewrangle.com/api/graphql"

	// DefaultRESTEndpoint is the prefix job result downloads are fetched from.
	DefaultRESTEndpoint = "https://dewrangle.com/api/rest/jobs/"

	// APIKeyHeader carries the static API key on every request.
	APIKeyHeader = "X-Api-Key"

	// RequestIDHeader carries a per request id used to correlate logs.
	RequestIDHeader = "X-Request-Id"
)

// ErrMissingAPIKey is returned when no API key was supplied.
var ErrMissingAPIKey = errors.New("api key is required")

// Config holds common client configuration
type Config struct {
	Endpoint     string
	RESTEndpoint string
	APIKey       string
	Timeout      time.Duration
	MaxRetries   uint   // Retries for read queries, mutations are never retried
	CacheDir     string // Optional disk cache for job result downloads
	Debug        bool
}

// Clients holds the two API boundaries used by the CLI.
type Clients struct {
	GraphQL *GraphQLClient
	REST    *RESTClient
}

// NewClients creates the GraphQL and REST clients with the given configuration
func NewClients(config Config, log zerolog.Logger) (*Clients, error) {
	if config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	if config.Endpoint == "" {
		config.Endpoint = DefaultEndpoint
	}
	if config.RESTEndpoint == "" {
		config.RESTEndpoint = DefaultRESTEndpoint
	}
	if !strings.HasSuffix(config.RESTEndpoint, "/") {
		config.RESTEndpoint += "/"
	}

	base := newTransport(config.APIKey, log, http.DefaultTransport)

	graphQL := NewGraphQLClient(&http.Client{Timeout: config.Timeout, Transport: base}, config.Endpoint, config.MaxRetries)

	restTransport := base
	if config.CacheDir != "" {
		restTransport = NewCachingTransport(CacheDirFor(config.CacheDir, config.APIKey), base)
	}

	rest := NewRESTClient(&http.Client{Timeout: config.Timeout, Transport: restTransport}, config.RESTEndpoint)

	return &Clients{GraphQL: graphQL, REST: rest}, nil
}

// CacheDirFor returns the directory results fetched with apiKey are cached
// in. Each key gets its own subdirectory, named like the profile fingerprint,
// so a result cached under one key is never served to another.
func CacheDirFor(cacheDir, apiKey string) string {
	hash := sha256.Sum256([]byte(apiKey))
	return filepath.Join(cacheDir, base58.Encode(hash[:]))
}

// DefaultConfig returns a default client configuration
func DefaultConfig() Config {
	return Config{
		Endpoint:     DefaultEndpoint,
		RESTEndpoint: DefaultRESTEndpoint,
		Timeout:      2 * time.Minute,
		MaxRetries:   3,
	}
}

// newTransport builds the shared round tripper stack: auth and request id
// headers, request logging, then transparent gzip.
func newTransport(apiKey string, log zerolog.Logger, parent http.RoundTripper) http.RoundTripper {
	return &headerTransport{
		apiKey: apiKey,
		next:   logger.NewTransport(log, gzhttp.Transport(parent)),
	}
}
