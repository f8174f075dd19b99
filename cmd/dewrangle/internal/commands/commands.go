package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/dewrangle/cmd/dewrangle/internal/profiles"
	"github.com/wolfeidau/dewrangle/internal/client"
)

// Globals are the flags shared by every command.
type Globals struct {
	Debug        bool          `help:"Enable debug logging."`
	Profile      string        `help:"Profile to read the API key from (default profile if unset)." env:"DEWRANGLE_PROFILE"`
	ConfigDir    string        `help:"Directory holding config.yaml (default ~/.dewrangle)." name:"config-dir" type:"path"`
	APIKey       string        `help:"Dewrangle API key, overrides the profile." name:"api-key" env:"DEWRANGLE_API_KEY"`
	Endpoint     string        `help:"GraphQL endpoint." env:"DEWRANGLE_ENDPOINT"`
	RESTEndpoint string        `help:"Job result endpoint." name:"rest-endpoint" env:"DEWRANGLE_REST_ENDPOINT"`
	Timeout      time.Duration `help:"Timeout for each HTTP request." default:"2m"`
	Retries      uint          `help:"Retries for read queries on transient failures, 0 disables." default:"3"`
	CacheDir     string        `help:"Cache downloaded job results in this directory." name:"cache-dir" type:"path"`
	Output       string        `help:"Output format (table, json, yaml)." enum:"table,json,yaml" default:"table"`

	Version string `kong:"-"`

	stdout     io.Writer
	executor   client.Executor
	downloader client.Downloader
}

func (g *Globals) out() io.Writer {
	if g.stdout != nil {
		return g.stdout
	}
	return os.Stdout
}

// connect returns the API boundaries, building them on first use.
func (g *Globals) connect(ctx context.Context) (client.Executor, client.Downloader, error) {
	if g.executor != nil {
		return g.executor, g.downloader, nil
	}

	config, err := g.clientConfig()
	if err != nil {
		return nil, nil, err
	}

	clients, err := client.NewClients(config, *zerolog.Ctx(ctx))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create clients: %w", err)
	}

	g.executor, g.downloader = clients.GraphQL, clients.REST

	return g.executor, g.downloader, nil
}

// clientConfig layers flags and environment over the selected profile over
// the built in defaults.
func (g *Globals) clientConfig() (client.Config, error) {
	config := client.DefaultConfig()
	config.Debug = g.Debug
	config.CacheDir = g.CacheDir
	config.MaxRetries = g.Retries
	if g.Timeout > 0 {
		config.Timeout = g.Timeout
	}

	if g.APIKey == "" || g.Profile != "" {
		profile, err := g.loadProfile()
		if err != nil {
			return config, err
		}
		if profile != nil {
			config.APIKey = profile.APIKey
			if profile.Endpoint != "" {
				config.Endpoint = profile.Endpoint
			}
			if profile.RESTEndpoint != "" {
				config.RESTEndpoint = profile.RESTEndpoint
			}
		}
	}

	if g.APIKey != "" {
		config.APIKey = g.APIKey
	}
	if g.Endpoint != "" {
		config.Endpoint = g.Endpoint
	}
	if g.RESTEndpoint != "" {
		config.RESTEndpoint = g.RESTEndpoint
	}

	if config.APIKey == "" {
		return config, fmt.Errorf("%w: pass --api-key, set DEWRANGLE_API_KEY or run 'dewrangle profile set'", client.ErrMissingAPIKey)
	}

	return config, nil
}

// loadProfile returns the selected profile. A missing default profile is
// not an error; a missing named profile is.
func (g *Globals) loadProfile() (*profiles.Profile, error) {
	store, err := profiles.NewStore(g.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize profile store: %w", err)
	}

	profile, err := store.Resolve(g.Profile)
	switch {
	case err == nil:
		return profile, nil
	case g.Profile == "" && errors.Is(err, profiles.ErrNoDefaultProfile):
		return nil, nil
	case errors.Is(err, profiles.ErrProfileNotFound):
		return nil, fmt.Errorf("profile %q not found\n\nRun 'dewrangle profile list' to see available profiles", g.Profile)
	default:
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
}

// VersionCmd prints the build version.
type VersionCmd struct{}

func (v *VersionCmd) Run(ctx context.Context, globals *Globals) error {
	fmt.Fprintln(globals.out(), globals.Version)
	return nil
}
