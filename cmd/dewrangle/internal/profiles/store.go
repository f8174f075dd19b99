package profiles

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/mr-tron/base58"
	"github.com/rs/zerolog/log"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// Sentinel errors
var (
	// ErrProfileNotFound is returned when a profile doesn't exist.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrNoDefaultProfile is returned when no default is set.
	ErrNoDefaultProfile = errors.New("no default profile set")

	// ErrMissingAPIKey is returned when saving a profile without a key.
	ErrMissingAPIKey = errors.New("profile requires an api key")

	// ErrInvalidName is returned for empty or path-like profile names.
	ErrInvalidName = errors.New("invalid profile name")
)

const (
	configFile = "config.yaml"

	// legacyCredentialsFile is the INI file older dewrangle scripts read the
	// key from, section [default], key api_key.
	legacyCredentialsFile = "credentials"

	// LegacyProfileName names the profile read from the legacy file.
	LegacyProfileName = "default"
)

// Profile is a named API key with optional endpoint overrides.
type Profile struct {
	Name         string    `yaml:"-" json:"name"`
	APIKey       string    `yaml:"api_key" json:"-"`
	Endpoint     string    `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	RESTEndpoint string    `yaml:"rest_endpoint,omitempty" json:"rest_endpoint,omitempty"`
	CreatedAt    time.Time `yaml:"created_at" json:"created_at"`
	UpdatedAt    time.Time `yaml:"updated_at" json:"updated_at"`
}

// Fingerprint identifies the API key without revealing it: the base58
// encoded SHA256 of the key.
func (p *Profile) Fingerprint() string {
	if p.APIKey == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(p.APIKey))
	return base58.Encode(hash[:])
}

// Config represents the profiles configuration file.
type Config struct {
	Version        int                `yaml:"version"`
	DefaultProfile string             `yaml:"default_profile,omitempty"`
	Profiles       map[string]Profile `yaml:"profiles"`
}

// Store manages profile storage on the local filesystem.
type Store struct {
	baseDir string
}

// NewStore creates a new profile store.
// If baseDir is empty, uses ~/.dewrangle/
func NewStore(baseDir string) (*Store, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		baseDir = filepath.Join(home, ".dewrangle")
	}

	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	store := &Store{baseDir: baseDir}

	if err := store.ensureConfig(); err != nil {
		return nil, err
	}

	log.Debug().Str("baseDir", baseDir).Msg("profile store initialized")

	return store, nil
}

// Path returns the location of the config file.
func (s *Store) Path() string {
	return filepath.Join(s.baseDir, configFile)
}

// Set creates or replaces a profile. The first profile saved becomes the
// default.
func (s *Store) Set(p Profile) (*Profile, error) {
	if err := validateName(p.Name); err != nil {
		return nil, err
	}
	if p.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	cfg, err := s.loadConfig()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p.CreatedAt = now
	if existing, ok := cfg.Profiles[p.Name]; ok {
		p.CreatedAt = existing.CreatedAt
	}
	p.UpdatedAt = now

	cfg.Profiles[p.Name] = p

	if len(cfg.Profiles) == 1 {
		cfg.DefaultProfile = p.Name
	}

	if err := s.saveConfig(cfg); err != nil {
		return nil, err
	}

	log.Info().Str("name", p.Name).Str("fingerprint", p.Fingerprint()).Msg("profile saved")

	return &p, nil
}

// Get retrieves a profile by name.
func (s *Store) Get(name string) (*Profile, error) {
	cfg, err := s.loadConfig()
	if err != nil {
		return nil, err
	}

	p, ok := cfg.Profiles[name]
	if !ok {
		return nil, ErrProfileNotFound
	}
	p.Name = name

	return &p, nil
}

// GetDefault retrieves the default profile.
// Returns ErrNoDefaultProfile if none is set.
func (s *Store) GetDefault() (*Profile, error) {
	cfg, err := s.loadConfig()
	if err != nil {
		return nil, err
	}

	if cfg.DefaultProfile == "" {
		return nil, ErrNoDefaultProfile
	}

	return s.Get(cfg.DefaultProfile)
}

// DefaultName returns the name of the default profile, if any.
func (s *Store) DefaultName() (string, error) {
	cfg, err := s.loadConfig()
	if err != nil {
		return "", err
	}
	return cfg.DefaultProfile, nil
}

// Resolve returns the named profile, or the default one when name is empty.
// Without a default profile the key in the legacy credentials file is used
// when there is one.
func (s *Store) Resolve(name string) (*Profile, error) {
	if name != "" {
		return s.Get(name)
	}

	p, err := s.GetDefault()
	if !errors.Is(err, ErrNoDefaultProfile) {
		return p, err
	}

	legacy, legacyErr := s.legacyProfile()
	if legacyErr != nil {
		return nil, legacyErr
	}
	if legacy == nil {
		return nil, err
	}

	return legacy, nil
}

// LegacyPath returns the location of the legacy INI credentials file.
func (s *Store) LegacyPath() string {
	return filepath.Join(s.baseDir, legacyCredentialsFile)
}

// legacyProfile reads the legacy credentials file. A missing file or key
// returns nil without error.
func (s *Store) legacyProfile() (*Profile, error) {
	path := s.LegacyPath()

	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat legacy credentials: %w", err)
	}

	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse legacy credentials %s: %w", path, err)
	}

	key := strings.TrimSpace(cfg.Section(LegacyProfileName).Key("api_key").String())
	if key == "" {
		return nil, nil
	}

	log.Debug().Str("path", path).Msg("using api key from legacy credentials file")

	return &Profile{
		Name:      LegacyProfileName,
		APIKey:    key,
		CreatedAt: info.ModTime(),
		UpdatedAt: info.ModTime(),
	}, nil
}

// List returns all stored profiles sorted by name.
func (s *Store) List() ([]Profile, error) {
	cfg, err := s.loadConfig()
	if err != nil {
		return nil, err
	}

	profiles := make([]Profile, 0, len(cfg.Profiles))
	for name, p := range cfg.Profiles {
		p.Name = name
		profiles = append(profiles, p)
	}

	slices.SortFunc(profiles, func(a, b Profile) int {
		return strings.Compare(a.Name, b.Name)
	})

	return profiles, nil
}

// Delete removes a profile.
func (s *Store) Delete(name string) error {
	cfg, err := s.loadConfig()
	if err != nil {
		return err
	}

	if _, ok := cfg.Profiles[name]; !ok {
		return ErrProfileNotFound
	}

	delete(cfg.Profiles, name)

	// Clear default if this was the default profile
	if cfg.DefaultProfile == name {
		cfg.DefaultProfile = ""
	}

	if err := s.saveConfig(cfg); err != nil {
		return err
	}

	log.Info().Str("name", name).Msg("profile deleted")

	return nil
}

// SetDefault sets the default profile.
func (s *Store) SetDefault(name string) error {
	cfg, err := s.loadConfig()
	if err != nil {
		return err
	}

	if _, ok := cfg.Profiles[name]; !ok {
		return ErrProfileNotFound
	}

	cfg.DefaultProfile = name

	if err := s.saveConfig(cfg); err != nil {
		return err
	}

	log.Info().Str("name", name).Msg("default profile set")

	return nil
}

func validateName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.TrimSpace(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// ensureConfig creates an empty config if it doesn't exist.
func (s *Store) ensureConfig() error {
	if _, err := os.Stat(s.Path()); err == nil {
		return nil
	}

	cfg := &Config{
		Version:  1,
		Profiles: make(map[string]Profile),
	}

	return s.saveConfig(cfg)
}

// loadConfig reads the config file.
func (s *Store) loadConfig() (*Config, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Profiles == nil {
		cfg.Profiles = make(map[string]Profile)
	}

	return &cfg, nil
}

// saveConfig writes the config file atomically.
func (s *Store) saveConfig(cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	configPath := s.Path()
	tempPath := configPath + ".tmp"

	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tempPath, configPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}
