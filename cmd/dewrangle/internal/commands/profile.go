package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/wolfeidau/dewrangle/cmd/dewrangle/internal/profiles"
)

// ProfileCmd manages locally stored API keys.
type ProfileCmd struct {
	List       ProfileListCmd       `cmd:"" help:"List all profiles"`
	Show       ProfileShowCmd       `cmd:"" help:"Show profile details"`
	Set        ProfileSetCmd        `cmd:"" help:"Create or update a profile"`
	Delete     ProfileDeleteCmd     `cmd:"" help:"Delete a profile"`
	SetDefault ProfileSetDefaultCmd `cmd:"" name:"set-default" help:"Set the default profile"`
}

func (g *Globals) profileStore() (*profiles.Store, error) {
	store, err := profiles.NewStore(g.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize profile store: %w", err)
	}
	return store, nil
}

func profileNotFound(name string, err error) error {
	if errors.Is(err, profiles.ErrProfileNotFound) {
		return fmt.Errorf("profile %q not found\n\nRun 'dewrangle profile list' to see available profiles", name)
	}
	return fmt.Errorf("failed to get profile: %w", err)
}

type profileView struct {
	Name         string `json:"name" yaml:"name"`
	Fingerprint  string `json:"fingerprint" yaml:"fingerprint"`
	Endpoint     string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	RESTEndpoint string `json:"rest_endpoint,omitempty" yaml:"rest_endpoint,omitempty"`
	Default      bool   `json:"default" yaml:"default"`
	CreatedAt    string `json:"created_at" yaml:"created_at"`
	UpdatedAt    string `json:"updated_at" yaml:"updated_at"`
}

func newProfileView(p *profiles.Profile, defaultName string) profileView {
	return profileView{
		Name:         p.Name,
		Fingerprint:  p.Fingerprint(),
		Endpoint:     p.Endpoint,
		RESTEndpoint: p.RESTEndpoint,
		Default:      p.Name == defaultName,
		CreatedAt:    p.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt:    p.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

// ProfileListCmd lists all profiles.
type ProfileListCmd struct{}

func (c *ProfileListCmd) Run(ctx context.Context, globals *Globals) error {
	store, err := globals.profileStore()
	if err != nil {
		return err
	}

	list, err := store.List()
	if err != nil {
		return fmt.Errorf("failed to list profiles: %w", err)
	}

	if len(list) == 0 && !globals.structured() {
		fmt.Fprintln(globals.out(), "No profiles found.")
		fmt.Fprintln(globals.out())
		fmt.Fprintln(globals.out(), "To add one:")
		fmt.Fprintln(globals.out(), "  dewrangle profile set <name> --key <api key>")
		return nil
	}

	defaultName, err := store.DefaultName()
	if err != nil {
		return err
	}

	rows := make([]table.Row, 0, len(list))
	views := make([]profileView, 0, len(list))
	for i := range list {
		view := newProfileView(&list[i], defaultName)

		// Truncate fingerprint for display
		fp := view.Fingerprint
		if len(fp) > 12 {
			fp = fp[:12] + "..."
		}

		isDefault := ""
		if view.Default {
			isDefault = "*"
		}

		rows = append(rows, table.Row{view.Name, fp, view.Endpoint, isDefault})
		views = append(views, view)
	}

	return globals.render(table.Row{"Name", "Fingerprint", "Endpoint", "Default"}, rows, views)
}

// ProfileShowCmd shows details of a profile.
type ProfileShowCmd struct {
	Name string `arg:"" optional:"" help:"Profile name (default profile if omitted)"`
}

func (c *ProfileShowCmd) Run(ctx context.Context, globals *Globals) error {
	store, err := globals.profileStore()
	if err != nil {
		return err
	}

	p, err := store.Resolve(c.Name)
	if err != nil {
		if errors.Is(err, profiles.ErrNoDefaultProfile) {
			return fmt.Errorf("%w\n\nRun 'dewrangle profile set-default <name>' to choose one", err)
		}
		return profileNotFound(c.Name, err)
	}

	defaultName, err := store.DefaultName()
	if err != nil {
		return err
	}

	view := newProfileView(p, defaultName)

	if globals.structured() {
		return globals.render(nil, nil, view)
	}

	w := globals.out()
	fmt.Fprintf(w, "Name:          %s\n", view.Name)
	fmt.Fprintf(w, "Fingerprint:   %s\n", view.Fingerprint)
	fmt.Fprintf(w, "Default:       %v\n", view.Default)
	if view.Endpoint != "" {
		fmt.Fprintf(w, "Endpoint:      %s\n", view.Endpoint)
	}
	if view.RESTEndpoint != "" {
		fmt.Fprintf(w, "REST Endpoint: %s\n", view.RESTEndpoint)
	}
	fmt.Fprintf(w, "Created:       %s\n", view.CreatedAt)
	fmt.Fprintf(w, "Updated:       %s\n", view.UpdatedAt)
	fmt.Fprintf(w, "Config:        %s\n", store.Path())

	return nil
}

// ProfileSetCmd creates or updates a profile.
type ProfileSetCmd struct {
	Name         string `arg:"" help:"Profile name"`
	Key          string `help:"Dewrangle API key." required:"" env:"DEWRANGLE_API_KEY"`
	Endpoint     string `help:"GraphQL endpoint override." name:"graphql-endpoint"`
	RESTEndpoint string `help:"Job result endpoint override." name:"result-endpoint"`
	Default      bool   `help:"Make this the default profile."`
}

func (c *ProfileSetCmd) Run(ctx context.Context, globals *Globals) error {
	store, err := globals.profileStore()
	if err != nil {
		return err
	}

	p, err := store.Set(profiles.Profile{
		Name:         c.Name,
		APIKey:       c.Key,
		Endpoint:     c.Endpoint,
		RESTEndpoint: c.RESTEndpoint,
	})
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	if c.Default {
		if err := store.SetDefault(c.Name); err != nil {
			return fmt.Errorf("failed to set default: %w", err)
		}
	}

	fmt.Fprintf(globals.out(), "Profile %q saved (fingerprint %s).\n", p.Name, p.Fingerprint())
	return nil
}

// ProfileDeleteCmd deletes a profile.
type ProfileDeleteCmd struct {
	Name string `arg:"" help:"Profile name"`
}

func (c *ProfileDeleteCmd) Run(ctx context.Context, globals *Globals) error {
	store, err := globals.profileStore()
	if err != nil {
		return err
	}

	if err := store.Delete(c.Name); err != nil {
		return profileNotFound(c.Name, err)
	}

	fmt.Fprintf(globals.out(), "Profile %q deleted.\n", c.Name)
	return nil
}

// ProfileSetDefaultCmd sets the default profile.
type ProfileSetDefaultCmd struct {
	Name string `arg:"" help:"Profile name"`
}

func (c *ProfileSetDefaultCmd) Run(ctx context.Context, globals *Globals) error {
	store, err := globals.profileStore()
	if err != nil {
		return err
	}

	if err := store.SetDefault(c.Name); err != nil {
		return profileNotFound(c.Name, err)
	}

	fmt.Fprintf(globals.out(), "Default profile set to %q.\n", c.Name)
	return nil
}
