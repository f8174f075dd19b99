package commands

import (
	"context"
	"slices"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/wolfeidau/dewrangle/internal/catalog"
	"github.com/wolfeidau/dewrangle/internal/models"
	"github.com/wolfeidau/dewrangle/internal/provision"
	"github.com/wolfeidau/dewrangle/internal/resolver"
)

// StudyURLBase prefixes the web UI link of a study.
const StudyURLBase = "https://dewrangle.com/"

func resolveStudy(ctx context.Context, cat *catalog.Catalog, selector string) (models.Study, error) {
	studies, err := cat.Studies(ctx)
	if err != nil {
		return models.Study{}, err
	}

	id, err := resolver.Resolve(studies, selector, resolver.Studies)
	if err != nil {
		return models.Study{}, err
	}

	return studies[id], nil
}

// sortedValues returns the map values ordered by name then id.
func sortedValues[D any](m map[string]D, name func(D) string) []D {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b string) int {
		if c := strings.Compare(name(m[a]), name(m[b])); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})

	values := make([]D, 0, len(ids))
	for _, id := range ids {
		values = append(values, m[id])
	}
	return values
}

// CreateStudyCmd creates a study in an organization.
type CreateStudyCmd struct {
	Study        string `help:"Name of the new study." short:"s" required:""`
	Organization string `help:"Organization name or id." short:"o" name:"org" required:""`
	Apply        bool   `help:"Create the study. Without this flag inputs are only checked." name:"run"`
	Skip         bool   `help:"Create the study even if one with the same name exists."`
}

func (c *CreateStudyCmd) Run(ctx context.Context, globals *Globals) error {
	exec, _, err := globals.connect(ctx)
	if err != nil {
		return err
	}

	res, err := provision.New(exec).CreateStudy(ctx, provision.StudyRequest{
		Name:              c.Study,
		Organization:      c.Organization,
		SkipExistingCheck: c.Skip,
		Run:               c.Apply,
	})
	if err != nil {
		return err
	}

	if !res.Created {
		globals.printf("Study %q was not created. Pass --run to create it.\n", c.Study)
	}

	return globals.render(
		table.Row{"Organization", "Study", "Created"},
		[]table.Row{{res.OrganizationID, res.StudyID, res.Created}},
		map[string]any{"organization_id": res.OrganizationID, "study_id": res.StudyID, "created": res.Created},
	)
}

type studyView struct {
	ID             string `json:"id" yaml:"id"`
	Name           string `json:"name" yaml:"name"`
	GlobalID       string `json:"global_id,omitempty" yaml:"global_id,omitempty"`
	OrganizationID string `json:"organization_id" yaml:"organization_id"`
	URL            string `json:"url" yaml:"url"`
}

// StudyCmd shows the ids and web link of a study.
type StudyCmd struct {
	Study string `help:"Study name, global id or id." short:"s" required:""`
}

func (s *StudyCmd) Run(ctx context.Context, globals *Globals) error {
	exec, _, err := globals.connect(ctx)
	if err != nil {
		return err
	}

	cat := catalog.New(exec)

	study, err := resolveStudy(ctx, cat, s.Study)
	if err != nil {
		return err
	}

	orgID, err := cat.StudyOrganization(ctx, study.ID)
	if err != nil {
		return err
	}

	view := studyView{
		ID:             study.ID,
		Name:           study.Name,
		GlobalID:       study.GlobalID,
		OrganizationID: orgID,
		URL:            StudyURLBase + orgID + "/" + study.ID,
	}

	return globals.render(
		table.Row{"ID", "Name", "Global ID", "URL"},
		[]table.Row{{view.ID, view.Name, view.GlobalID, view.URL}},
		view,
	)
}

type volumeView struct {
	ID           string `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	PathPrefix   string `json:"path_prefix,omitempty" yaml:"path_prefix,omitempty"`
	Region       string `json:"region" yaml:"region"`
	CredentialID string `json:"credential_id,omitempty" yaml:"credential_id,omitempty"`
}

// VolumesCmd lists the volumes of a study.
type VolumesCmd struct {
	Study string `help:"Study name, global id or id." short:"s" required:""`
}

func (v *VolumesCmd) Run(ctx context.Context, globals *Globals) error {
	exec, _, err := globals.connect(ctx)
	if err != nil {
		return err
	}

	cat := catalog.New(exec)

	study, err := resolveStudy(ctx, cat, v.Study)
	if err != nil {
		return err
	}

	volumes, err := cat.StudyVolumes(ctx, study.ID)
	if err != nil {
		return err
	}

	var (
		rows  []table.Row
		views []volumeView
	)
	for _, vol := range sortedValues(volumes, func(v models.Volume) string { return v.Name }) {
		rows = append(rows, table.Row{vol.ID, vol.Name, vol.PathPrefix, vol.Region, vol.CredentialID})
		views = append(views, volumeView(vol))
	}

	return globals.render(table.Row{"ID", "Name", "Prefix", "Region", "Credential"}, rows, views)
}

type credentialView struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Key  string `json:"key" yaml:"key"`
}

// CredentialsCmd lists the cloud credentials attached to a study.
type CredentialsCmd struct {
	Study string `help:"Study name, global id or id." short:"s" required:""`
}

func (c *CredentialsCmd) Run(ctx context.Context, globals *Globals) error {
	exec, _, err := globals.connect(ctx)
	if err != nil {
		return err
	}

	cat := catalog.New(exec)

	study, err := resolveStudy(ctx, cat, c.Study)
	if err != nil {
		return err
	}

	creds, err := cat.StudyCredentials(ctx, study.ID)
	if err != nil {
		return err
	}

	var (
		rows  []table.Row
		views []credentialView
	)
	for _, cred := range sortedValues(creds, func(c models.Credential) string { return c.Name }) {
		rows = append(rows, table.Row{cred.ID, cred.Name, cred.Key})
		views = append(views, credentialView(cred))
	}

	return globals.render(table.Row{"ID", "Name", "Key"}, rows, views)
}

type billingGroupView struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	IsDefault bool   `json:"is_default" yaml:"is_default"`
}

// BillingGroupsCmd lists the billing groups of a study's organization.
type BillingGroupsCmd struct {
	Study string `help:"Study name, global id or id." short:"s" required:""`
}

func (b *BillingGroupsCmd) Run(ctx context.Context, globals *Globals) error {
	exec, _, err := globals.connect(ctx)
	if err != nil {
		return err
	}

	cat := catalog.New(exec)

	study, err := resolveStudy(ctx, cat, b.Study)
	if err != nil {
		return err
	}

	orgID, err := cat.StudyOrganization(ctx, study.ID)
	if err != nil {
		return err
	}

	groups, err := cat.BillingGroups(ctx, orgID)
	if err != nil {
		return err
	}

	var (
		rows  []table.Row
		views []billingGroupView
	)
	for _, g := range sortedValues(groups, func(g models.BillingGroup) string { return g.Name }) {
		def := ""
		if g.IsDefault {
			def = "*"
		}
		rows = append(rows, table.Row{g.ID, g.Name, def})
		views = append(views, billingGroupView(g))
	}

	return globals.render(table.Row{"ID", "Name", "Default"}, rows, views)
}

type volumeLocation struct {
	Volume   string   `json:"volume" yaml:"volume"`
	Status   string   `json:"status" yaml:"status"`
	StudyIDs []string `json:"study_ids" yaml:"study_ids"`
}

// FindVolumeCmd reports which studies each named volume is loaded into.
type FindVolumeCmd struct {
	Volumes []string `help:"Volume names, comma separated." short:"v" name:"volume" required:""`
}

func (f *FindVolumeCmd) Run(ctx context.Context, globals *Globals) error {
	exec, _, err := globals.connect(ctx)
	if err != nil {
		return err
	}

	cat := catalog.New(exec)

	names := slices.Clone(f.Volumes)
	slices.Sort(names)
	names = slices.Compact(names)

	var (
		rows      []table.Row
		locations []volumeLocation
	)
	for _, name := range names {
		studyIDs, err := cat.StudiesWithVolume(ctx, name)
		if err != nil {
			return err
		}

		loc := volumeLocation{Volume: name, Status: "loaded", StudyIDs: studyIDs}
		switch {
		case len(studyIDs) == 0:
			loc.Status = "not loaded"
		case len(studyIDs) > 1:
			loc.Status = "multiple"
		}

		rows = append(rows, table.Row{loc.Volume, loc.Status, strings.Join(loc.StudyIDs, ", ")})
		locations = append(locations, loc)
	}

	return globals.render(table.Row{"Volume", "Status", "Studies"}, rows, locations)
}
