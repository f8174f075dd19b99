package catalog

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/dewrangle/internal/client"
	"github.com/wolfeidau/dewrangle/internal/models"
	"github.com/wolfeidau/dewrangle/internal/resolver"
)

// connection mirrors the GraphQL relay connection shape.
type connection[T any] struct {
	Edges []struct {
		Node T `json:"node"`
	} `json:"edges"`
}

func (c connection[T]) nodes() []T {
	nodes := make([]T, 0, len(c.Edges))
	for _, e := range c.Edges {
		nodes = append(nodes, e.Node)
	}
	return nodes
}

type studyNode struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	GlobalID string `json:"globalId"`
}

type organizationNode struct {
	ID      string                `json:"id"`
	Name    string                `json:"name"`
	Studies connection[studyNode] `json:"studies"`
}

// Catalog issues the bulk read queries.
type Catalog struct {
	exec client.Executor
}

func New(exec client.Executor) *Catalog {
	return &Catalog{exec: exec}
}

// Studies returns every study reachable through the principal's study or
// organization memberships.
func (c *Catalog) Studies(ctx context.Context) (map[string]models.Study, error) {
	var result struct {
		Viewer struct {
			StudyUsers connection[struct {
				Study studyNode `json:"study"`
			}] `json:"studyUsers"`
			OrganizationUsers connection[struct {
				Organization organizationNode `json:"organization"`
			}] `json:"organizationUsers"`
		} `json:"viewer"`
	}

	if err := c.exec.Execute(ctx, allStudiesQuery, nil, &result); err != nil {
		return nil, err
	}

	studies := make(map[string]models.Study)

	for _, membership := range result.Viewer.OrganizationUsers.nodes() {
		org := membership.Organization
		for _, s := range org.Studies.nodes() {
			studies[s.ID] = models.Study{
				ID:             s.ID,
				Name:           s.Name,
				GlobalID:       s.GlobalID,
				OrganizationID: org.ID,
			}
		}
	}

	for _, membership := range result.Viewer.StudyUsers.nodes() {
		s := membership.Study
		if s.ID == "" {
			continue
		}
		if _, ok := studies[s.ID]; ok {
			continue
		}
		studies[s.ID] = models.Study{ID: s.ID, Name: s.Name, GlobalID: s.GlobalID}
	}

	zerolog.Ctx(ctx).Debug().Int("count", len(studies)).Msg("indexed studies")

	return studies, nil
}

// Organizations returns every organization the principal is a member of.
func (c *Catalog) Organizations(ctx context.Context) (map[string]models.Organization, error) {
	var result struct {
		Viewer struct {
			OrganizationUsers connection[struct {
				Organization organizationNode `json:"organization"`
			}] `json:"organizationUsers"`
		} `json:"viewer"`
	}

	if err := c.exec.Execute(ctx, organizationsQuery, nil, &result); err != nil {
		return nil, err
	}

	orgs := make(map[string]models.Organization)
	for _, membership := range result.Viewer.OrganizationUsers.nodes() {
		o := membership.Organization
		orgs[o.ID] = models.Organization{ID: o.ID, Name: o.Name}
	}

	return orgs, nil
}

// StudyOrganization returns the id of the organization owning studyID.
func (c *Catalog) StudyOrganization(ctx context.Context, studyID string) (string, error) {
	var result struct {
		Study *struct {
			Organization *struct {
				ID string `json:"id"`
			} `json:"organization"`
		} `json:"study"`
	}

	if err := c.exec.Execute(ctx, studyOrganizationQuery, map[string]any{"id": studyID}, &result); err != nil {
		return "", err
	}

	if result.Study == nil || result.Study.Organization == nil || result.Study.Organization.ID == "" {
		return "", &resolver.NotFoundError{Kind: resolver.KindOrganization, Selector: studyID}
	}

	return result.Study.Organization.ID, nil
}

// StudyCredentials returns the credentials attached to studyID.
func (c *Catalog) StudyCredentials(ctx context.Context, studyID string) (map[string]models.Credential, error) {
	var result struct {
		Study *struct {
			Credentials connection[struct {
				ID   string `json:"id"`
				Name string `json:"name"`
				Key  string `json:"key"`
			}] `json:"credentials"`
		} `json:"study"`
	}

	if err := c.exec.Execute(ctx, studyCredentialsQuery, map[string]any{"id": studyID}, &result); err != nil {
		return nil, err
	}
	if result.Study == nil {
		return nil, &resolver.NotFoundError{Kind: resolver.KindStudy, Selector: studyID}
	}

	creds := make(map[string]models.Credential)
	for _, n := range result.Study.Credentials.nodes() {
		creds[n.ID] = models.Credential{ID: n.ID, Name: n.Name, Key: n.Key}
	}

	return creds, nil
}

// BillingGroups returns the billing groups of orgID.
func (c *Catalog) BillingGroups(ctx context.Context, orgID string) (map[string]models.BillingGroup, error) {
	var result struct {
		Organization *struct {
			BillingGroups connection[struct {
				ID        string `json:"id"`
				Name      string `json:"name"`
				IsDefault bool   `json:"isDefault"`
			}] `json:"billingGroups"`
		} `json:"organization"`
	}

	if err := c.exec.Execute(ctx, billingGroupsQuery, map[string]any{"id": orgID}, &result); err != nil {
		return nil, err
	}
	if result.Organization == nil {
		return nil, &resolver.NotFoundError{Kind: resolver.KindOrganization, Selector: orgID}
	}

	groups := make(map[string]models.BillingGroup)
	for _, n := range result.Organization.BillingGroups.nodes() {
		groups[n.ID] = models.BillingGroup{ID: n.ID, Name: n.Name, IsDefault: n.IsDefault}
	}

	return groups, nil
}

// StudyVolumes returns the volumes loaded into studyID.
func (c *Catalog) StudyVolumes(ctx context.Context, studyID string) (map[string]models.Volume, error) {
	var result struct {
		Study *struct {
			Volumes connection[struct {
				ID         string  `json:"id"`
				Name       string  `json:"name"`
				PathPrefix *string `json:"pathPrefix"`
				Region     string  `json:"region"`
				Credential *struct {
					ID string `json:"id"`
				} `json:"credential"`
			}] `json:"volumes"`
		} `json:"study"`
	}

	if err := c.exec.Execute(ctx, studyVolumesQuery, map[string]any{"id": studyID}, &result); err != nil {
		return nil, err
	}
	if result.Study == nil {
		return nil, &resolver.NotFoundError{Kind: resolver.KindStudy, Selector: studyID}
	}

	volumes := make(map[string]models.Volume)
	for _, n := range result.Study.Volumes.nodes() {
		v := models.Volume{ID: n.ID, Name: n.Name, Region: n.Region}
		if n.PathPrefix != nil {
			v.PathPrefix = *n.PathPrefix
		}
		if n.Credential != nil {
			v.CredentialID = n.Credential.ID
		}
		volumes[n.ID] = v
	}

	return volumes, nil
}

// StudiesWithVolume returns the id of the study for every volume named
// volumeName, one entry per volume. A study holding the same volume twice
// appears twice.
func (c *Catalog) StudiesWithVolume(ctx context.Context, volumeName string) ([]string, error) {
	var result struct {
		Viewer struct {
			OrganizationUsers connection[struct {
				Organization struct {
					Studies connection[struct {
						ID      string `json:"id"`
						Volumes connection[struct {
							Name string `json:"name"`
						}] `json:"volumes"`
					}] `json:"studies"`
				} `json:"organization"`
			}] `json:"organizationUsers"`
		} `json:"viewer"`
	}

	if err := c.exec.Execute(ctx, volumeLocationsQuery, nil, &result); err != nil {
		return nil, fmt.Errorf("failed to locate volume %s: %w", volumeName, err)
	}

	var studyIDs []string
	for _, membership := range result.Viewer.OrganizationUsers.nodes() {
		for _, study := range membership.Organization.Studies.nodes() {
			for _, v := range study.Volumes.nodes() {
				if v.Name == volumeName {
					studyIDs = append(studyIDs, study.ID)
				}
			}
		}
	}

	return studyIDs, nil
}
