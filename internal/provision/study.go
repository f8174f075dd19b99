package provision

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/dewrangle/internal/client"
	"github.com/wolfeidau/dewrangle/internal/resolver"
)

// StudyRequest describes a study to create in an organization.
type StudyRequest struct {
	Name         string
	Organization string // name or id

	// SkipExistingCheck creates the study even if the organization already
	// has one with the same name.
	SkipExistingCheck bool

	// Run must be set for the mutation to be issued.
	Run bool
}

// StudyResult reports the resolved organization and the new study, if any.
type StudyResult struct {
	OrganizationID string
	StudyID        string
	Created        bool
}

// CreateStudy creates a study. Without Run the inputs are resolved and
// checked but nothing is created.
func (p *Provisioner) CreateStudy(ctx context.Context, req StudyRequest) (*StudyResult, error) {
	out := &StudyResult{}

	if req.Name == "" {
		return out, errors.New("a study name is required")
	}

	orgs, err := p.catalog.Organizations(ctx)
	if err != nil {
		return out, err
	}
	if out.OrganizationID, err = resolver.Resolve(orgs, req.Organization, resolver.Organizations); err != nil {
		return out, err
	}

	if !req.SkipExistingCheck {
		studies, err := p.catalog.Studies(ctx)
		if err != nil {
			return out, err
		}

		var existing []string
		for id, s := range studies {
			if s.Name == req.Name && (s.OrganizationID == "" || s.OrganizationID == out.OrganizationID) {
				existing = append(existing, id)
			}
		}
		slices.Sort(existing)

		if len(existing) > 0 {
			return out, &ConflictError{Kind: resolver.KindStudy, Name: req.Name, ExistingIDs: existing}
		}
	}

	log := zerolog.Ctx(ctx).With().Str("study", req.Name).Str("organization_id", out.OrganizationID).Logger()

	if !req.Run {
		log.Info().Msg("dry run, study not created")
		return out, nil
	}

	var result struct {
		StudyCreate struct {
			Errors []client.MutationError `json:"errors"`
			Study  *struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"study"`
		} `json:"studyCreate"`
	}

	vars := map[string]any{
		"input": map[string]any{
			"name":           req.Name,
			"organizationId": out.OrganizationID,
		},
	}

	if err := p.exec.Execute(ctx, studyCreateMutation, vars, &result); err != nil {
		return out, err
	}
	if err := client.CheckMutation("studyCreate", result.StudyCreate.Errors); err != nil {
		return out, err
	}
	if result.StudyCreate.Study == nil || result.StudyCreate.Study.ID == "" {
		return out, fmt.Errorf("studyCreate returned no study for %s", req.Name)
	}

	out.StudyID = result.StudyCreate.Study.ID
	out.Created = true
	log.Info().Str("study_id", out.StudyID).Msg("study created")

	return out, nil
}
