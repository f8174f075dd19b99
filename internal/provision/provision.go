package provision

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/dewrangle/internal/catalog"
	"github.com/wolfeidau/dewrangle/internal/client"
	"github.com/wolfeidau/dewrangle/internal/models"
	"github.com/wolfeidau/dewrangle/internal/resolver"
)

// DefaultRegion is used when a request does not name a bucket region.
const DefaultRegion = "us-east-1"

// Provisioner runs the mutating workflows against one executor.
type Provisioner struct {
	exec    client.Executor
	catalog *catalog.Catalog
}

func New(exec client.Executor) *Provisioner {
	return &Provisioner{
		exec:    exec,
		catalog: catalog.New(exec),
	}
}

// Request describes a bucket to attach to a study and hash.
type Request struct {
	Study        string // name, global id or id
	Bucket       string
	Region       string
	PathPrefix   string
	Credential   string // optional, name or id
	BillingGroup string // optional, name or id; falls back to the default group

	// SkipExistingCheck creates the volume even when one with the same name
	// is already attached to the study.
	SkipExistingCheck bool
}

// Result carries every id resolved or created by a workflow. On failure it
// holds whatever was known when the workflow stopped.
type Result struct {
	StudyID        string
	OrganizationID string
	CredentialID   string
	BillingGroupID string
	VolumeID       string
	JobID          string

	// Created is true when the workflow created the volume.
	Created bool
}

// ProvisionAndHash resolves the request, creates the volume and launches a
// list and hash job on it. When hashing fails after the volume was created
// the error is a *PartialError and the Result still carries the VolumeID.
func (p *Provisioner) ProvisionAndHash(ctx context.Context, req Request) (*Result, error) {
	log := zerolog.Ctx(ctx).With().Str("bucket", req.Bucket).Logger()
	res := &Result{}

	var err error

	if res.StudyID, err = p.resolveStudy(ctx, req.Study); err != nil {
		return res, err
	}
	if res.OrganizationID, err = p.catalog.StudyOrganization(ctx, res.StudyID); err != nil {
		return res, err
	}
	if res.CredentialID, err = p.resolveCredential(ctx, res.StudyID, req.Credential); err != nil {
		return res, err
	}
	if res.BillingGroupID, err = p.resolveBillingGroup(ctx, res.OrganizationID, req.BillingGroup); err != nil {
		return res, err
	}

	log.Debug().
		Str("study_id", res.StudyID).
		Str("organization_id", res.OrganizationID).
		Str("credential_id", res.CredentialID).
		Str("billing_group_id", res.BillingGroupID).
		Msg("resolved provisioning inputs")

	if !req.SkipExistingCheck {
		existing, err := p.volumesNamed(ctx, res.StudyID, req.Bucket)
		if err != nil {
			return res, err
		}
		if len(existing) > 0 {
			return res, &ConflictError{Kind: resolver.KindVolume, Name: req.Bucket, ExistingIDs: existing}
		}
	}

	if res.VolumeID, err = p.createVolume(ctx, res.StudyID, res.CredentialID, req); err != nil {
		return res, err
	}
	res.Created = true

	log.Info().Str("volume_id", res.VolumeID).Msg("volume created")

	if res.JobID, err = p.listAndHash(ctx, res.VolumeID, res.BillingGroupID); err != nil {
		return res, &PartialError{VolumeID: res.VolumeID, Err: err}
	}

	log.Info().Str("job_id", res.JobID).Msg("list and hash job started")

	return res, nil
}

// EnsureAndHash hashes the volume named req.Bucket, creating it first when
// the study has none. Several volumes with that name is an AmbiguousError.
func (p *Provisioner) EnsureAndHash(ctx context.Context, req Request) (*Result, error) {
	res := &Result{}

	var err error

	if res.StudyID, err = p.resolveStudy(ctx, req.Study); err != nil {
		return res, err
	}
	if res.OrganizationID, err = p.catalog.StudyOrganization(ctx, res.StudyID); err != nil {
		return res, err
	}
	if res.BillingGroupID, err = p.resolveBillingGroup(ctx, res.OrganizationID, req.BillingGroup); err != nil {
		return res, err
	}

	existing, err := p.volumesNamed(ctx, res.StudyID, req.Bucket)
	if err != nil {
		return res, err
	}

	switch len(existing) {
	case 0:
		if res.CredentialID, err = p.resolveCredential(ctx, res.StudyID, req.Credential); err != nil {
			return res, err
		}
		if res.VolumeID, err = p.createVolume(ctx, res.StudyID, res.CredentialID, req); err != nil {
			return res, err
		}
		res.Created = true
	case 1:
		res.VolumeID = existing[0]
	default:
		return res, &resolver.AmbiguousError{Kind: resolver.KindVolume, Selector: req.Bucket, IDs: existing}
	}

	if res.JobID, err = p.listAndHash(ctx, res.VolumeID, res.BillingGroupID); err != nil {
		if res.Created {
			return res, &PartialError{VolumeID: res.VolumeID, Err: err}
		}
		return res, err
	}

	return res, nil
}

func (p *Provisioner) resolveStudy(ctx context.Context, selector string) (string, error) {
	studies, err := p.catalog.Studies(ctx)
	if err != nil {
		return "", err
	}
	return resolver.Resolve(studies, selector, resolver.Studies)
}

func (p *Provisioner) resolveCredential(ctx context.Context, studyID, selector string) (string, error) {
	creds, err := p.catalog.StudyCredentials(ctx, studyID)
	if err != nil {
		return "", err
	}
	return resolver.Resolve(creds, selector, resolver.Credentials)
}

func (p *Provisioner) resolveBillingGroup(ctx context.Context, orgID, selector string) (string, error) {
	groups, err := p.catalog.BillingGroups(ctx, orgID)
	if err != nil {
		return "", err
	}
	return resolver.Resolve(groups, selector, resolver.BillingGroups)
}

func (p *Provisioner) resolveVolume(ctx context.Context, studyID, selector string) (models.Volume, error) {
	volumes, err := p.catalog.StudyVolumes(ctx, studyID)
	if err != nil {
		return models.Volume{}, err
	}
	if selector == "" {
		return models.Volume{}, errors.New("a volume name or id is required")
	}
	id, err := resolver.Resolve(volumes, selector, resolver.Volumes)
	if err != nil {
		return models.Volume{}, err
	}
	return volumes[id], nil
}

// volumesNamed returns the sorted ids of the study's volumes called name.
func (p *Provisioner) volumesNamed(ctx context.Context, studyID, name string) ([]string, error) {
	volumes, err := p.catalog.StudyVolumes(ctx, studyID)
	if err != nil {
		return nil, err
	}

	var ids []string
	for id, v := range volumes {
		if v.Name == name {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	return ids, nil
}

func (p *Provisioner) createVolume(ctx context.Context, studyID, credentialID string, req Request) (string, error) {
	region := req.Region
	if region == "" {
		region = DefaultRegion
	}

	input := map[string]any{
		"name":         req.Bucket,
		"region":       region,
		"studyId":      studyID,
		"credentialId": credentialID,
	}
	if req.PathPrefix != "" {
		input["pathPrefix"] = req.PathPrefix
	}

	var result struct {
		VolumeCreate struct {
			Errors []client.MutationError `json:"errors"`
			Volume *struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"volume"`
		} `json:"volumeCreate"`
	}

	if err := p.exec.Execute(ctx, volumeCreateMutation, map[string]any{"input": input}, &result); err != nil {
		return "", err
	}
	if err := client.CheckMutation("volumeCreate", result.VolumeCreate.Errors); err != nil {
		return "", err
	}
	if result.VolumeCreate.Volume == nil || result.VolumeCreate.Volume.ID == "" {
		return "", fmt.Errorf("volumeCreate returned no volume for %s", req.Bucket)
	}

	return result.VolumeCreate.Volume.ID, nil
}

func (p *Provisioner) listAndHash(ctx context.Context, volumeID, billingGroupID string) (string, error) {
	var result struct {
		VolumeListAndHash jobPayload `json:"volumeListAndHash"`
	}

	vars := map[string]any{
		"id":    volumeID,
		"input": map[string]any{"billingGroupId": billingGroupID},
	}

	if err := p.exec.Execute(ctx, volumeListAndHashMutation, vars, &result); err != nil {
		return "", err
	}

	return jobID("volumeListAndHash", result.VolumeListAndHash)
}

func jobID(mutation string, payload jobPayload) (string, error) {
	if err := client.CheckMutation(mutation, payload.Errors); err != nil {
		return "", err
	}
	if payload.Job == nil || payload.Job.ID == "" {
		return "", fmt.Errorf("%s returned no job", mutation)
	}
	return payload.Job.ID, nil
}
