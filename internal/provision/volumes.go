package provision

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/dewrangle/internal/client"
)

// VolumeRequest selects an existing volume in a study.
type VolumeRequest struct {
	Study        string
	Volume       string // name or id
	BillingGroup string // only used when hashing
}

// HashVolume launches a list and hash job on an existing volume.
func (p *Provisioner) HashVolume(ctx context.Context, req VolumeRequest) (*Result, error) {
	res, err := p.locateVolume(ctx, req)
	if err != nil {
		return res, err
	}

	if res.OrganizationID, err = p.catalog.StudyOrganization(ctx, res.StudyID); err != nil {
		return res, err
	}
	if res.BillingGroupID, err = p.resolveBillingGroup(ctx, res.OrganizationID, req.BillingGroup); err != nil {
		return res, err
	}
	if res.JobID, err = p.listAndHash(ctx, res.VolumeID, res.BillingGroupID); err != nil {
		return res, err
	}

	zerolog.Ctx(ctx).Info().Str("volume_id", res.VolumeID).Str("job_id", res.JobID).Msg("list and hash job started")

	return res, nil
}

// ListVolume launches a list only job on an existing volume.
func (p *Provisioner) ListVolume(ctx context.Context, req VolumeRequest) (*Result, error) {
	res, err := p.locateVolume(ctx, req)
	if err != nil {
		return res, err
	}

	var result struct {
		VolumeList jobPayload `json:"volumeList"`
	}

	if err := p.exec.Execute(ctx, volumeListMutation, map[string]any{"id": res.VolumeID}, &result); err != nil {
		return res, err
	}
	if res.JobID, err = jobID("volumeList", result.VolumeList); err != nil {
		return res, err
	}

	zerolog.Ctx(ctx).Info().Str("volume_id", res.VolumeID).Str("job_id", res.JobID).Msg("list job started")

	return res, nil
}

// DeleteRequest selects a volume to remove from its study.
type DeleteRequest struct {
	Study  string
	Volume string

	// Run must be set for the mutation to be issued. Without it the volume is
	// only resolved.
	Run bool
}

// DeleteResult reports the resolved volume and whether it was removed.
type DeleteResult struct {
	StudyID  string
	VolumeID string
	Deleted  bool
}

// DeleteVolume removes a volume from a study.
func (p *Provisioner) DeleteVolume(ctx context.Context, req DeleteRequest) (*DeleteResult, error) {
	res, err := p.locateVolume(ctx, VolumeRequest{Study: req.Study, Volume: req.Volume})
	out := &DeleteResult{StudyID: res.StudyID, VolumeID: res.VolumeID}
	if err != nil {
		return out, err
	}

	log := zerolog.Ctx(ctx).With().Str("volume_id", out.VolumeID).Logger()

	if !req.Run {
		log.Info().Msg("dry run, volume not deleted")
		return out, nil
	}

	var result struct {
		VolumeDelete struct {
			Errors []client.MutationError `json:"errors"`
		} `json:"volumeDelete"`
	}

	if err := p.exec.Execute(ctx, volumeDeleteMutation, map[string]any{"id": out.VolumeID}, &result); err != nil {
		return out, err
	}
	if err := client.CheckMutation("volumeDelete", result.VolumeDelete.Errors); err != nil {
		return out, err
	}

	out.Deleted = true
	log.Info().Msg("volume deleted")

	return out, nil
}

func (p *Provisioner) locateVolume(ctx context.Context, req VolumeRequest) (*Result, error) {
	res := &Result{}

	studyID, err := p.resolveStudy(ctx, req.Study)
	if err != nil {
		return res, err
	}
	res.StudyID = studyID

	volume, err := p.resolveVolume(ctx, studyID, req.Volume)
	if err != nil {
		return res, err
	}
	res.VolumeID = volume.ID
	res.CredentialID = volume.CredentialID

	return res, nil
}
