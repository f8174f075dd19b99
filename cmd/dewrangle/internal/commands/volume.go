package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/wolfeidau/dewrangle/internal/provision"
)

// VolumeSelector is embedded by commands acting on an existing volume.
type VolumeSelector struct {
	Study  string `help:"Study name, global id or id." short:"s" required:""`
	Volume string `help:"Volume name." xor:"volume"`
	VID    string `help:"Volume id." name:"vid" xor:"volume"`
}

func (v *VolumeSelector) selector() (string, error) {
	if v.VID != "" {
		return v.VID, nil
	}
	if v.Volume != "" {
		return v.Volume, nil
	}
	return "", errors.New("one of --volume or --vid is required")
}

type provisionView struct {
	StudyID        string `json:"study_id" yaml:"study_id"`
	OrganizationID string `json:"organization_id,omitempty" yaml:"organization_id,omitempty"`
	CredentialID   string `json:"credential_id,omitempty" yaml:"credential_id,omitempty"`
	BillingGroupID string `json:"billing_group_id,omitempty" yaml:"billing_group_id,omitempty"`
	VolumeID       string `json:"volume_id" yaml:"volume_id"`
	JobID          string `json:"job_id" yaml:"job_id"`
	Created        bool   `json:"created" yaml:"created"`
}

func newProvisionView(res *provision.Result) provisionView {
	return provisionView{
		StudyID:        res.StudyID,
		OrganizationID: res.OrganizationID,
		CredentialID:   res.CredentialID,
		BillingGroupID: res.BillingGroupID,
		VolumeID:       res.VolumeID,
		JobID:          res.JobID,
		Created:        res.Created,
	}
}

func (g *Globals) renderProvision(res *provision.Result) error {
	return g.render(
		table.Row{"Study", "Volume", "Billing Group", "Job"},
		[]table.Row{{res.StudyID, res.VolumeID, res.BillingGroupID, res.JobID}},
		newProvisionView(res),
	)
}

// AddVolumeCmd attaches a bucket to a study and starts a list and hash job.
type AddVolumeCmd struct {
	Study        string `help:"Study name, global id or id." short:"s" required:""`
	Bucket       string `help:"Bucket to add as a volume." short:"b" required:""`
	Region       string `help:"Bucket region." short:"r" default:"us-east-1"`
	Prefix       string `help:"Path prefix within the bucket." short:"p"`
	Credential   string `help:"Credential name or id, required when the study has several." short:"c"`
	BillingGroup string `help:"Billing group name or id, the default group when unset." short:"g" name:"billing"`
	Skip         bool   `help:"Add the volume even if one with the same name exists."`
}

func (a *AddVolumeCmd) Run(ctx context.Context, globals *Globals) error {
	exec, _, err := globals.connect(ctx)
	if err != nil {
		return err
	}

	res, err := provision.New(exec).ProvisionAndHash(ctx, provision.Request{
		Study:             a.Study,
		Bucket:            a.Bucket,
		Region:            a.Region,
		PathPrefix:        a.Prefix,
		Credential:        a.Credential,
		BillingGroup:      a.BillingGroup,
		SkipExistingCheck: a.Skip,
	})
	if err != nil {
		var conflict *provision.ConflictError
		if errors.As(err, &conflict) {
			return fmt.Errorf("%w\n\nPass --skip to add it again, or run 'dewrangle hash-volume -s %s --vid %s' to hash it",
				err, a.Study, conflict.ExistingIDs[0])
		}
		var partial *provision.PartialError
		if errors.As(err, &partial) {
			return fmt.Errorf("%w\n\nRun 'dewrangle hash-volume -s %s --vid %s' to retry hashing",
				err, a.Study, partial.VolumeID)
		}
		return err
	}

	return globals.renderProvision(res)
}

// HashVolumeCmd starts a list and hash job on an existing volume.
type HashVolumeCmd struct {
	VolumeSelector
	BillingGroup string `help:"Billing group name or id, the default group when unset." short:"g" name:"billing"`
}

func (h *HashVolumeCmd) Run(ctx context.Context, globals *Globals) error {
	volume, err := h.selector()
	if err != nil {
		return err
	}

	exec, _, err := globals.connect(ctx)
	if err != nil {
		return err
	}

	res, err := provision.New(exec).HashVolume(ctx, provision.VolumeRequest{
		Study:        h.Study,
		Volume:       volume,
		BillingGroup: h.BillingGroup,
	})
	if err != nil {
		return err
	}

	return globals.renderProvision(res)
}

// ListVolumeCmd starts a list only job on an existing volume.
type ListVolumeCmd struct {
	VolumeSelector
}

func (l *ListVolumeCmd) Run(ctx context.Context, globals *Globals) error {
	volume, err := l.selector()
	if err != nil {
		return err
	}

	exec, _, err := globals.connect(ctx)
	if err != nil {
		return err
	}

	res, err := provision.New(exec).ListVolume(ctx, provision.VolumeRequest{Study: l.Study, Volume: volume})
	if err != nil {
		return err
	}

	return globals.renderProvision(res)
}

// DeleteVolumeCmd removes a volume from a study.
type DeleteVolumeCmd struct {
	VolumeSelector
	Apply bool `help:"Delete the volume. Without this flag the volume is only looked up." name:"run"`
}

func (d *DeleteVolumeCmd) Run(ctx context.Context, globals *Globals) error {
	volume, err := d.selector()
	if err != nil {
		return err
	}

	exec, _, err := globals.connect(ctx)
	if err != nil {
		return err
	}

	res, err := provision.New(exec).DeleteVolume(ctx, provision.DeleteRequest{
		Study:  d.Study,
		Volume: volume,
		Run:    d.Apply,
	})
	if err != nil {
		return err
	}

	if !res.Deleted {
		globals.printf("Volume %s was not deleted. Pass --run to delete it.\n", res.VolumeID)
	}

	return globals.render(
		table.Row{"Study", "Volume", "Deleted"},
		[]table.Row{{res.StudyID, res.VolumeID, res.Deleted}},
		map[string]any{"study_id": res.StudyID, "volume_id": res.VolumeID, "deleted": res.Deleted},
	)
}
