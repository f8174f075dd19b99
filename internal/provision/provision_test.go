package provision

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/dewrangle/internal/client"
	"github.com/wolfeidau/dewrangle/internal/client/clienttest"
	"github.com/wolfeidau/dewrangle/internal/resolver"
)

const (
	studiesResponse = `{"viewer": {
		"studyUsers": {"edges": [{"node": {"study": {"id": "S1", "name": "StudyA", "globalId": "SD_A"}}}]},
		"organizationUsers": {"edges": []}
	}}`
	studyOrgResponse    = `{"study": {"organization": {"id": "O1"}}}`
	credentialsResponse = `{"study": {"id": "S1", "credentials": {"edges": [{"node": {"id": "C1", "name": "aws", "key": "AKIA"}}]}}}`
	billingResponse     = `{"organization": {"billingGroups": {"edges": [
		{"node": {"id": "B1", "name": "main", "isDefault": true}},
		{"node": {"id": "B2", "name": "grant", "isDefault": false}}
	]}}}`
	existingVolumeResponse = `{"study": {"volumes": {"edges": [
		{"node": {"id": "V1", "name": "bucket-x", "pathPrefix": null, "region": "us-east-1", "credential": {"id": "C1"}}}
	]}}}`
	noVolumesResponse = `{"study": {"volumes": {"edges": []}}}`
	volumeCreated     = `{"volumeCreate": {"errors": [], "volume": {"id": "V-new", "name": "bucket-x"}}}`
	hashStarted       = `{"volumeListAndHash": {"errors": null, "job": {"id": "J1"}}}`
)

func newExecutor() *clienttest.Executor {
	return clienttest.NewExecutor().
		Respond("AllStudies", studiesResponse).
		Respond("StudyOrganization", studyOrgResponse).
		Respond("StudyCredentials", credentialsResponse).
		Respond("OrganizationBillingGroups", billingResponse)
}

func TestProvisionAndHash(t *testing.T) {
	exec := newExecutor().
		Respond("StudyVolumes", noVolumesResponse).
		Respond("VolumeCreate", volumeCreated).
		Respond("VolumeListAndHash", hashStarted)

	res, err := New(exec).ProvisionAndHash(context.Background(), Request{
		Study:      "StudyA",
		Bucket:     "bucket-x",
		Region:     "us-west-2",
		PathPrefix: "raw/",
	})
	require.NoError(t, err)

	assert.Equal(t, &Result{
		StudyID:        "S1",
		OrganizationID: "O1",
		CredentialID:   "C1",
		BillingGroupID: "B1",
		VolumeID:       "V-new",
		JobID:          "J1",
		Created:        true,
	}, res)

	assert.Equal(t, []string{
		"AllStudies",
		"StudyOrganization",
		"StudyCredentials",
		"OrganizationBillingGroups",
		"StudyVolumes",
		"VolumeCreate",
		"VolumeListAndHash",
	}, exec.Operations())

	create := exec.CallsTo("VolumeCreate")[0]
	assert.Equal(t, map[string]any{
		"name":         "bucket-x",
		"region":       "us-west-2",
		"studyId":      "S1",
		"credentialId": "C1",
		"pathPrefix":   "raw/",
	}, create.Variables["input"])

	hash := exec.CallsTo("VolumeListAndHash")[0]
	assert.Equal(t, "V-new", hash.Variables["id"])
	assert.Equal(t, map[string]any{"billingGroupId": "B1"}, hash.Variables["input"])
}

func TestProvisionAndHashConflict(t *testing.T) {
	exec := newExecutor().Respond("StudyVolumes", existingVolumeResponse)

	_, err := New(exec).ProvisionAndHash(context.Background(), Request{Study: "StudyA", Bucket: "bucket-x"})

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, resolver.KindVolume, conflict.Kind)
	assert.Equal(t, []string{"V1"}, conflict.ExistingIDs)
	assert.Empty(t, exec.CallsTo("VolumeCreate"))
	assert.Empty(t, exec.CallsTo("VolumeListAndHash"))
}

func TestProvisionAndHashSkipExistingCheck(t *testing.T) {
	exec := newExecutor().
		Respond("StudyVolumes", existingVolumeResponse).
		Respond("VolumeCreate", volumeCreated).
		Respond("VolumeListAndHash", hashStarted)

	res, err := New(exec).ProvisionAndHash(context.Background(), Request{
		Study:             "StudyA",
		Bucket:            "bucket-x",
		SkipExistingCheck: true,
	})
	require.NoError(t, err)

	require.Len(t, exec.CallsTo("VolumeCreate"), 1)
	assert.Empty(t, exec.CallsTo("StudyVolumes"))

	hash := exec.CallsTo("VolumeListAndHash")
	require.Len(t, hash, 1)
	assert.Equal(t, "V-new", hash[0].Variables["id"])
	assert.Equal(t, "J1", res.JobID)

	input := exec.CallsTo("VolumeCreate")[0].Variables["input"].(map[string]any)
	assert.Equal(t, DefaultRegion, input["region"])
	assert.NotContains(t, input, "pathPrefix")
}

func TestProvisionAndHashMutationFailed(t *testing.T) {
	exec := newExecutor().
		Respond("StudyVolumes", noVolumesResponse).
		Respond("VolumeCreate", `{"volumeCreate": {"errors": [{"message": "bucket not readable", "field": "name"}], "volume": null}}`)

	res, err := New(exec).ProvisionAndHash(context.Background(), Request{Study: "S1", Bucket: "bucket-x"})

	var mf *client.MutationFailedError
	require.ErrorAs(t, err, &mf)
	assert.Equal(t, "volumeCreate", mf.Mutation)
	assert.Equal(t, []string{"bucket not readable (field: name)"}, mf.Messages())
	assert.Empty(t, res.VolumeID)
	assert.Empty(t, exec.CallsTo("VolumeListAndHash"))
}

func TestProvisionAndHashPartialFailure(t *testing.T) {
	exec := newExecutor().
		Respond("StudyVolumes", noVolumesResponse).
		Respond("VolumeCreate", volumeCreated).
		Respond("VolumeListAndHash", `{"volumeListAndHash": {"errors": [{"message": "billing group disabled", "field": null}], "job": null}}`)

	res, err := New(exec).ProvisionAndHash(context.Background(), Request{Study: "StudyA", Bucket: "bucket-x"})

	var partial *PartialError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, "V-new", partial.VolumeID)
	assert.Equal(t, "V-new", res.VolumeID)
	assert.Empty(t, res.JobID)

	var mf *client.MutationFailedError
	require.ErrorAs(t, err, &mf)
	assert.Empty(t, exec.CallsTo("VolumeDelete"))
}

func TestProvisionAndHashResolutionAborts(t *testing.T) {
	t.Run("unknown study", func(t *testing.T) {
		exec := newExecutor()

		_, err := New(exec).ProvisionAndHash(context.Background(), Request{Study: "StudyB", Bucket: "bucket-x"})

		var nf *resolver.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, resolver.KindStudy, nf.Kind)
		assert.Equal(t, []string{"AllStudies"}, exec.Operations())
	})

	t.Run("unknown billing group", func(t *testing.T) {
		exec := newExecutor()

		_, err := New(exec).ProvisionAndHash(context.Background(), Request{Study: "SD_A", Bucket: "bucket-x", BillingGroup: "nope"})

		var nf *resolver.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, resolver.KindBillingGroup, nf.Kind)
		assert.Empty(t, exec.CallsTo("StudyVolumes"))
	})
}

func TestEnsureAndHash(t *testing.T) {
	t.Run("reuses existing volume", func(t *testing.T) {
		exec := newExecutor().
			Respond("StudyVolumes", existingVolumeResponse).
			Respond("VolumeListAndHash", hashStarted)

		res, err := New(exec).EnsureAndHash(context.Background(), Request{Study: "StudyA", Bucket: "bucket-x"})
		require.NoError(t, err)
		assert.Equal(t, "V1", res.VolumeID)
		assert.False(t, res.Created)
		assert.Empty(t, exec.CallsTo("VolumeCreate"))
		assert.Empty(t, exec.CallsTo("StudyCredentials"))
	})

	t.Run("creates missing volume", func(t *testing.T) {
		exec := newExecutor().
			Respond("StudyVolumes", noVolumesResponse).
			Respond("VolumeCreate", volumeCreated).
			Respond("VolumeListAndHash", hashStarted)

		res, err := New(exec).EnsureAndHash(context.Background(), Request{Study: "StudyA", Bucket: "bucket-x"})
		require.NoError(t, err)
		assert.Equal(t, "V-new", res.VolumeID)
		assert.True(t, res.Created)
		assert.Equal(t, "J1", res.JobID)
	})

	t.Run("several volumes with the name", func(t *testing.T) {
		exec := newExecutor().Respond("StudyVolumes", `{"study": {"volumes": {"edges": [
			{"node": {"id": "V2", "name": "bucket-x", "region": "us-east-1"}},
			{"node": {"id": "V1", "name": "bucket-x", "region": "us-east-1"}}
		]}}}`)

		_, err := New(exec).EnsureAndHash(context.Background(), Request{Study: "StudyA", Bucket: "bucket-x"})

		var amb *resolver.AmbiguousError
		require.ErrorAs(t, err, &amb)
		assert.Equal(t, []string{"V1", "V2"}, amb.IDs)
	})
}

func TestHashVolume(t *testing.T) {
	exec := newExecutor().
		Respond("StudyVolumes", existingVolumeResponse).
		Respond("VolumeListAndHash", hashStarted)

	res, err := New(exec).HashVolume(context.Background(), VolumeRequest{Study: "StudyA", Volume: "bucket-x", BillingGroup: "grant"})
	require.NoError(t, err)
	assert.Equal(t, "V1", res.VolumeID)
	assert.Equal(t, "B2", res.BillingGroupID)
	assert.Equal(t, "J1", res.JobID)
}

func TestListVolume(t *testing.T) {
	exec := newExecutor().
		Respond("StudyVolumes", existingVolumeResponse).
		Respond("VolumeList", `{"volumeList": {"errors": [], "job": {"id": "J2"}}}`)

	res, err := New(exec).ListVolume(context.Background(), VolumeRequest{Study: "StudyA", Volume: "V1"})
	require.NoError(t, err)
	assert.Equal(t, "J2", res.JobID)
	assert.Equal(t, "V1", exec.CallsTo("VolumeList")[0].Variables["id"])
}

func TestListVolumeRequiresVolume(t *testing.T) {
	exec := newExecutor().Respond("StudyVolumes", existingVolumeResponse)

	_, err := New(exec).ListVolume(context.Background(), VolumeRequest{Study: "StudyA"})
	require.Error(t, err)
	assert.Empty(t, exec.CallsTo("VolumeList"))
}

func TestDeleteVolume(t *testing.T) {
	t.Run("dry run", func(t *testing.T) {
		exec := newExecutor().Respond("StudyVolumes", existingVolumeResponse)

		res, err := New(exec).DeleteVolume(context.Background(), DeleteRequest{Study: "StudyA", Volume: "bucket-x"})
		require.NoError(t, err)
		assert.Equal(t, "V1", res.VolumeID)
		assert.False(t, res.Deleted)
		assert.Empty(t, exec.CallsTo("VolumeDelete"))
	})

	t.Run("run", func(t *testing.T) {
		exec := newExecutor().
			Respond("StudyVolumes", existingVolumeResponse).
			Respond("VolumeDelete", `{"volumeDelete": {"errors": []}}`)

		res, err := New(exec).DeleteVolume(context.Background(), DeleteRequest{Study: "StudyA", Volume: "bucket-x", Run: true})
		require.NoError(t, err)
		assert.True(t, res.Deleted)
		assert.Equal(t, "V1", exec.CallsTo("VolumeDelete")[0].Variables["id"])
	})

	t.Run("unknown volume", func(t *testing.T) {
		exec := newExecutor().Respond("StudyVolumes", existingVolumeResponse)

		_, err := New(exec).DeleteVolume(context.Background(), DeleteRequest{Study: "StudyA", Volume: "bucket-y", Run: true})

		var nf *resolver.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, resolver.KindVolume, nf.Kind)
	})
}

func TestCreateStudy(t *testing.T) {
	orgs := `{"viewer": {"organizationUsers": {"edges": [{"node": {"organization": {"id": "O1", "name": "Lab"}}}]}}}`

	t.Run("creates", func(t *testing.T) {
		exec := newExecutor().
			Respond("Organizations", orgs).
			Respond("StudyCreate", `{"studyCreate": {"errors": [], "study": {"id": "S9", "name": "StudyZ"}}}`)

		res, err := New(exec).CreateStudy(context.Background(), StudyRequest{Name: "StudyZ", Organization: "Lab", Run: true})
		require.NoError(t, err)
		assert.Equal(t, &StudyResult{OrganizationID: "O1", StudyID: "S9", Created: true}, res)
		assert.Equal(t, map[string]any{"name": "StudyZ", "organizationId": "O1"}, exec.CallsTo("StudyCreate")[0].Variables["input"])
	})

	t.Run("conflict", func(t *testing.T) {
		exec := newExecutor().Respond("Organizations", orgs)

		_, err := New(exec).CreateStudy(context.Background(), StudyRequest{Name: "StudyA", Organization: "O1", Run: true})

		var conflict *ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, resolver.KindStudy, conflict.Kind)
		assert.Empty(t, exec.CallsTo("StudyCreate"))
	})

	t.Run("skip existing check", func(t *testing.T) {
		exec := newExecutor().
			Respond("Organizations", orgs).
			Respond("StudyCreate", `{"studyCreate": {"errors": [], "study": {"id": "S10", "name": "StudyA"}}}`)

		res, err := New(exec).CreateStudy(context.Background(), StudyRequest{Name: "StudyA", Organization: "Lab", SkipExistingCheck: true, Run: true})
		require.NoError(t, err)
		assert.Equal(t, "S10", res.StudyID)
		assert.Empty(t, exec.CallsTo("AllStudies"))
	})

	t.Run("dry run", func(t *testing.T) {
		exec := newExecutor().Respond("Organizations", orgs)

		res, err := New(exec).CreateStudy(context.Background(), StudyRequest{Name: "StudyZ", Organization: "Lab"})
		require.NoError(t, err)
		assert.False(t, res.Created)
		assert.Empty(t, exec.CallsTo("StudyCreate"))
	})
}
