package models

// Study is a named project container owned by an organization.
type Study struct {
	ID       string
	Name     string
	GlobalID string // Alternate human identifier shown in the web UI

	// OrganizationID is only set when the study was reached through an
	// organization membership; use catalog.StudyOrganization otherwise.
	OrganizationID string
}

// Credential is a cloud storage credential attached to a study. The secret
// is never read back from the service.
type Credential struct {
	ID   string
	Name string
	Key  string // Non-secret display key (e.g. AWS access key id)
}

// Volume is a named pointer to a cloud storage bucket plus the credential
// used to access it. Names are not unique within a study.
type Volume struct {
	ID           string
	Name         string
	PathPrefix   string
	Region       string
	CredentialID string
}
