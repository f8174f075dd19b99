package models

// Organization represents an organization the current principal is a member of.
// Organizations own studies and billing groups.
type Organization struct {
	ID   string
	Name string
}

// BillingGroup is an organization scoped cost allocation target, required
// when launching a hash job.
type BillingGroup struct {
	ID        string
	Name      string
	IsDefault bool
}
