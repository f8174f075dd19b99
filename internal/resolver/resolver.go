package resolver

import (
	"slices"

	"github.com/wolfeidau/dewrangle/internal/models"
)

// Kind names the resource type being resolved, used in error messages.
type Kind string

const (
	KindOrganization Kind = "Organization"
	KindStudy        Kind = "Study"
	KindCredential   Kind = "Credential"
	KindBillingGroup Kind = "BillingGroup"
	KindVolume       Kind = "Volume"
	KindJob          Kind = "Job"
)

// Rule describes how selectors match descriptors of type D.
type Rule[D any] struct {
	Kind Kind

	// Match reports whether selector names the descriptor.
	Match func(d D, selector string) bool

	// IsDefault is optional. When set and no selector is given, the single
	// default candidate is chosen instead of failing as ambiguous.
	IsDefault func(d D) bool
}

// Resolve picks exactly one id from candidates.
//
// A selector that is already a key of candidates is returned unchanged.
// Otherwise candidates are filtered with rule.Match: one match wins, none is
// a NotFoundError and several is an AmbiguousError. With an empty selector a
// lone candidate wins, then the rule's default, and anything else fails.
func Resolve[D any](candidates map[string]D, selector string, rule Rule[D]) (string, error) {
	if selector != "" {
		if _, ok := candidates[selector]; ok {
			return selector, nil
		}

		return pick(rule.Kind, selector, filter(candidates, func(d D) bool {
			return rule.Match(d, selector)
		}))
	}

	switch {
	case len(candidates) == 0:
		return "", &NotFoundError{Kind: rule.Kind}
	case len(candidates) == 1:
		for id := range candidates {
			return id, nil
		}
	case rule.IsDefault != nil:
		id, err := pick(rule.Kind, "", filter(candidates, rule.IsDefault))
		if nf, ok := err.(*NotFoundError); ok {
			nf.NoDefault = true
		}
		return id, err
	}

	return "", &AmbiguousError{Kind: rule.Kind, IDs: sortedKeys(candidates)}
}

func pick(kind Kind, selector string, ids []string) (string, error) {
	switch len(ids) {
	case 0:
		return "", &NotFoundError{Kind: kind, Selector: selector}
	case 1:
		return ids[0], nil
	default:
		return "", &AmbiguousError{Kind: kind, Selector: selector, IDs: ids}
	}
}

// filter returns the sorted ids of the candidates keep accepts.
func filter[D any](candidates map[string]D, keep func(D) bool) []string {
	var ids []string
	for id, d := range candidates {
		if keep(d) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

func sortedKeys[D any](candidates map[string]D) []string {
	ids := make([]string, 0, len(candidates))
	for id := range candidates {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Rules for each resource type.
var (
	Organizations = Rule[models.Organization]{
		Kind:  KindOrganization,
		Match: func(o models.Organization, s string) bool { return o.Name == s },
	}

	Studies = Rule[models.Study]{
		Kind: KindStudy,
		Match: func(st models.Study, s string) bool {
			return st.Name == s || (st.GlobalID != "" && st.GlobalID == s)
		},
	}

	Credentials = Rule[models.Credential]{
		Kind:  KindCredential,
		Match: func(c models.Credential, s string) bool { return c.Name == s },
	}

	BillingGroups = Rule[models.BillingGroup]{
		Kind:      KindBillingGroup,
		Match:     func(b models.BillingGroup, s string) bool { return b.Name == s },
		IsDefault: func(b models.BillingGroup) bool { return b.IsDefault },
	}

	Volumes = Rule[models.Volume]{
		Kind:  KindVolume,
		Match: func(v models.Volume, s string) bool { return v.Name == s },
	}
)
