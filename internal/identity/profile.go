package identity

import "strings"

// Plan is the subscription tier attached to a profile.
type Plan string

const (
	PlanFree   Plan = "free"
	PlanMedium Plan = "medium"
	PlanPro    Plan = "pro"
)

// ParsePlan converts a string into a known Plan.
func ParsePlan(value string) (Plan, bool) {
	normalized := Plan(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case PlanFree, PlanMedium, PlanPro:
		return normalized, true
	}
	return "", false
}

// freePlanGenerations is the quota granted to a new free-plan profile.
const freePlanGenerations = 2

// Profile is the locally stored identity. Credentials are never part of it;
// authentication happens upstream and only the resulting identity is kept.
type Profile struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Plan            Plan   `json:"plan"`
	GenerationsLeft int    `json:"generations_left"`
}

// OwnerKey returns the key that scopes this profile's history records.
func (p *Profile) OwnerKey() string {
	return p.Email
}

// CanGenerate reports whether the profile may start a new generation. Paid
// plans are never quota-gated.
func (p *Profile) CanGenerate() bool {
	if p.Plan != PlanFree {
		return true
	}
	return p.GenerationsLeft > 0
}

// NewProfile bootstraps a free-plan profile with the starter quota.
func NewProfile(username, email string) *Profile {
	return &Profile{
		Username:        strings.TrimSpace(username),
		Email:           strings.ToLower(strings.TrimSpace(email)),
		Plan:            PlanFree,
		GenerationsLeft: freePlanGenerations,
	}
}
