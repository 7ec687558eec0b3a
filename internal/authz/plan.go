package authz

import (
	"errors"
	"time"

	"atrium/api/internal/store"
)

// Feature keys gated by plan.
const (
	FeatureAI               = "ai"
	FeatureAnalytics        = "analytics"
	FeaturePolicies         = "policies"
	FeatureAdvancedBranding = "advanced_branding"
)

// Basic-plan entity limits.
const (
	BasicMaxUsers  = 50
	BasicMaxSpaces = 5
)

// Typed limit violations. Callers branch on these, never on message text.
var (
	ErrSeatLimit  = errors.New("seat limit reached for plan")
	ErrSpaceLimit = errors.New("space limit reached for plan")
)

var basicRestricted = map[string]struct{}{
	FeatureAI:               {},
	FeatureAnalytics:        {},
	FeaturePolicies:         {},
	FeatureAdvancedBranding: {},
}

// SubscriptionActive reports whether the company's subscription window
// covers now. A zero end time means no fixed end.
func SubscriptionActive(c store.Company, now time.Time) bool {
	if !c.SubscriptionLive {
		return false
	}
	if !c.SubscriptionStart.IsZero() && now.Before(c.SubscriptionStart) {
		return false
	}
	if !c.SubscriptionEnd.IsZero() && now.After(c.SubscriptionEnd) {
		return false
	}
	return true
}

// CanAccessFeature is the plan gate: Pro allows every feature, Basic
// excludes the restricted set. A lapsed subscription downgrades to the
// Basic restrictions.
func CanAccessFeature(c store.Company, feature string, now time.Time) bool {
	if c.Plan == store.PlanPro && SubscriptionActive(c, now) {
		return true
	}
	_, restricted := basicRestricted[feature]
	return !restricted
}

// seatCap resolves the company's effective seat limit: an explicit
// MaxUsers wins, otherwise the plan default (Basic 50, Pro uncapped).
func seatCap(c store.Company) int {
	if c.MaxUsers > 0 {
		return c.MaxUsers
	}
	if c.Plan == store.PlanBasic {
		return BasicMaxUsers
	}
	return 0
}

// CheckSeatLimit fails with ErrSeatLimit when adding one more user would
// exceed the company's cap.
func CheckSeatLimit(c store.Company, activeUsers int) error {
	limit := seatCap(c)
	if limit > 0 && activeUsers >= limit {
		return ErrSeatLimit
	}
	return nil
}

// CheckSpaceLimit fails with ErrSpaceLimit on Basic plans at the space cap.
func CheckSpaceLimit(c store.Company, spaces int) error {
	if c.Plan == store.PlanBasic && spaces >= BasicMaxSpaces {
		return ErrSpaceLimit
	}
	return nil
}
