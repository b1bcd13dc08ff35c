package model

import "time"

// Subscription plans.  Any active subscription makes an artist discoverable
// and bookable; a paid plan also floats the artist to the top of discovery.
const (
    PlanFree     = "free"
    PlanStandard = "standard"
    PlanPremium  = "premium"
)

// Subscription is the per-artist entitlement record.
type Subscription struct {
    ID        uint64     `json:"id"`
    ProfileID uint64     `json:"profile_id"`
    Plan      string     `json:"plan"`
    Tier      string     `json:"tier"`
    Active    bool       `json:"active"`
    StartedAt time.Time  `json:"started_at"`
    ExpiresAt *time.Time `json:"expires_at,omitempty"`
    CreatedAt time.Time  `json:"created_at"`
    UpdatedAt time.Time  `json:"updated_at"`

    // Populated by admin listings.
    ArtistName string `json:"artist_name,omitempty"`
    Email      string `json:"email,omitempty"`
}

// IsPaid reports whether plan is a paid plan.
func IsPaid(plan string) bool { return plan == PlanStandard || plan == PlanPremium }

// Entitled reports whether the subscription currently allows bookings.
func (s *Subscription) Entitled(now time.Time) bool {
    if s == nil || !s.Active {
        return false
    }
    return s.ExpiresAt == nil || s.ExpiresAt.After(now)
}

// MediaLimit returns the number of portfolio items allowed for a tier.
func MediaLimit(tier string) int {
    switch tier {
    case PlanPremium:
        return 50
    case PlanStandard:
        return 20
    default:
        return 5
    }
}
