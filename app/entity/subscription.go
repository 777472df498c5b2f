package entity

import "time"

// Subscription is a shared credential with a finite number of slots.
// AvailableSlots is only ever mutated through the conditional
// increment/decrement queries in the repository layer.
type Subscription struct {
	ID                uint64
	ServiceProviderID uint64
	CountryID         *uint64
	TotalSlots        int32
	AvailableSlots    int32
	IsActive          bool
	ExpiresAt         *time.Time
	Metadata          string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsAssignable reports whether the subscription can receive a new slot
// assignment at the given instant.
func (s *Subscription) IsAssignable(now time.Time) bool {
	if !s.IsActive || s.AvailableSlots <= 0 {
		return false
	}
	if s.ExpiresAt != nil && !s.ExpiresAt.After(now) {
		return false
	}
	return true
}
