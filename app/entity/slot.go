package entity

import "time"

// Slot is exactly one reservation of a subscription by a user.
// The pair (UserID, SubscriptionID) is unique at the database level.
type Slot struct {
	ID             uint64
	UserID         string
	SubscriptionID uint64
	AssignedAt     time.Time
	IsActive       bool
}
