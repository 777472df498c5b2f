package entity

import "time"

const (
	RequestStatusPending  int32 = 0
	RequestStatusAssigned int32 = 10
)

// SubscriptionRequest tracks a user's ask for a slot. It is created
// PENDING and only ever moves forward to ASSIGNED.
type SubscriptionRequest struct {
	ID                uint64
	UserID            string
	ServiceProviderID uint64
	CountryID         *uint64
	Status            int32
	AssignedSlotID    *uint64
	RequestedAt       time.Time
	ProcessedAt       *time.Time
}
