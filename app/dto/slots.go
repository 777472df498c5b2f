package dto

import "encoding/json"

type SlotResponse struct {
	ID             uint64 `json:"id"`
	UserID         string `json:"user_id"`
	SubscriptionID uint64 `json:"subscription_id"`
	AssignedAt     string `json:"assigned_at"`
	IsActive       bool   `json:"is_active"`
}

type SubscriptionRequestResponse struct {
	ID                uint64  `json:"id"`
	UserID            string  `json:"user_id"`
	ServiceProviderID uint64  `json:"service_provider_id"`
	CountryID         *uint64 `json:"country_id,omitempty"`
	Status            int32   `json:"status"`
	AssignedSlotID    *uint64 `json:"assigned_slot_id,omitempty"`
	RequestedAt       string  `json:"requested_at"`
	ProcessedAt       *string `json:"processed_at,omitempty"`
}

type SubscriptionResponse struct {
	ID                uint64          `json:"id"`
	ServiceProviderID uint64          `json:"service_provider_id"`
	CountryID         *uint64         `json:"country_id,omitempty"`
	TotalSlots        int32           `json:"total_slots"`
	AvailableSlots    int32           `json:"available_slots"`
	IsActive          bool            `json:"is_active"`
	ExpiresAt         *string         `json:"expires_at,omitempty"`
	Metadata          json.RawMessage `json:"metadata,omitempty"`
	CreatedAt         string          `json:"created_at"`
	UpdatedAt         string          `json:"updated_at"`
}

type RequestSlotResponse struct {
	Request SubscriptionRequestResponse `json:"request"`
	Slot    *SlotResponse               `json:"slot,omitempty"`
	Message string                      `json:"message"`
}

type RequestEnvelopeResponse struct {
	Request SubscriptionRequestResponse `json:"request"`
}

type ListSlotsResponse struct {
	Slots []SlotResponse `json:"slots"`
}

type ListRequestsResponse struct {
	Requests []SubscriptionRequestResponse `json:"requests"`
}

type SubscriptionEnvelopeResponse struct {
	Subscription SubscriptionResponse `json:"subscription"`
}
