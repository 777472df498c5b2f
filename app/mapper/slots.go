package mapper

import (
	"encoding/json"
	"time"

	"github.com/vibast-solutions/ms-go-slots/app/dto"
	"github.com/vibast-solutions/ms-go-slots/app/entity"
)

func SlotToResponse(item *entity.Slot) dto.SlotResponse {
	return dto.SlotResponse{
		ID:             item.ID,
		UserID:         item.UserID,
		SubscriptionID: item.SubscriptionID,
		AssignedAt:     item.AssignedAt.UTC().Format(time.RFC3339),
		IsActive:       item.IsActive,
	}
}

func SlotsToResponse(items []*entity.Slot) []dto.SlotResponse {
	result := make([]dto.SlotResponse, 0, len(items))
	for _, item := range items {
		result = append(result, SlotToResponse(item))
	}
	return result
}

func RequestToResponse(item *entity.SubscriptionRequest) dto.SubscriptionRequestResponse {
	return dto.SubscriptionRequestResponse{
		ID:                item.ID,
		UserID:            item.UserID,
		ServiceProviderID: item.ServiceProviderID,
		CountryID:         item.CountryID,
		Status:            item.Status,
		AssignedSlotID:    item.AssignedSlotID,
		RequestedAt:       item.RequestedAt.UTC().Format(time.RFC3339),
		ProcessedAt:       formatTime(item.ProcessedAt),
	}
}

func RequestsToResponse(items []*entity.SubscriptionRequest) []dto.SubscriptionRequestResponse {
	result := make([]dto.SubscriptionRequestResponse, 0, len(items))
	for _, item := range items {
		result = append(result, RequestToResponse(item))
	}
	return result
}

func SubscriptionToResponse(item *entity.Subscription) dto.SubscriptionResponse {
	var metadata json.RawMessage
	if item.Metadata != "" {
		metadata = json.RawMessage(item.Metadata)
	}

	return dto.SubscriptionResponse{
		ID:                item.ID,
		ServiceProviderID: item.ServiceProviderID,
		CountryID:         item.CountryID,
		TotalSlots:        item.TotalSlots,
		AvailableSlots:    item.AvailableSlots,
		IsActive:          item.IsActive,
		ExpiresAt:         formatTime(item.ExpiresAt),
		Metadata:          metadata,
		CreatedAt:         item.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:         item.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func formatTime(v *time.Time) *string {
	if v == nil {
		return nil
	}
	formatted := v.UTC().Format(time.RFC3339)
	return &formatted
}
