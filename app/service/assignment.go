package service

import (
	"context"
	"errors"
	"time"

	"github.com/vibast-solutions/ms-go-slots/app/entity"
	"github.com/vibast-solutions/ms-go-slots/app/repository"
)

const (
	MessageSlotAssigned       = "slot assigned"
	MessageAlreadyHoldingSlot = "user already holds a slot for this service provider"
	MessageNoAvailableSlots   = "no available slots, the request will be retried when capacity is added"
	MessageAssignmentRaceLost = "slot could not be assigned right now, try again later"
)

// AssignResult is the structured outcome of an assignment attempt.
// Capacity-related failures are normal business outcomes and are
// reported here, never as errors; only infrastructure failures surface
// as errors from AssignSlotToUser.
type AssignResult struct {
	Success bool
	Slot    *entity.Slot
	Message string
}

type capacityStore interface {
	FindCandidates(ctx context.Context, serviceProviderID uint64, countryID *uint64) ([]*entity.Subscription, error)
}

type holdingStore interface {
	FindByUserAndServiceProvider(ctx context.Context, userID string, serviceProviderID uint64) (*entity.Slot, error)
}

type slotReserver interface {
	Reserve(ctx context.Context, userID string, subscriptionID uint64) (*entity.Slot, error)
}

// AssignmentService picks a target subscription for a user and performs
// the atomic reservation through the reservation repository.
type AssignmentService struct {
	capacityStore capacityStore
	holdingStore  holdingStore
	reserver      slotReserver
}

func NewAssignmentService(capacityStore capacityStore, holdingStore holdingStore, reserver slotReserver) *AssignmentService {
	return &AssignmentService{
		capacityStore: capacityStore,
		holdingStore:  holdingStore,
		reserver:      reserver,
	}
}

// AssignSlotToUser tries to give the user one slot under the service
// provider, optionally restricted to a country.
//
// Candidates arrive most depleted first and are attempted in that
// order; when a candidate is exhausted or deactivated between selection
// and reservation the next one is tried, so a race loss on one
// subscription does not fail the whole attempt. The holding check up
// front is best effort only: the UNIQUE(user_id, subscription_id)
// constraint at insert time is the real guarantee.
func (s *AssignmentService) AssignSlotToUser(ctx context.Context, userID string, serviceProviderID uint64, countryID *uint64) (*AssignResult, error) {
	existing, err := s.holdingStore.FindByUserAndServiceProvider(ctx, userID, serviceProviderID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &AssignResult{Success: false, Message: MessageAlreadyHoldingSlot}, nil
	}

	candidates, err := s.capacityStore.FindCandidates(ctx, serviceProviderID, countryID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for _, candidate := range candidates {
		if !candidate.IsAssignable(now) {
			continue
		}

		slot, err := s.reserver.Reserve(ctx, userID, candidate.ID)
		switch {
		case err == nil:
			return &AssignResult{Success: true, Slot: slot, Message: MessageSlotAssigned}, nil
		case errors.Is(err, repository.ErrSlotAlreadyExists):
			// Lost the uniqueness race: a concurrent request already
			// gave this user a slot here. Benign.
			return &AssignResult{Success: false, Message: MessageAssignmentRaceLost}, nil
		case errors.Is(err, repository.ErrCapacityExhausted),
			errors.Is(err, repository.ErrSubscriptionUnavailable):
			continue
		default:
			return nil, err
		}
	}

	return &AssignResult{Success: false, Message: MessageNoAvailableSlots}, nil
}
