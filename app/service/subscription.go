package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-slots/app/entity"
	"github.com/vibast-solutions/ms-go-slots/app/repository"
)

type createSubscriptionRequest interface {
	GetServiceProviderId() uint64
	GetHasCountryId() bool
	GetCountryId() uint64
	GetTotalSlots() int32
	GetExpiresAt() string
	GetMetadata() string
}

type subscriptionStore interface {
	Create(ctx context.Context, subscription *entity.Subscription) error
	FindByID(ctx context.Context, id uint64) (*entity.Subscription, error)
	IncrementAvailableSlots(ctx context.Context, id uint64) error
}

type pendingFiller interface {
	FillPendingForServiceProvider(ctx context.Context, serviceProviderID uint64) error
}

// SubscriptionService covers the administrative side of the capacity
// model: registering subscriptions and correcting their counters.
type SubscriptionService struct {
	subscriptionRepo    subscriptionStore
	serviceProviderRepo serviceProviderStore
	countryRepo         countryStore
	filler              pendingFiller
}

func NewSubscriptionService(
	subscriptionRepo subscriptionStore,
	serviceProviderRepo serviceProviderStore,
	countryRepo countryStore,
	filler pendingFiller,
) *SubscriptionService {
	return &SubscriptionService{
		subscriptionRepo:    subscriptionRepo,
		serviceProviderRepo: serviceProviderRepo,
		countryRepo:         countryRepo,
		filler:              filler,
	}
}

// CreateSubscription registers a subscription with its initial capacity
// and immediately retries the provider's pending requests against it.
func (s *SubscriptionService) CreateSubscription(ctx context.Context, req createSubscriptionRequest) (*entity.Subscription, error) {
	if req.GetTotalSlots() <= 0 {
		return nil, fmt.Errorf("%w: total_slots must be positive", ErrInvalidRequest)
	}

	provider, err := s.serviceProviderRepo.FindByID(ctx, req.GetServiceProviderId())
	if err != nil {
		return nil, err
	}
	if provider == nil || provider.Status != entity.ServiceProviderStatusActive {
		return nil, ErrServiceProviderNotFound
	}

	var countryID *uint64
	if req.GetHasCountryId() {
		id := req.GetCountryId()
		country, err := s.countryRepo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if country == nil || country.Status != entity.CountryStatusActive {
			return nil, ErrCountryNotFound
		}
		supported, err := s.serviceProviderRepo.SupportsCountry(ctx, req.GetServiceProviderId(), id)
		if err != nil {
			return nil, err
		}
		if !supported {
			return nil, ErrCountryNotSupported
		}
		countryID = &id
	}

	expiresAt, err := parseExpiresAt(req.GetExpiresAt())
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	subscription := &entity.Subscription{
		ServiceProviderID: req.GetServiceProviderId(),
		CountryID:         countryID,
		TotalSlots:        req.GetTotalSlots(),
		AvailableSlots:    req.GetTotalSlots(),
		IsActive:          true,
		ExpiresAt:         expiresAt,
		Metadata:          strings.TrimSpace(req.GetMetadata()),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.subscriptionRepo.Create(ctx, subscription); err != nil {
		return nil, err
	}

	// New capacity is the event pending requests wait for. Best effort:
	// a failed fill leaves the requests PENDING for the next sweep.
	_ = s.filler.FillPendingForServiceProvider(ctx, subscription.ServiceProviderID)

	return subscription, nil
}

func (s *SubscriptionService) GetSubscription(ctx context.Context, id uint64) (*entity.Subscription, error) {
	subscription, err := s.subscriptionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if subscription == nil {
		return nil, ErrSubscriptionNotFound
	}
	return subscription, nil
}

// ReleaseSlotCapacity is the administrative correction path: it returns
// one unit of capacity and retries pending requests against it.
func (s *SubscriptionService) ReleaseSlotCapacity(ctx context.Context, id uint64) (*entity.Subscription, error) {
	subscription, err := s.subscriptionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if subscription == nil {
		return nil, ErrSubscriptionNotFound
	}

	if err := s.subscriptionRepo.IncrementAvailableSlots(ctx, id); err != nil {
		if errors.Is(err, repository.ErrCapacityFull) {
			return nil, ErrSubscriptionFull
		}
		return nil, err
	}

	_ = s.filler.FillPendingForServiceProvider(ctx, subscription.ServiceProviderID)

	updated, err := s.subscriptionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrSubscriptionNotFound
	}
	return updated, nil
}

func parseExpiresAt(value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid expires_at format", ErrInvalidRequest)
	}
	utc := t.UTC()
	return &utc, nil
}
