package service

import (
	"context"
	"errors"
	"time"

	"github.com/vibast-solutions/ms-go-slots/app/entity"
	"github.com/vibast-solutions/ms-go-slots/app/repository"
)

type requestSlotRequest interface {
	GetServiceProviderId() uint64
	GetHasCountryId() bool
	GetCountryId() uint64
}

type assignmentEngine interface {
	AssignSlotToUser(ctx context.Context, userID string, serviceProviderID uint64, countryID *uint64) (*AssignResult, error)
}

type requestStore interface {
	Create(ctx context.Context, request *entity.SubscriptionRequest) error
	FindByID(ctx context.Context, id uint64) (*entity.SubscriptionRequest, error)
	ListByUserID(ctx context.Context, userID string) ([]*entity.SubscriptionRequest, error)
	FindPendingByUserAndScope(ctx context.Context, userID string, serviceProviderID uint64, countryID *uint64) (*entity.SubscriptionRequest, error)
	ListPendingByServiceProvider(ctx context.Context, serviceProviderID uint64) ([]*entity.SubscriptionRequest, error)
	ListPending(ctx context.Context) ([]*entity.SubscriptionRequest, error)
	MarkAssigned(ctx context.Context, id uint64, slotID uint64, processedAt time.Time) error
}

type serviceProviderStore interface {
	FindByID(ctx context.Context, id uint64) (*entity.ServiceProvider, error)
	SupportsCountry(ctx context.Context, serviceProviderID, countryID uint64) (bool, error)
}

type countryStore interface {
	FindByID(ctx context.Context, id uint64) (*entity.Country, error)
}

type userSlotStore interface {
	ListByUserID(ctx context.Context, userID string) ([]*entity.Slot, error)
}

// RequestResult pairs the persisted request with the slot (when one was
// assigned synchronously) and a user-facing message.
type RequestResult struct {
	Request *entity.SubscriptionRequest
	Slot    *entity.Slot
	Message string
}

// RequestService is the public-facing orchestrator around the
// assignment engine.
type RequestService struct {
	engine              assignmentEngine
	requestRepo         requestStore
	slotRepo            userSlotStore
	serviceProviderRepo serviceProviderStore
	countryRepo         countryStore
}

func NewRequestService(
	engine assignmentEngine,
	requestRepo requestStore,
	slotRepo userSlotStore,
	serviceProviderRepo serviceProviderStore,
	countryRepo countryStore,
) *RequestService {
	return &RequestService{
		engine:              engine,
		requestRepo:         requestRepo,
		slotRepo:            slotRepo,
		serviceProviderRepo: serviceProviderRepo,
		countryRepo:         countryRepo,
	}
}

// RequestSubscriptionSlot validates the ask, records it PENDING and
// attempts an immediate assignment. A request that cannot be satisfied
// right away is not an error: it stays PENDING for the fill jobs.
func (s *RequestService) RequestSubscriptionSlot(ctx context.Context, userID string, req requestSlotRequest) (*RequestResult, error) {
	countryID, err := s.validateScope(ctx, req)
	if err != nil {
		return nil, err
	}

	existing, err := s.requestRepo.FindPendingByUserAndScope(ctx, userID, req.GetServiceProviderId(), countryID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateRequest
	}

	request := &entity.SubscriptionRequest{
		UserID:            userID,
		ServiceProviderID: req.GetServiceProviderId(),
		CountryID:         countryID,
		Status:            entity.RequestStatusPending,
		RequestedAt:       time.Now().UTC(),
	}
	if err := s.requestRepo.Create(ctx, request); err != nil {
		return nil, err
	}

	result, err := s.engine.AssignSlotToUser(ctx, userID, request.ServiceProviderID, countryID)
	if err != nil {
		// The row stays PENDING on purpose: the fill jobs will retry
		// it, and an immediate retry by the user is answered with the
		// duplicate conflict rather than a second row.
		return nil, err
	}

	if !result.Success {
		return &RequestResult{Request: request, Message: result.Message}, nil
	}

	processedAt := time.Now().UTC()
	if err := s.requestRepo.MarkAssigned(ctx, request.ID, result.Slot.ID, processedAt); err != nil {
		return nil, err
	}
	request.Status = entity.RequestStatusAssigned
	request.AssignedSlotID = &result.Slot.ID
	request.ProcessedAt = &processedAt

	return &RequestResult{Request: request, Slot: result.Slot, Message: result.Message}, nil
}

func (s *RequestService) GetUserSlots(ctx context.Context, userID string) ([]*entity.Slot, error) {
	return s.slotRepo.ListByUserID(ctx, userID)
}

func (s *RequestService) ListUserRequests(ctx context.Context, userID string) ([]*entity.SubscriptionRequest, error) {
	return s.requestRepo.ListByUserID(ctx, userID)
}

func (s *RequestService) GetRequest(ctx context.Context, userID string, id uint64) (*entity.SubscriptionRequest, error) {
	request, err := s.requestRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if request == nil || request.UserID != userID {
		return nil, ErrRequestNotFound
	}
	return request, nil
}

// RunPendingFillBatch sweeps all PENDING requests oldest-first and
// retries the assignment for each.
func (s *RequestService) RunPendingFillBatch(ctx context.Context) error {
	items, err := s.requestRepo.ListPending(ctx)
	if err != nil {
		return err
	}

	for _, item := range items {
		_ = s.fillPendingRequest(ctx, item)
	}

	return nil
}

// FillPendingForServiceProvider retries only the provider's pending
// requests, typically right after new capacity was registered.
func (s *RequestService) FillPendingForServiceProvider(ctx context.Context, serviceProviderID uint64) error {
	items, err := s.requestRepo.ListPendingByServiceProvider(ctx, serviceProviderID)
	if err != nil {
		return err
	}

	for _, item := range items {
		_ = s.fillPendingRequest(ctx, item)
	}

	return nil
}

func (s *RequestService) fillPendingRequest(ctx context.Context, request *entity.SubscriptionRequest) error {
	result, err := s.engine.AssignSlotToUser(ctx, request.UserID, request.ServiceProviderID, request.CountryID)
	if err != nil {
		return err
	}
	if !result.Success {
		return nil
	}

	if err := s.requestRepo.MarkAssigned(ctx, request.ID, result.Slot.ID, time.Now().UTC()); err != nil {
		// Already assigned through a concurrent path; the slot insert
		// was idempotent per user so nothing to undo.
		if errors.Is(err, repository.ErrRequestNotPending) {
			return nil
		}
		return err
	}
	return nil
}

func (s *RequestService) validateScope(ctx context.Context, req requestSlotRequest) (*uint64, error) {
	provider, err := s.serviceProviderRepo.FindByID(ctx, req.GetServiceProviderId())
	if err != nil {
		return nil, err
	}
	if provider == nil || provider.Status != entity.ServiceProviderStatusActive {
		return nil, ErrServiceProviderNotFound
	}

	if !req.GetHasCountryId() {
		return nil, nil
	}

	countryID := req.GetCountryId()
	country, err := s.countryRepo.FindByID(ctx, countryID)
	if err != nil {
		return nil, err
	}
	if country == nil || country.Status != entity.CountryStatusActive {
		return nil, ErrCountryNotFound
	}

	supported, err := s.serviceProviderRepo.SupportsCountry(ctx, req.GetServiceProviderId(), countryID)
	if err != nil {
		return nil, err
	}
	if !supported {
		return nil, ErrCountryNotSupported
	}

	return &countryID, nil
}
