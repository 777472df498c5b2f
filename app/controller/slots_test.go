package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/vibast-solutions/ms-go-slots/app/entity"
	"github.com/vibast-solutions/ms-go-slots/app/repository"
	"github.com/vibast-solutions/ms-go-slots/app/service"
	"github.com/vibast-solutions/ms-go-slots/app/types"
)

type ctrlCapacityStore struct {
	findCandidatesFn func(ctx context.Context, serviceProviderID uint64, countryID *uint64) ([]*entity.Subscription, error)
}

func (r *ctrlCapacityStore) FindCandidates(ctx context.Context, serviceProviderID uint64, countryID *uint64) ([]*entity.Subscription, error) {
	if r.findCandidatesFn != nil {
		return r.findCandidatesFn(ctx, serviceProviderID, countryID)
	}
	return nil, nil
}

type ctrlSlotRepo struct {
	findByUserAndServiceProviderFn func(ctx context.Context, userID string, serviceProviderID uint64) (*entity.Slot, error)
	listByUserIDFn                 func(ctx context.Context, userID string) ([]*entity.Slot, error)
}

func (r *ctrlSlotRepo) FindByUserAndServiceProvider(ctx context.Context, userID string, serviceProviderID uint64) (*entity.Slot, error) {
	if r.findByUserAndServiceProviderFn != nil {
		return r.findByUserAndServiceProviderFn(ctx, userID, serviceProviderID)
	}
	return nil, nil
}

func (r *ctrlSlotRepo) ListByUserID(ctx context.Context, userID string) ([]*entity.Slot, error) {
	if r.listByUserIDFn != nil {
		return r.listByUserIDFn(ctx, userID)
	}
	return nil, nil
}

type ctrlReserver struct {
	reserveFn func(ctx context.Context, userID string, subscriptionID uint64) (*entity.Slot, error)
}

func (r *ctrlReserver) Reserve(ctx context.Context, userID string, subscriptionID uint64) (*entity.Slot, error) {
	if r.reserveFn != nil {
		return r.reserveFn(ctx, userID, subscriptionID)
	}
	return nil, repository.ErrCapacityExhausted
}

type ctrlRequestRepo struct {
	createFn                    func(ctx context.Context, request *entity.SubscriptionRequest) error
	findByIDFn                  func(ctx context.Context, id uint64) (*entity.SubscriptionRequest, error)
	listByUserIDFn              func(ctx context.Context, userID string) ([]*entity.SubscriptionRequest, error)
	findPendingByUserAndScopeFn func(ctx context.Context, userID string, serviceProviderID uint64, countryID *uint64) (*entity.SubscriptionRequest, error)
	markAssignedFn              func(ctx context.Context, id uint64, slotID uint64, processedAt time.Time) error
}

func (r *ctrlRequestRepo) Create(ctx context.Context, request *entity.SubscriptionRequest) error {
	if r.createFn != nil {
		return r.createFn(ctx, request)
	}
	request.ID = 1
	return nil
}

func (r *ctrlRequestRepo) FindByID(ctx context.Context, id uint64) (*entity.SubscriptionRequest, error) {
	if r.findByIDFn != nil {
		return r.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (r *ctrlRequestRepo) ListByUserID(ctx context.Context, userID string) ([]*entity.SubscriptionRequest, error) {
	if r.listByUserIDFn != nil {
		return r.listByUserIDFn(ctx, userID)
	}
	return nil, nil
}

func (r *ctrlRequestRepo) FindPendingByUserAndScope(ctx context.Context, userID string, serviceProviderID uint64, countryID *uint64) (*entity.SubscriptionRequest, error) {
	if r.findPendingByUserAndScopeFn != nil {
		return r.findPendingByUserAndScopeFn(ctx, userID, serviceProviderID, countryID)
	}
	return nil, nil
}

func (r *ctrlRequestRepo) ListPendingByServiceProvider(context.Context, uint64) ([]*entity.SubscriptionRequest, error) {
	return nil, nil
}

func (r *ctrlRequestRepo) ListPending(context.Context) ([]*entity.SubscriptionRequest, error) {
	return nil, nil
}

func (r *ctrlRequestRepo) MarkAssigned(ctx context.Context, id uint64, slotID uint64, processedAt time.Time) error {
	if r.markAssignedFn != nil {
		return r.markAssignedFn(ctx, id, slotID, processedAt)
	}
	return nil
}

type ctrlServiceProviderRepo struct {
	findByIDFn func(ctx context.Context, id uint64) (*entity.ServiceProvider, error)
}

func (r *ctrlServiceProviderRepo) FindByID(ctx context.Context, id uint64) (*entity.ServiceProvider, error) {
	if r.findByIDFn != nil {
		return r.findByIDFn(ctx, id)
	}
	return &entity.ServiceProvider{ID: id, Name: "netmovies", Status: entity.ServiceProviderStatusActive}, nil
}

func (r *ctrlServiceProviderRepo) SupportsCountry(context.Context, uint64, uint64) (bool, error) {
	return true, nil
}

type ctrlCountryRepo struct{}

func (r *ctrlCountryRepo) FindByID(ctx context.Context, id uint64) (*entity.Country, error) {
	return &entity.Country{ID: id, Code: "PT", Status: entity.CountryStatusActive}, nil
}

type ctrlSubscriptionRepo struct {
	createFn                  func(ctx context.Context, subscription *entity.Subscription) error
	findByIDFn                func(ctx context.Context, id uint64) (*entity.Subscription, error)
	incrementAvailableSlotsFn func(ctx context.Context, id uint64) error
}

func (r *ctrlSubscriptionRepo) Create(ctx context.Context, subscription *entity.Subscription) error {
	if r.createFn != nil {
		return r.createFn(ctx, subscription)
	}
	subscription.ID = 1
	return nil
}

func (r *ctrlSubscriptionRepo) FindByID(ctx context.Context, id uint64) (*entity.Subscription, error) {
	if r.findByIDFn != nil {
		return r.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (r *ctrlSubscriptionRepo) IncrementAvailableSlots(ctx context.Context, id uint64) error {
	if r.incrementAvailableSlotsFn != nil {
		return r.incrementAvailableSlotsFn(ctx, id)
	}
	return nil
}

type testDeps struct {
	capacity     *ctrlCapacityStore
	slots        *ctrlSlotRepo
	reserver     *ctrlReserver
	requests     *ctrlRequestRepo
	providers    *ctrlServiceProviderRepo
	subscription *ctrlSubscriptionRepo
}

func newControllerForTest(deps testDeps) *SlotController {
	if deps.capacity == nil {
		deps.capacity = &ctrlCapacityStore{}
	}
	if deps.slots == nil {
		deps.slots = &ctrlSlotRepo{}
	}
	if deps.reserver == nil {
		deps.reserver = &ctrlReserver{}
	}
	if deps.requests == nil {
		deps.requests = &ctrlRequestRepo{}
	}
	if deps.providers == nil {
		deps.providers = &ctrlServiceProviderRepo{}
	}
	if deps.subscription == nil {
		deps.subscription = &ctrlSubscriptionRepo{}
	}

	assignmentSvc := service.NewAssignmentService(deps.capacity, deps.slots, deps.reserver)
	requestSvc := service.NewRequestService(assignmentSvc, deps.requests, deps.slots, deps.providers, &ctrlCountryRepo{})
	subscriptionSvc := service.NewSubscriptionService(deps.subscription, deps.providers, &ctrlCountryRepo{}, requestSvc)
	return NewSlotController(requestSvc, subscriptionSvc)
}

func newAuthedContext(e *echo.Echo, req *http.Request, rec *httptest.ResponseRecorder, userID string) echo.Context {
	ctx := e.NewContext(req, rec)
	if userID != "" {
		ctx.Set("auth.user_id", userID)
	}
	return ctx
}

func TestRequestSlotUnauthenticated(t *testing.T) {
	ctrl := newControllerForTest(testDeps{})
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/subscriptions/request", bytes.NewBufferString(`{"service_provider_id":1}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ctx := newAuthedContext(e, req, rec, "")

	if err := ctrl.RequestSubscriptionSlot(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequestSlotBadBody(t *testing.T) {
	ctrl := newControllerForTest(testDeps{})
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/subscriptions/request", bytes.NewBufferString("{bad"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ctx := newAuthedContext(e, req, rec, "u-1")

	if err := ctrl.RequestSubscriptionSlot(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRequestSlotProviderNotFound(t *testing.T) {
	ctrl := newControllerForTest(testDeps{
		providers: &ctrlServiceProviderRepo{findByIDFn: func(context.Context, uint64) (*entity.ServiceProvider, error) {
			return nil, nil
		}},
	})
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/subscriptions/request", bytes.NewBufferString(`{"service_provider_id":9}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ctx := newAuthedContext(e, req, rec, "u-1")

	if err := ctrl.RequestSubscriptionSlot(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestRequestSlotDuplicateConflict(t *testing.T) {
	ctrl := newControllerForTest(testDeps{
		requests: &ctrlRequestRepo{
			findPendingByUserAndScopeFn: func(context.Context, string, uint64, *uint64) (*entity.SubscriptionRequest, error) {
				return &entity.SubscriptionRequest{ID: 4, Status: entity.RequestStatusPending}, nil
			},
		},
	})
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/subscriptions/request", bytes.NewBufferString(`{"service_provider_id":1}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ctx := newAuthedContext(e, req, rec, "u-1")

	if err := ctrl.RequestSubscriptionSlot(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}

	var payload types.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("json unmarshal failed: %v", err)
	}
	if !strings.Contains(payload.Error, "pending request") || !strings.Contains(payload.Error, "fulfilled") {
		t.Fatalf("conflict message must explain the existing pending request, got %q", payload.Error)
	}
}

func TestRequestSlotPendingAccepted(t *testing.T) {
	ctrl := newControllerForTest(testDeps{
		capacity: &ctrlCapacityStore{findCandidatesFn: func(context.Context, uint64, *uint64) ([]*entity.Subscription, error) {
			return []*entity.Subscription{}, nil
		}},
	})
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/subscriptions/request", bytes.NewBufferString(`{"service_provider_id":1}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ctx := newAuthedContext(e, req, rec, "u-1")

	if err := ctrl.RequestSubscriptionSlot(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d body=%s", rec.Code, rec.Body.String())
	}

	var payload struct {
		Request struct {
			Status int32 `json:"status"`
		} `json:"request"`
		Slot    *json.RawMessage `json:"slot"`
		Message string           `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("json unmarshal failed: %v", err)
	}
	if payload.Request.Status != entity.RequestStatusPending {
		t.Fatalf("expected pending status, got %d", payload.Request.Status)
	}
	if payload.Slot != nil {
		t.Fatalf("expected no slot in pending response")
	}
	if payload.Message == "" {
		t.Fatalf("expected message in response")
	}
}

func TestRequestSlotAssignedCreated(t *testing.T) {
	ctrl := newControllerForTest(testDeps{
		capacity: &ctrlCapacityStore{findCandidatesFn: func(context.Context, uint64, *uint64) ([]*entity.Subscription, error) {
			return []*entity.Subscription{{ID: 6, ServiceProviderID: 1, TotalSlots: 4, AvailableSlots: 2, IsActive: true}}, nil
		}},
		reserver: &ctrlReserver{reserveFn: func(_ context.Context, userID string, subscriptionID uint64) (*entity.Slot, error) {
			return &entity.Slot{ID: 88, UserID: userID, SubscriptionID: subscriptionID, AssignedAt: time.Now().UTC(), IsActive: true}, nil
		}},
	})
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/subscriptions/request", bytes.NewBufferString(`{"service_provider_id":1}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ctx := newAuthedContext(e, req, rec, "u-1")

	if err := ctrl.RequestSubscriptionSlot(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}

	var payload struct {
		Request struct {
			Status         int32   `json:"status"`
			AssignedSlotID *uint64 `json:"assigned_slot_id"`
		} `json:"request"`
		Slot *struct {
			ID             uint64 `json:"id"`
			SubscriptionID uint64 `json:"subscription_id"`
		} `json:"slot"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("json unmarshal failed: %v", err)
	}
	if payload.Request.Status != entity.RequestStatusAssigned {
		t.Fatalf("expected assigned status, got %d", payload.Request.Status)
	}
	if payload.Slot == nil || payload.Slot.ID != 88 || payload.Slot.SubscriptionID != 6 {
		t.Fatalf("unexpected slot payload: %+v", payload.Slot)
	}
}

func TestGetMySlots(t *testing.T) {
	ctrl := newControllerForTest(testDeps{
		slots: &ctrlSlotRepo{listByUserIDFn: func(_ context.Context, userID string) ([]*entity.Slot, error) {
			return []*entity.Slot{{ID: 1, UserID: userID, SubscriptionID: 2, IsActive: true}}, nil
		}},
	})
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/subscriptions/my-slots", nil)
	rec := httptest.NewRecorder()
	ctx := newAuthedContext(e, req, rec, "u-1")

	if err := ctrl.GetMySlots(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var payload struct {
		Slots []struct {
			ID uint64 `json:"id"`
		} `json:"slots"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("json unmarshal failed: %v", err)
	}
	if len(payload.Slots) != 1 || payload.Slots[0].ID != 1 {
		t.Fatalf("unexpected slots payload: %+v", payload.Slots)
	}
}

func TestGetRequestNotFound(t *testing.T) {
	ctrl := newControllerForTest(testDeps{
		requests: &ctrlRequestRepo{findByIDFn: func(context.Context, uint64) (*entity.SubscriptionRequest, error) {
			return nil, nil
		}},
	})
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/subscriptions/requests/3", nil)
	rec := httptest.NewRecorder()
	ctx := newAuthedContext(e, req, rec, "u-1")
	ctx.SetParamNames("id")
	ctx.SetParamValues("3")

	if err := ctrl.GetRequest(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCreateSubscriptionCreated(t *testing.T) {
	ctrl := newControllerForTest(testDeps{
		subscription: &ctrlSubscriptionRepo{createFn: func(_ context.Context, subscription *entity.Subscription) error {
			subscription.ID = 55
			return nil
		}},
	})
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/admin/subscriptions", bytes.NewBufferString(`{"service_provider_id":1,"total_slots":4}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	if err := ctrl.CreateSubscription(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}

	var payload struct {
		Subscription struct {
			ID             uint64 `json:"id"`
			AvailableSlots int32  `json:"available_slots"`
		} `json:"subscription"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("json unmarshal failed: %v", err)
	}
	if payload.Subscription.ID != 55 || payload.Subscription.AvailableSlots != 4 {
		t.Fatalf("unexpected subscription payload: %+v", payload.Subscription)
	}
}

func TestGetSubscriptionNotFound(t *testing.T) {
	ctrl := newControllerForTest(testDeps{})
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/admin/subscriptions/7", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.SetParamNames("id")
	ctx.SetParamValues("7")

	if err := ctrl.GetSubscription(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestReleaseSlotCapacityConflictWhenFull(t *testing.T) {
	ctrl := newControllerForTest(testDeps{
		subscription: &ctrlSubscriptionRepo{
			findByIDFn: func(_ context.Context, id uint64) (*entity.Subscription, error) {
				return &entity.Subscription{ID: id, ServiceProviderID: 1, TotalSlots: 4, AvailableSlots: 4, IsActive: true}, nil
			},
			incrementAvailableSlotsFn: func(context.Context, uint64) error {
				return repository.ErrCapacityFull
			},
		},
	})
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/admin/subscriptions/7/release", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.SetParamNames("id")
	ctx.SetParamValues("7")

	if err := ctrl.ReleaseSlotCapacity(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}
