package controller

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/vibast-solutions/ms-go-slots/app/auth"
	"github.com/vibast-solutions/ms-go-slots/app/dto"
	"github.com/vibast-solutions/ms-go-slots/app/entity"
	"github.com/vibast-solutions/ms-go-slots/app/factory"
	"github.com/vibast-solutions/ms-go-slots/app/mapper"
	"github.com/vibast-solutions/ms-go-slots/app/service"
	"github.com/vibast-solutions/ms-go-slots/app/types"
)

type SlotController struct {
	requestService      *service.RequestService
	subscriptionService *service.SubscriptionService
	logger              logrus.FieldLogger
}

func NewSlotController(
	requestService *service.RequestService,
	subscriptionService *service.SubscriptionService,
) *SlotController {
	return &SlotController{
		requestService:      requestService,
		subscriptionService: subscriptionService,
		logger:              factory.NewModuleLogger("slots-controller"),
	}
}

func (c *SlotController) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, &types.HealthResponse{Status: "ok"})
}

// RequestSubscriptionSlot handles POST /subscriptions/request. An
// assignment that cannot be satisfied immediately is answered 202 with
// the still-pending request, not an error.
func (c *SlotController) RequestSubscriptionSlot(ctx echo.Context) error {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return c.writeError(ctx, http.StatusUnauthorized, "authentication required")
	}

	req, err := types.NewRequestSlotRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	result, err := c.requestService.RequestSubscriptionSlot(ctx.Request().Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest):
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrServiceProviderNotFound):
			return c.writeError(ctx, http.StatusNotFound, "service provider not found")
		case errors.Is(err, service.ErrCountryNotFound):
			return c.writeError(ctx, http.StatusNotFound, "country not found")
		case errors.Is(err, service.ErrCountryNotSupported):
			return c.writeError(ctx, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, service.ErrDuplicateRequest):
			return c.writeError(ctx, http.StatusConflict,
				"a pending request already exists for this service provider and will be fulfilled once capacity becomes available")
		default:
			factory.LoggerWithUser(c.logger, userID).WithError(err).Error("Request subscription slot failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	response := &dto.RequestSlotResponse{
		Request: mapper.RequestToResponse(result.Request),
		Message: result.Message,
	}
	statusCode := http.StatusAccepted
	if result.Request.Status == entity.RequestStatusAssigned {
		statusCode = http.StatusCreated
		if result.Slot != nil {
			slot := mapper.SlotToResponse(result.Slot)
			response.Slot = &slot
		}
	}

	return ctx.JSON(statusCode, response)
}

// GetMySlots handles GET /subscriptions/my-slots.
func (c *SlotController) GetMySlots(ctx echo.Context) error {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return c.writeError(ctx, http.StatusUnauthorized, "authentication required")
	}

	items, err := c.requestService.GetUserSlots(ctx.Request().Context(), userID)
	if err != nil {
		factory.LoggerWithUser(c.logger, userID).WithError(err).Error("List user slots failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, &dto.ListSlotsResponse{Slots: mapper.SlotsToResponse(items)})
}

func (c *SlotController) ListMyRequests(ctx echo.Context) error {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return c.writeError(ctx, http.StatusUnauthorized, "authentication required")
	}

	items, err := c.requestService.ListUserRequests(ctx.Request().Context(), userID)
	if err != nil {
		factory.LoggerWithUser(c.logger, userID).WithError(err).Error("List user requests failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, &dto.ListRequestsResponse{Requests: mapper.RequestsToResponse(items)})
}

func (c *SlotController) GetRequest(ctx echo.Context) error {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return c.writeError(ctx, http.StatusUnauthorized, "authentication required")
	}

	req, err := types.NewGetRequestRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.requestService.GetRequest(ctx.Request().Context(), userID, req.GetId())
	if err != nil {
		if errors.Is(err, service.ErrRequestNotFound) {
			return c.writeError(ctx, http.StatusNotFound, "subscription request not found")
		}
		factory.LoggerWithUser(c.logger, userID).WithError(err).Error("Get request failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, &dto.RequestEnvelopeResponse{Request: mapper.RequestToResponse(item)})
}

// CreateSubscription handles POST /admin/subscriptions.
func (c *SlotController) CreateSubscription(ctx echo.Context) error {
	req, err := types.NewCreateSubscriptionRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.subscriptionService.CreateSubscription(ctx.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest):
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrServiceProviderNotFound):
			return c.writeError(ctx, http.StatusNotFound, "service provider not found")
		case errors.Is(err, service.ErrCountryNotFound):
			return c.writeError(ctx, http.StatusNotFound, "country not found")
		case errors.Is(err, service.ErrCountryNotSupported):
			return c.writeError(ctx, http.StatusUnprocessableEntity, err.Error())
		default:
			c.logger.WithError(err).Error("Create subscription failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	return ctx.JSON(http.StatusCreated, &dto.SubscriptionEnvelopeResponse{
		Subscription: mapper.SubscriptionToResponse(item),
	})
}

func (c *SlotController) GetSubscription(ctx echo.Context) error {
	req, err := types.NewGetSubscriptionRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.subscriptionService.GetSubscription(ctx.Request().Context(), req.GetId())
	if err != nil {
		if errors.Is(err, service.ErrSubscriptionNotFound) {
			return c.writeError(ctx, http.StatusNotFound, "subscription not found")
		}
		c.logger.WithError(err).Error("Get subscription failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, &dto.SubscriptionEnvelopeResponse{
		Subscription: mapper.SubscriptionToResponse(item),
	})
}

// ReleaseSlotCapacity handles POST /admin/subscriptions/:id/release,
// the administrative counter correction path.
func (c *SlotController) ReleaseSlotCapacity(ctx echo.Context) error {
	req, err := types.NewReleaseSlotCapacityRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.subscriptionService.ReleaseSlotCapacity(ctx.Request().Context(), req.GetId())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSubscriptionNotFound):
			return c.writeError(ctx, http.StatusNotFound, "subscription not found")
		case errors.Is(err, service.ErrSubscriptionFull):
			return c.writeError(ctx, http.StatusConflict, err.Error())
		default:
			c.logger.WithError(err).Error("Release slot capacity failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	return ctx.JSON(http.StatusOK, &dto.SubscriptionEnvelopeResponse{
		Subscription: mapper.SubscriptionToResponse(item),
	})
}

func (c *SlotController) writeError(ctx echo.Context, statusCode int, message string) error {
	return ctx.JSON(statusCode, &types.ErrorResponse{Error: message})
}
