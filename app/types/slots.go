package types

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

type HealthResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type RequestSlotRequest struct {
	ServiceProviderId uint64
	HasCountryId      bool
	CountryId         uint64
}

func (r *RequestSlotRequest) GetServiceProviderId() uint64 { return r.ServiceProviderId }
func (r *RequestSlotRequest) GetHasCountryId() bool        { return r.HasCountryId }
func (r *RequestSlotRequest) GetCountryId() uint64         { return r.CountryId }

func NewRequestSlotRequestFromContext(ctx echo.Context) (*RequestSlotRequest, error) {
	var body struct {
		ServiceProviderId uint64  `json:"service_provider_id"`
		CountryId         *uint64 `json:"country_id"`
	}
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	req := &RequestSlotRequest{ServiceProviderId: body.ServiceProviderId}
	if body.CountryId != nil {
		req.HasCountryId = true
		req.CountryId = *body.CountryId
	}
	return req, nil
}

func (r *RequestSlotRequest) Validate() error {
	if r.GetServiceProviderId() == 0 {
		return errors.New("service_provider_id is required")
	}
	if r.GetHasCountryId() && r.GetCountryId() == 0 {
		return errors.New("country_id must be a positive id")
	}
	return nil
}

type GetRequestRequest struct {
	Id uint64
}

func (r *GetRequestRequest) GetId() uint64 { return r.Id }

func NewGetRequestRequestFromContext(ctx echo.Context) (*GetRequestRequest, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return nil, err
	}
	return &GetRequestRequest{Id: id}, nil
}

func (r *GetRequestRequest) Validate() error {
	if r.GetId() == 0 {
		return errors.New("invalid request id")
	}
	return nil
}

type CreateSubscriptionRequest struct {
	ServiceProviderId uint64
	HasCountryId      bool
	CountryId         uint64
	TotalSlots        int32
	ExpiresAt         string
	Metadata          string
}

func (r *CreateSubscriptionRequest) GetServiceProviderId() uint64 { return r.ServiceProviderId }
func (r *CreateSubscriptionRequest) GetHasCountryId() bool        { return r.HasCountryId }
func (r *CreateSubscriptionRequest) GetCountryId() uint64         { return r.CountryId }
func (r *CreateSubscriptionRequest) GetTotalSlots() int32         { return r.TotalSlots }
func (r *CreateSubscriptionRequest) GetExpiresAt() string         { return r.ExpiresAt }
func (r *CreateSubscriptionRequest) GetMetadata() string          { return r.Metadata }

func NewCreateSubscriptionRequestFromContext(ctx echo.Context) (*CreateSubscriptionRequest, error) {
	var body struct {
		ServiceProviderId uint64          `json:"service_provider_id"`
		CountryId         *uint64         `json:"country_id"`
		TotalSlots        int32           `json:"total_slots"`
		ExpiresAt         string          `json:"expires_at"`
		Metadata          json.RawMessage `json:"metadata"`
	}
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	req := &CreateSubscriptionRequest{
		ServiceProviderId: body.ServiceProviderId,
		TotalSlots:        body.TotalSlots,
		ExpiresAt:         strings.TrimSpace(body.ExpiresAt),
		Metadata:          strings.TrimSpace(string(body.Metadata)),
	}
	if body.CountryId != nil {
		req.HasCountryId = true
		req.CountryId = *body.CountryId
	}
	return req, nil
}

func (r *CreateSubscriptionRequest) Validate() error {
	if r.GetServiceProviderId() == 0 {
		return errors.New("service_provider_id is required")
	}
	if r.GetHasCountryId() && r.GetCountryId() == 0 {
		return errors.New("country_id must be a positive id")
	}
	if r.GetTotalSlots() <= 0 {
		return errors.New("total_slots must be positive")
	}
	if r.GetExpiresAt() != "" {
		if _, err := time.Parse(time.RFC3339, r.GetExpiresAt()); err != nil {
			return errors.New("expires_at must be RFC3339")
		}
	}
	if r.GetMetadata() != "" && !json.Valid([]byte(r.GetMetadata())) {
		return errors.New("metadata must be valid JSON")
	}
	return nil
}

type GetSubscriptionRequest struct {
	Id uint64
}

func (r *GetSubscriptionRequest) GetId() uint64 { return r.Id }

func NewGetSubscriptionRequestFromContext(ctx echo.Context) (*GetSubscriptionRequest, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return nil, err
	}
	return &GetSubscriptionRequest{Id: id}, nil
}

func (r *GetSubscriptionRequest) Validate() error {
	if r.GetId() == 0 {
		return errors.New("invalid subscription id")
	}
	return nil
}

type ReleaseSlotCapacityRequest struct {
	Id uint64
}

func (r *ReleaseSlotCapacityRequest) GetId() uint64 { return r.Id }

func NewReleaseSlotCapacityRequestFromContext(ctx echo.Context) (*ReleaseSlotCapacityRequest, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return nil, err
	}
	return &ReleaseSlotCapacityRequest{Id: id}, nil
}

func (r *ReleaseSlotCapacityRequest) Validate() error {
	if r.GetId() == 0 {
		return errors.New("invalid subscription id")
	}
	return nil
}
