package service

import "errors"

var (
	ErrServiceProviderNotFound = errors.New("service provider not found")
	ErrCountryNotFound         = errors.New("country not found")
	ErrCountryNotSupported     = errors.New("country is not supported by this service provider")
	ErrDuplicateRequest        = errors.New("a pending request already exists for this service provider")
	ErrRequestNotFound         = errors.New("subscription request not found")
	ErrSubscriptionNotFound    = errors.New("subscription not found")
	ErrSubscriptionFull        = errors.New("subscription already at full capacity")
	ErrInvalidRequest          = errors.New("invalid request")
)
