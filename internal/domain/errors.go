package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCatalogLoad is returned when a catalog source cannot be read or parsed
	ErrCatalogLoad = errors.New("catalog load failed")

	// ErrAssistantUnavailable is returned when the conversational model cannot be reached
	ErrAssistantUnavailable = errors.New("assistant service unavailable")

	// ErrAssistantUnauthorized is returned when the conversational model rejects our credentials
	ErrAssistantUnauthorized = errors.New("assistant API key rejected")

	// ErrRateLimited is returned when an upstream provider rate-limits us
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrAnalysisFailed is returned when the skin-analysis provider fails or times out
	ErrAnalysisFailed = errors.New("skin analysis failed")

	// ErrImageUnresolved is returned when no usable image could be derived for a product
	ErrImageUnresolved = errors.New("product image could not be resolved")
)
