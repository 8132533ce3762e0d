// Copyright 2025 The GeoResolver Authors
// SPDX-License-Identifier: Apache-2.0

package gazetteer

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorType classifies resolution and adapter failures.
type ErrorType int

const (
	// ErrorTypeUnknown is an unclassified failure.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeInvalidParameter is bad caller input; never retried.
	ErrorTypeInvalidParameter
	// ErrorTypeInvalidCountry is a country code or name that could not be
	// normalized to an ISO alpha-2 code.
	ErrorTypeInvalidCountry
	// ErrorTypeTransport is a network or source failure.
	ErrorTypeTransport
	// ErrorTypeRateLimit means the source's request budget is exhausted.
	ErrorTypeRateLimit
	// ErrorTypeSourceUnavailable means every configured source failed for
	// a request. It is never conflated with a no-match outcome.
	ErrorTypeSourceUnavailable
)

// Error is the typed error used across the resolution engine and adapters.
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewInvalidParameter builds an InvalidParameter error.
func NewInvalidParameter(format string, args ...any) *Error {
	return &Error{Type: ErrorTypeInvalidParameter, Message: fmt.Sprintf(format, args...)}
}

// NewInvalidCountry builds an InvalidCountry error.
func NewInvalidCountry(code string) *Error {
	return &Error{Type: ErrorTypeInvalidCountry, Message: fmt.Sprintf("invalid country %q", code)}
}

// NewTransport wraps a network or source failure.
func NewTransport(message string, err error) *Error {
	return &Error{Type: ErrorTypeTransport, Message: message, Err: err}
}

// NewSourceUnavailable wraps the combined failure of every source.
func NewSourceUnavailable(err error) *Error {
	return &Error{Type: ErrorTypeSourceUnavailable, Message: "all sources failed", Err: err}
}

func isType(err error, t ErrorType) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == t
	}

	return false
}

// IsInvalidParameter reports whether err is a caller input failure.
func IsInvalidParameter(err error) bool { return isType(err, ErrorTypeInvalidParameter) }

// IsInvalidCountry reports whether err is a country normalization failure.
func IsInvalidCountry(err error) bool { return isType(err, ErrorTypeInvalidCountry) }

// IsSourceUnavailable reports whether err means every source failed.
func IsSourceUnavailable(err error) bool { return isType(err, ErrorTypeSourceUnavailable) }

// IsTransport reports whether err is a network or source failure.
func IsTransport(err error) bool {
	if isType(err, ErrorTypeTransport) {
		return true
	}

	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded")
}

// IsRateLimit reports whether err is a rate-limit exhaustion. The transport
// collaborator retries these per its own policy; by the time an adapter sees
// one, it is terminal for the request.
func IsRateLimit(err error) bool {
	if isType(err, ErrorTypeRateLimit) {
		return true
	}

	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "429")
}

// ClassifyHTTPStatus maps an HTTP status code from a source into the error
// taxonomy. Adapters use it for any non-2xx answer.
func ClassifyHTTPStatus(statusCode int, source Source) *Error {
	switch statusCode {
	case http.StatusTooManyRequests:
		return &Error{
			Type:    ErrorTypeRateLimit,
			Message: fmt.Sprintf("%s: request budget exhausted", source),
		}
	case http.StatusBadRequest:
		return &Error{
			Type:    ErrorTypeInvalidParameter,
			Message: fmt.Sprintf("%s: rejected query", source),
		}
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return &Error{
			Type:    ErrorTypeTransport,
			Message: fmt.Sprintf("%s: unavailable (status %d)", source, statusCode),
		}
	default:
		return &Error{
			Type:    ErrorTypeTransport,
			Message: fmt.Sprintf("%s: HTTP %d", source, statusCode),
		}
	}
}
