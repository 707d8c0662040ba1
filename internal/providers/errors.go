package providers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorQuota     ErrorType = "quota"
	ErrorRate      ErrorType = "rate"
	ErrorTransient ErrorType = "transient"
	ErrorPermanent ErrorType = "permanent"
	ErrorContext   ErrorType = "context"
	ErrorAuth      ErrorType = "auth"
)

// ProviderError is returned by the HTTP-backed providers for non-2xx
// responses and transport failures.
type ProviderError struct {
	Code       string
	Message    string
	Retryable  bool
	StatusCode int
	Cause      error
}

func (e *ProviderError) Error() string {
	if e == nil {
		return ""
	}
	return e.Code + ": " + e.Message
}

func (e *ProviderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// mapProviderError builds the error for a failed response. prefix is the
// upper-case provider name used in codes, e.g. "MURF".
func mapProviderError(prefix string, statusCode int, body string) error {
	message := strings.TrimSpace(body)
	if message == "" {
		message = fmt.Sprintf("%s returned status %d", strings.ToLower(prefix), statusCode)
	}
	pe := &ProviderError{
		Code:       prefix + "_FAILED",
		Message:    message,
		StatusCode: statusCode,
	}
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		pe.Code = prefix + "_AUTH"
	case statusCode == http.StatusTooManyRequests:
		pe.Code = prefix + "_RATE_LIMIT"
		pe.Retryable = true
	case statusCode >= http.StatusInternalServerError:
		pe.Retryable = true
	case statusCode >= http.StatusBadRequest:
		pe.Retryable = false
	default:
		pe.Retryable = true
	}
	return pe
}

func transportError(prefix, what string, err error) error {
	return &ProviderError{
		Code:      prefix + "_FAILED",
		Message:   what + " request failed",
		Retryable: true,
		Cause:     err,
	}
}

func ClassifyError(err error) ErrorType {
	if err == nil {
		return ""
	}
	var pe *ProviderError
	if errors.As(err, &pe) && pe.StatusCode != 0 {
		switch {
		case pe.StatusCode == http.StatusUnauthorized || pe.StatusCode == http.StatusForbidden:
			return ErrorAuth
		case pe.StatusCode == http.StatusTooManyRequests:
			if strings.Contains(strings.ToLower(pe.Message), "quota") {
				return ErrorQuota
			}
			return ErrorRate
		case pe.StatusCode == http.StatusRequestEntityTooLarge:
			return ErrorContext
		case pe.StatusCode >= http.StatusInternalServerError:
			return ErrorTransient
		}
	}
	e := strings.ToLower(err.Error())
	switch {
	case strings.Contains(e, "quota"), strings.Contains(e, "credit"), strings.Contains(e, "insufficient_quota"):
		return ErrorQuota
	case strings.Contains(e, "rate"), strings.Contains(e, "429"):
		return ErrorRate
	case strings.Contains(e, "context"), strings.Contains(e, "too long"):
		return ErrorContext
	case strings.Contains(e, "timeout"), strings.Contains(e, "temporarily"), strings.Contains(e, "unavailable"):
		return ErrorTransient
	default:
		return ErrorPermanent
	}
}

// Fallbackable reports whether another provider should be tried after err.
func Fallbackable(err error) bool {
	switch ClassifyError(err) {
	case ErrorQuota, ErrorRate, ErrorTransient, ErrorAuth:
		return true
	}
	return false
}

// HTTPError exposes the status mapping to other HTTP clients in the service.
func HTTPError(prefix string, statusCode int, body string) error {
	return mapProviderError(prefix, statusCode, body)
}
