package models

import (
	"fmt"
	"strings"
)

// Error codes used in API responses and internal error handling.
const (
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeTimeout      = "BACKEND_TIMEOUT"
	ErrCodeProtocol     = "BACKEND_PROTOCOL"
	ErrCodeNavigation   = "NAVIGATION_FAILED"
	ErrCodeAllFailed    = "ALL_BACKENDS_FAILED"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`

	// Attempts carries the per-backend failure chain when every backend
	// failed.
	Attempts []AttemptDetail `json:"attempts,omitempty"`
}

// ErrorResponse is the JSON body for failed API requests.
type ErrorResponse struct {
	Error *ErrorDetail `json:"error"`
}

// AttemptDetail is the API-facing form of one failed backend attempt.
type AttemptDetail struct {
	Backend string `json:"backend"`
	Cause   string `json:"cause"`
}

// ScrapeError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ScrapeError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// NewScrapeError creates a new ScrapeError.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *ScrapeError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}

// AttemptFailure is one (backend, cause) pair recorded by the orchestrator
// during the fallback chain.
type AttemptFailure struct {
	Backend string
	Err     error
}

// AggregateFailure is returned when every backend in the attempt plan
// failed. Attempts preserves the order in which backends were tried.
type AggregateFailure struct {
	URL      string
	Attempts []AttemptFailure
}

func (e *AggregateFailure) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "all backends failed for %s:", e.URL)
	for _, a := range e.Attempts {
		fmt.Fprintf(&b, " [%s: %v]", a.Backend, a.Err)
	}
	return b.String()
}

// Unwrap exposes the underlying causes to errors.Is / errors.As.
func (e *AggregateFailure) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		errs = append(errs, a.Err)
	}
	return errs
}

// ToDetail converts the aggregate into an API-facing ErrorDetail with the
// ordered per-backend chain.
func (e *AggregateFailure) ToDetail() *ErrorDetail {
	d := &ErrorDetail{
		Code:    ErrCodeAllFailed,
		Message: "all backends failed for " + e.URL,
	}
	for _, a := range e.Attempts {
		d.Attempts = append(d.Attempts, AttemptDetail{Backend: a.Backend, Cause: a.Err.Error()})
	}
	return d
}
