package errors

import (
	"errors"
	"fmt"
)

// Standard error types
var (
	ErrConfiguration = errors.New("configuration error")
	ErrCredentials   = errors.New("missing credentials")
	ErrHTTPRequest   = errors.New("HTTP request error")
	ErrHTTPResponse  = errors.New("HTTP response error")
	ErrDecode        = errors.New("response decode error")
	ErrExtraction    = errors.New("data extraction error")
	ErrCursorStore   = errors.New("cursor store error")
	ErrWorkbook      = errors.New("workbook error")
	ErrEndpoint      = errors.New("endpoint export error")
)

// WrapError wraps an error with a standard error type
func WrapError(err error, errType error, message string) error {
	wrapped := fmt.Errorf("%s: %w", message, err)
	return fmt.Errorf("%w: %v", errType, wrapped)
}

// IsFetchFailure reports whether err means the vendor gave no usable page:
// a transport failure or a non-200 status. Callers treat it as "no more data".
func IsFetchFailure(err error) bool {
	return errors.Is(err, ErrHTTPRequest) || errors.Is(err, ErrHTTPResponse)
}

// Is provides a convenience wrapper around errors.Is
func Is(err, target error) bool {
	return errors.Is(err, target)
}

