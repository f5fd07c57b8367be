package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeLoadTimeout represents a page whose key content node never appeared
	ErrorTypeLoadTimeout ErrorType = "load_timeout"
	// ErrorTypeMissingField represents a required field absent from the page
	ErrorTypeMissingField ErrorType = "missing_field"
	// ErrorTypeInvalidNumber represents a view count that did not parse as a non-negative integer
	ErrorTypeInvalidNumber ErrorType = "invalid_number"
	// ErrorTypeInvalidTimestamp represents a publish timestamp that did not parse as RFC 3339
	ErrorTypeInvalidTimestamp ErrorType = "invalid_timestamp"
	// ErrorTypeWrite represents a sink-level I/O failure
	ErrorTypeWrite ErrorType = "write"
	// ErrorTypeSessionStartup represents a browser session that failed to start
	ErrorTypeSessionStartup ErrorType = "session_startup"
)

// CrawlError represents a crawl-specific error scoped to an item or the run
type CrawlError struct {
	Type    ErrorType
	URL     string
	Field   string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *CrawlError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = fmt.Sprintf("%s (field: %s)", msg, e.Field)
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.URL, msg, e.Err)
	}
	if e.URL != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Type, e.URL, msg)
	}
	return fmt.Sprintf("[%s] %s", e.Type, msg)
}

// Unwrap returns the underlying error
func (e *CrawlError) Unwrap() error {
	return e.Err
}

// IsFatal returns true if the error must abort the whole run
func (e *CrawlError) IsFatal() bool {
	switch e.Type {
	case ErrorTypeWrite, ErrorTypeSessionStartup:
		return true
	default:
		return false
	}
}

// IsRetryable returns true if the item may be retried once before being skipped
func (e *CrawlError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeLoadTimeout, ErrorTypeMissingField:
		return true
	default:
		return false
	}
}

// New creates a new CrawlError
func New(errType ErrorType, url, message string, err error) *CrawlError {
	return &CrawlError{
		Type:    errType,
		URL:     url,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewLoadTimeout creates a new load timeout error
func NewLoadTimeout(url string, err error) *CrawlError {
	return New(ErrorTypeLoadTimeout, url, "page content did not appear in time", err)
}

// NewMissingField creates a new missing field error
func NewMissingField(url, field string) *CrawlError {
	e := New(ErrorTypeMissingField, url, "required field not found", nil)
	e.Field = field
	return e
}

// NewInvalidNumber creates a new invalid number error
func NewInvalidNumber(url, field, raw string) *CrawlError {
	e := New(ErrorTypeInvalidNumber, url, fmt.Sprintf("not a non-negative integer: %q", raw), nil)
	e.Field = field
	return e
}

// NewInvalidTimestamp creates a new invalid timestamp error
func NewInvalidTimestamp(url, field, raw string) *CrawlError {
	e := New(ErrorTypeInvalidTimestamp, url, fmt.Sprintf("not an RFC 3339 timestamp: %q", raw), nil)
	e.Field = field
	return e
}

// NewWrite creates a new sink write error
func NewWrite(message string, err error) *CrawlError {
	return New(ErrorTypeWrite, "", message, err)
}

// NewSessionStartup creates a new session startup error
func NewSessionStartup(message string, err error) *CrawlError {
	return New(ErrorTypeSessionStartup, "", message, err)
}

// IsFatal reports whether err wraps a fatal CrawlError
func IsFatal(err error) bool {
	var ce *CrawlError
	if errors.As(err, &ce) {
		return ce.IsFatal()
	}
	return false
}

// IsRetryable reports whether err wraps a retryable CrawlError
func IsRetryable(err error) bool {
	var ce *CrawlError
	if errors.As(err, &ce) {
		return ce.IsRetryable()
	}
	return false
}

// TypeOf returns the CrawlError type of err, or an empty type for other errors
func TypeOf(err error) ErrorType {
	var ce *CrawlError
	if errors.As(err, &ce) {
		return ce.Type
	}
	return ""
}
