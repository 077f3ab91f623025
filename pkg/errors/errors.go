package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents transport-level errors
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeRateLimit represents rate limiting responses
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeContent represents unexpected response content (wrong type, missing markup)
	ErrorTypeContent ErrorType = "content"
	// ErrorTypeParsing represents HTML parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeStorage represents record store errors
	ErrorTypeStorage ErrorType = "storage"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// MonitorError represents a classified pipeline error
type MonitorError struct {
	Type    ErrorType
	Term    string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *MonitorError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Type, e.Message)
	if e.Term != "" {
		msg = fmt.Sprintf("[%s] [%s] %s", e.Type, e.Term, e.Message)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s - %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error
func (e *MonitorError) Unwrap() error {
	return e.Err
}

// New creates a new MonitorError
func New(errType ErrorType, term, message string, err error) *MonitorError {
	return &MonitorError{
		Type:    errType,
		Term:    term,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(term, message string, err error) *MonitorError {
	return New(ErrorTypeNetwork, term, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(term, retryAfter string) *MonitorError {
	message := "rate limited"
	if retryAfter != "" {
		message = fmt.Sprintf("rate limited; retry after %s", retryAfter)
	}
	return New(ErrorTypeRateLimit, term, message, nil)
}

// NewContent creates a new content-shape error
func NewContent(term, message string) *MonitorError {
	return New(ErrorTypeContent, term, message, nil)
}

// NewParsing creates a new parsing error
func NewParsing(term, message string, err error) *MonitorError {
	return New(ErrorTypeParsing, term, message, err)
}

// NewStorage creates a new storage error
func NewStorage(message string, err error) *MonitorError {
	return New(ErrorTypeStorage, "", message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *MonitorError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// IsRateLimit reports whether err is a rate-limit error
func IsRateLimit(err error) bool {
	var me *MonitorError
	if stderrors.As(err, &me) {
		return me.Type == ErrorTypeRateLimit
	}
	return false
}
