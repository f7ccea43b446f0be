package shared

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrorCategory represents different types of errors that can occur
type ErrorCategory string

const (
	ErrorCategoryConfiguration  ErrorCategory = "configuration"
	ErrorCategoryNetwork        ErrorCategory = "network"
	ErrorCategoryDatabase       ErrorCategory = "database"
	ErrorCategoryValidation     ErrorCategory = "validation"
	ErrorCategoryShape          ErrorCategory = "shape"
	ErrorCategoryTimeout        ErrorCategory = "timeout"
	ErrorCategoryAuthentication ErrorCategory = "authentication"
	ErrorCategoryAuthorization  ErrorCategory = "authorization"
)

// Generic display messages. Every error shown to a portal user resolves to
// one of these unless the upstream backend supplied field-level messages.
const (
	MessageTryAgain      = "Something went wrong. Please try again."
	MessageLoginRequired = "Please log in to continue."
	MessageNotPermitted  = "You are not permitted to perform this action."
)

// ServiceError is a standardized error with category, operation context and a
// retryable flag. Upstream validation responses additionally carry the
// per-field message map.
type ServiceError struct {
	Category    ErrorCategory `json:"category"`
	Code        string        `json:"code"`
	Message     string        `json:"message"`
	Timestamp   time.Time     `json:"timestamp"`
	ServiceName string        `json:"service_name"`
	Operation   string        `json:"operation"`
	Retryable   bool          `json:"retryable"`

	// FieldErrors holds upstream per-field validation messages, preserved in
	// structured form even though the flattened display text strips names.
	FieldErrors map[string][]string `json:"field_errors,omitempty"`

	Cause error `json:"-"` // Original error, not serialized
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// NewServiceError creates a new service error
func NewServiceError(category ErrorCategory, code, message, serviceName, operation string, retryable bool, cause error) *ServiceError {
	return &ServiceError{
		Category:    category,
		Code:        code,
		Message:     message,
		Timestamp:   time.Now(),
		ServiceName: serviceName,
		Operation:   operation,
		Retryable:   retryable,
		Cause:       cause,
	}
}

// NewValidationError creates a validation error carrying the upstream
// per-field message map. The display message is the flattened form.
func NewValidationError(serviceName, operation string, fieldErrors map[string][]string) *ServiceError {
	err := NewServiceError(
		ErrorCategoryValidation,
		"UPSTREAM_VALIDATION",
		strings.Join(FlattenValidationErrors(fieldErrors), " "),
		serviceName,
		operation,
		false,
		nil,
	)
	err.FieldErrors = fieldErrors
	if err.Message == "" {
		err.Message = MessageTryAgain
	}
	return err
}

// FlattenValidationErrors converts an upstream per-field error map into
// display-ready messages. Field names are stripped from the output, matching
// portal behavior; the structured map stays available on the error value for
// callers that want field context. Fields are walked in sorted order so the
// flattened text is stable.
func FlattenValidationErrors(fieldErrors map[string][]string) []string {
	if len(fieldErrors) == 0 {
		return nil
	}

	fields := make([]string, 0, len(fieldErrors))
	for field := range fieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var messages []string
	for _, field := range fields {
		for _, message := range fieldErrors[field] {
			message = strings.TrimSpace(message)
			if message != "" {
				messages = append(messages, message)
			}
		}
	}
	return messages
}

// FieldMessages returns the messages for one field, verbatim. Used by the bid
// flow, which must surface bid-field errors exactly as the backend wrote them.
func (e *ServiceError) FieldMessages(field string) []string {
	if e == nil {
		return nil
	}
	return e.FieldErrors[field]
}

// DisplayMessage maps any error to the text a portal user should see,
// following the taxonomy: validation errors show flattened upstream text,
// authentication errors prompt a login, everything else gets the generic
// try-again message.
func DisplayMessage(err error) string {
	var serviceErr *ServiceError
	if !errors.As(err, &serviceErr) {
		return MessageTryAgain
	}

	switch serviceErr.Category {
	case ErrorCategoryValidation:
		if serviceErr.Message != "" {
			return serviceErr.Message
		}
		return MessageTryAgain
	case ErrorCategoryAuthentication:
		return MessageLoginRequired
	case ErrorCategoryAuthorization:
		return MessageNotPermitted
	default:
		return MessageTryAgain
	}
}

// IsRetryable returns whether the error is retryable
func (e *ServiceError) IsRetryable() bool {
	return e.Retryable
}

// LogError logs the error with structured fields
func (e *ServiceError) LogError() {
	logrus.WithFields(logrus.Fields{
		"error_category": e.Category,
		"error_code":     e.Code,
		"error_message":  e.Message,
		"service_name":   e.ServiceName,
		"operation":      e.Operation,
		"retryable":      e.Retryable,
	}).Error("Service error occurred")
}

// WrapError wraps an existing error with service error context
func WrapError(err error, category ErrorCategory, code, serviceName, operation string, retryable bool) *ServiceError {
	if err == nil {
		return nil
	}

	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		serviceErr.ServiceName = serviceName
		serviceErr.Operation = operation
		return serviceErr
	}

	return NewServiceError(category, code, err.Error(), serviceName, operation, retryable, err)
}

// IsRetryableError checks if an error is retryable
func IsRetryableError(err error) bool {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.IsRetryable()
	}

	errorMsg := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"timeout", "connection refused", "connection reset",
		"temporary failure", "service unavailable", "too many requests",
		"network", "dns", "socket",
	}
	for _, pattern := range retryablePatterns {
		if strings.Contains(errorMsg, pattern) {
			return true
		}
	}
	return false
}

// UpstreamIsolationHandler tracks success/failure of background upstream
// calls and opens a circuit when the failure rate climbs. Interactive portal
// requests never pass through it; only jobs do, so a flapping backend stops
// being hammered between user actions.
type UpstreamIsolationHandler struct {
	maxFailureRate      float64
	serviceName         string
	circuitBreakerOpen  bool
	failureCount        int64
	successCount        int64
	lastResetTime       time.Time
	halfOpenAttempts    int
	maxHalfOpenAttempts int
}

// NewUpstreamIsolationHandler creates a handler with the given failure-rate threshold
func NewUpstreamIsolationHandler(serviceName string, maxFailureRate float64) *UpstreamIsolationHandler {
	return &UpstreamIsolationHandler{
		maxFailureRate:      maxFailureRate,
		serviceName:         serviceName,
		lastResetTime:       time.Now(),
		maxHalfOpenAttempts: 3,
	}
}

// RecordSuccess records a successful operation
func (h *UpstreamIsolationHandler) RecordSuccess() {
	h.successCount++

	if h.circuitBreakerOpen {
		h.halfOpenAttempts++
		if h.halfOpenAttempts >= h.maxHalfOpenAttempts {
			h.circuitBreakerOpen = false
			h.failureCount = 0
			h.successCount = 0
			h.halfOpenAttempts = 0
			h.lastResetTime = time.Now()

			logrus.WithFields(logrus.Fields{
				"service_name": h.serviceName,
				"component":    "UpstreamIsolationHandler",
			}).Info("Circuit breaker closed after successful half-open attempts")
		}
	}
}

// RecordFailure records a failed operation
func (h *UpstreamIsolationHandler) RecordFailure() {
	h.failureCount++

	if h.circuitBreakerOpen && h.halfOpenAttempts > 0 {
		h.halfOpenAttempts = 0
		logrus.WithFields(logrus.Fields{
			"service_name": h.serviceName,
			"component":    "UpstreamIsolationHandler",
		}).Warn("Circuit breaker returned to open state after failure in half-open")
		return
	}

	totalOperations := h.failureCount + h.successCount
	if totalOperations >= 10 { // Minimum sample size
		currentFailureRate := float64(h.failureCount) / float64(totalOperations)
		if currentFailureRate > h.maxFailureRate && !h.circuitBreakerOpen {
			h.circuitBreakerOpen = true
			h.halfOpenAttempts = 0

			logrus.WithFields(logrus.Fields{
				"service_name":     h.serviceName,
				"component":        "UpstreamIsolationHandler",
				"failure_rate":     currentFailureRate,
				"max_failure_rate": h.maxFailureRate,
			}).Warn("Circuit breaker opened due to high failure rate")
		}
	}
}

// IsCircuitBreakerOpen returns whether the circuit breaker is open, allowing a
// half-open probe after 30 seconds
func (h *UpstreamIsolationHandler) IsCircuitBreakerOpen() bool {
	if !h.circuitBreakerOpen {
		return false
	}

	if time.Since(h.lastResetTime) > 30*time.Second && h.halfOpenAttempts == 0 {
		logrus.WithFields(logrus.Fields{
			"service_name": h.serviceName,
			"component":    "UpstreamIsolationHandler",
		}).Info("Circuit breaker entering half-open state")
		return false
	}

	return h.circuitBreakerOpen
}

// Execute runs a background operation with circuit breaker protection
func (h *UpstreamIsolationHandler) Execute(operation string, fn func() error) error {
	if h.IsCircuitBreakerOpen() {
		return NewServiceError(
			ErrorCategoryNetwork,
			"UPSTREAM_UNAVAILABLE",
			fmt.Sprintf("upstream is temporarily unavailable for operation %s", operation),
			h.serviceName,
			operation,
			true,
			nil,
		)
	}

	if err := fn(); err != nil {
		h.RecordFailure()
		return err
	}

	h.RecordSuccess()
	return nil
}

// GetFailureRate returns the current failure rate
func (h *UpstreamIsolationHandler) GetFailureRate() float64 {
	totalOperations := h.failureCount + h.successCount
	if totalOperations == 0 {
		return 0.0
	}
	return float64(h.failureCount) / float64(totalOperations)
}
