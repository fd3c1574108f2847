package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorCode represents a unique error code for categorizing errors
type ErrorCode string

const (
	// Connection errors (1xxx)
	ErrCodeConnectionFailed     ErrorCode = "DWH1001"
	ErrCodeConnectionTimeout    ErrorCode = "DWH1002"
	ErrCodeAuthenticationFailed ErrorCode = "DWH1003"
	ErrCodeNotConnected         ErrorCode = "DWH1004"

	// Configuration errors (2xxx)
	ErrCodeConfigNotFound ErrorCode = "DWH2001"
	ErrCodeConfigInvalid  ErrorCode = "DWH2002"
	ErrCodeConfigMissing  ErrorCode = "DWH2003"
	ErrCodeUnknownDialect ErrorCode = "DWH2004"

	// SQL execution errors (4xxx)
	ErrCodeSQLExecution      ErrorCode = "DWH4001"
	ErrCodeSQLPermission     ErrorCode = "DWH4002"
	ErrCodeSQLTimeout        ErrorCode = "DWH4003"
	ErrCodeSQLTransaction    ErrorCode = "DWH4004"
	ErrCodeSQLObjectNotFound ErrorCode = "DWH4005"
	ErrCodeStagingFailed     ErrorCode = "DWH4007"

	// Source errors (5xxx)
	ErrCodeSourceNotFound   ErrorCode = "DWH5001"
	ErrCodeSourceAccess     ErrorCode = "DWH5002"
	ErrCodeSourceCorrupted  ErrorCode = "DWH5003"
	ErrCodeSourceUnreadable ErrorCode = "DWH5004"

	// Validation errors (6xxx)
	ErrCodeValidationFailed ErrorCode = "DWH6001"
	ErrCodeInvalidInput     ErrorCode = "DWH6002"
	ErrCodeUserAborted      ErrorCode = "DWH6003"

	// System errors (9xxx)
	ErrCodeInternal ErrorCode = "DWH9001"
	ErrCodeCanceled ErrorCode = "DWH9002"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	SeverityCritical ErrorSeverity = "CRITICAL"
	SeverityError    ErrorSeverity = "ERROR"
	SeverityWarning  ErrorSeverity = "WARNING"
	SeverityInfo     ErrorSeverity = "INFO"
)

// AppError represents a structured application error with context
type AppError struct {
	Code        ErrorCode
	Message     string
	Severity    ErrorSeverity
	Context     map[string]interface{}
	Cause       error
	Stack       string
	Timestamp   time.Time
	Suggestions []string
}

// Error implements the error interface. The cause is printed as-is so
// engine errors reach the user unchanged.
func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s] %s: %s", e.Code, e.Severity, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\nCaused by: %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\nSuggestions:")
		for i, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  %d. %s", i+1, suggestion))
		}
	}

	return b.String()
}

// Unwrap returns the cause of the error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an AppError with the same code
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Severity:  SeverityError,
		Context:   make(map[string]interface{}),
		Stack:     captureStack(),
		Timestamp: time.Now(),
	}
}

// Wrap wraps an existing error with AppError. It returns nil for a nil error.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}

	appErr := New(code, message)
	appErr.Cause = err

	var ae *AppError
	if errors.As(err, &ae) {
		for k, v := range ae.Context {
			appErr.Context[k] = v
		}
	}

	return appErr
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithSeverity sets the error severity
func (e *AppError) WithSeverity(severity ErrorSeverity) *AppError {
	e.Severity = severity
	return e
}

// WithSuggestions adds recovery suggestions
func (e *AppError) WithSuggestions(suggestions ...string) *AppError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

func captureStack() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])

	var b strings.Builder
	frames := runtime.CallersFrames(pcs[:n])

	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			b.WriteString(fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}

	return b.String()
}

// Common error constructors

// ConnectionError creates a connection-related error
func ConnectionError(message string, cause error) *AppError {
	return Wrap(cause, ErrCodeConnectionFailed, message).
		WithSuggestions(
			"Check that the warehouse endpoint is reachable",
			"Verify the cluster credentials",
			"Check security group or network policy rules",
		)
}

// ConfigError creates a configuration-related error
func ConfigError(message string, field string) *AppError {
	return New(ErrCodeConfigInvalid, message).
		WithContext("field", field).
		WithSuggestions(
			fmt.Sprintf("Check the '%s' configuration value", field),
			"Run 'dwhload config show' to inspect the resolved configuration",
		)
}

// SQLError creates an error for a failed statement. The engine error is
// kept as the cause without modification.
func SQLError(statement string, query string, cause error) *AppError {
	err := Wrap(cause, ErrCodeSQLExecution, fmt.Sprintf("Statement %s failed", statement)).
		WithContext("statement", statement).
		WithContext("query", truncateString(query, 200))

	msg := strings.ToLower(cause.Error())
	switch {
	case strings.Contains(msg, "permission denied") || strings.Contains(msg, "access denied") ||
		strings.Contains(msg, "not authorized"):
		err.Code = ErrCodeSQLPermission
		err.WithSuggestions(
			"Verify the IAM role is attached to the cluster",
			"Check that the database user owns the target schema",
		)
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded"):
		err.Code = ErrCodeSQLTimeout
		err.WithSuggestions("Increase warehouse.statement_timeout")
	case strings.Contains(msg, "does not exist") || strings.Contains(msg, "no such table"):
		err.Code = ErrCodeSQLObjectNotFound
		err.WithSuggestions("Run the create phase before copy and insert")
	}

	return err
}

// SourceError creates an error for an unreachable or empty load source
func SourceError(message string, uri string, cause error) *AppError {
	var err *AppError
	if cause != nil {
		err = Wrap(cause, ErrCodeSourceAccess, message)
	} else {
		err = New(ErrCodeSourceNotFound, message)
	}
	return err.WithContext("uri", uri)
}

// ValidationError creates a validation error
func ValidationError(field string, value interface{}, reason string) *AppError {
	return New(ErrCodeValidationFailed, fmt.Sprintf("Validation failed for %s: %s", field, reason)).
		WithContext("field", field).
		WithContext("value", value).
		WithSeverity(SeverityWarning)
}

// GetErrorCode extracts the error code from an error
func GetErrorCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// GetContext returns a context value of the first AppError in the chain
func GetContext(err error, key string) (interface{}, bool) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return nil, false
	}
	v, ok := appErr.Context[key]
	return v, ok
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// As is errors.As from the standard library
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Is is errors.Is from the standard library
func Is(err, target error) bool {
	return errors.Is(err, target)
}
