package error

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// ErrorCategory classifies errors by their nature and appropriate handling strategy.
type ErrorCategory int

const (
	// ErrCategoryUser represents errors caused by an invalid plan or query:
	// unknown columns, type mismatches, malformed plan documents.
	ErrCategoryUser ErrorCategory = iota

	// ErrCategoryTransient represents errors that might succeed on retry,
	// such as a cancelled or timed-out request.
	ErrCategoryTransient

	// ErrCategorySystem represents errors requiring administrator intervention.
	// Examples: unreachable data sources, bad configuration.
	ErrCategorySystem

	// ErrCategoryData represents errors in the rows themselves, such as a
	// driver value that cannot be converted to the declared column type.
	ErrCategoryData
)

func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryUser:
		return "user"
	case ErrCategoryTransient:
		return "transient"
	case ErrCategorySystem:
		return "system"
	case ErrCategoryData:
		return "data"
	default:
		return "unknown"
	}
}

// Error codes raised by the engine.
const (
	CodeInvalidPlan   = "INVALID_PLAN"
	CodeTypeMismatch  = "TYPE_MISMATCH"
	CodeUnknownColumn = "UNKNOWN_COLUMN"
	CodeSourceFailed  = "SOURCE_FAILED"
	CodeCancelled     = "CANCELLED"
	CodeBadConfig     = "BAD_CONFIG"
)

// DBError represents a structured database error with rich context information.
type DBError struct {
	// Code is a unique identifier for this error type (e.g., "INVALID_PLAN").
	Code string

	// Category classifies the error for appropriate handling strategy.
	Category ErrorCategory

	// Message is a human-readable description of what went wrong.
	Message string

	// Detail provides additional context about the specific error instance.
	Detail string

	// Hint suggests how the user might fix or work around this error.
	Hint string

	// Operation identifies the operation being performed, e.g. "NewFilteredStream", "GetRecord".
	Operation string

	// Component identifies where the error originated, e.g. "FilteredStream", "TableScan".
	Component string

	// Cause is the underlying error that triggered this database error.
	Cause error

	// Stack contains the call stack where this error was created.
	Stack []uintptr
}

// New creates a new DBError with the specified code, category, and message.
func New(category ErrorCategory, code, message string) *DBError {
	return &DBError{
		Code:     code,
		Category: category,
		Message:  message,
		Stack:    captureStack(),
	}
}

// Newf is New with a formatted message.
func Newf(category ErrorCategory, code, format string, args ...any) *DBError {
	err := New(category, code, fmt.Sprintf(format, args...))
	err.Stack = captureStack()
	return err
}

// Wrap wraps an existing error with database-specific context information.
// If the error is already a DBError, it enriches the existing error with
// operation and component context (only if not already set).
func Wrap(err error, code, operation, component string) *DBError {
	if err == nil {
		return nil
	}

	var dbErr *DBError
	if errors.As(err, &dbErr) {
		if dbErr.Operation == "" {
			dbErr.Operation = operation
		}
		if dbErr.Component == "" {
			dbErr.Component = component
		}
		return dbErr
	}

	return &DBError{
		Code:      code,
		Category:  ErrCategorySystem,
		Message:   err.Error(),
		Operation: operation,
		Component: component,
		Cause:     err,
		Stack:     captureStack(),
	}
}

// WithOperation sets operation and component and returns the receiver.
func (e *DBError) WithOperation(operation, component string) *DBError {
	e.Operation = operation
	e.Component = component
	return e
}

// WithDetail sets Detail and returns the receiver.
func (e *DBError) WithDetail(detail string) *DBError {
	e.Detail = detail
	return e
}

// WithHint sets Hint and returns the receiver.
func (e *DBError) WithHint(hint string) *DBError {
	e.Hint = hint
	return e
}

// WithCause sets Cause and returns the receiver.
func (e *DBError) WithCause(cause error) *DBError {
	e.Cause = cause
	return e
}

// HasCode reports whether err is, or wraps, a DBError with the given code.
func HasCode(err error, code string) bool {
	var dbErr *DBError
	return errors.As(err, &dbErr) && dbErr.Code == code
}

// captureStack captures the current call stack, skipping captureStack,
// the constructor and runtime.Callers itself.
func captureStack() []uintptr {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	return pcs[0:n]
}

// Error implements the standard Go error interface
//
// The format follows the pattern:
// [ERROR_CODE] Message: Detail (operation: Operation, component: Component) caused by: underlying error
func (e *DBError) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)

	if e.Detail != "" {
		fmt.Fprintf(&b, ": %s", e.Detail)
	}

	if e.Operation != "" {
		fmt.Fprintf(&b, " (operation: %s", e.Operation)
		if e.Component != "" {
			fmt.Fprintf(&b, ", component: %s", e.Component)
		}
		b.WriteString(")")
	}

	if e.Cause != nil {
		fmt.Fprintf(&b, " caused by: %v", e.Cause)
	}

	return b.String()
}

// Unwrap returns the underlying cause error, enabling errors.Is and errors.As.
func (e *DBError) Unwrap() error {
	return e.Cause
}

// FormatStack returns a human-readable stack trace for debugging purposes.
func (e *DBError) FormatStack() string {
	if len(e.Stack) == 0 {
		return ""
	}

	var b strings.Builder
	frames := runtime.CallersFrames(e.Stack)

	b.WriteString("Stack trace:\n")
	for {
		f, more := frames.Next()
		fmt.Fprintf(&b, "  %s\n    %s:%d\n", f.Function, f.File, f.Line)
		if !more {
			break
		}
	}

	return b.String()
}
