package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// BeanError defines the base interface for all mbean errors
type BeanError interface {
	error
	ErrorCode() ErrorCode
	Kind() Kind
	Location() SourceLocation
	Context() map[string]interface{}
	Suggestions() []string
	Unwrap() error
}

// ErrorCode represents the type of error that occurred
type ErrorCode int

const (
	UnknownErrorCode ErrorCode = iota

	// Construction error types
	DuplicatePropertyCode
	OrphanedAccessorCode
	InaccessiblePropertyCode
	UnsupportedTypeCode
	MetadataAccessCode
	InvalidTargetCode
	MarkerSyntaxCode
	MarkerValidationCode

	// Lookup error types
	UnknownAttributeCode
	NotReadableCode
	NotWritableCode
	OperationNotFoundCode
	NotRegisteredCode

	// Invocation error types
	InvocationCode

	// Soft-degrade error types
	ProjectionCode

	// Registration error types
	InvalidNameCode
	AlreadyRegisteredCode
	BeanNotFoundCode

	// Runtime error types
	ConfigurationCode
	TransportCode
)

// String returns the string representation of the error code
func (e ErrorCode) String() string {
	switch e {
	case DuplicatePropertyCode:
		return "DuplicateProperty"
	case OrphanedAccessorCode:
		return "OrphanedAccessor"
	case InaccessiblePropertyCode:
		return "InaccessibleProperty"
	case UnsupportedTypeCode:
		return "UnsupportedType"
	case MetadataAccessCode:
		return "MetadataAccess"
	case InvalidTargetCode:
		return "InvalidTarget"
	case MarkerSyntaxCode:
		return "MarkerSyntax"
	case MarkerValidationCode:
		return "MarkerValidation"
	case UnknownAttributeCode:
		return "UnknownAttribute"
	case NotReadableCode:
		return "NotReadable"
	case NotWritableCode:
		return "NotWritable"
	case OperationNotFoundCode:
		return "OperationNotFound"
	case NotRegisteredCode:
		return "NotRegistered"
	case InvocationCode:
		return "Invocation"
	case ProjectionCode:
		return "Projection"
	case InvalidNameCode:
		return "InvalidName"
	case AlreadyRegisteredCode:
		return "AlreadyRegistered"
	case BeanNotFoundCode:
		return "BeanNotFound"
	case ConfigurationCode:
		return "Configuration"
	case TransportCode:
		return "Transport"
	default:
		return "Unknown"
	}
}

// ParseErrorCode converts the String form back into an ErrorCode.
// Unknown names map to UnknownErrorCode.
func ParseErrorCode(s string) ErrorCode {
	for code := UnknownErrorCode; code <= TransportCode; code++ {
		if code.String() == s {
			return code
		}
	}
	return UnknownErrorCode
}

// Kind groups error codes by how callers are expected to react to them
type Kind int

const (
	UnknownKind Kind = iota
	ConstructionKind
	LookupKind
	InvocationKind
	ProjectionKind
	RegistrationKind
	RuntimeKind
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case ConstructionKind:
		return "construction"
	case LookupKind:
		return "lookup"
	case InvocationKind:
		return "invocation"
	case ProjectionKind:
		return "projection"
	case RegistrationKind:
		return "registration"
	case RuntimeKind:
		return "runtime"
	default:
		return "unknown"
	}
}

// Kind returns the category the code belongs to
func (e ErrorCode) Kind() Kind {
	switch {
	case e >= DuplicatePropertyCode && e <= MarkerValidationCode:
		return ConstructionKind
	case e >= UnknownAttributeCode && e <= NotRegisteredCode:
		return LookupKind
	case e == InvocationCode:
		return InvocationKind
	case e == ProjectionCode:
		return ProjectionKind
	case e >= InvalidNameCode && e <= BeanNotFoundCode:
		return RegistrationKind
	case e == ConfigurationCode || e == TransportCode:
		return RuntimeKind
	default:
		return UnknownKind
	}
}

// SourceLocation represents where an error occurred in source code
type SourceLocation struct {
	File   string // file path where error occurred
	Line   int    // line number (1-based)
	Column int    // column number (1-based)
}

// String returns a formatted string representation of the location
func (s SourceLocation) String() string {
	if s.File == "" {
		return "unknown location"
	}
	if s.Line == 0 {
		return s.File
	}
	if s.Column == 0 {
		return fmt.Sprintf("%s:%d", s.File, s.Line)
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
}

// IsEmpty returns true if the location has no useful information
func (s SourceLocation) IsEmpty() bool {
	return s.File == ""
}

// BaseError provides a common implementation of the BeanError interface
type BaseError struct {
	Code        ErrorCode              // type of error
	Message     string                 // error message
	Loc         SourceLocation         // where the error occurred
	Cause       error                  // underlying error cause
	ContextData map[string]interface{} // additional context information
	Hints       []string               // helpful suggestions for fixing the error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Loc.IsEmpty() {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Loc.String(), msg)
}

// ErrorCode returns the error code
func (e *BaseError) ErrorCode() ErrorCode {
	return e.Code
}

// Kind returns the category of the error code
func (e *BaseError) Kind() Kind {
	return e.Code.Kind()
}

// Location returns the source location where the error occurred
func (e *BaseError) Location() SourceLocation {
	return e.Loc
}

// Context returns the error context data
func (e *BaseError) Context() map[string]interface{} {
	if e.ContextData == nil {
		return make(map[string]interface{})
	}
	return e.ContextData
}

// Suggestions returns helpful suggestions for fixing the error
func (e *BaseError) Suggestions() []string {
	return e.Hints
}

// Unwrap returns the underlying error cause for error chain inspection
func (e *BaseError) Unwrap() error {
	return e.Cause
}

// Is reports whether target carries the same error code. Sentinels built
// with New match every error of their code.
func (e *BaseError) Is(target error) bool {
	t, ok := target.(BeanError)
	if !ok {
		return false
	}
	if _, multi := target.(*MultipleErrors); multi {
		return false
	}
	return t.ErrorCode() == e.Code
}

// WithLocation adds location information to the error
func (e *BaseError) WithLocation(loc SourceLocation) *BaseError {
	e.Loc = loc
	return e
}

// WithCause adds an underlying error cause
func (e *BaseError) WithCause(cause error) *BaseError {
	e.Cause = cause
	return e
}

// WithContext adds context data to the error
func (e *BaseError) WithContext(key string, value interface{}) *BaseError {
	if e.ContextData == nil {
		e.ContextData = make(map[string]interface{})
	}
	e.ContextData[key] = value
	return e
}

// WithSuggestion adds a helpful suggestion for fixing the error
func (e *BaseError) WithSuggestion(suggestion string) *BaseError {
	e.Hints = append(e.Hints, suggestion)
	return e
}

// New creates a new BaseError with the specified code and message
func New(code ErrorCode, message string) *BaseError {
	return &BaseError{
		Code:    code,
		Message: message,
		Hints:   make([]string, 0),
	}
}

// Newf creates a new BaseError with formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *BaseError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap creates a new error that wraps another error
func Wrap(code ErrorCode, message string, cause error) *BaseError {
	return &BaseError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Hints:   make([]string, 0),
	}
}

// Wrapf creates a new error that wraps another error with formatted message
func Wrapf(code ErrorCode, cause error, format string, args ...interface{}) *BaseError {
	return Wrap(code, fmt.Sprintf(format, args...), cause)
}

// CodeOf returns the code of the first coded error in err's chain, walking
// joined errors depth first
func CodeOf(err error) ErrorCode {
	switch e := err.(type) {
	case nil:
		return UnknownErrorCode
	case interface{ ErrorCode() ErrorCode }:
		return e.ErrorCode()
	case interface{ Unwrap() error }:
		return CodeOf(e.Unwrap())
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			if code := CodeOf(inner); code != UnknownErrorCode {
				return code
			}
		}
	}
	return UnknownErrorCode
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As finds the first error in err's chain that matches target
func As(err error, target any) bool { return stderrors.As(err, target) }

// MultipleErrors represents multiple errors collected together
type MultipleErrors struct {
	Errors []BeanError
}

// Error implements the error interface
func (e *MultipleErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}

	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var messages []string
	for i, err := range e.Errors {
		messages = append(messages, fmt.Sprintf("  %d. %s", i+1, err.Error()))
	}

	return fmt.Sprintf("multiple errors (%d total):\n%s", len(e.Errors), strings.Join(messages, "\n"))
}

// ErrorCode returns the error code (uses the first error's code)
func (e *MultipleErrors) ErrorCode() ErrorCode {
	if len(e.Errors) == 0 {
		return UnknownErrorCode
	}
	return e.Errors[0].ErrorCode()
}

// Kind returns the kind of the first error
func (e *MultipleErrors) Kind() Kind {
	return e.ErrorCode().Kind()
}

// Location returns the location of the first error
func (e *MultipleErrors) Location() SourceLocation {
	if len(e.Errors) == 0 {
		return SourceLocation{}
	}
	return e.Errors[0].Location()
}

// Context returns combined context from all errors
func (e *MultipleErrors) Context() map[string]interface{} {
	combined := make(map[string]interface{})
	for i, err := range e.Errors {
		for k, v := range err.Context() {
			combined[fmt.Sprintf("error_%d_%s", i, k)] = v
		}
	}
	return combined
}

// Suggestions returns combined suggestions from all errors
func (e *MultipleErrors) Suggestions() []string {
	var suggestions []string
	for _, err := range e.Errors {
		suggestions = append(suggestions, err.Suggestions()...)
	}
	return suggestions
}

// Unwrap returns every collected error for errors.Is and errors.As
func (e *MultipleErrors) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, err := range e.Errors {
		errs[i] = err
	}
	return errs
}

// Add adds an error to the collection
func (e *MultipleErrors) Add(err BeanError) {
	e.Errors = append(e.Errors, err)
}

// IsEmpty returns true if there are no errors
func (e *MultipleErrors) IsEmpty() bool {
	return len(e.Errors) == 0
}

// Count returns the number of errors
func (e *MultipleErrors) Count() int {
	return len(e.Errors)
}

// HasCode returns true if any error of the specified type exists
func (e *MultipleErrors) HasCode(code ErrorCode) bool {
	for _, err := range e.Errors {
		if err.ErrorCode() == code {
			return true
		}
	}
	return false
}

// ErrOrNil returns nil for an empty collection
func (e *MultipleErrors) ErrOrNil() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}

// NewMultipleErrors creates a new MultipleErrors collection
func NewMultipleErrors() *MultipleErrors {
	return &MultipleErrors{
		Errors: make([]BeanError, 0),
	}
}
