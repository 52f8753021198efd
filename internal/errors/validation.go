package errors

import "fmt"

// ValidationError reports a marker parameter that does not satisfy its schema
type ValidationError struct {
	*BaseError
	Marker    string // marker kind the parameter belongs to
	Parameter string // parameter that failed validation
	Expected  string // what was expected
	Actual    string // what was provided
}

// NewValidationError creates a new marker validation error
func NewValidationError(marker, parameter, expected, actual string) *ValidationError {
	message := fmt.Sprintf("invalid %s marker parameter '%s': expected %s, got %s", marker, parameter, expected, actual)

	return &ValidationError{
		BaseError: New(MarkerValidationCode, message).
			WithContext("marker", marker).
			WithContext("parameter", parameter),
		Marker:    marker,
		Parameter: parameter,
		Expected:  expected,
		Actual:    actual,
	}
}

// WithLocation adds location information to the error
func (e *ValidationError) WithLocation(loc SourceLocation) *ValidationError {
	e.BaseError.WithLocation(loc)
	return e
}

// WithSuggestion adds a helpful suggestion
func (e *ValidationError) WithSuggestion(suggestion string) *ValidationError {
	e.BaseError.WithSuggestion(suggestion)
	return e
}

// SyntaxError reports a struct tag that does not follow the marker grammar
type SyntaxError struct {
	*BaseError
	Tag      string // the raw tag text
	Position int    // byte offset of the failure within Tag
}

// NewSyntaxError creates a new syntax error
func NewSyntaxError(tag string, position int, cause error) *SyntaxError {
	return &SyntaxError{
		BaseError: Wrapf(MarkerSyntaxCode, cause, "malformed marker tag %q", tag).
			WithContext("tag", tag),
		Tag:      tag,
		Position: position,
	}
}

// WithLocation adds location information to the error
func (e *SyntaxError) WithLocation(loc SourceLocation) *SyntaxError {
	e.BaseError.WithLocation(loc)
	return e
}
