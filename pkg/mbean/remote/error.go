package remote

import (
	"fmt"
	"net/http"

	"github.com/toyz/mbean/internal/errors"
)

// HttpError is the error body of a failed management request
type HttpError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Code       string `json:"code,omitempty"`
	Kind       string `json:"kind,omitempty"`
	Details    any    `json:"details,omitempty"`
}

// Error implements the error interface
func (e *HttpError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// NewHttpError creates a new HttpError with the given status code and message
func NewHttpError(statusCode int, message string) *HttpError {
	return &HttpError{
		StatusCode: statusCode,
		Message:    message,
	}
}

// ErrBadRequest creates a 400 Bad Request error
func ErrBadRequest(message string) *HttpError {
	return NewHttpError(http.StatusBadRequest, message)
}

// ErrNotFound creates a 404 Not Found error
func ErrNotFound(message string) *HttpError {
	return NewHttpError(http.StatusNotFound, message)
}

// StatusFor returns the HTTP status a bean error is reported with
func StatusFor(code errors.ErrorCode) int {
	switch code {
	case errors.UnknownAttributeCode, errors.OperationNotFoundCode, errors.BeanNotFoundCode:
		return http.StatusNotFound
	case errors.NotReadableCode, errors.NotWritableCode:
		return http.StatusBadRequest
	case errors.NotRegisteredCode, errors.AlreadyRegisteredCode:
		return http.StatusConflict
	case errors.InvalidNameCode:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// FromError converts err into an HttpError. Bean errors keep their code and
// kind so clients can rebuild them.
func FromError(err error) *HttpError {
	if he, ok := err.(*HttpError); ok {
		return he
	}
	code := errors.CodeOf(err)
	he := NewHttpError(StatusFor(code), err.Error())
	if code != errors.UnknownErrorCode {
		he.Code = code.String()
		he.Kind = code.Kind().String()
		var be errors.BeanError
		if errors.As(err, &be) && len(be.Context()) > 0 {
			he.Details = be.Context()
		}
	}
	return he
}

// Err rebuilds the bean error carried by e, so errors.Is works on the client
// side the way it does in process. Errors without a known code come back as
// transport errors.
func (e *HttpError) Err() error {
	code := errors.ParseErrorCode(e.Code)
	if code == errors.UnknownErrorCode {
		return errors.New(errors.TransportCode, e.Message).WithContext("status", e.StatusCode)
	}
	return errors.New(code, e.Message).WithContext("status", e.StatusCode)
}
