package mbean

import "github.com/toyz/mbean/internal/errors"

// Error is implemented by every error this package returns
type Error = errors.BeanError

// ErrorKind groups errors by the phase that produced them
type ErrorKind = errors.Kind

const (
	KindConstruction = errors.ConstructionKind
	KindLookup       = errors.LookupKind
	KindInvocation   = errors.InvocationKind
	KindProjection   = errors.ProjectionKind
	KindRegistration = errors.RegistrationKind
	KindRuntime      = errors.RuntimeKind
)

// Sentinels for errors.Is. Matching is by error code, so any error of the
// same code matches regardless of message or context.
var (
	ErrDuplicateProperty    error = errors.New(errors.DuplicatePropertyCode, "duplicate property")
	ErrOrphanedAccessor     error = errors.New(errors.OrphanedAccessorCode, "orphaned accessor")
	ErrInaccessibleProperty error = errors.New(errors.InaccessiblePropertyCode, "inaccessible property")
	ErrUnsupportedType      error = errors.New(errors.UnsupportedTypeCode, "unsupported type")
	ErrMetadataAccess       error = errors.New(errors.MetadataAccessCode, "metadata access")
	ErrInvalidTarget        error = errors.New(errors.InvalidTargetCode, "invalid target")
	ErrMarkerSyntax         error = errors.New(errors.MarkerSyntaxCode, "marker syntax")
	ErrMarkerValidation     error = errors.New(errors.MarkerValidationCode, "marker validation")

	ErrUnknownAttribute  error = errors.New(errors.UnknownAttributeCode, "unknown attribute")
	ErrNotReadable       error = errors.New(errors.NotReadableCode, "attribute not readable")
	ErrNotWritable       error = errors.New(errors.NotWritableCode, "attribute not writable")
	ErrOperationNotFound error = errors.New(errors.OperationNotFoundCode, "operation not found")
	ErrNotRegistered     error = errors.New(errors.NotRegisteredCode, "bean not registered")

	ErrInvocation error = errors.New(errors.InvocationCode, "invocation failed")
	ErrProjection error = errors.New(errors.ProjectionCode, "projection failed")

	ErrInvalidName       error = errors.New(errors.InvalidNameCode, "invalid object name")
	ErrAlreadyRegistered error = errors.New(errors.AlreadyRegisteredCode, "already registered")
	ErrBeanNotFound      error = errors.New(errors.BeanNotFoundCode, "bean not found")
)

// KindOf returns the kind of err, or false when err did not come from this package
func KindOf(err error) (ErrorKind, bool) {
	code := errors.CodeOf(err)
	if code == errors.UnknownErrorCode {
		return 0, false
	}
	return code.Kind(), true
}
