package errors

import "fmt"

// Constructors for the errors raised while compiling and dispatching beans.
// Each one sets the code, the subject and a short message so callers can
// either match with errors.Is or print the error as is.

// DuplicateProperty reports two members resolving to the same property name
func DuplicateProperty(source, name string) *BaseError {
	return Newf(DuplicatePropertyCode, "duplicate %s name %q", source, name).
		WithContext("source", source).
		WithContext("property", name)
}

// OrphanedAccessor reports a getter or setter with no matching property
func OrphanedAccessor(accessor, name string) *BaseError {
	return Newf(OrphanedAccessorCode, "%s %q has no matching property", accessor, name).
		WithContext("accessor", accessor).
		WithContext("property", name).
		WithSuggestion("check the spelling of the marker name or add a property field for it")
}

// InaccessibleProperty reports a property that is neither readable nor writable
func InaccessibleProperty(name string) *BaseError {
	return Newf(InaccessiblePropertyCode, "property %q is neither readable nor writable", name).
		WithContext("property", name)
}

// UnsupportedType reports a value type no accessor can parse into
func UnsupportedType(typeName string) *BaseError {
	return Newf(UnsupportedTypeCode, "unsupported type %s", typeName).
		WithContext("type", typeName)
}

// MetadataAccess wraps a failure while introspecting a target type
func MetadataAccess(typeName string, cause error) *BaseError {
	return Wrapf(MetadataAccessCode, cause, "cannot read metadata of %s", typeName).
		WithContext("type", typeName)
}

// InvalidTarget reports an exposed value that is not a non-nil struct pointer
func InvalidTarget(got interface{}) *BaseError {
	return Newf(InvalidTargetCode, "expected a non-nil pointer to a struct, got %T", got)
}

// UnknownAttribute reports a lookup of a name the bean does not expose
func UnknownAttribute(bean, name string) *BaseError {
	return Newf(UnknownAttributeCode, "unknown attribute %q", name).
		WithContext("bean", bean).
		WithContext("attribute", name)
}

// NotReadable reports a read of a write-only attribute
func NotReadable(bean, name string) *BaseError {
	return Newf(NotReadableCode, "attribute %q is not readable", name).
		WithContext("bean", bean).
		WithContext("attribute", name)
}

// NotWritable reports a write of a read-only attribute
func NotWritable(bean, name string) *BaseError {
	return Newf(NotWritableCode, "attribute %q is not writable", name).
		WithContext("bean", bean).
		WithContext("attribute", name)
}

// OperationNotFound reports a (name, signature) pair with no operation
func OperationNotFound(bean, name, signature string) *BaseError {
	return Newf(OperationNotFoundCode, "operation %s(%s) not found", name, signature).
		WithContext("bean", bean).
		WithContext("operation", name).
		WithContext("signature", signature)
}

// NotRegistered reports dispatch against a bean outside its registered lifetime
func NotRegistered(bean, state string) *BaseError {
	return Newf(NotRegisteredCode, "bean %q is %s", bean, state).
		WithContext("bean", bean).
		WithContext("state", state)
}

// Invocation wraps a failure raised while running user code or parsing input
func Invocation(member string, cause error) *BaseError {
	return Wrapf(InvocationCode, cause, "invoking %s", member).
		WithContext("member", member)
}

// Projection wraps a failure while converting a map into a composite value
func Projection(property string, cause error) *BaseError {
	return Wrapf(ProjectionCode, cause, "projecting %s", property).
		WithContext("property", property)
}

// InvalidName reports a malformed object name
func InvalidName(name string, cause error) *BaseError {
	return Wrapf(InvalidNameCode, cause, "invalid object name %q", name).
		WithContext("name", name)
}

// AlreadyRegistered reports a second bean published under one name
func AlreadyRegistered(name string) *BaseError {
	return Newf(AlreadyRegisteredCode, "bean %q is already registered", name).
		WithContext("name", name)
}

// BeanNotFound reports a lookup of a name nothing is registered under
func BeanNotFound(name string) *BaseError {
	return Newf(BeanNotFoundCode, "bean %q not found", name).
		WithContext("name", name)
}

// WrapConfigurationError wraps configuration-related errors
func WrapConfigurationError(operation string, cause error) *BaseError {
	message := fmt.Sprintf("failed to %s configuration", operation)
	return Wrap(ConfigurationCode, message, cause).
		WithContext("operation", operation)
}

// WrapTransportError wraps a failure talking to a remote management endpoint
func WrapTransportError(endpoint string, cause error) *BaseError {
	return Wrapf(TransportCode, cause, "request to %s failed", endpoint).
		WithContext("endpoint", endpoint)
}
