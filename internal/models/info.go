package models

import "strconv"

// DefaultDescription is used for beans exposed without a description
const DefaultDescription = "Default description"

// AttributeInfo describes one property to management clients
type AttributeInfo struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Readable    bool   `json:"readable"`
	Writable    bool   `json:"writable"`
	IsIs        bool   `json:"is,omitempty"`
}

// ParameterInfo describes one operation parameter
type ParameterInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// OperationInfo describes one operation overload
type OperationInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	ReturnType  string          `json:"returnType"`
	Parameters  []ParameterInfo `json:"parameters"`
}

// Signature returns the parameter types of the operation
func (o OperationInfo) Signature() []string {
	sig := make([]string, len(o.Parameters))
	for i, p := range o.Parameters {
		sig[i] = p.Type
	}
	return sig
}

// BeanInfo is the immutable descriptor of an exposed bean
type BeanInfo struct {
	Name        string          `json:"name"`
	ClassName   string          `json:"className"`
	Description string          `json:"description"`
	Attributes  []AttributeInfo `json:"attributes"`
	Operations  []OperationInfo `json:"operations"`
}

// Attribute returns the named attribute descriptor
func (b *BeanInfo) Attribute(name string) (AttributeInfo, bool) {
	for _, a := range b.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return AttributeInfo{}, false
}

// InfoBuilder provides a fluent interface for assembling a BeanInfo
type InfoBuilder struct {
	info BeanInfo
}

// NewInfoBuilder creates a builder for the named bean
func NewInfoBuilder(name, className string) *InfoBuilder {
	return &InfoBuilder{info: BeanInfo{
		Name:        name,
		ClassName:   className,
		Description: DefaultDescription,
		Attributes:  make([]AttributeInfo, 0),
		Operations:  make([]OperationInfo, 0),
	}}
}

// WithDescription sets the bean description; empty keeps the default
func (b *InfoBuilder) WithDescription(description string) *InfoBuilder {
	if description != "" {
		b.info.Description = description
	}
	return b
}

// WithProperties adds an attribute descriptor per property
func (b *InfoBuilder) WithProperties(props ...*Property) *InfoBuilder {
	for _, p := range props {
		b.info.Attributes = append(b.info.Attributes, AttributeInfo{
			Name:        p.Name,
			Type:        p.Type,
			Description: p.Description,
			Readable:    p.Readable,
			Writable:    p.Writable,
			IsIs:        p.IsGetterStyle(),
		})
	}
	return b
}

// WithOperations adds an operation descriptor per operation
func (b *InfoBuilder) WithOperations(ops ...*Operation) *InfoBuilder {
	for _, op := range ops {
		params := make([]ParameterInfo, len(op.Signature))
		for i, t := range op.Signature {
			params[i] = ParameterInfo{Name: paramName(i), Type: t}
		}
		b.info.Operations = append(b.info.Operations, OperationInfo{
			Name:        op.Name,
			Description: op.Description,
			ReturnType:  op.ReturnType,
			Parameters:  params,
		})
	}
	return b
}

// Build returns the assembled descriptor
func (b *InfoBuilder) Build() BeanInfo {
	info := b.info
	info.Attributes = append([]AttributeInfo(nil), b.info.Attributes...)
	info.Operations = append([]OperationInfo(nil), b.info.Operations...)
	return info
}

func paramName(i int) string {
	return "p" + strconv.Itoa(i+1)
}
