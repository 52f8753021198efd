// Package mbean exposes annotated Go structs as dynamic management beans.
//
// A struct opts in through `mbean` struct tags on its fields and blank
// marker fields naming its methods:
//
//	type Cache struct {
//		hits  atomic.Int64 `mbean:"name=hits,description='requests served'"`
//		Limit int          `mbean:"writable"`
//
//		_ mbean.Operation `mbean:"method=Flush"`
//	}
//
// Expose builds a Bean from such a value; Register publishes it on a Server
// where it can be read, written and invoked by name.
package mbean

import (
	"github.com/toyz/mbean/internal/models"
	"github.com/toyz/mbean/internal/scanner"
)

// Marker field types
type (
	Getter    = models.GetterMarker
	Setter    = models.SetterMarker
	Operation = models.OperationMarker
	Attribute = models.AttributeMarker
)

// Descriptor types returned by Info
type (
	BeanInfo      = models.BeanInfo
	AttributeInfo = models.AttributeInfo
	OperationInfo = models.OperationInfo
	ParameterInfo = models.ParameterInfo
)

// Composite values returned for map-backed properties
type (
	CompositeData = models.CompositeData
	CompositeItem = models.CompositeItem
	LeafType      = models.LeafType
)

const (
	LeafString  = models.LeafString
	LeafInteger = models.LeafInteger
	LeafLong    = models.LeafLong
	LeafShort   = models.LeafShort
	LeafByte    = models.LeafByte
	LeafBoolean = models.LeafBoolean
	LeafDouble  = models.LeafDouble
	LeafFloat   = models.LeafFloat
	LeafDate    = models.LeafDate
)

// NewCompositeData builds a composite value from items
func NewCompositeData(typeName string, items []CompositeItem) (*CompositeData, error) {
	return models.NewCompositeData(typeName, items)
}

// ParseLeafType converts a wire name into a LeafType
func ParseLeafType(s string) (LeafType, error) {
	return models.ParseLeafType(s)
}

// Metadata sources. A MetadataProvider replaces struct tag scanning, for
// example with a TableProvider seeded by hand.
type (
	MetadataProvider = scanner.MetadataProvider
	TableProvider    = scanner.TableProvider
	TypeMembers      = models.TypeMembers
	FieldMember      = models.FieldMember
	MethodMember     = models.MethodMember
	PropertyTag      = models.PropertyTag
	Hierarchy        = models.Hierarchy
)

// Member kinds used in MethodMember.Kind
const (
	GetterKind         = models.GetterKind
	SetterKind         = models.SetterKind
	PropertyMethodKind = models.PropertyMethodKind
	OperationKind      = models.OperationKind
)

// NewTableProvider creates an empty metadata table
func NewTableProvider() *TableProvider {
	return scanner.NewTableProvider()
}

// NewHierarchy creates an empty embedding hierarchy for TypeMembers
func NewHierarchy() *Hierarchy {
	return models.NewHierarchy()
}

// AttributeValue pairs an attribute name with a value in bulk calls
type AttributeValue struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
}

// DefaultDescription is the description of beans exposed without one
const DefaultDescription = models.DefaultDescription
