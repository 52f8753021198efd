package models

import (
	"fmt"
	"sort"
	"time"
)

// LeafType tags the scalar kind of one composite field
type LeafType int

const (
	LeafString LeafType = iota
	LeafInteger
	LeafLong
	LeafShort
	LeafByte
	LeafBoolean
	LeafDouble
	LeafFloat
	LeafDate
)

var leafNames = map[LeafType]string{
	LeafString:  "string",
	LeafInteger: "integer",
	LeafLong:    "long",
	LeafShort:   "short",
	LeafByte:    "byte",
	LeafBoolean: "boolean",
	LeafDouble:  "double",
	LeafFloat:   "float",
	LeafDate:    "date",
}

// String returns the wire name of the leaf type
func (l LeafType) String() string {
	if name, ok := leafNames[l]; ok {
		return name
	}
	return "string"
}

// ParseLeafType converts a wire name into a LeafType
func ParseLeafType(s string) (LeafType, error) {
	for l, name := range leafNames {
		if name == s {
			return l, nil
		}
	}
	return LeafString, fmt.Errorf("unknown leaf type: %s", s)
}

// CompositeItem is one named, typed field of a composite value
type CompositeItem struct {
	Name  string
	Type  LeafType
	Value interface{}
}

// CompositeData is a flat, self-describing record of scalar leaves
type CompositeData struct {
	TypeName string
	items    []CompositeItem
	index    map[string]int
}

// NewCompositeData builds a composite from items, sorted by name. Two items
// with the same name are rejected.
func NewCompositeData(typeName string, items []CompositeItem) (*CompositeData, error) {
	cd := &CompositeData{
		TypeName: typeName,
		items:    make([]CompositeItem, 0, len(items)),
		index:    make(map[string]int, len(items)),
	}
	sorted := append([]CompositeItem(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	for _, item := range sorted {
		if _, dup := cd.index[item.Name]; dup {
			return nil, fmt.Errorf("duplicate composite field %q", item.Name)
		}
		cd.index[item.Name] = len(cd.items)
		cd.items = append(cd.items, item)
	}
	return cd, nil
}

// Get returns the value of the named field
func (c *CompositeData) Get(name string) (interface{}, bool) {
	item, ok := c.Item(name)
	return item.Value, ok
}

// Item returns the named field with its leaf type
func (c *CompositeData) Item(name string) (CompositeItem, bool) {
	i, ok := c.index[name]
	if !ok {
		return CompositeItem{}, false
	}
	return c.items[i], true
}

// Items returns every field in name order
func (c *CompositeData) Items() []CompositeItem {
	return append([]CompositeItem(nil), c.items...)
}

// Keys returns the field names in order
func (c *CompositeData) Keys() []string {
	keys := make([]string, len(c.items))
	for i, item := range c.items {
		keys[i] = item.Name
	}
	return keys
}

// Len returns the number of fields
func (c *CompositeData) Len() int {
	return len(c.items)
}

// Map flattens the composite into a plain map
func (c *CompositeData) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(c.items))
	for _, item := range c.items {
		m[item.Name] = item.Value
	}
	return m
}

// DateLayout is the textual form of date leaves
const DateLayout = time.RFC3339Nano
