package scanner

import (
	"reflect"

	"github.com/toyz/mbean/internal/errors"
	"github.com/toyz/mbean/internal/models"
	"github.com/toyz/mbean/internal/utils"
)

// TableProvider serves members from an explicit table instead of struct
// tags. Entries are seeded per type; bound values inside them are used as is.
type TableProvider struct {
	entries *utils.BaseRegistry[reflect.Type, *models.TypeMembers]
}

// NewTableProvider creates an empty table
func NewTableProvider() *TableProvider {
	entries := utils.NewBaseRegistry[reflect.Type, *models.TypeMembers]("metadata table", "type")
	entries.SetValidator(utils.NoDuplicateValidator[reflect.Type, *models.TypeMembers]("type"))
	return &TableProvider{entries: entries}
}

// Seed registers the members reported for values of type t
func (p *TableProvider) Seed(t reflect.Type, members *models.TypeMembers) error {
	if members.Hierarchy == nil {
		members.Hierarchy = models.NewHierarchy()
	}
	members.Type = t
	return p.entries.Register(t, members)
}

// Members returns the seeded members for target's struct type
func (p *TableProvider) Members(target reflect.Value) (*models.TypeMembers, error) {
	if err := CheckTarget(target); err != nil {
		return nil, err
	}
	t := target.Elem().Type()
	members, err := p.entries.GetOrError(t)
	if err != nil {
		return nil, errors.MetadataAccess(typeName(t), err)
	}
	return members, nil
}
