package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semforge/issues"
	"github.com/c360studio/semforge/rules"
)

func validSchema() *Schema {
	area := rules.ViewEntity{Space: "sp", ExternalID: "Area", Version: "1"}
	unit := rules.ViewEntity{Space: "sp", ExternalID: "Unit", Version: "1"}
	areaContainer := rules.ContainerEntity{Space: "sp", ExternalID: "Area"}

	return &Schema{
		Spaces: []Space{{Space: "sp"}},
		Containers: []Container{
			{
				Container: areaContainer,
				UsedFor:   rules.UsageNode,
				Properties: map[string]ContainerProperty{
					"name": {Type: ContainerPropertyType{Kind: StoragePrimitive, Data: rules.Text}, Nullable: true},
				},
				Constraints: map[string]Constraint{},
				Indexes:     map[string]Index{},
			},
		},
		Views: []View{
			{
				View:   area,
				Filter: HasDataFilter{Containers: []rules.ContainerEntity{areaContainer}},
				Properties: []ViewPropertyEntry{
					{Name: "name", Property: MappedProperty{Container: areaContainer, ContainerProperty: "name"}},
				},
				InModel: true,
				UsedFor: rules.UsageNode,
			},
			{
				View:       unit,
				Implements: []rules.ViewEntity{area},
				Filter:     NodeTypeFilter{Node: NodeType{Space: "sp", ExternalID: "Unit"}},
				Properties: []ViewPropertyEntry{
					{Name: "areas", Property: MultiEdgeConnection{
						Type:      EdgeType{Space: "sp", ExternalID: "Unit.areas"},
						Source:    area,
						Direction: DirectionOutwards,
					}},
				},
				InModel: true,
				UsedFor: rules.UsageNode,
			},
		},
		DataModel: &DataModel{Space: "sp", ExternalID: "M", Version: "1", Views: []rules.ViewEntity{area, unit}},
	}
}

func TestValidateOK(t *testing.T) {
	found := validSchema().Validate()
	assert.False(t, found.HasErrors(), "expected valid schema: %v", found.All())
}

func TestValidateMissingParent(t *testing.T) {
	s := validSchema()
	s.Views[1].Implements = append(s.Views[1].Implements, rules.ViewEntity{Space: "sp", ExternalID: "Ghost", Version: "1"})

	found := s.Validate()
	require.True(t, found.HasErrors())
	assert.Equal(t, issues.CodeMissingParentView, found.Errors()[0].Code)
}

func TestValidateMissingContainerAndProperty(t *testing.T) {
	s := validSchema()
	ghost := rules.ContainerEntity{Space: "sp", ExternalID: "Ghost"}
	s.Views[0].Properties = append(s.Views[0].Properties,
		ViewPropertyEntry{Name: "a", Property: MappedProperty{Container: ghost, ContainerProperty: "x"}},
		ViewPropertyEntry{Name: "b", Property: MappedProperty{Container: s.Containers[0].Container, ContainerProperty: "missing"}},
	)

	found := s.Validate()
	require.Len(t, found.Errors(), 2)
	codes := []string{found.Errors()[0].Code, found.Errors()[1].Code}
	assert.Contains(t, codes, issues.CodeMissingContainer)
	assert.Contains(t, codes, issues.CodeMissingContainerProperty)
}

func TestValidateDuplicateMapping(t *testing.T) {
	s := validSchema()
	dup := s.Views[0].Properties[0]
	s.Views[0].Properties = append(s.Views[0].Properties, dup)

	found := s.Validate()
	require.True(t, found.HasErrors())
	assert.Equal(t, issues.CodeDuplicateMapping, found.Errors()[0].Code)
}

func TestValidateMissingEdgeSource(t *testing.T) {
	s := validSchema()
	edge := s.Views[1].Properties[0].Property.(MultiEdgeConnection)
	edge.Source = rules.ViewEntity{Space: "sp", ExternalID: "Ghost", Version: "1"}
	s.Views[1].Properties[0].Property = edge

	found := s.Validate()
	require.True(t, found.HasErrors())
	assert.Equal(t, issues.CodeMissingEdgeSourceView, found.Errors()[0].Code)
}

func TestValidateMissingSpace(t *testing.T) {
	s := validSchema()
	s.Spaces = nil

	found := s.Validate()
	assert.True(t, found.HasErrors())
}

func TestValidateDataModelViewExists(t *testing.T) {
	s := validSchema()
	s.DataModel.Views = append(s.DataModel.Views, rules.ViewEntity{Space: "sp", ExternalID: "Ghost", Version: "1"})

	found := s.Validate()
	require.True(t, found.HasErrors())
	assert.Equal(t, issues.CodeMissingView, found.Errors()[0].Code)
}
