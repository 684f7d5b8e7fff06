package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const informationSheet = `
metadata:
  prefix: power
  namespace: https://example.org/power/
  version: "1"
  completeness: complete
classes:
  - class: EnergyArea
  - class: GeneratingUnit
    description: A unit that generates power
    parents: [EnergyArea]
    reference: base:GeneratingUnit
properties:
  - class: EnergyArea
    property: name
    value_type: text
    min_count: 1
    max_count: 1
  - class: GeneratingUnit
    property: units
    value_type: GeneratingUnit
    min_count: 0
    max_count: many
  - class: GeneratingUnit
    property: ratings
    value_type: float64
    min_count: 0
    max_count: 3
`

func TestParseInformationRules(t *testing.T) {
	info, err := ParseInformationRules([]byte(informationSheet))
	require.NoError(t, err)

	assert.Equal(t, "power", info.Metadata.Prefix)
	assert.Equal(t, CompletenessComplete, info.Metadata.Completeness)
	require.Len(t, info.Classes, 2)
	require.Len(t, info.Properties, 3)

	gu := info.Classes[1]
	assert.Equal(t, "GeneratingUnit", gu.Class.Suffix)
	assert.Equal(t, "power", gu.Class.Prefix, "default prefix applied")
	require.Len(t, gu.Parents, 1)
	assert.Equal(t, "EnergyArea", gu.Parents[0].Suffix)
	assert.Equal(t, "base", gu.Reference.Prefix)
	assert.Equal(t, 3, gu.Row, "rows start at 2 for the header")

	units := info.Properties[1]
	assert.Equal(t, KindClass, units.ValueType.Kind)
	assert.Equal(t, Unbounded, units.MaxCount)
	assert.True(t, units.IsList())

	ratings := info.Properties[2]
	assert.EqualValues(t, 3, ratings.MaxCount)
	assert.True(t, ratings.IsList())
}

func TestInformationRulesMarshalRoundtrip(t *testing.T) {
	info, err := ParseInformationRules([]byte(informationSheet))
	require.NoError(t, err)

	data, err := MarshalInformationRules(info)
	require.NoError(t, err)

	again, err := ParseInformationRules(data)
	require.NoError(t, err)

	assert.Equal(t, info.Metadata, again.Metadata)
	assert.Equal(t, info.Classes, again.Classes)
	assert.Equal(t, info.Properties, again.Properties)
}

const dmsSheet = `
metadata:
  space: sp_power
  external_id: PowerModel
  version: "1"
  completeness: complete
views:
  - view: EnergyArea
  - view: GeneratingUnit
    implements: [EnergyArea]
    filter: hasData
containers:
  - container: EnergyArea
  - container: GeneratingUnit
    constraint: [EnergyArea]
properties:
  - view: EnergyArea
    view_property: name
    value_type: text
    nullable: false
    container: EnergyArea
    index: [name]
  - view: GeneratingUnit
    view_property: area
    relation: direct
    value_type: EnergyArea
    container: GeneratingUnit
  - view: GeneratingUnit
    view_property: lines
    relation: multiedge
    value_type: EnergyArea
`

func TestParseDMSRules(t *testing.T) {
	dms, err := ParseDMSRules([]byte(dmsSheet))
	require.NoError(t, err)

	assert.Equal(t, "sp_power", dms.Metadata.Space)
	require.Len(t, dms.Views, 2)
	require.Len(t, dms.Containers, 2)
	require.Len(t, dms.Properties, 3)

	gu := dms.Views[1]
	assert.Equal(t, ViewEntity{Space: "sp_power", ExternalID: "GeneratingUnit", Version: "1"}, gu.View)
	assert.False(t, gu.InModel, "in_model is an explicit opt-in")
	require.Len(t, gu.Implements, 1)
	assert.Equal(t, "EnergyArea", gu.Implements[0].ExternalID)

	require.Len(t, dms.Containers[1].Constraints, 1)
	assert.Equal(t, "EnergyArea", dms.Containers[1].Constraints[0].ExternalID)

	name := dms.Properties[0]
	assert.Equal(t, KindPrimitive, name.ValueType.Kind)
	require.NotNil(t, name.Nullable)
	assert.False(t, *name.Nullable)
	assert.Equal(t, "name", name.ContainerProperty, "defaults to the view property name")
	assert.Equal(t, []string{"name"}, name.Index)

	area := dms.Properties[1]
	assert.Equal(t, RelationDirect, area.Relation)
	assert.Equal(t, KindView, area.ValueType.Kind)

	lines := dms.Properties[2]
	assert.Equal(t, RelationMultiEdge, lines.Relation)
	assert.False(t, lines.HasContainer())
}

func TestDMSRulesMarshalRoundtrip(t *testing.T) {
	dms, err := ParseDMSRules([]byte(dmsSheet))
	require.NoError(t, err)

	data, err := MarshalDMSRules(dms)
	require.NoError(t, err)

	again, err := ParseDMSRules(data)
	require.NoError(t, err)

	assert.Equal(t, dms.Metadata, again.Metadata)
	assert.Equal(t, dms.Views, again.Views)
	assert.Equal(t, dms.Containers, again.Containers)
	assert.Equal(t, dms.Properties, again.Properties)
}

func TestParseDMSRulesInModelMark(t *testing.T) {
	dms, err := ParseDMSRules([]byte(`
metadata:
  space: sp
  external_id: M
  version: "1"
views:
  - view: Base
    in_model: true
  - view: Child
    implements: [Base]
`))
	require.NoError(t, err)
	require.Len(t, dms.Views, 2)
	assert.True(t, dms.Views[0].InModel)
	assert.False(t, dms.Views[1].InModel)

	data, err := MarshalDMSRules(dms)
	require.NoError(t, err)
	again, err := ParseDMSRules(data)
	require.NoError(t, err)
	assert.True(t, again.Views[0].InModel, "the mark survives a marshal round trip")
	assert.False(t, again.Views[1].InModel)
}

func TestParseDMSRulesReportsRow(t *testing.T) {
	bad := `
metadata:
  space: sp
  external_id: M
  version: "1"
properties:
  - view: A
    view_property: x
    value_type: nosuchtype
`
	_, err := ParseDMSRules([]byte(bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}
