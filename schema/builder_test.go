package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semforge/issues"
	"github.com/c360studio/semforge/rules"
)

func mustParse(t *testing.T, sheet string) *rules.DMSRules {
	t.Helper()
	dms, err := rules.ParseDMSRules([]byte(sheet))
	require.NoError(t, err)
	return dms
}

func hasIssue(found issues.List, code string) bool {
	for _, iss := range found.All() {
		if iss.Code == code {
			return true
		}
	}
	return false
}

func TestBuildBasicViewAndContainer(t *testing.T) {
	dms := mustParse(t, `
metadata:
  space: sp_power
  external_id: PowerModel
  version: "1"
views:
  - view: Asset
  - view: Pump
    implements: [Asset]
containers:
  - container: Asset
  - container: Pump
properties:
  - view: Asset
    view_property: name
    value_type: text
    nullable: false
    container: Asset
  - view: Pump
    view_property: capacity
    value_type: float64
    container: Pump
`)

	s, found := Build(dms)
	assert.False(t, found.HasErrors())

	require.Len(t, s.Containers, 2)
	asset, ok := s.ContainerByEntity(rules.ContainerEntity{Space: "sp_power", ExternalID: "Asset"})
	require.True(t, ok)
	name := asset.Properties["name"]
	assert.Equal(t, StoragePrimitive, name.Type.Kind)
	assert.Equal(t, rules.Text, name.Type.Data)
	assert.False(t, name.Nullable)

	pumpView, ok := s.ViewByEntity(rules.ViewEntity{Space: "sp_power", ExternalID: "Pump", Version: "1"})
	require.True(t, ok)
	prop, ok := pumpView.Property("capacity")
	require.True(t, ok)
	mapped, isMapped := prop.(MappedProperty)
	require.True(t, isMapped)
	assert.Equal(t, "capacity", mapped.ContainerProperty)

	// Pump maps its own container, so the default filter is hasData.
	_, isHasData := pumpView.Filter.(HasDataFilter)
	assert.True(t, isHasData)

	// One shared space: only that space is declared.
	require.Len(t, s.Spaces, 1)
	assert.Equal(t, "sp_power", s.Spaces[0].Space)

	// Asset has own properties, so it stays in the data model even as a parent.
	assert.Len(t, s.DataModel.Views, 2)
}

func TestBuildListDirectCompilesToEdge(t *testing.T) {
	dms := mustParse(t, `
metadata:
  space: sp
  external_id: M
  version: "1"
views:
  - view: Substation
  - view: Line
containers:
  - container: Substation
  - container: Line
properties:
  - view: Substation
    view_property: name
    value_type: text
    container: Substation
  - view: Substation
    view_property: lines
    relation: direct
    is_list: true
    value_type: Line
    container: Substation
  - view: Line
    view_property: voltage
    value_type: float64
    container: Line
  - view: Line
    view_property: substation
    relation: reversedirect
    value_type: sp:Substation(version=1).lines
`)

	s, found := Build(dms)
	assert.False(t, found.HasErrors())
	assert.True(t, hasIssue(found, issues.CodeListDirectAsEdge))

	sub, ok := s.ViewByEntity(rules.ViewEntity{Space: "sp", ExternalID: "Substation", Version: "1"})
	require.True(t, ok)
	prop, ok := sub.Property("lines")
	require.True(t, ok)
	edge, isEdge := prop.(MultiEdgeConnection)
	require.True(t, isEdge, "list direct relation compiles to a multi-edge connection")
	assert.Equal(t, DirectionOutwards, edge.Direction)
	assert.Equal(t, "Substation.lines", edge.Type.ExternalID)

	// The list direct relation stores nothing in the container.
	subContainer, ok := s.ContainerByEntity(rules.ContainerEntity{Space: "sp", ExternalID: "Substation"})
	require.True(t, ok)
	_, stored := subContainer.Properties["lines"]
	assert.False(t, stored)

	// The reverse of a list direct relation is the same edge inwards.
	line, ok := s.ViewByEntity(rules.ViewEntity{Space: "sp", ExternalID: "Line", Version: "1"})
	require.True(t, ok)
	rev, ok := line.Property("substation")
	require.True(t, ok)
	inward, isEdge := rev.(MultiEdgeConnection)
	require.True(t, isEdge)
	assert.Equal(t, DirectionInwards, inward.Direction)
	assert.Equal(t, "Substation.lines", inward.Type.ExternalID)
}

func TestBuildReverseDirectOfSingleDirect(t *testing.T) {
	dms := mustParse(t, `
metadata:
  space: sp
  external_id: M
  version: "1"
views:
  - view: Area
  - view: Unit
containers:
  - container: Area
  - container: Unit
properties:
  - view: Area
    view_property: name
    value_type: text
    container: Area
  - view: Unit
    view_property: area
    relation: direct
    value_type: Area
    container: Unit
  - view: Area
    view_property: units
    relation: reversedirect
    value_type: sp:Unit(version=1).area
`)

	s, found := Build(dms)
	assert.False(t, found.HasErrors())

	area, ok := s.ViewByEntity(rules.ViewEntity{Space: "sp", ExternalID: "Area", Version: "1"})
	require.True(t, ok)
	prop, ok := area.Property("units")
	require.True(t, ok)
	rev, isReverse := prop.(ReverseDirectRelation)
	require.True(t, isReverse)
	assert.Equal(t, "area", rev.Through.Property)
	assert.False(t, rev.IsList)

	// The single direct relation is stored inline.
	unit, ok := s.ContainerByEntity(rules.ContainerEntity{Space: "sp", ExternalID: "Unit"})
	require.True(t, ok)
	stored := unit.Properties["area"]
	assert.Equal(t, StorageDirect, stored.Type.Kind)
	assert.True(t, stored.Nullable)
}

func TestBuildMissingReverseTargetIsError(t *testing.T) {
	dms := mustParse(t, `
metadata:
  space: sp
  external_id: M
  version: "1"
views:
  - view: Area
containers:
  - container: Area
properties:
  - view: Area
    view_property: name
    value_type: text
    container: Area
  - view: Area
    view_property: units
    relation: reversedirect
    value_type: sp:Unit(version=1).area
`)

	_, found := Build(dms)
	assert.True(t, found.HasErrors())
	assert.True(t, hasIssue(found, issues.CodeMissingReverseTarget))
}

func TestBuildEmptyContainerDroppedAndRequiresStripped(t *testing.T) {
	dms := mustParse(t, `
metadata:
  space: sp
  external_id: M
  version: "1"
views:
  - view: A
  - view: B
containers:
  - container: A
    constraint: [B]
  - container: B
properties:
  - view: A
    view_property: name
    value_type: text
    container: A
  - view: B
    view_property: rel
    relation: multiedge
    value_type: A
`)

	s, found := Build(dms)
	assert.False(t, found.HasErrors())
	assert.True(t, hasIssue(found, issues.CodeEmptyContainer))

	// B contributed only an edge, so it compiles empty and is dropped.
	_, ok := s.ContainerByEntity(rules.ContainerEntity{Space: "sp", ExternalID: "B"})
	assert.False(t, ok)

	// A's requires-constraint on the dropped container is stripped.
	a, ok := s.ContainerByEntity(rules.ContainerEntity{Space: "sp", ExternalID: "A"})
	require.True(t, ok)
	for _, c := range a.Constraints {
		assert.NotEqual(t, ConstraintRequires, c.Kind)
	}
}

func TestBuildFilterSelection(t *testing.T) {
	dms := mustParse(t, `
metadata:
  space: sp
  external_id: M
  version: "1"
views:
  - view: Parent
    filter: nodeType
  - view: Child
    implements: [Parent]
  - view: EdgeOnly
    filter: hasData
containers:
  - container: Parent
  - container: Child
properties:
  - view: Parent
    view_property: name
    value_type: text
    container: Parent
  - view: Child
    view_property: size
    value_type: int64
    container: Child
  - view: EdgeOnly
    view_property: rel
    relation: multiedge
    value_type: Parent
`)

	s, found := Build(dms)
	assert.False(t, found.HasErrors())
	// Parent requested nodeType while being implemented: honored with a warning.
	assert.True(t, hasIssue(found, issues.CodeFilterOverridden))

	parent, ok := s.ViewByEntity(rules.ViewEntity{Space: "sp", ExternalID: "Parent", Version: "1"})
	require.True(t, ok)
	_, isNodeType := parent.Filter.(NodeTypeFilter)
	assert.True(t, isNodeType)

	// EdgeOnly maps no containers; its hasData request is overridden.
	edgeOnly, ok := s.ViewByEntity(rules.ViewEntity{Space: "sp", ExternalID: "EdgeOnly", Version: "1"})
	require.True(t, ok)
	nt, isNodeType := edgeOnly.Filter.(NodeTypeFilter)
	require.True(t, isNodeType)
	assert.Equal(t, "EdgeOnly", nt.Node.ExternalID)

	// Node types registered for both node-type filtered views.
	assert.Len(t, s.NodeTypes, 2)
}

func TestBuildParentOnlyViewExcludedFromDataModel(t *testing.T) {
	dms := mustParse(t, `
metadata:
  space: sp
  external_id: M
  version: "1"
views:
  - view: Marker
  - view: Child
    implements: [Marker]
containers:
  - container: Child
properties:
  - view: Child
    view_property: name
    value_type: text
    container: Child
`)

	s, found := Build(dms)
	assert.False(t, found.HasErrors())
	require.NotNil(t, s.DataModel)
	require.Len(t, s.DataModel.Views, 1)
	assert.Equal(t, "Child", s.DataModel.Views[0].ExternalID)

	// A parent with no stored properties is filtered by node type and
	// gets a placeholder registered.
	marker, ok := s.ViewByEntity(rules.ViewEntity{Space: "sp", ExternalID: "Marker", Version: "1"})
	require.True(t, ok)
	nt, isNodeType := marker.Filter.(NodeTypeFilter)
	require.True(t, isNodeType)
	assert.Equal(t, "Marker", nt.Node.ExternalID)
	require.Len(t, s.NodeTypes, 1)
	assert.Equal(t, "Marker", s.NodeTypes[0].ExternalID)
}

func TestBuildParentOnlyViewInModelOptIn(t *testing.T) {
	dms := mustParse(t, `
metadata:
  space: sp
  external_id: M
  version: "1"
views:
  - view: Base
    in_model: true
  - view: Child
    implements: [Base]
containers:
  - container: Child
properties:
  - view: Child
    view_property: name
    value_type: text
    container: Child
`)

	s, found := Build(dms)
	assert.False(t, found.HasErrors())
	require.NotNil(t, s.DataModel)

	var names []string
	for _, v := range s.DataModel.Views {
		names = append(names, v.ExternalID)
	}
	assert.Contains(t, names, "Base", "a marked parent-only view stays registered")
	assert.Contains(t, names, "Child")
}

func TestBuildMultiSpaceDeclaresUnionWithMetadataSpace(t *testing.T) {
	dms := mustParse(t, `
metadata:
  space: sp_model
  external_id: M
  version: "1"
views:
  - view: other:A(version=1)
containers:
  - container: other:A
  - container: third:B
properties:
  - view: other:A(version=1)
    view_property: name
    value_type: text
    container: other:A
  - view: other:A(version=1)
    view_property: b
    value_type: text
    container: third:B
    container_property: b
`)

	s, found := Build(dms)
	assert.False(t, found.HasErrors())

	var names []string
	for _, sp := range s.Spaces {
		names = append(names, sp.Space)
	}
	assert.Equal(t, []string{"other", "sp_model", "third"}, names)
}

func TestBuildUniquenessAndIndexGrouping(t *testing.T) {
	dms := mustParse(t, `
metadata:
  space: sp
  external_id: M
  version: "1"
views:
  - view: A
containers:
  - container: A
properties:
  - view: A
    view_property: first
    value_type: text
    container: A
    constraint: [uniquePair]
    index: [byName]
  - view: A
    view_property: second
    value_type: text
    container: A
    constraint: [uniquePair]
`)

	s, found := Build(dms)
	assert.False(t, found.HasErrors())

	a, ok := s.ContainerByEntity(rules.ContainerEntity{Space: "sp", ExternalID: "A"})
	require.True(t, ok)

	pair, ok := a.Constraints["uniquePair"]
	require.True(t, ok)
	assert.Equal(t, ConstraintUniqueness, pair.Kind)
	assert.Equal(t, []string{"first", "second"}, pair.Properties)

	idx, ok := a.Indexes["byName"]
	require.True(t, ok)
	assert.Equal(t, IndexBTree, idx.Kind)
	assert.Equal(t, []string{"first"}, idx.Properties)
}

func TestBuildSingleClassTwoProperties(t *testing.T) {
	dms := mustParse(t, `
metadata:
  space: sp
  external_id: M
  version: "1"
views:
  - view: Pump
containers:
  - container: Pump
properties:
  - view: Pump
    view_property: name
    value_type: text
    container: Pump
  - view: Pump
    view_property: pressure
    value_type: float64
    container: Pump
`)

	s, found := Build(dms)
	assert.False(t, found.HasErrors())

	require.Len(t, s.Containers, 1)
	assert.Len(t, s.Containers[0].Properties, 2)

	require.Len(t, s.Views, 1)
	view := s.Views[0]
	require.Len(t, view.Properties, 2)
	for _, entry := range view.Properties {
		_, isMapped := entry.Property.(MappedProperty)
		assert.True(t, isMapped)
	}

	hd, isHasData := view.Filter.(HasDataFilter)
	require.True(t, isHasData)
	assert.Equal(t, []rules.ContainerEntity{s.Containers[0].Container}, hd.Containers)

	assert.Empty(t, s.NodeTypes, "no node-type filter, no placeholder")
}
