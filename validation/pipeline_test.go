package validation

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

func codesOf(found issues.List) []string {
	var codes []string
	for _, iss := range found.All() {
		codes = append(codes, iss.Code)
	}
	return codes
}

const completeSheet = `
metadata:
  space: sp
  external_id: M
  version: "1"
  completeness: complete
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
`

func TestPipelineAcceptsCompleteRules(t *testing.T) {
	found := Validate(mustParse(t, completeSheet))
	assert.False(t, found.HasErrors(), "unexpected errors: %v", found.All())
}

func TestConsistencyBroadcastsAgreeingGroup(t *testing.T) {
	r := mustParse(t, `
metadata:
  space: sp
  external_id: M
  version: "1"
views:
  - view: A
  - view: B
containers:
  - container: Shared
properties:
  - view: A
    view_property: tag
    value_type: text
    nullable: false
    container: Shared
    container_property: tag
  - view: B
    view_property: tag
    value_type: text
    container: Shared
    container_property: tag
`)

	var out issues.List
	ConsistentContainerProperties{}.Run(r, &out)
	assert.False(t, out.HasErrors())

	// The explicit definition on the first row is broadcast to the
	// second, so both storage slots compile identically.
	second := r.Properties[1]
	require.NotNil(t, second.Nullable)
	assert.False(t, *second.Nullable)
	assert.Equal(t, r.Properties[0].ValueType, second.ValueType)
}

func TestConsistencyReportsDisagreement(t *testing.T) {
	r := mustParse(t, `
metadata:
  space: sp
  external_id: M
  version: "1"
views:
  - view: A
  - view: B
containers:
  - container: Shared
properties:
  - view: A
    view_property: tag
    value_type: text
    container: Shared
    container_property: tag
  - view: B
    view_property: tag
    value_type: int64
    container: Shared
    container_property: tag
`)

	var out issues.List
	ConsistentContainerProperties{}.Run(r, &out)
	require.True(t, out.HasErrors())

	iss := out.Errors()[0]
	assert.Equal(t, issues.CodeInconsistentContainerProperty, iss.Code)
	assert.Equal(t, []int{2, 3}, iss.Rows, "all rows of the group are reported")
}

func TestConsistencyLeavesDisagreeingGroupUnchanged(t *testing.T) {
	r := mustParse(t, `
metadata:
  space: sp
  external_id: M
  version: "1"
views:
  - view: A
  - view: B
containers:
  - container: Shared
properties:
  - view: A
    view_property: tag
    value_type: text
    nullable: false
    container: Shared
    container_property: tag
  - view: B
    view_property: tag
    value_type: int64
    container: Shared
    container_property: tag
`)

	var out issues.List
	ConsistentContainerProperties{}.Run(r, &out)
	require.True(t, out.HasErrors())
	assert.Nil(t, r.Properties[1].Nullable, "no broadcast on disagreement")
	assert.Equal(t, rules.Int64, r.Properties[1].ValueType.Data)
}

func TestReferencesMissingView(t *testing.T) {
	r := mustParse(t, completeSheet)
	r.Properties[0].View = rules.ViewEntity{Space: "sp", ExternalID: "Ghost", Version: "1"}

	var out issues.List
	ReferencesExist{}.Run(r, &out)
	require.True(t, out.HasErrors())
	assert.Equal(t, issues.CodeMissingView, out.Errors()[0].Code)
	assert.Equal(t, []int{2}, out.Errors()[0].Rows)
}

func TestReferencesReverseDirectMustNotBindContainer(t *testing.T) {
	r := mustParse(t, `
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
  - view: Unit
    view_property: area
    relation: direct
    value_type: Area
    container: Unit
  - view: Area
    view_property: units
    relation: reversedirect
    value_type: sp:Unit(version=1).area
    container: Area
`)

	var out issues.List
	ReferencesExist{}.Run(r, &out)
	require.True(t, out.HasErrors())
	assert.Equal(t, issues.CodeMissingReverseTarget, out.Errors()[0].Code)
}

func TestReferencesCompleteRequiresDeclaredContainers(t *testing.T) {
	r := mustParse(t, completeSheet)
	r.Properties[0].Container = rules.ContainerEntity{Space: "sp", ExternalID: "Ghost"}
	r.Containers[0].Constraints = append(r.Containers[0].Constraints,
		rules.ContainerEntity{Space: "sp", ExternalID: "AlsoGhost"})

	var out issues.List
	ReferencesExist{}.Run(r, &out)
	require.Len(t, out.Errors(), 2)
	for _, iss := range out.Errors() {
		assert.Equal(t, issues.CodeMissingContainer, iss.Code)
	}
}

func TestReferencesPartialSkipsContainerChecks(t *testing.T) {
	r := mustParse(t, completeSheet)
	r.Metadata.Completeness = rules.CompletenessPartial
	r.Properties[0].Container = rules.ContainerEntity{Space: "sp", ExternalID: "Ghost"}

	var out issues.List
	ReferencesExist{}.Run(r, &out)
	assert.False(t, out.HasErrors())
}

func extendedFixture(t *testing.T) *rules.DMSRules {
	t.Helper()
	ref := mustParse(t, completeSheet)
	self := ref.Copy()
	self.Metadata.Completeness = rules.CompletenessExtended
	self.Reference = ref
	return self
}

func TestExtensionWithoutReferenceIsError(t *testing.T) {
	r := mustParse(t, completeSheet)
	r.Metadata.Completeness = rules.CompletenessExtended

	var out issues.List
	ExtensionCompat{}.Run(r, &out)
	require.True(t, out.HasErrors())
	assert.Equal(t, issues.CodeMissingReferenceRules, out.Errors()[0].Code)
}

func TestExtensionIdenticalToReferenceIsCompatible(t *testing.T) {
	r := extendedFixture(t)

	var out issues.List
	ExtensionCompat{}.Run(r, &out)
	assert.False(t, out.HasErrors(), "an unchanged extension is compatible: %v", out.All())
}

func TestExtensionAddedPropertyIsCompatible(t *testing.T) {
	r := extendedFixture(t)
	r.Properties = append(r.Properties, rules.DMSProperty{
		View:              rules.ViewEntity{Space: "sp", ExternalID: "Area", Version: "1"},
		ViewProperty:      "description",
		ValueType:         rules.DMSValueType{Kind: rules.KindPrimitive, Data: rules.Text},
		Container:         rules.ContainerEntity{Space: "sp", ExternalID: "Area"},
		ContainerProperty: "description",
	})

	var out issues.List
	ExtensionCompat{}.Run(r, &out)
	assert.False(t, out.HasErrors(), "pure additions never break the reference: %v", out.All())
}

func TestExtensionChangedContainerPropertyIsBreaking(t *testing.T) {
	r := extendedFixture(t)
	r.Properties[0].ValueType = rules.DMSValueType{Kind: rules.KindPrimitive, Data: rules.Int64}

	var out issues.List
	ExtensionCompat{}.Run(r, &out)
	require.True(t, out.HasErrors())
	assert.Equal(t, issues.CodeBreakingExtension, out.Errors()[0].Code)
	assert.Contains(t, out.Errors()[0].Message, "property name",
		"the changed property is named exactly")
}

func TestExtensionReshapeAllowsViewChangesOnly(t *testing.T) {
	r := extendedFixture(t)
	r.Metadata.Extension = rules.ExtensionReshape
	r.Views[1].Implements = []rules.ViewEntity{{Space: "sp", ExternalID: "Area", Version: "1"}}

	var out issues.List
	ExtensionCompat{}.Run(r, &out)
	assert.False(t, out.HasErrors(), "reshape permits view divergence: %v", out.All())

	// The same implements change breaks under the addition category.
	r.Metadata.Extension = rules.ExtensionAddition
	out = issues.List{}
	ExtensionCompat{}.Run(r, &out)
	require.True(t, out.HasErrors())
	assert.Equal(t, issues.CodeBreakingExtension, out.Errors()[0].Code)
}

func TestExtensionRebuildSkipsComparison(t *testing.T) {
	r := extendedFixture(t)
	r.Metadata.Extension = rules.ExtensionRebuild
	r.Properties[0].ValueType = rules.DMSValueType{Kind: rules.KindPrimitive, Data: rules.Int64}

	var out issues.List
	ExtensionCompat{}.Run(r, &out)
	assert.False(t, out.HasErrors())
}

func TestExtensionDifferentSpaceIsSolutionModel(t *testing.T) {
	r := extendedFixture(t)
	r.Metadata.Space = "sp_solution"
	r.Properties[0].ValueType = rules.DMSValueType{Kind: rules.KindPrimitive, Data: rules.Int64}

	var out issues.List
	ExtensionCompat{}.Run(r, &out)
	assert.False(t, out.HasErrors(), "a different space extends nothing")
}

func TestPipelineAbortsAfterFirstFailingStage(t *testing.T) {
	// The sheet carries both a container property conflict and a
	// dangling view reference. Only the earlier stage reports.
	r := mustParse(t, `
metadata:
  space: sp
  external_id: M
  version: "1"
  completeness: complete
views:
  - view: A
containers:
  - container: Shared
properties:
  - view: A
    view_property: tag
    value_type: text
    container: Shared
    container_property: tag
  - view: Ghost
    view_property: tag
    value_type: int64
    container: Shared
    container_property: tag
`)

	found := Validate(r)
	require.True(t, found.HasErrors())
	for _, code := range codesOf(found) {
		assert.Equal(t, issues.CodeInconsistentContainerProperty, code)
	}
}

func TestPipelineStageNames(t *testing.T) {
	for _, stage := range []Stage{
		ConsistentContainerProperties{},
		ReferencesExist{},
		ExtensionCompat{},
		SchemaCheck{},
	} {
		assert.NotEmpty(t, stage.Name())
	}
}
