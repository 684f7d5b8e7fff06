package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semforge/issues"
)

func infoFixture() *InformationRules {
	return &InformationRules{
		Metadata: InformationMetadata{
			Prefix:       "power",
			Namespace:    "https://example.org/power/",
			Version:      "1",
			Completeness: CompletenessComplete,
		},
		Classes: []InformationClass{
			{Class: ClassEntity{Prefix: "power", Suffix: "EnergyArea"}, Row: 2},
			{
				Class:   ClassEntity{Prefix: "power", Suffix: "GeneratingUnit"},
				Parents: []ClassEntity{{Prefix: "power", Suffix: "EnergyArea"}},
				Row:     3,
			},
		},
		Properties: []InformationProperty{
			{
				Class:     ClassEntity{Prefix: "power", Suffix: "EnergyArea"},
				Property:  "name",
				ValueType: InfoValueType{Kind: KindPrimitive, Data: Text},
				MinCount:  1,
				MaxCount:  1,
				Row:       2,
			},
			{
				Class:     ClassEntity{Prefix: "power", Suffix: "GeneratingUnit"},
				Property:  "activePower",
				ValueType: InfoValueType{Kind: KindPrimitive, Data: Float64},
				MinCount:  0,
				MaxCount:  1,
				Row:       3,
			},
		},
	}
}

func TestInformationValidateOK(t *testing.T) {
	found := infoFixture().Validate()
	assert.False(t, found.HasErrors(), "fixture should validate: %v", found.All())
}

func TestInformationValidatePrefixDefaulting(t *testing.T) {
	r := infoFixture()
	r.Classes[0].Class.Prefix = ""
	r.Properties[0].Class.Prefix = ""

	found := r.Validate()
	assert.False(t, found.HasErrors())
	assert.Equal(t, "power", r.Classes[0].Class.Prefix)
	assert.Equal(t, "power", r.Properties[0].Class.Prefix)
}

func TestInformationValidateCompleteReportsAllMissing(t *testing.T) {
	r := infoFixture()
	r.Properties = append(r.Properties,
		InformationProperty{
			Class:     ClassEntity{Prefix: "power", Suffix: "Undeclared"},
			Property:  "x",
			ValueType: InfoValueType{Kind: KindPrimitive, Data: Text},
			MaxCount:  1,
		},
		InformationProperty{
			Class:     ClassEntity{Prefix: "power", Suffix: "EnergyArea"},
			Property:  "unit",
			ValueType: InfoValueType{Kind: KindClass, Class: ClassEntity{Prefix: "power", Suffix: "AlsoMissing"}},
			MaxCount:  1,
		},
	)

	found := r.Validate()
	require.True(t, found.HasErrors())

	// Both undeclared classes are reported in a single pass.
	var missing []string
	for _, iss := range found.Errors() {
		if iss.Code == issues.CodeIncompleteSchema {
			missing = append(missing, iss.Message)
		}
	}
	assert.Len(t, missing, 2)
}

func TestInformationValidatePartialSkipsReferenceChecks(t *testing.T) {
	r := infoFixture()
	r.Metadata.Completeness = CompletenessPartial
	r.Properties[0].Class = ClassEntity{Prefix: "power", Suffix: "Undeclared"}

	found := r.Validate()
	assert.False(t, found.HasErrors())
}

func TestInformationValidateClassWithoutDefinitionWarns(t *testing.T) {
	r := infoFixture()
	r.Classes = append(r.Classes, InformationClass{
		Class: ClassEntity{Prefix: "power", Suffix: "Orphan"},
	})
	r.Metadata.Completeness = CompletenessPartial

	found := r.Validate()
	assert.False(t, found.HasErrors())
	require.Len(t, found.Warnings(), 1)
	assert.Equal(t, issues.CodeClassWithoutDefinition, found.Warnings()[0].Code)
}

func TestInformationValidateRejectsImplementsCycle(t *testing.T) {
	r := infoFixture()
	// EnergyArea -> GeneratingUnit -> EnergyArea
	r.Classes[0].Parents = []ClassEntity{{Prefix: "power", Suffix: "GeneratingUnit"}}

	found := r.Validate()
	require.True(t, found.HasErrors())

	var cycle bool
	for _, iss := range found.Errors() {
		if iss.Code == issues.CodeImplementsCycle {
			cycle = true
		}
	}
	assert.True(t, cycle, "expected an implements cycle error, got %v", found.All())
}

func TestInformationValidateCrossPrefixParentAllowed(t *testing.T) {
	r := infoFixture()
	r.Classes[1].Parents = append(r.Classes[1].Parents, ClassEntity{Prefix: "base", Suffix: "Asset"})

	found := r.Validate()
	assert.False(t, found.HasErrors(), "cross-prefix parents live in the base model")
}

func TestInformationCopyIsDeep(t *testing.T) {
	r := infoFixture()
	c := r.Copy()

	c.Classes[1].Parents[0].Suffix = "Changed"
	c.Properties[0].Property = "changed"

	assert.Equal(t, "EnergyArea", r.Classes[1].Parents[0].Suffix)
	assert.Equal(t, "name", r.Properties[0].Property)
	assert.Same(t, r.Reference, c.Reference)
}

func TestPropertyCardinalityHelpers(t *testing.T) {
	p := InformationProperty{MinCount: 1, MaxCount: 1}
	assert.False(t, p.IsList())
	assert.True(t, p.IsMandatory())

	p = InformationProperty{MinCount: 0, MaxCount: Unbounded}
	assert.True(t, p.IsList())
	assert.False(t, p.IsMandatory())

	p = InformationProperty{MinCount: 0, MaxCount: 5}
	assert.True(t, p.IsList())
}
