package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/c360studio/semforge/vocabulary/rdfns"
)

func TestParseDataType(t *testing.T) {
	tests := []struct {
		input string
		want  DataType
		ok    bool
	}{
		{"text", Text, true},
		{"Text", Text, true},
		{"string", Text, true},
		{"bool", Boolean, true},
		{"integer", Int32, true},
		{"long", Int64, true},
		{"double", Float64, true},
		{"datetime", Timestamp, true},
		{"timeserie", Timeseries, true},
		{rdfns.XSDString, Text, true},
		{rdfns.XSDDateTime, Timestamp, true},
		{"power:Pump", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseDataType(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseInfoValueType(t *testing.T) {
	vt, err := ParseInfoValueType("float64", "grid")
	assert.NoError(t, err)
	assert.Equal(t, KindPrimitive, vt.Kind)
	assert.Equal(t, Float64, vt.Data)

	vt, err = ParseInfoValueType("unknown", "grid")
	assert.NoError(t, err)
	assert.Equal(t, KindUnknown, vt.Kind)

	vt, err = ParseInfoValueType("GeneratingUnit", "power")
	assert.NoError(t, err)
	assert.Equal(t, KindClass, vt.Kind)
	assert.Equal(t, "power", vt.Class.Prefix)
}

func TestParseDMSValueTypeRelationAware(t *testing.T) {
	vt, err := ParseDMSValueType("power:Pump", RelationDirect, "sp", "1")
	assert.NoError(t, err)
	assert.Equal(t, KindView, vt.Kind)
	assert.Equal(t, "1", vt.View.Version, "default version applies")

	vt, err = ParseDMSValueType("power:Pump(version=1).station", RelationReverseDirect, "sp", "1")
	assert.NoError(t, err)
	assert.Equal(t, KindViewProperty, vt.Kind)
	assert.Equal(t, "station", vt.ViewProperty.Property)

	// Without a relation only primitives and unknown are legal.
	_, err = ParseDMSValueType("power:Pump", "", "sp", "1")
	assert.Error(t, err)

	vt, err = ParseDMSValueType("unknown", "", "sp", "1")
	assert.NoError(t, err)
	assert.Equal(t, KindUnknown, vt.Kind)
}
