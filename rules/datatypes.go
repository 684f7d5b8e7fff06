package rules

import (
	"strings"

	"github.com/c360studio/semforge/vocabulary/rdfns"
)

// DataType is a primitive semantic type as authored in a conceptual or
// physical sheet.
type DataType string

const (
	Text       DataType = "text"
	Boolean    DataType = "boolean"
	Int32      DataType = "int32"
	Int64      DataType = "int64"
	Float32    DataType = "float32"
	Float64    DataType = "float64"
	JSON       DataType = "json"
	Timestamp  DataType = "timestamp"
	Date       DataType = "date"
	Timeseries DataType = "timeseries"
	File       DataType = "file"
	Sequence   DataType = "sequence"
)

// physicalTypes maps each primitive to its physical-store type name.
// Timeseries, file and sequence values are stored as references into
// their dedicated resource types, which the store addresses by text id.
var physicalTypes = map[DataType]string{
	Text:       "text",
	Boolean:    "boolean",
	Int32:      "int32",
	Int64:      "int64",
	Float32:    "float32",
	Float64:    "float64",
	JSON:       "json",
	Timestamp:  "timestamp",
	Date:       "date",
	Timeseries: "timeseries",
	File:       "file",
	Sequence:   "sequence",
}

// dataTypeAliases resolves the spellings seen in authored sheets and in
// RDF range declarations to a canonical primitive.
var dataTypeAliases = map[string]DataType{
	"string":            Text,
	"str":               Text,
	"bool":              Boolean,
	"int":               Int32,
	"integer":           Int32,
	"long":              Int64,
	"float":             Float32,
	"double":            Float64,
	"number":            Float64,
	"datetime":          Timestamp,
	"datetimestamp":     Timestamp,
	"timeserie":         Timeseries,
	rdfns.XSDString:     Text,
	rdfns.XSDBoolean:    Boolean,
	rdfns.XSDInt:        Int32,
	rdfns.XSDInteger:    Int32,
	rdfns.XSDLong:       Int64,
	rdfns.XSDFloat:      Float32,
	rdfns.XSDDouble:     Float64,
	rdfns.XSDDecimal:    Float64,
	rdfns.XSDDateTime:   Timestamp,
	rdfns.XSDDate:       Date,
	rdfns.XSDAnyURI:     Text,
	rdfns.RDFJSON:       JSON,
}

// ParseDataType resolves a sheet or RDF spelling to a primitive.
// The second result is false when the spelling names no known primitive.
func ParseDataType(s string) (DataType, bool) {
	lowered := strings.ToLower(strings.TrimSpace(s))
	if _, ok := physicalTypes[DataType(lowered)]; ok {
		return DataType(lowered), true
	}
	if dt, ok := dataTypeAliases[lowered]; ok {
		return dt, true
	}
	// XSD IRIs are case-sensitive; retry with the original spelling.
	if dt, ok := dataTypeAliases[strings.TrimSpace(s)]; ok {
		return dt, true
	}
	return "", false
}

// Physical returns the physical-store type name for the primitive.
func (d DataType) Physical() string {
	return physicalTypes[d]
}

// IsKnown reports whether d is a registered primitive.
func (d DataType) IsKnown() bool {
	_, ok := physicalTypes[d]
	return ok
}
