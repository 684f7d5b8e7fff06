package rules

import "fmt"

// ValueKind tags the value-type union used by conceptual and physical
// properties.
type ValueKind string

const (
	// KindPrimitive marks a registered primitive data type.
	KindPrimitive ValueKind = "primitive"

	// KindClass marks a reference to a conceptual class.
	KindClass ValueKind = "class"

	// KindView marks a reference to a physical view.
	KindView ValueKind = "view"

	// KindViewProperty marks a reference to one property on a view,
	// used by reverse-direct relations.
	KindViewProperty ValueKind = "view_property"

	// KindUnknown marks a value type that could not be resolved.
	// Unknown-typed properties compile to text placeholders.
	KindUnknown ValueKind = "unknown"
)

// unknownKeyword is the sheet spelling for an unresolved value type.
const unknownKeyword = "unknown"

// InfoValueType is the value type of a conceptual property: a
// primitive, a class reference, or unknown.
type InfoValueType struct {
	Kind  ValueKind
	Data  DataType
	Class ClassEntity
}

// ParseInfoValueType resolves a sheet spelling: a registered primitive
// wins, the unknown keyword yields KindUnknown, anything else parses as
// a class reference qualified with defaultPrefix.
func ParseInfoValueType(s, defaultPrefix string) (InfoValueType, error) {
	if s == unknownKeyword {
		return InfoValueType{Kind: KindUnknown}, nil
	}
	if dt, ok := ParseDataType(s); ok {
		return InfoValueType{Kind: KindPrimitive, Data: dt}, nil
	}
	cls, err := ParseClassEntity(s, defaultPrefix)
	if err != nil {
		return InfoValueType{}, fmt.Errorf("invalid value type %q: %w", s, err)
	}
	return InfoValueType{Kind: KindClass, Class: cls}, nil
}

func (v InfoValueType) String() string {
	switch v.Kind {
	case KindPrimitive:
		return string(v.Data)
	case KindClass:
		return v.Class.String()
	default:
		return unknownKeyword
	}
}

// DMSValueType is the value type of a physical property: a primitive,
// a view reference (direct and multi-edge relations), a view-property
// reference (reverse-direct relations), or unknown.
type DMSValueType struct {
	Kind         ValueKind
	Data         DataType
	View         ViewEntity
	ViewProperty ViewPropertyEntity
}

// ParseDMSValueType resolves a sheet spelling against the declared
// relation kind: reverse-direct relations require a view-property
// reference, other relations a view reference, and no relation a
// primitive or the unknown keyword.
func ParseDMSValueType(s string, relation RelationKind, defaultSpace, defaultVersion string) (DMSValueType, error) {
	switch relation {
	case RelationReverseDirect:
		vp, err := ParseViewPropertyEntity(s, defaultSpace, defaultVersion)
		if err != nil {
			return DMSValueType{}, fmt.Errorf("reverse-direct relation requires a view property value type: %w", err)
		}
		return DMSValueType{Kind: KindViewProperty, ViewProperty: vp}, nil
	case RelationDirect, RelationMultiEdge:
		view, err := ParseViewEntity(s, defaultSpace, defaultVersion)
		if err != nil {
			return DMSValueType{}, fmt.Errorf("%s relation requires a view value type: %w", relation, err)
		}
		return DMSValueType{Kind: KindView, View: view}, nil
	default:
		if s == unknownKeyword {
			return DMSValueType{Kind: KindUnknown}, nil
		}
		if dt, ok := ParseDataType(s); ok {
			return DMSValueType{Kind: KindPrimitive, Data: dt}, nil
		}
		return DMSValueType{}, fmt.Errorf("unknown primitive value type %q", s)
	}
}

func (v DMSValueType) String() string {
	switch v.Kind {
	case KindPrimitive:
		return string(v.Data)
	case KindView:
		return v.View.String()
	case KindViewProperty:
		return v.ViewProperty.String()
	default:
		return unknownKeyword
	}
}
