package rules

import (
	"fmt"
	"sort"

	"github.com/c360studio/semforge/issues"
)

// SchemaCompleteness declares how much cross-checking a rules object
// can be held to.
type SchemaCompleteness string

const (
	// CompletenessPartial skips cross-reference checks entirely.
	CompletenessPartial SchemaCompleteness = "partial"

	// CompletenessComplete requires the rules object to be fully
	// self-consistent.
	CompletenessComplete SchemaCompleteness = "complete"

	// CompletenessExtended requires consistency once merged with the
	// reference generation the rules object extends.
	CompletenessExtended SchemaCompleteness = "extended"
)

// ExtensionCategory declares what an extended rules object is allowed
// to change relative to its reference.
type ExtensionCategory string

const (
	// ExtensionAddition permits new views and containers only.
	ExtensionAddition ExtensionCategory = "addition"

	// ExtensionReshape permits view changes but no container changes.
	ExtensionReshape ExtensionCategory = "reshape"

	// ExtensionRebuild permits any change.
	ExtensionRebuild ExtensionCategory = "rebuild"
)

// Unbounded is the MaxCount sentinel for list-valued properties with
// no declared upper bound.
const Unbounded int64 = -1

// InformationMetadata is the header of a conceptual sheet.
type InformationMetadata struct {
	// Prefix qualifies unprefixed references in the sheet.
	Prefix string

	// Namespace is the base IRI under which class and instance IRIs
	// of this model live.
	Namespace string

	// Version of the model generation.
	Version string

	Completeness SchemaCompleteness
	Extension    ExtensionCategory

	// Name and Creator are carried for provenance only.
	Name    string
	Creator string
}

// InformationClass is one row of the class sheet.
type InformationClass struct {
	Class       ClassEntity
	Description string

	// Parents is the implements list. Same-prefix parents express
	// in-model inheritance.
	Parents []ClassEntity

	// Reference links the class to the base-model class it extends,
	// when the class redefines a class from another namespace.
	Reference ClassEntity

	// Row is the source sheet row, for error reporting.
	Row int
}

// PropertyReference links a conceptual property to the original
// definition it re-declares, possibly in another namespace.
type PropertyReference struct {
	Class    ClassEntity
	Property string
}

// IsZero reports whether the reference is unset.
func (r PropertyReference) IsZero() bool { return r.Class.IsZero() }

// InformationProperty is one row of the property sheet.
type InformationProperty struct {
	Class       ClassEntity
	Property    string
	Description string
	ValueType   InfoValueType

	// MinCount and MaxCount carry cardinality. MaxCount of Unbounded
	// means no upper limit.
	MinCount int64
	MaxCount int64

	Default   any
	Reference PropertyReference

	// Row is the source sheet row, for error reporting.
	Row int
}

// IsList reports whether the cardinality permits more than one value.
func (p InformationProperty) IsList() bool { return p.MaxCount != 1 }

// IsMandatory reports whether at least one value is required.
func (p InformationProperty) IsMandatory() bool { return p.MinCount != 0 }

// InformationRules is a validated conceptual model: classes, their
// properties, and inheritance.
type InformationRules struct {
	Metadata   InformationMetadata
	Classes    []InformationClass
	Properties []InformationProperty

	// Reference holds the previous generation this model extends.
	// Read-only: used for extension diffing, never mutated.
	Reference *InformationRules
}

// Copy returns a deep copy. The Reference link is shared, matching its
// read-only contract.
func (r *InformationRules) Copy() *InformationRules {
	out := &InformationRules{
		Metadata:   r.Metadata,
		Classes:    make([]InformationClass, len(r.Classes)),
		Properties: make([]InformationProperty, len(r.Properties)),
		Reference:  r.Reference,
	}
	for i, c := range r.Classes {
		c.Parents = append([]ClassEntity(nil), c.Parents...)
		out.Classes[i] = c
	}
	copy(out.Properties, r.Properties)
	return out
}

// ClassIRI returns the RDF type IRI of a class under this model's
// namespace.
func (r *InformationRules) ClassIRI(cls ClassEntity) string {
	return r.Metadata.Namespace + cls.Suffix
}

// Validate normalizes and checks the conceptual model. All violations
// are collected before returning so one pass reports everything:
//
//  1. Unqualified class and value-type references receive the
//     metadata prefix.
//  2. When completeness is complete, every class referenced by a
//     property, value type or parent must be declared.
//  3. A class with neither properties nor parents draws a warning.
//  4. A cyclic implements chain is rejected.
func (r *InformationRules) Validate() issues.List {
	var out issues.List
	prefix := r.Metadata.Prefix

	declared := make(map[ClassEntity]bool, len(r.Classes))
	for i := range r.Classes {
		cls := &r.Classes[i]
		if cls.Class.Prefix == "" {
			cls.Class.Prefix = prefix
		}
		for j := range cls.Parents {
			if cls.Parents[j].Prefix == "" {
				cls.Parents[j].Prefix = prefix
			}
		}
		if !cls.Reference.IsZero() && cls.Reference.Prefix == "" {
			cls.Reference.Prefix = prefix
		}
		declared[versionless(cls.Class)] = true
	}

	hasProperties := make(map[ClassEntity]bool)
	for i := range r.Properties {
		prop := &r.Properties[i]
		if prop.Class.Prefix == "" {
			prop.Class.Prefix = prefix
		}
		if prop.ValueType.Kind == KindClass && prop.ValueType.Class.Prefix == "" {
			prop.ValueType.Class.Prefix = prefix
		}
		hasProperties[versionless(prop.Class)] = true
	}

	if r.Metadata.Completeness == CompletenessComplete {
		missing := make(map[ClassEntity]bool)
		for _, prop := range r.Properties {
			if !declared[versionless(prop.Class)] {
				missing[versionless(prop.Class)] = true
			}
			if prop.ValueType.Kind == KindClass && !declared[versionless(prop.ValueType.Class)] {
				missing[versionless(prop.ValueType.Class)] = true
			}
		}
		for _, cls := range r.Classes {
			for _, parent := range cls.Parents {
				// Parents in other prefixes live in the base model.
				if parent.Prefix == prefix && !declared[versionless(parent)] {
					missing[versionless(parent)] = true
				}
			}
		}
		if len(missing) > 0 {
			names := make([]string, 0, len(missing))
			for cls := range missing {
				names = append(names, cls.String())
			}
			sort.Strings(names)
			for _, name := range names {
				out.Append(issues.Errorf(issues.CodeIncompleteSchema,
					"schema is complete but class %s is not declared", name))
			}
		}
	}

	for _, cls := range r.Classes {
		if len(cls.Parents) == 0 && !hasProperties[versionless(cls.Class)] {
			out.Append(issues.Warningf(issues.CodeClassWithoutDefinition,
				"class %s has neither properties nor parents", cls.Class))
		}
	}

	out.Extend(r.validateImplementsAcyclic())
	return out
}

// validateImplementsAcyclic rejects cyclic implements chains. Only
// same-prefix parents participate: cross-prefix parents terminate in
// the base model, which is validated on its own.
func (r *InformationRules) validateImplementsAcyclic() issues.List {
	var out issues.List
	prefix := r.Metadata.Prefix

	parents := make(map[ClassEntity][]ClassEntity)
	for _, cls := range r.Classes {
		for _, p := range cls.Parents {
			if p.Prefix == prefix {
				key := versionless(cls.Class)
				parents[key] = append(parents[key], versionless(p))
			}
		}
	}

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[ClassEntity]int)

	var visit func(cls ClassEntity, path []ClassEntity) bool
	visit = func(cls ClassEntity, path []ClassEntity) bool {
		switch state[cls] {
		case done:
			return false
		case visiting:
			names := make([]string, 0, len(path)+1)
			for _, p := range path {
				names = append(names, p.String())
			}
			names = append(names, cls.String())
			out.Append(issues.Errorf(issues.CodeImplementsCycle,
				"cyclic implements chain: %s", fmt.Sprint(names)))
			return true
		}
		state[cls] = visiting
		for _, p := range parents[cls] {
			if visit(p, append(path, cls)) {
				state[cls] = done
				return true
			}
		}
		state[cls] = done
		return false
	}

	keys := make([]ClassEntity, 0, len(parents))
	for cls := range parents {
		keys = append(keys, cls)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	for _, cls := range keys {
		visit(cls, nil)
	}
	return out
}

// versionless strips the version so declaration lookups match any
// authored version of the same class.
func versionless(e ClassEntity) ClassEntity {
	e.Version = ""
	return e
}
