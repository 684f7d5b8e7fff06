// Package schema holds the compiled physical schema: spaces,
// containers with indexes and constraints, views with resolved
// property bindings, node-type placeholders, and the data model. It is
// produced from validated DMS rules by Build and checked for
// referential consistency by Validate.
package schema

import (
	"github.com/c360studio/semforge/rules"
)

// Space declares a namespace in the target store.
type Space struct {
	Space string
}

// ContainerPropertyKind tags container property storage.
type ContainerPropertyKind string

const (
	// StoragePrimitive stores a primitive value, optionally
	// list-valued.
	StoragePrimitive ContainerPropertyKind = "primitive"

	// StorageDirect stores an inline reference to another instance.
	StorageDirect ContainerPropertyKind = "direct"
)

// ContainerPropertyType describes the storage of one container
// property.
type ContainerPropertyType struct {
	Kind        ContainerPropertyKind
	Data        rules.DataType
	IsList      bool
	MaxListSize int
}

// ContainerProperty is one stored property of a container.
type ContainerProperty struct {
	Type     ContainerPropertyType
	Nullable bool
	Default  any
}

// ConstraintKind tags container constraints.
type ConstraintKind string

const (
	// ConstraintUniqueness enforces unique value combinations over a
	// property set.
	ConstraintUniqueness ConstraintKind = "uniqueness"

	// ConstraintRequires demands another container be populated for
	// the same instance.
	ConstraintRequires ConstraintKind = "requires"
)

// Constraint is one named container constraint.
type Constraint struct {
	Kind       ConstraintKind
	Properties []string
	Require    rules.ContainerEntity
}

// Index is one named btree index over container properties.
type Index struct {
	Kind       string
	Properties []string
}

// IndexBTree is the only index kind the store supports.
const IndexBTree = "btree"

// Container is a compiled physical container.
type Container struct {
	Container   rules.ContainerEntity
	UsedFor     rules.ViewUsage
	Properties  map[string]ContainerProperty
	Constraints map[string]Constraint
	Indexes     map[string]Index
}

// ViewProperty is the closed union of compiled view property kinds.
type ViewProperty interface {
	viewProperty()
}

// MappedProperty projects a stored container property through the
// view. Source is set only when the value type names a view.
type MappedProperty struct {
	Container         rules.ContainerEntity
	ContainerProperty string
	Source            *rules.ViewEntity
}

func (MappedProperty) viewProperty() {}

// EdgeType identifies the edge records of a multi-edge connection.
type EdgeType struct {
	Space      string
	ExternalID string
}

// EdgeDirection orients a multi-edge connection.
type EdgeDirection string

const (
	DirectionOutwards EdgeDirection = "outwards"
	DirectionInwards  EdgeDirection = "inwards"
)

// MultiEdgeConnection realizes a reference property as separate edge
// records.
type MultiEdgeConnection struct {
	Type      EdgeType
	Source    rules.ViewEntity
	Direction EdgeDirection
}

func (MultiEdgeConnection) viewProperty() {}

// ReverseDirectRelation surfaces instances pointing at this view
// through another view's direct relation.
type ReverseDirectRelation struct {
	Source  rules.ViewEntity
	Through rules.ViewPropertyEntity
	IsList  bool
}

func (ReverseDirectRelation) viewProperty() {}

// Filter is the closed union of view filters.
type Filter interface {
	filter()
}

// HasDataFilter restricts a view to instances with data in any of the
// listed containers.
type HasDataFilter struct {
	Containers []rules.ContainerEntity
}

func (HasDataFilter) filter() {}

// NodeType is a node-type placeholder instance registered for views
// filtered by type equality.
type NodeType struct {
	Space      string
	ExternalID string
}

// NodeTypeFilter restricts a view to instances whose node.type equals
// the placeholder.
type NodeTypeFilter struct {
	Node NodeType
}

func (NodeTypeFilter) filter() {}

// ViewPropertyEntry names one compiled property of a view. Entries are
// a slice, not a map, so duplicate-name violations survive until
// Validate can report them.
type ViewPropertyEntry struct {
	Name     string
	Property ViewProperty
}

// View is a compiled physical view.
type View struct {
	View       rules.ViewEntity
	Implements []rules.ViewEntity
	Filter     Filter
	Properties []ViewPropertyEntry
	InModel    bool
	UsedFor    rules.ViewUsage
}

// Property returns the first entry with the given name.
func (v *View) Property(name string) (ViewProperty, bool) {
	for _, e := range v.Properties {
		if e.Name == name {
			return e.Property, true
		}
	}
	return nil, false
}

// DataModel registers the query-facing views of one model generation.
type DataModel struct {
	Space      string
	ExternalID string
	Version    string
	Views      []rules.ViewEntity
}

// Schema is the compiled aggregate pushed to the target store.
type Schema struct {
	Spaces     []Space
	Containers []Container
	Views      []View
	DataModel  *DataModel
	NodeTypes  []NodeType
}

// ContainerByEntity returns the compiled container for a reference.
func (s *Schema) ContainerByEntity(c rules.ContainerEntity) (*Container, bool) {
	for i := range s.Containers {
		if s.Containers[i].Container == c {
			return &s.Containers[i], true
		}
	}
	return nil, false
}

// ViewByEntity returns the compiled view for a reference.
func (s *Schema) ViewByEntity(v rules.ViewEntity) (*View, bool) {
	for i := range s.Views {
		if s.Views[i].View == v {
			return &s.Views[i], true
		}
	}
	return nil, false
}
