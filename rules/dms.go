package rules

// RelationKind tags how a physical property relates instances.
type RelationKind string

const (
	// RelationNone marks a plain container-stored attribute.
	RelationNone RelationKind = ""

	// RelationDirect stores the target reference inline in the
	// container.
	RelationDirect RelationKind = "direct"

	// RelationReverseDirect surfaces, from the target side, instances
	// pointing at it through another view's direct relation. Not
	// stored: it must not carry a container binding.
	RelationReverseDirect RelationKind = "reversedirect"

	// RelationMultiEdge realizes the reference as separate edge
	// records.
	RelationMultiEdge RelationKind = "multiedge"
)

// FilterKind is the filter a view sheet may request.
type FilterKind string

const (
	// FilterUnset lets compilation pick the default.
	FilterUnset FilterKind = ""

	// FilterHasData restricts a view to instances with data in its
	// referenced containers.
	FilterHasData FilterKind = "hasData"

	// FilterNodeType restricts a view to instances of its node type.
	FilterNodeType FilterKind = "nodeType"
)

// ViewUsage declares what kind of instances a view projects.
type ViewUsage string

const (
	UsageNode ViewUsage = "node"
	UsageEdge ViewUsage = "edge"
	UsageAll  ViewUsage = "all"
)

// DMSMetadata is the header of a physical sheet.
type DMSMetadata struct {
	// Space qualifies unqualified view and container references and
	// names the data model's space.
	Space string

	// ExternalID and Version identify the data model.
	ExternalID string
	Version    string

	Completeness SchemaCompleteness
	Extension    ExtensionCategory

	// Name and Creator are carried for provenance only.
	Name    string
	Creator string
}

// DMSView is one row of the view sheet.
type DMSView struct {
	Class      ClassEntity
	View       ViewEntity
	Implements []ViewEntity

	// Filter is the requested filter; compilation may override it
	// with a warning.
	Filter FilterKind

	// InModel explicitly keeps a parent-only view registered in the
	// data model. Unmarked parent-only views stay out.
	InModel bool

	// UsedFor declares the instance kind the view projects. Empty
	// defaults to node.
	UsedFor ViewUsage

	// Row is the source sheet row, for error reporting.
	Row int
}

// Usage returns UsedFor with its default applied.
func (v DMSView) Usage() ViewUsage {
	if v.UsedFor == "" {
		return UsageNode
	}
	return v.UsedFor
}

// DMSContainer is one row of the container sheet.
type DMSContainer struct {
	Class     ClassEntity
	Container ContainerEntity

	// Constraints lists containers this one requires to be populated.
	Constraints []ContainerEntity

	// UsedFor declares the instance kind the container stores. Empty
	// defaults to node.
	UsedFor ViewUsage

	// Row is the source sheet row, for error reporting.
	Row int
}

// DMSProperty is one row of the property sheet: a view property and,
// for stored properties, its container binding.
type DMSProperty struct {
	Class    ClassEntity
	Property string

	Relation  RelationKind
	ValueType DMSValueType

	// Nullable is tri-state so container-property groups can
	// broadcast the first explicit definition. Unset resolves to
	// true.
	Nullable *bool

	IsList  bool
	Default any

	// Container and ContainerProperty bind the property to storage.
	// Unset for multi-edge and reverse-direct relations.
	Container         ContainerEntity
	ContainerProperty string

	View         ViewEntity
	ViewProperty string

	// Index and Constraint name the btree indexes and uniqueness
	// constraints this property participates in.
	Index      []string
	Constraint []string

	// Reference links the property to the original definition it
	// re-declares. Multi-edge connections derive their edge type from
	// it when set.
	Reference ViewPropertyEntity

	// MaxListSize caps list-valued storage. Zero means the store
	// default.
	MaxListSize int

	// Row is the source sheet row, for error reporting.
	Row int
}

// IsNullable resolves the tri-state Nullable, defaulting to true.
func (p DMSProperty) IsNullable() bool {
	if p.Nullable == nil {
		return true
	}
	return *p.Nullable
}

// HasContainer reports whether the property is bound to storage.
func (p DMSProperty) HasContainer() bool {
	return !p.Container.IsZero() && p.ContainerProperty != ""
}

// DMSRules is a physical model sheet: views, containers, and the
// properties binding them.
type DMSRules struct {
	Metadata   DMSMetadata
	Properties []DMSProperty
	Views      []DMSView
	Containers []DMSContainer

	// Reference holds the previous generation this model extends.
	// Read-only: used for extension diffing, never mutated.
	Reference *DMSRules
}

// Copy returns a deep copy. The Reference link is shared, matching its
// read-only contract.
func (r *DMSRules) Copy() *DMSRules {
	out := &DMSRules{
		Metadata:   r.Metadata,
		Properties: make([]DMSProperty, len(r.Properties)),
		Views:      make([]DMSView, len(r.Views)),
		Containers: make([]DMSContainer, len(r.Containers)),
		Reference:  r.Reference,
	}
	for i, p := range r.Properties {
		p.Index = append([]string(nil), p.Index...)
		p.Constraint = append([]string(nil), p.Constraint...)
		if p.Nullable != nil {
			n := *p.Nullable
			p.Nullable = &n
		}
		out.Properties[i] = p
	}
	for i, v := range r.Views {
		v.Implements = append([]ViewEntity(nil), v.Implements...)
		out.Views[i] = v
	}
	for i, c := range r.Containers {
		c.Constraints = append([]ContainerEntity(nil), c.Constraints...)
		out.Containers[i] = c
	}
	return out
}

// ViewByEntity returns the declared view row for a reference.
func (r *DMSRules) ViewByEntity(view ViewEntity) (DMSView, bool) {
	for _, v := range r.Views {
		if v.View == view {
			return v, true
		}
	}
	return DMSView{}, false
}

// PropertiesByView returns the properties attached to a view, in sheet
// order.
func (r *DMSRules) PropertiesByView(view ViewEntity) []DMSProperty {
	var out []DMSProperty
	for _, p := range r.Properties {
		if p.View == view {
			out = append(out, p)
		}
	}
	return out
}

// Merge combines r with a reference generation into a fresh rules
// object without mutating either input. On duplicate view or container
// ids r wins; properties are concatenated with r's first, so grouped
// container-property definitions broadcast from r's rows.
func Merge(r, reference *DMSRules) *DMSRules {
	out := r.Copy()
	if reference == nil {
		return out
	}
	ref := reference.Copy()

	views := make(map[ViewEntity]bool, len(out.Views))
	for _, v := range out.Views {
		views[v.View] = true
	}
	for _, v := range ref.Views {
		if !views[v.View] {
			out.Views = append(out.Views, v)
		}
	}

	containers := make(map[ContainerEntity]bool, len(out.Containers))
	for _, c := range out.Containers {
		containers[c.Container] = true
	}
	for _, c := range ref.Containers {
		if !containers[c.Container] {
			out.Containers = append(out.Containers, c)
		}
	}

	type propKey struct {
		view ViewEntity
		prop string
	}
	props := make(map[propKey]bool, len(out.Properties))
	for _, p := range out.Properties {
		props[propKey{p.View, p.ViewProperty}] = true
	}
	for _, p := range ref.Properties {
		if !props[propKey{p.View, p.ViewProperty}] {
			out.Properties = append(out.Properties, p)
		}
	}
	return out
}
