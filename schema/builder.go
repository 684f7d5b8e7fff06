package schema

import (
	"fmt"
	"sort"

	"github.com/c360studio/semforge/issues"
	"github.com/c360studio/semforge/rules"
)

// Build compiles validated DMS rules into a concrete schema. It is a
// pure function of its input: the rules object is not mutated.
// Compatibility degradations (list direct relations, filter overrides,
// empty containers) are reported as warnings in the returned list;
// Build itself never fails on them.
func Build(dms *rules.DMSRules) (*Schema, issues.List) {
	b := &builder{dms: dms}
	return b.build()
}

type builder struct {
	dms *rules.DMSRules
	out issues.List
}

func (b *builder) build() (*Schema, issues.List) {
	byContainer := make(map[rules.ContainerEntity][]rules.DMSProperty)
	byView := make(map[rules.ViewEntity][]rules.DMSProperty)
	for _, p := range b.dms.Properties {
		if p.HasContainer() {
			byContainer[p.Container] = append(byContainer[p.Container], p)
		}
		byView[p.View] = append(byView[p.View], p)
	}

	parents := make(map[rules.ViewEntity]bool)
	for _, v := range b.dms.Views {
		for _, parent := range v.Implements {
			parents[parent] = true
		}
	}

	containers, kept := b.buildContainers(byContainer)
	views, nodeTypes := b.buildViews(byView, parents, kept)

	s := &Schema{
		Containers: containers,
		Views:      views,
		NodeTypes:  nodeTypes,
	}
	s.Spaces = b.computeSpaces(s)
	s.DataModel = b.buildDataModel(byView, parents)
	return s, b.out
}

// buildViews compiles every declared view. The per-property decision
// order is fixed:
//
//	(a) list-valued direct relation  -> outward multi-edge (warning)
//	(b) container-mapped property    -> mapped property
//	(c) explicit multi-edge relation -> outward multi-edge
//	(d) reverse-direct relation      -> inward multi-edge when the
//	    forward property is a list direct relation, else a
//	    reverse-direct property
func (b *builder) buildViews(
	byView map[rules.ViewEntity][]rules.DMSProperty,
	parents map[rules.ViewEntity]bool,
	kept map[rules.ContainerEntity]bool,
) ([]View, []NodeType) {
	var views []View
	var nodeTypes []NodeType
	registered := make(map[NodeType]bool)

	for _, declared := range b.dms.Views {
		view := View{
			View:       declared.View,
			Implements: append([]rules.ViewEntity(nil), declared.Implements...),
			InModel:    declared.InModel,
			UsedFor:    declared.Usage(),
		}

		var mappedContainers []rules.ContainerEntity
		seenContainers := make(map[rules.ContainerEntity]bool)

		for _, p := range byView[declared.View] {
			entry, ok := b.buildViewProperty(declared.View, p)
			if !ok {
				continue
			}
			view.Properties = append(view.Properties, entry)
			if mp, isMapped := entry.Property.(MappedProperty); isMapped && !seenContainers[mp.Container] {
				seenContainers[mp.Container] = true
				mappedContainers = append(mappedContainers, mp.Container)
			}
		}

		sort.Slice(mappedContainers, func(i, j int) bool {
			return mappedContainers[i].String() < mappedContainers[j].String()
		})

		filter, nodeType := b.selectFilter(declared, parents[declared.View], mappedContainers, kept)
		view.Filter = filter
		if nodeType != nil && !registered[*nodeType] {
			registered[*nodeType] = true
			nodeTypes = append(nodeTypes, *nodeType)
		}

		views = append(views, view)
	}
	return views, nodeTypes
}

func (b *builder) buildViewProperty(view rules.ViewEntity, p rules.DMSProperty) (ViewPropertyEntry, bool) {
	name := p.ViewProperty
	if name == "" {
		name = p.Property
	}

	switch {
	case p.Relation == rules.RelationDirect && p.IsList:
		// The store API does not support list-valued direct
		// relations; they compile to outward edges instead.
		b.out.Append(issues.Warningf(issues.CodeListDirectAsEdge,
			"property %s of view %s is a list-valued direct relation; compiled as a multi-edge connection",
			name, view))
		return ViewPropertyEntry{Name: name, Property: MultiEdgeConnection{
			Type:      b.edgeType(view, p, name),
			Source:    p.ValueType.View,
			Direction: DirectionOutwards,
		}}, true

	case p.Relation == rules.RelationNone || p.Relation == rules.RelationDirect:
		if !p.HasContainer() {
			b.out.Append(issues.Warningf(issues.CodeUnsupportedRelation,
				"property %s of view %s has no container binding and cannot be compiled", name, view))
			return ViewPropertyEntry{}, false
		}
		mapped := MappedProperty{
			Container:         p.Container,
			ContainerProperty: p.ContainerProperty,
		}
		if p.ValueType.Kind == rules.KindView {
			source := p.ValueType.View
			mapped.Source = &source
		}
		return ViewPropertyEntry{Name: name, Property: mapped}, true

	case p.Relation == rules.RelationMultiEdge:
		return ViewPropertyEntry{Name: name, Property: MultiEdgeConnection{
			Type:      b.edgeType(view, p, name),
			Source:    p.ValueType.View,
			Direction: DirectionOutwards,
		}}, true

	case p.Relation == rules.RelationReverseDirect:
		return b.buildReverseProperty(view, p, name)

	default:
		b.out.Append(issues.Warningf(issues.CodeUnsupportedRelation,
			"property %s of view %s has unsupported relation %q", name, view, p.Relation))
		return ViewPropertyEntry{}, false
	}
}

// buildReverseProperty resolves the forward property a reverse-direct
// relation reverses. A forward list direct relation was compiled to an
// outward edge, so its reverse is the same edge walked inwards.
func (b *builder) buildReverseProperty(view rules.ViewEntity, p rules.DMSProperty, name string) (ViewPropertyEntry, bool) {
	target := p.ValueType.ViewProperty
	forward, ok := b.forwardProperty(target)
	if !ok {
		b.out.Append(issues.Errorf(issues.CodeMissingReverseTarget,
			"property %s of view %s reverses %s which does not exist", name, view, target))
		return ViewPropertyEntry{}, false
	}

	if forward.Relation == rules.RelationDirect && forward.IsList {
		return ViewPropertyEntry{Name: name, Property: MultiEdgeConnection{
			Type:      b.edgeType(target.View, forward, target.Property),
			Source:    target.View,
			Direction: DirectionInwards,
		}}, true
	}

	return ViewPropertyEntry{Name: name, Property: ReverseDirectRelation{
		Source:  target.View,
		Through: target,
		IsList:  forward.IsList,
	}}, true
}

func (b *builder) forwardProperty(target rules.ViewPropertyEntity) (rules.DMSProperty, bool) {
	for _, p := range b.dms.Properties {
		if p.View == target.View && p.ViewProperty == target.Property {
			return p, true
		}
	}
	return rules.DMSProperty{}, false
}

// edgeType derives the edge type of a connection: the property's
// reference entity when one was authored, else synthesized from the
// owning view and property name.
func (b *builder) edgeType(view rules.ViewEntity, p rules.DMSProperty, name string) EdgeType {
	if !p.Reference.IsZero() {
		return EdgeType{
			Space:      p.Reference.View.Space,
			ExternalID: fmt.Sprintf("%s.%s", p.Reference.View.ExternalID, p.Reference.Property),
		}
	}
	return EdgeType{
		Space:      view.Space,
		ExternalID: fmt.Sprintf("%s.%s", view.ExternalID, name),
	}
}

// selectFilter picks the view filter. HasData over the mapped
// containers is the default; a parent view may opt into a node-type
// filter, and a view with no mapped containers always gets one because
// there is nothing for HasData to check.
func (b *builder) selectFilter(
	declared rules.DMSView,
	isParent bool,
	mappedContainers []rules.ContainerEntity,
	kept map[rules.ContainerEntity]bool,
) (Filter, *NodeType) {
	var surviving []rules.ContainerEntity
	for _, c := range mappedContainers {
		if kept[c] {
			surviving = append(surviving, c)
		}
	}

	nodeType := NodeType{Space: declared.View.Space, ExternalID: declared.View.ExternalID}

	if len(surviving) == 0 {
		if declared.Filter == rules.FilterHasData {
			b.out.Append(issues.Warningf(issues.CodeFilterOverridden,
				"view %s requested hasData but maps no container properties; using a node-type filter",
				declared.View))
		}
		return NodeTypeFilter{Node: nodeType}, &nodeType
	}

	if isParent && declared.Filter == rules.FilterNodeType {
		// Departs from the default and changes how inheriting views
		// are filtered.
		b.out.Append(issues.Warningf(issues.CodeFilterOverridden,
			"view %s is implemented by other views and requested a node-type filter; inheritance filtering changes semantics",
			declared.View))
		return NodeTypeFilter{Node: nodeType}, &nodeType
	}

	return HasDataFilter{Containers: surviving}, nil
}

// buildContainers compiles every declared container from its
// contributing properties. Containers left without properties are
// dropped with a warning, and requires-constraints pointing at dropped
// containers are stripped.
func (b *builder) buildContainers(byContainer map[rules.ContainerEntity][]rules.DMSProperty) ([]Container, map[rules.ContainerEntity]bool) {
	type compiled struct {
		container Container
		declared  rules.DMSContainer
	}
	var all []compiled
	kept := make(map[rules.ContainerEntity]bool)

	for _, declared := range b.dms.Containers {
		c := Container{
			Container:   declared.Container,
			UsedFor:     declared.UsedFor,
			Properties:  make(map[string]ContainerProperty),
			Constraints: make(map[string]Constraint),
			Indexes:     make(map[string]Index),
		}
		if c.UsedFor == "" {
			c.UsedFor = rules.UsageNode
		}

		uniqueness := make(map[string][]string)
		indexes := make(map[string][]string)

		for _, p := range byContainer[declared.Container] {
			cp, ok := b.containerProperty(p)
			if !ok {
				continue
			}
			if _, exists := c.Properties[p.ContainerProperty]; exists {
				// Consistency validation broadcast identical
				// definitions across the group; keep the first.
				continue
			}
			c.Properties[p.ContainerProperty] = cp
			for _, name := range p.Constraint {
				uniqueness[name] = append(uniqueness[name], p.ContainerProperty)
			}
			for _, name := range p.Index {
				indexes[name] = append(indexes[name], p.ContainerProperty)
			}
		}

		for name, props := range uniqueness {
			sort.Strings(props)
			c.Constraints[name] = Constraint{Kind: ConstraintUniqueness, Properties: props}
		}
		for name, props := range indexes {
			sort.Strings(props)
			c.Indexes[name] = Index{Kind: IndexBTree, Properties: props}
		}

		if len(c.Properties) == 0 {
			b.out.Append(issues.Warningf(issues.CodeEmptyContainer,
				"container %s has no properties after compilation and is dropped", declared.Container))
			continue
		}
		kept[declared.Container] = true
		all = append(all, compiled{container: c, declared: declared})
	}

	declaredSet := make(map[rules.ContainerEntity]bool, len(b.dms.Containers))
	for _, declared := range b.dms.Containers {
		declaredSet[declared.Container] = true
	}

	var out []Container
	for _, item := range all {
		for i, target := range item.declared.Constraints {
			if declaredSet[target] && !kept[target] {
				continue // requires-target was dropped
			}
			name := fmt.Sprintf("requires%s_%d", target.ExternalID, i+1)
			item.container.Constraints[name] = Constraint{Kind: ConstraintRequires, Require: target}
		}
		out = append(out, item.container)
	}
	return out, kept
}

// containerProperty derives the storage entry a property contributes,
// or none when the property does not store anything in the container
// (edges, reverses, and list direct relations compiled to edges).
func (b *builder) containerProperty(p rules.DMSProperty) (ContainerProperty, bool) {
	switch p.Relation {
	case rules.RelationMultiEdge, rules.RelationReverseDirect:
		return ContainerProperty{}, false
	case rules.RelationDirect:
		if p.IsList {
			return ContainerProperty{}, false
		}
		return ContainerProperty{
			Type:     ContainerPropertyType{Kind: StorageDirect},
			Nullable: p.IsNullable(),
			Default:  p.Default,
		}, true
	}

	data := p.ValueType.Data
	if p.ValueType.Kind == rules.KindUnknown {
		// Unknown-typed properties are stored as text placeholders.
		data = rules.Text
	}
	return ContainerProperty{
		Type: ContainerPropertyType{
			Kind:        StoragePrimitive,
			Data:        data,
			IsList:      p.IsList,
			MaxListSize: p.MaxListSize,
		},
		Nullable: p.IsNullable(),
		Default:  p.Default,
	}, true
}

// computeSpaces declares the union of all referenced spaces plus the
// metadata space. When every container and view shares a single space
// only that space is declared, so no unused metadata space is pushed.
func (b *builder) computeSpaces(s *Schema) []Space {
	used := make(map[string]bool)
	for _, c := range s.Containers {
		used[c.Container.Space] = true
	}
	for _, v := range s.Views {
		used[v.View.Space] = true
	}

	if len(used) == 1 {
		for space := range used {
			return []Space{{Space: space}}
		}
	}

	used[b.dms.Metadata.Space] = true
	names := make([]string, 0, len(used))
	for space := range used {
		names = append(names, space)
	}
	sort.Strings(names)
	out := make([]Space, len(names))
	for i, name := range names {
		out[i] = Space{Space: name}
	}
	return out
}

// buildDataModel lists the query-facing views. A view referenced only
// as a parent, with no own properties, stays out of the data model
// unless explicitly marked in-model.
func (b *builder) buildDataModel(byView map[rules.ViewEntity][]rules.DMSProperty, parents map[rules.ViewEntity]bool) *DataModel {
	md := b.dms.Metadata
	dm := &DataModel{
		Space:      md.Space,
		ExternalID: md.ExternalID,
		Version:    md.Version,
	}
	for _, v := range b.dms.Views {
		parentOnly := parents[v.View] && len(byView[v.View]) == 0
		if parentOnly && !v.InModel {
			continue
		}
		dm.Views = append(dm.Views, v.View)
	}
	return dm
}
