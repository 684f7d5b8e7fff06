package convert

import (
	"github.com/c360studio/semforge/issues"
	"github.com/c360studio/semforge/rules"
)

// InformationToDMS maps a validated conceptual model to a physical
// one. Each class becomes a view; each property becomes a physical
// property bound to its class's container, or to the container of the
// namespace its reference points into. List-valued relations become
// multi-edge connections; single-valued relations become direct
// relations that are always nullable at the container level, because
// direct relations are resolved independently of write order.
func InformationToDMS(info *rules.InformationRules) (*rules.DMSRules, issues.List) {
	var out issues.List
	space := ToSpace(info.Metadata.Prefix)
	version := info.Metadata.Version
	if version == "" {
		version = "1"
	}

	dms := &rules.DMSRules{
		Metadata: rules.DMSMetadata{
			Space:        space,
			ExternalID:   info.Metadata.Prefix,
			Version:      version,
			Completeness: info.Metadata.Completeness,
			Extension:    info.Metadata.Extension,
			Name:         info.Metadata.Name,
			Creator:      info.Metadata.Creator,
		},
	}

	classView := func(cls rules.ClassEntity) rules.ViewEntity {
		clsSpace := space
		if cls.Prefix != info.Metadata.Prefix {
			clsSpace = ToSpace(cls.Prefix)
		}
		v := cls.Version
		if v == "" {
			v = version
		}
		return rules.ViewEntity{Space: clsSpace, ExternalID: cls.Suffix, Version: v}
	}
	classContainer := func(cls rules.ClassEntity) rules.ContainerEntity {
		return classView(cls).AsContainer()
	}

	// Classes whose properties never need container storage get no
	// container, and constraints pointing at them are dropped.
	needsContainer := make(map[rules.ClassEntity]bool)
	for _, p := range info.Properties {
		if propertyNeedsContainer(p) {
			needsContainer[classKey(p.Class)] = true
		}
	}

	declared := make(map[rules.ClassEntity]bool, len(info.Classes))
	for _, cls := range info.Classes {
		declared[classKey(cls.Class)] = true
	}

	for _, cls := range info.Classes {
		view := rules.DMSView{
			Class:   cls.Class,
			View:    classView(cls.Class),
			UsedFor: rules.UsageNode,
			Row:     cls.Row,
		}
		for _, parent := range cls.Parents {
			view.Implements = append(view.Implements, classView(parent))
		}
		if !cls.Reference.IsZero() {
			view.Implements = append(view.Implements, classView(cls.Reference))
		}
		dms.Views = append(dms.Views, view)

		if !needsContainer[classKey(cls.Class)] {
			continue
		}
		container := rules.DMSContainer{
			Class:     cls.Class,
			Container: classContainer(cls.Class),
			UsedFor:   rules.UsageNode,
			Row:       cls.Row,
		}
		for _, parent := range cls.Parents {
			if declared[classKey(parent)] && !needsContainer[classKey(parent)] {
				continue
			}
			container.Constraints = append(container.Constraints, classContainer(parent))
		}
		dms.Containers = append(dms.Containers, container)
	}

	for _, p := range info.Properties {
		dmsProp := rules.DMSProperty{
			Class:        p.Class,
			Property:     p.Property,
			View:         classView(p.Class),
			ViewProperty: p.Property,
			Default:      p.Default,
			Row:          p.Row,
		}
		if p.MaxCount > 1 {
			dmsProp.MaxListSize = int(p.MaxCount)
		}

		// Container binding: the class's own container, unless the
		// property re-declares a definition from another namespace,
		// in which case storage stays in that namespace's container.
		bindingClass, bindingProperty := p.Class, p.Property
		if !p.Reference.IsZero() {
			if p.Reference.Class.Prefix != p.Class.Prefix {
				bindingClass = p.Reference.Class
			}
			if p.Reference.Property != "" {
				bindingProperty = p.Reference.Property
			}
			dmsProp.Reference = rules.ViewPropertyEntity{
				View:     classView(p.Reference.Class),
				Property: p.Reference.Property,
			}
		}

		switch p.ValueType.Kind {
		case rules.KindClass:
			target := classView(p.ValueType.Class)
			dmsProp.ValueType = rules.DMSValueType{Kind: rules.KindView, View: target}
			if p.IsList() {
				dmsProp.Relation = rules.RelationMultiEdge
				dmsProp.IsList = true
			} else {
				// Direct relations are never hard-required at the
				// container level, even when the conceptual model
				// demands at least one value.
				dmsProp.Relation = rules.RelationDirect
				dmsProp.Nullable = boolPtr(true)
				dmsProp.Container = classContainer(bindingClass)
				dmsProp.ContainerProperty = bindingProperty
			}
		case rules.KindUnknown:
			dmsProp.ValueType = rules.DMSValueType{Kind: rules.KindUnknown}
			dmsProp.Nullable = boolPtr(true)
			dmsProp.IsList = p.IsList()
			dmsProp.Container = classContainer(bindingClass)
			dmsProp.ContainerProperty = bindingProperty
		default:
			dmsProp.ValueType = rules.DMSValueType{Kind: rules.KindPrimitive, Data: p.ValueType.Data}
			dmsProp.Nullable = boolPtr(!p.IsMandatory())
			dmsProp.IsList = p.IsList()
			dmsProp.Container = classContainer(bindingClass)
			dmsProp.ContainerProperty = bindingProperty
		}

		dms.Properties = append(dms.Properties, dmsProp)
	}

	return dms, out
}

// propertyNeedsContainer reports whether a conceptual property stores
// anything inline: primitives and unknowns always do, single-valued
// relations store a direct reference, list relations become edges.
func propertyNeedsContainer(p rules.InformationProperty) bool {
	if p.ValueType.Kind == rules.KindClass {
		return !p.IsList()
	}
	return true
}

func classKey(cls rules.ClassEntity) rules.ClassEntity {
	cls.Version = ""
	return cls
}

func boolPtr(b bool) *bool { return &b }
