package convert

import (
	"fmt"
	"strings"

	"github.com/c360studio/semforge/issues"
	"github.com/c360studio/semforge/rules"
	"github.com/c360studio/semforge/schema"
)

// SchemaToDMS re-imports a compiled schema into physical rules.
// Provenance links and node-type placeholders are lost in translation;
// the (view, property) to container mappings round-trip exactly.
func SchemaToDMS(s *schema.Schema) (*rules.DMSRules, issues.List) {
	var out issues.List

	dms := &rules.DMSRules{
		Metadata: rules.DMSMetadata{Completeness: rules.CompletenessComplete},
	}
	if s.DataModel != nil {
		dms.Metadata.Space = s.DataModel.Space
		dms.Metadata.ExternalID = s.DataModel.ExternalID
		dms.Metadata.Version = s.DataModel.Version
	}

	for _, c := range s.Containers {
		declared := rules.DMSContainer{
			Class:     rules.ClassEntity{Prefix: c.Container.Space, Suffix: c.Container.ExternalID},
			Container: c.Container,
			UsedFor:   c.UsedFor,
		}
		for _, cons := range c.Constraints {
			if cons.Kind == schema.ConstraintRequires {
				declared.Constraints = append(declared.Constraints, cons.Require)
			}
		}
		dms.Containers = append(dms.Containers, declared)
	}

	for _, v := range s.Views {
		declared := rules.DMSView{
			Class:      rules.ClassEntity{Prefix: v.View.Space, Suffix: v.View.ExternalID, Version: v.View.Version},
			View:       v.View,
			Implements: append([]rules.ViewEntity(nil), v.Implements...),
			InModel:    v.InModel,
			UsedFor:    v.UsedFor,
		}
		switch v.Filter.(type) {
		case schema.HasDataFilter:
			declared.Filter = rules.FilterHasData
		case schema.NodeTypeFilter:
			declared.Filter = rules.FilterNodeType
		}
		dms.Views = append(dms.Views, declared)

		for _, entry := range v.Properties {
			prop, ok := importViewProperty(s, v.View, entry, &out)
			if ok {
				dms.Properties = append(dms.Properties, prop)
			}
		}
	}

	return dms, out
}

func importViewProperty(s *schema.Schema, view rules.ViewEntity, entry schema.ViewPropertyEntry, out *issues.List) (rules.DMSProperty, bool) {
	prop := rules.DMSProperty{
		Class:        rules.ClassEntity{Prefix: view.Space, Suffix: view.ExternalID, Version: view.Version},
		Property:     entry.Name,
		View:         view,
		ViewProperty: entry.Name,
	}

	switch p := entry.Property.(type) {
	case schema.MappedProperty:
		prop.Container = p.Container
		prop.ContainerProperty = p.ContainerProperty

		container, ok := s.ContainerByEntity(p.Container)
		if !ok {
			out.Append(issues.Errorf(issues.CodeMissingContainer,
				"view %s property %s maps container %s which is not in the schema",
				view, entry.Name, p.Container))
			return rules.DMSProperty{}, false
		}
		stored, ok := container.Properties[p.ContainerProperty]
		if !ok {
			out.Append(issues.Errorf(issues.CodeMissingContainerProperty,
				"view %s property %s maps %s.%s which is not defined",
				view, entry.Name, p.Container, p.ContainerProperty))
			return rules.DMSProperty{}, false
		}

		nullable := stored.Nullable
		prop.Nullable = &nullable
		prop.Default = stored.Default
		for name, cons := range container.Constraints {
			if cons.Kind == schema.ConstraintUniqueness && contains(cons.Properties, p.ContainerProperty) {
				prop.Constraint = append(prop.Constraint, name)
			}
		}
		for name, idx := range container.Indexes {
			if contains(idx.Properties, p.ContainerProperty) {
				prop.Index = append(prop.Index, name)
			}
		}

		if stored.Type.Kind == schema.StorageDirect {
			prop.Relation = rules.RelationDirect
			if p.Source != nil {
				prop.ValueType = rules.DMSValueType{Kind: rules.KindView, View: *p.Source}
			} else {
				prop.ValueType = rules.DMSValueType{Kind: rules.KindUnknown}
			}
		} else {
			prop.ValueType = rules.DMSValueType{Kind: rules.KindPrimitive, Data: stored.Type.Data}
			prop.IsList = stored.Type.IsList
			prop.MaxListSize = stored.Type.MaxListSize
		}

	case schema.MultiEdgeConnection:
		if p.Direction == schema.DirectionInwards {
			// An inward edge reverses a forward list direct relation
			// on the source view.
			prop.Relation = rules.RelationReverseDirect
			prop.ValueType = rules.DMSValueType{
				Kind: rules.KindViewProperty,
				ViewProperty: rules.ViewPropertyEntity{
					View:     p.Source,
					Property: edgeTypeProperty(p.Type),
				},
			}
			prop.IsList = true
			return prop, true
		}
		prop.Relation = rules.RelationMultiEdge
		prop.ValueType = rules.DMSValueType{Kind: rules.KindView, View: p.Source}
		prop.IsList = true
		synthesized := fmt.Sprintf("%s.%s", view.ExternalID, entry.Name)
		if p.Type.Space != view.Space || p.Type.ExternalID != synthesized {
			prop.Reference = rules.ViewPropertyEntity{
				View: rules.ViewEntity{
					Space:      p.Type.Space,
					ExternalID: edgeTypeView(p.Type),
					Version:    view.Version,
				},
				Property: edgeTypeProperty(p.Type),
			}
		}

	case schema.ReverseDirectRelation:
		prop.Relation = rules.RelationReverseDirect
		prop.ValueType = rules.DMSValueType{Kind: rules.KindViewProperty, ViewProperty: p.Through}
		prop.IsList = p.IsList
	}

	return prop, true
}

// Edge type external ids have the form "View.property".
func edgeTypeView(t schema.EdgeType) string {
	if i := strings.LastIndex(t.ExternalID, "."); i >= 0 {
		return t.ExternalID[:i]
	}
	return t.ExternalID
}

func edgeTypeProperty(t schema.EdgeType) string {
	if i := strings.LastIndex(t.ExternalID, "."); i >= 0 {
		return t.ExternalID[i+1:]
	}
	return t.ExternalID
}

func contains(items []string, target string) bool {
	for _, it := range items {
		if it == target {
			return true
		}
	}
	return false
}
