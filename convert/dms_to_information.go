package convert

import (
	"fmt"

	"github.com/c360studio/semforge/issues"
	"github.com/c360studio/semforge/rules"
)

// DMSToInformation maps a physical model back to a conceptual one.
// Views become classes; same-space implements entries become parents
// while a cross-space implements entry becomes the class's single
// reference. Reverse-direct relations are view-only projections and
// have no conceptual counterpart.
func DMSToInformation(dms *rules.DMSRules) (*rules.InformationRules, issues.List) {
	var out issues.List
	prefix := dms.Metadata.Space

	info := &rules.InformationRules{
		Metadata: rules.InformationMetadata{
			Prefix:       prefix,
			Namespace:    fmt.Sprintf("https://semforge.dev/ontology/%s/", prefix),
			Version:      dms.Metadata.Version,
			Completeness: dms.Metadata.Completeness,
			Extension:    dms.Metadata.Extension,
			Name:         dms.Metadata.Name,
			Creator:      dms.Metadata.Creator,
		},
	}

	viewClass := func(view rules.ViewEntity) rules.ClassEntity {
		return rules.ClassEntity{Prefix: view.Space, Suffix: view.ExternalID, Version: view.Version}
	}

	for _, v := range dms.Views {
		cls := rules.InformationClass{
			Class: viewClass(v.View),
			Row:   v.Row,
		}
		for _, parent := range v.Implements {
			if parent.Space == v.View.Space {
				cls.Parents = append(cls.Parents, viewClass(parent))
				continue
			}
			// Only one cross-namespace implement is representable as
			// the class reference; the first wins.
			if cls.Reference.IsZero() {
				cls.Reference = viewClass(parent)
			} else {
				out.Append(issues.Warningf(issues.CodeMultipleReference,
					"view %s implements multiple cross-namespace parents; keeping %s, dropping %s",
					v.View, cls.Reference, viewClass(parent)))
			}
		}
		info.Classes = append(info.Classes, cls)
	}

	for _, p := range dms.Properties {
		if p.Relation == rules.RelationReverseDirect {
			continue
		}

		infoProp := rules.InformationProperty{
			Class:    viewClass(p.View),
			Property: p.ViewProperty,
			Default:  p.Default,
			Row:      p.Row,
		}
		if !p.Reference.IsZero() {
			infoProp.Reference = rules.PropertyReference{
				Class:    viewClass(p.Reference.View),
				Property: p.Reference.Property,
			}
		}

		switch p.Relation {
		case rules.RelationMultiEdge:
			infoProp.ValueType = rules.InfoValueType{Kind: rules.KindClass, Class: viewClass(p.ValueType.View)}
			infoProp.MinCount = 0
			infoProp.MaxCount = rules.Unbounded
		case rules.RelationDirect:
			infoProp.ValueType = rules.InfoValueType{Kind: rules.KindClass, Class: viewClass(p.ValueType.View)}
			infoProp.MinCount = 0
			if p.IsList {
				infoProp.MaxCount = rules.Unbounded
			} else {
				infoProp.MaxCount = 1
			}
		default:
			infoProp.ValueType = rules.InfoValueType{Kind: p.ValueType.Kind, Data: p.ValueType.Data}
			if p.IsNullable() {
				infoProp.MinCount = 0
			} else {
				infoProp.MinCount = 1
			}
			switch {
			case !p.IsList:
				infoProp.MaxCount = 1
			case p.MaxListSize > 0:
				infoProp.MaxCount = int64(p.MaxListSize)
			default:
				infoProp.MaxCount = rules.Unbounded
			}
		}

		info.Properties = append(info.Properties, infoProp)
	}

	return info, out
}
