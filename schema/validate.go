package schema

import (
	"github.com/c360studio/semforge/issues"
	"github.com/c360studio/semforge/rules"
)

// Validate checks referential consistency of the compiled schema:
// every referenced space is declared, every implements parent exists,
// every mapped container and container property exists, every edge
// connection's source view exists, and no container property is mapped
// twice under the same view property name within one view. All
// violations are collected before returning.
func (s *Schema) Validate() issues.List {
	var out issues.List

	spaces := make(map[string]bool, len(s.Spaces))
	for _, sp := range s.Spaces {
		spaces[sp.Space] = true
	}
	views := make(map[rules.ViewEntity]bool, len(s.Views))
	for _, v := range s.Views {
		views[v.View] = true
	}
	containers := make(map[rules.ContainerEntity]*Container, len(s.Containers))
	for i := range s.Containers {
		containers[s.Containers[i].Container] = &s.Containers[i]
	}

	requireSpace := func(space, context string) {
		if !spaces[space] {
			out.Append(issues.Errorf(issues.CodeMissingSpace,
				"space %s referenced by %s is not declared", space, context))
		}
	}

	for _, c := range s.Containers {
		requireSpace(c.Container.Space, "container "+c.Container.String())
		for name, cons := range c.Constraints {
			if cons.Kind != ConstraintRequires {
				continue
			}
			if _, ok := containers[cons.Require]; !ok {
				out.Append(issues.Errorf(issues.CodeMissingContainer,
					"container %s required by constraint %s of %s does not exist",
					cons.Require, name, c.Container))
			}
		}
	}

	for _, v := range s.Views {
		requireSpace(v.View.Space, "view "+v.View.String())

		for _, parent := range v.Implements {
			if !views[parent] {
				out.Append(issues.Errorf(issues.CodeMissingParentView,
					"view %s implements %s which does not exist", v.View, parent))
			}
		}

		type mapKey struct {
			container rules.ContainerEntity
			property  string
			name      string
		}
		seen := make(map[mapKey]bool)

		for _, entry := range v.Properties {
			switch p := entry.Property.(type) {
			case MappedProperty:
				cont, ok := containers[p.Container]
				if !ok {
					out.Append(issues.Errorf(issues.CodeMissingContainer,
						"view %s property %s maps container %s which does not exist",
						v.View, entry.Name, p.Container))
					continue
				}
				if _, ok := cont.Properties[p.ContainerProperty]; !ok {
					out.Append(issues.Errorf(issues.CodeMissingContainerProperty,
						"view %s property %s maps %s.%s which is not defined",
						v.View, entry.Name, p.Container, p.ContainerProperty))
				}
				key := mapKey{p.Container, p.ContainerProperty, entry.Name}
				if seen[key] {
					out.Append(issues.Errorf(issues.CodeDuplicateMapping,
						"view %s maps %s.%s twice under property name %s",
						v.View, p.Container, p.ContainerProperty, entry.Name))
				}
				seen[key] = true
			case MultiEdgeConnection:
				if !views[p.Source] {
					out.Append(issues.Errorf(issues.CodeMissingEdgeSourceView,
						"view %s edge property %s targets view %s which does not exist",
						v.View, entry.Name, p.Source))
				}
			case ReverseDirectRelation:
				if !views[p.Source] {
					out.Append(issues.Errorf(issues.CodeMissingEdgeSourceView,
						"view %s reverse property %s targets view %s which does not exist",
						v.View, entry.Name, p.Source))
				}
			}
		}
	}

	if s.DataModel != nil {
		requireSpace(s.DataModel.Space, "data model "+s.DataModel.ExternalID)
		for _, v := range s.DataModel.Views {
			if !views[v] {
				out.Append(issues.Errorf(issues.CodeMissingView,
					"data model %s lists view %s which does not exist",
					s.DataModel.ExternalID, v))
			}
		}
	}

	return out
}
