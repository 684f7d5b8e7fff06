package validation

import (
	"reflect"
	"sort"

	"github.com/c360studio/semforge/issues"
	"github.com/c360studio/semforge/rules"
	"github.com/c360studio/semforge/schema"
)

// ExtensionCompat checks an extended rules object against its
// reference generation. It only applies when the model truly extends
// the reference (same space) and the extension category permits less
// than a rebuild: containers must then compile identically to the
// reference's, and views too unless the category is reshape.
type ExtensionCompat struct{}

// Name implements Stage.
func (ExtensionCompat) Name() string { return "extension compatibility" }

// Run implements Stage.
func (ExtensionCompat) Run(r *rules.DMSRules, out *issues.List) {
	if r.Metadata.Completeness != rules.CompletenessExtended {
		return
	}
	if r.Reference == nil {
		out.Append(issues.Errorf(issues.CodeMissingReferenceRules,
			"schema completeness is extended but no reference rules are attached"))
		return
	}
	if r.Metadata.Space != r.Reference.Metadata.Space {
		// A separate solution model, not an extension of the
		// reference space.
		return
	}
	if r.Metadata.Extension == rules.ExtensionRebuild {
		return
	}

	selfSchema, _ := schema.Build(r)
	refSchema, _ := schema.Build(r.Reference)

	compareContainers(selfSchema, refSchema, out)
	if r.Metadata.Extension != rules.ExtensionReshape {
		compareViews(selfSchema, refSchema, out)
	}
}

// compareContainers reports every container that redefines what the
// reference already compiled, naming the changed properties and
// attributes.
func compareContainers(self, ref *schema.Schema, out *issues.List) {
	for _, refContainer := range ref.Containers {
		selfContainer, ok := self.ContainerByEntity(refContainer.Container)
		if !ok {
			continue // removed containers surface at schema validation
		}

		var changed []string
		for name, refProp := range refContainer.Properties {
			selfProp, exists := selfContainer.Properties[name]
			if !exists || !reflect.DeepEqual(selfProp, refProp) {
				changed = append(changed, "property "+name)
			}
		}
		if !reflect.DeepEqual(selfContainer.Constraints, refContainer.Constraints) {
			changed = append(changed, "constraints")
		}
		if !reflect.DeepEqual(selfContainer.Indexes, refContainer.Indexes) {
			changed = append(changed, "indexes")
		}
		if selfContainer.UsedFor != refContainer.UsedFor {
			changed = append(changed, "usedFor")
		}

		if len(changed) > 0 {
			sort.Strings(changed)
			for _, name := range changed {
				out.Append(issues.Errorf(issues.CodeBreakingExtension,
					"container %s changes %s relative to the reference model",
					refContainer.Container, name))
			}
		}
	}
}

// compareViews reports every view whose compiled definition diverges
// from the reference's.
func compareViews(self, ref *schema.Schema, out *issues.List) {
	for _, refView := range ref.Views {
		selfView, ok := self.ViewByEntity(refView.View)
		if !ok {
			continue
		}

		var changed []string
		for _, refEntry := range refView.Properties {
			selfProp, exists := selfView.Property(refEntry.Name)
			if !exists || !reflect.DeepEqual(selfProp, refEntry.Property) {
				changed = append(changed, "property "+refEntry.Name)
			}
		}
		if !reflect.DeepEqual(selfView.Implements, refView.Implements) {
			changed = append(changed, "implements")
		}
		if !reflect.DeepEqual(selfView.Filter, refView.Filter) {
			changed = append(changed, "filter")
		}

		if len(changed) > 0 {
			sort.Strings(changed)
			for _, name := range changed {
				out.Append(issues.Errorf(issues.CodeBreakingExtension,
					"view %s changes %s relative to the reference model",
					refView.View, name))
			}
		}
	}
}
