package validation

import (
	"github.com/c360studio/semforge/issues"
	"github.com/c360studio/semforge/rules"
)

// ReferencesExist checks that every property row binds to a declared
// view and, for complete schemas, that container bindings and
// container constraint targets are declared too. Reverse-direct
// relations must not carry a container binding.
type ReferencesExist struct{}

// Name implements Stage.
func (ReferencesExist) Name() string { return "referenced views and containers exist" }

// Run implements Stage.
func (ReferencesExist) Run(r *rules.DMSRules, out *issues.List) {
	views := make(map[rules.ViewEntity]bool, len(r.Views))
	for _, v := range r.Views {
		views[v.View] = true
	}
	containers := make(map[rules.ContainerEntity]bool, len(r.Containers))
	for _, c := range r.Containers {
		containers[c.Container] = true
	}

	complete := r.Metadata.Completeness == rules.CompletenessComplete

	for _, p := range r.Properties {
		if !views[p.View] {
			iss := issues.Errorf(issues.CodeMissingView,
				"property %s references view %s which is not declared", p.ViewProperty, p.View)
			iss.Rows = []int{p.Row}
			out.Append(iss)
		}
		if p.Relation == rules.RelationReverseDirect && p.HasContainer() {
			iss := issues.Errorf(issues.CodeMissingReverseTarget,
				"reverse-direct property %s of view %s must not carry a container binding",
				p.ViewProperty, p.View)
			iss.Rows = []int{p.Row}
			out.Append(iss)
		}
		if complete && p.HasContainer() && !containers[p.Container] {
			iss := issues.Errorf(issues.CodeMissingContainer,
				"property %s references container %s which is not declared", p.ViewProperty, p.Container)
			iss.Rows = []int{p.Row}
			out.Append(iss)
		}
	}

	if complete {
		for _, c := range r.Containers {
			for _, target := range c.Constraints {
				if !containers[target] {
					iss := issues.Errorf(issues.CodeMissingContainer,
						"container %s requires %s which is not declared", c.Container, target)
					iss.Rows = []int{c.Row}
					out.Append(iss)
				}
			}
		}
	}
}
