package validation

import (
	"github.com/c360studio/semforge/issues"
	"github.com/c360studio/semforge/rules"
	"github.com/c360studio/semforge/schema"
)

// SchemaCheck compiles the rules and validates the resulting schema.
// Complete rules validate directly; extended rules are first merged
// with their reference (self wins duplicate ids) so cross-generation
// references resolve; partial rules skip the check entirely.
type SchemaCheck struct{}

// Name implements Stage.
func (SchemaCheck) Name() string { return "full schema validation" }

// Run implements Stage.
func (SchemaCheck) Run(r *rules.DMSRules, out *issues.List) {
	var target *rules.DMSRules
	switch r.Metadata.Completeness {
	case rules.CompletenessComplete:
		target = r
	case rules.CompletenessExtended:
		if r.Reference == nil {
			out.Append(issues.Errorf(issues.CodeMissingReferenceRules,
				"schema completeness is extended but no reference rules are attached"))
			return
		}
		target = rules.Merge(r, r.Reference)
	default:
		return
	}

	compiled, buildIssues := schema.Build(target)
	out.Extend(buildIssues)
	out.Extend(compiled.Validate())
}
