// Package validation runs the ordered DMS rules validation pipeline.
//
// Each stage is an explicit object implementing Stage, independently
// testable and skippable by composing a pipeline without it. A stage
// that produces errors aborts the stages after it: later stages assume
// the structural guarantees of earlier ones.
package validation

import (
	"github.com/c360studio/semforge/issues"
	"github.com/c360studio/semforge/rules"
)

// Stage is one step of the validation pipeline. A stage may normalize
// the rules object (the consistency stage broadcasts agreed container
// property definitions) but must collect every violation it finds
// rather than stopping at the first.
type Stage interface {
	Name() string
	Run(r *rules.DMSRules, out *issues.List)
}

// Pipeline composes stages in a fixed order.
type Pipeline struct {
	stages []Stage
}

// NewPipeline returns the full pipeline in its defined order:
// container property consistency, reference existence, extension
// compatibility, full schema validation.
func NewPipeline() *Pipeline {
	return NewPipelineWith(
		ConsistentContainerProperties{},
		ReferencesExist{},
		ExtensionCompat{},
		SchemaCheck{},
	)
}

// NewPipelineWith composes an explicit stage list. Stages are skipped
// by omission.
func NewPipelineWith(stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages}
}

// Run executes the stages against the rules object, aborting after the
// first stage that contributes errors. All findings collected so far
// are returned; Run never raises for expected validation failures.
func (p *Pipeline) Run(r *rules.DMSRules) issues.List {
	var out issues.List
	for _, stage := range p.stages {
		before := len(out.Errors())
		stage.Run(r, &out)
		if len(out.Errors()) > before {
			break
		}
	}
	return out
}

// Validate runs the full pipeline. Convenience for callers that do not
// need a custom stage composition.
func Validate(r *rules.DMSRules) issues.List {
	return NewPipeline().Run(r)
}
