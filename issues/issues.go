// Package issues provides structured validation and load findings.
//
// Validation collects every finding before reporting so a single pass
// surfaces all problems; loading streams findings per instance. Both
// paths share the Issue type and the List accumulator. A List is owned
// by a single validation or load invocation and is not safe for
// concurrent use.
package issues

import (
	"fmt"
	"sort"
	"strings"
)

// Severity classifies a finding.
type Severity string

const (
	// SeverityError marks a finding that invalidates the rules object
	// or instance it was raised for.
	SeverityError Severity = "error"

	// SeverityWarning marks a finding the caller can proceed past.
	SeverityWarning Severity = "warning"
)

// Issue codes. Stable identifiers the CLI and callers can filter on.
const (
	CodeInconsistentContainerProperty = "inconsistent_container_property"
	CodeMissingView                   = "missing_view"
	CodeMissingContainer              = "missing_container"
	CodeMissingContainerProperty      = "missing_container_property"
	CodeMissingSpace                  = "missing_space"
	CodeMissingParentView             = "missing_parent_view"
	CodeMissingEdgeSourceView         = "missing_edge_source_view"
	CodeMissingReverseTarget          = "missing_reverse_target"
	CodeDuplicateMapping              = "duplicate_container_property_mapping"
	CodeIncompleteSchema              = "incomplete_schema"
	CodeImplementsCycle               = "implements_cycle"
	CodeClassWithoutDefinition        = "class_without_definition"
	CodeBreakingExtension             = "breaking_extension"
	CodeMissingReferenceRules         = "missing_reference_rules"

	CodeListDirectAsEdge     = "list_direct_relation_as_multi_edge"
	CodeUnsupportedRelation  = "unsupported_relation"
	CodeFilterOverridden     = "filter_overridden"
	CodeEmptyContainer       = "empty_container_dropped"
	CodeMultipleReference    = "multiple_cross_namespace_reference"
	CodeDirectRelationLimit  = "direct_relation_limit"
	CodeMultipleValue        = "multiple_value"
	CodeInstanceKindMismatch = "instance_kind_mismatch"
	CodeMissingTypeMarker    = "missing_type_marker"
	CodeInvalidPropertyValue = "invalid_property_value"
	CodeCapacityExceeded     = "capacity_exceeded"
)

// Issue is a single structured finding.
type Issue struct {
	Severity Severity `json:"severity" yaml:"severity"`
	Code     string   `json:"code" yaml:"code"`
	Message  string   `json:"message" yaml:"message"`

	// Rows lists the offending sheet rows, when known.
	Rows []int `json:"rows,omitempty" yaml:"rows,omitempty"`

	// Identifier names the entity or instance the finding concerns.
	// For per-instance load warnings it may be stamped after the
	// finding is raised, once the instance id has been resolved.
	Identifier string `json:"identifier,omitempty" yaml:"identifier,omitempty"`
}

func (i Issue) String() string {
	var sb strings.Builder
	sb.WriteString(string(i.Severity))
	sb.WriteString(" [")
	sb.WriteString(i.Code)
	sb.WriteString("] ")
	sb.WriteString(i.Message)
	if i.Identifier != "" {
		fmt.Fprintf(&sb, " (identifier: %s)", i.Identifier)
	}
	if len(i.Rows) > 0 {
		rows := append([]int(nil), i.Rows...)
		sort.Ints(rows)
		parts := make([]string, len(rows))
		for n, r := range rows {
			parts[n] = fmt.Sprint(r)
		}
		fmt.Fprintf(&sb, " (rows: %s)", strings.Join(parts, ", "))
	}
	return sb.String()
}

// Errorf builds an error-severity issue.
func Errorf(code, format string, args ...any) Issue {
	return Issue{Severity: SeverityError, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Warningf builds a warning-severity issue.
func Warningf(code, format string, args ...any) Issue {
	return Issue{Severity: SeverityWarning, Code: code, Message: fmt.Sprintf(format, args...)}
}

// List accumulates findings across one validation or load pass.
// The zero value is ready to use.
type List struct {
	items []Issue
}

// Append adds findings to the list.
func (l *List) Append(items ...Issue) {
	l.items = append(l.items, items...)
}

// Extend merges another list into this one.
func (l *List) Extend(other List) {
	l.items = append(l.items, other.items...)
}

// All returns every finding in insertion order.
func (l *List) All() []Issue {
	return l.items
}

// Errors returns only the error-severity findings.
func (l *List) Errors() []Issue {
	var out []Issue
	for _, it := range l.items {
		if it.Severity == SeverityError {
			out = append(out, it)
		}
	}
	return out
}

// Warnings returns only the warning-severity findings.
func (l *List) Warnings() []Issue {
	var out []Issue
	for _, it := range l.items {
		if it.Severity == SeverityWarning {
			out = append(out, it)
		}
	}
	return out
}

// HasErrors reports whether the list contains any error-severity finding.
func (l *List) HasErrors() bool {
	for _, it := range l.items {
		if it.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Len returns the number of findings.
func (l *List) Len() int { return len(l.items) }

// AsError returns nil when no error-severity findings are present,
// otherwise a *MultiError carrying every error.
func (l *List) AsError() error {
	errs := l.Errors()
	if len(errs) == 0 {
		return nil
	}
	return &MultiError{Issues: errs}
}

// MultiError aggregates every error-severity finding of a pass so one
// round-trip reports everything wrong.
type MultiError struct {
	Issues []Issue
}

func (e *MultiError) Error() string {
	if len(e.Issues) == 1 {
		return e.Issues[0].String()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:", len(e.Issues))
	for _, it := range e.Issues {
		sb.WriteString("\n  - ")
		sb.WriteString(it.String())
	}
	return sb.String()
}
