package loader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/c360studio/semforge/issues"
	"github.com/c360studio/semforge/rules"
	"github.com/c360studio/semforge/vocabulary/rdfns"
)

// maxEdgeExternalID is the store's limit on edge external ids.
const maxEdgeExternalID = 256

// The CDF unit catalog: direct relations into it are converted to
// fixed references in the unit instance space.
const (
	unitViewExternalID = "CogniteUnit"
	unitInstanceSpace  = "cdf_cdm_units"
)

// systemProperties are store-managed and never projected.
var systemProperties = map[string]bool{
	"externalId":      true,
	"space":           true,
	"createdTime":     true,
	"lastUpdatedTime": true,
	"deletedTime":     true,
}

// propKind is the closed set of projection behaviors. Every property
// of a view classifies into exactly one kind, and decoding dispatches
// on it through a static visitor.
type propKind int

const (
	kindSkip propKind = iota
	kindUnitRef
	kindDirectSingle
	kindDirectList
	kindJSON
	kindText
	kindScalar
)

type propertyDescriptor struct {
	name   string
	kind   propKind
	data   rules.DataType
	isList bool
	limit  int
}

// projection builds the property descriptors of one view. The
// direct-relation list cap resolves store metadata first, then the
// property's own declared cap, then the loader's fallback limit.
func (l *Loader) projection(ctx context.Context, view rules.DMSView) ([]propertyDescriptor, error) {
	var out []propertyDescriptor
	for _, p := range l.dms.PropertiesByView(view.View) {
		name := p.ViewProperty
		if name == "" {
			name = p.Property
		}
		desc := propertyDescriptor{name: name, isList: p.IsList}

		switch {
		case systemProperties[name],
			p.Relation == rules.RelationReverseDirect,
			p.Relation == rules.RelationMultiEdge:
			desc.kind = kindSkip

		case p.Relation == rules.RelationDirect:
			if p.ValueType.Kind == rules.KindView && p.ValueType.View.ExternalID == unitViewExternalID {
				desc.kind = kindUnitRef
				break
			}
			if !p.IsList {
				desc.kind = kindDirectSingle
				break
			}
			desc.kind = kindDirectList
			limit := p.MaxListSize
			if l.store != nil && p.HasContainer() {
				stored, ok, err := l.store.MaxListSize(ctx, p.Container, p.ContainerProperty)
				if err != nil {
					return nil, fmt.Errorf("resolve list size of %s.%s: %w", p.Container, p.ContainerProperty, err)
				}
				if ok {
					limit = stored
				}
			}
			if limit <= 0 {
				limit = l.listLimit
			}
			desc.limit = limit

		case p.ValueType.Kind == rules.KindPrimitive && p.ValueType.Data == rules.JSON:
			desc.kind = kindJSON

		case p.ValueType.Kind == rules.KindPrimitive && p.ValueType.Data == rules.Text,
			p.ValueType.Kind == rules.KindUnknown:
			desc.kind = kindText
			desc.data = rules.Text

		default:
			desc.kind = kindScalar
			desc.data = p.ValueType.Data
		}

		out = append(out, desc)
	}
	return out, nil
}

// project decodes one raw instance into a node or edge record plus any
// per-instance findings. An instance is an edge if and only if it
// carries both a start and an end node marker; a mismatch with the
// view's declared usage is a hard per-instance error.
func (l *Loader) project(vp ViewPlan, proj []propertyDescriptor, raw RawInstance) (Result, []issues.Issue) {
	var found []issues.Issue

	props := make(map[string][]any, len(raw.Properties))
	for k, v := range raw.Properties {
		props[k] = v
	}
	start := popFirst(props, "startNode", "start_node")
	end := popFirst(props, "endNode", "end_node")
	isEdge := start != nil && end != nil

	externalID := rdfns.LocalName(raw.Subject)
	usage := vp.View.Usage()

	if popFirst(props, "type", rdfns.RDFType) == nil {
		iss := issues.Errorf(issues.CodeMissingTypeMarker,
			"instance carries no type marker; expected %s", vp.Type)
		iss.Identifier = externalID
		return Result{}, append(found, iss)
	}

	switch {
	case isEdge && usage == rules.UsageNode:
		iss := issues.Errorf(issues.CodeInstanceKindMismatch,
			"view %s is used for nodes but instance is an edge", vp.View.View)
		iss.Identifier = externalID
		return Result{}, append(found, iss)
	case !isEdge && usage == rules.UsageEdge:
		iss := issues.Errorf(issues.CodeInstanceKindMismatch,
			"view %s is used for edges but instance is a node", vp.View.View)
		iss.Identifier = externalID
		return Result{}, append(found, iss)
	}

	decoded := make(map[string]any)
	for _, desc := range proj {
		values, ok := props[desc.name]
		if !ok || len(values) == 0 || desc.kind == kindSkip {
			continue
		}
		value, extra, ok := l.decodeProperty(desc, values)
		for i := range extra {
			// The record id is resolved here, after the projection
			// validators ran; stamp it before emitting.
			extra[i].Identifier = externalID
			found = append(found, extra[i])
			if extra[i].Code == issues.CodeDirectRelationLimit {
				metricTruncations.Inc()
			}
		}
		if ok {
			decoded[desc.name] = value
		}
	}

	if isEdge {
		return Result{Edge: &Edge{
			Space:      l.instanceSpace,
			ExternalID: truncateEdgeID(externalID),
			View:       vp.View.View,
			Type:       NodeRef{Space: vp.View.View.Space, ExternalID: vp.View.View.ExternalID},
			StartNode:  NodeRef{Space: l.instanceSpace, ExternalID: rdfns.LocalName(fmt.Sprint(start))},
			EndNode:    NodeRef{Space: l.instanceSpace, ExternalID: rdfns.LocalName(fmt.Sprint(end))},
			Properties: decoded,
		}}, found
	}
	return Result{Node: &Node{
		Space:      l.instanceSpace,
		ExternalID: externalID,
		View:       vp.View.View,
		Properties: decoded,
	}}, found
}

// decodeProperty applies the kind-specific decoding. The third result
// is false when the value could not be decoded at all.
func (l *Loader) decodeProperty(desc propertyDescriptor, values []any) (any, []issues.Issue, bool) {
	switch desc.kind {
	case kindUnitRef:
		return NodeRef{Space: unitInstanceSpace, ExternalID: rdfns.LocalName(fmt.Sprint(values[0]))}, nil, true

	case kindDirectSingle:
		sorted := sortedStrings(values)
		var found []issues.Issue
		if len(sorted) > 1 {
			found = append(found, issues.Warningf(issues.CodeMultipleValue,
				"property %s has %d values but is single-valued; keeping the first", desc.name, len(sorted)))
		}
		return NodeRef{Space: l.instanceSpace, ExternalID: rdfns.LocalName(sorted[0])}, found, true

	case kindDirectList:
		sorted := sortedStrings(values)
		var found []issues.Issue
		if len(sorted) > desc.limit {
			found = append(found, issues.Warningf(issues.CodeDirectRelationLimit,
				"property %s has %d targets, capped at %d", desc.name, len(sorted), desc.limit))
			sorted = sorted[:desc.limit]
		}
		refs := make([]NodeRef, len(sorted))
		for i, v := range sorted {
			refs[i] = NodeRef{Space: l.instanceSpace, ExternalID: rdfns.LocalName(v)}
		}
		return refs, found, true

	case kindJSON:
		return decodeJSON(desc.name, values[0])

	case kindText:
		if desc.isList {
			out := make([]string, len(values))
			for i, v := range values {
				out[i] = rdfns.LocalName(fmt.Sprint(v))
			}
			return out, nil, true
		}
		return rdfns.LocalName(fmt.Sprint(values[0])), nil, true

	default:
		if desc.isList {
			out := make([]any, len(values))
			for i, v := range values {
				out[i] = coerceScalar(desc.data, v)
			}
			return out, nil, true
		}
		return coerceScalar(desc.data, values[0]), nil, true
	}
}

func decodeJSON(name string, value any) (any, []issues.Issue, bool) {
	switch v := value.(type) {
	case map[string]any, []any:
		return v, nil, true
	case string:
		var out any
		if err := json.Unmarshal([]byte(v), &out); err != nil {
			return nil, []issues.Issue{issues.Errorf(issues.CodeInvalidPropertyValue,
				"property %s is not valid JSON: %v", name, err)}, false
		}
		return out, nil, true
	default:
		return nil, []issues.Issue{issues.Errorf(issues.CodeInvalidPropertyValue,
			"property %s has unsupported JSON carrier %T", name, value)}, false
	}
}

// coerceScalar converts a raw literal to the declared primitive,
// keeping the raw form when parsing fails so the store can reject it
// with its own diagnostics.
func coerceScalar(data rules.DataType, value any) any {
	s, isString := value.(string)
	if !isString {
		return value
	}
	switch data {
	case rules.Boolean:
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
	case rules.Int32, rules.Int64:
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	case rules.Float32, rules.Float64:
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return s
}

// sortedStrings renders values deterministically for list capping.
func sortedStrings(values []any) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = fmt.Sprint(v)
	}
	sort.Strings(out)
	return out
}

func popFirst(props map[string][]any, names ...string) any {
	for _, name := range names {
		if values, ok := props[name]; ok {
			delete(props, name)
			if len(values) > 0 {
				return values[0]
			}
		}
	}
	return nil
}

// truncateEdgeID caps an edge external id at the store limit,
// substituting a content hash of the full id on overflow so distinct
// long ids stay distinct.
func truncateEdgeID(id string) string {
	if len(id) <= maxEdgeExternalID {
		return id
	}
	sum := sha256.Sum256([]byte(id))
	suffix := hex.EncodeToString(sum[:8])
	return id[:maxEdgeExternalID-len(suffix)-1] + "_" + suffix
}
