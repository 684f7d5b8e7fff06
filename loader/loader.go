// Package loader projects RDF triple data into typed node and edge
// records for the target store, honoring the physical model's
// cardinality limits and direct-relation caps.
//
// Load produces a lazy sequence of results interleaving records and
// per-instance issues; the sequence is finite and not restartable once
// consumed. The whole pipeline is single-threaded and synchronous.
package loader

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/c360studio/semforge/issues"
	"github.com/c360studio/semforge/rules"
)

// DefaultDirectRelationLimit caps direct-relation lists when neither
// the property nor the store metadata declares a limit.
const DefaultDirectRelationLimit = 100

// RawInstance is one subject with its grouped property values, as
// produced by the triple-reading collaborator.
type RawInstance struct {
	Subject    string
	Properties map[string][]any
}

// TripleReader is the queryable triple-store collaborator.
type TripleReader interface {
	// CountByType returns the number of instances of an RDF type.
	CountByType(ctx context.Context, rdfType string) (int, error)

	// ReadByType lazily yields the instances of an RDF type.
	ReadByType(ctx context.Context, rdfType string) iter.Seq2[RawInstance, error]

	// ListObjectURIs lazily yields every distinct object URI.
	ListObjectURIs(ctx context.Context) iter.Seq2[string, error]
}

// StoreMetadata is the target-store metadata collaborator.
type StoreMetadata interface {
	// MaxListSize returns the resolved list cap of a container
	// property, when the store declares one.
	MaxListSize(ctx context.Context, container rules.ContainerEntity, property string) (int, bool, error)

	// CheckCapacity returns an error when the requested instance
	// count exceeds the store's ingestion capacity.
	CheckCapacity(ctx context.Context, requested int) error
}

// NodeRef addresses an instance in the store.
type NodeRef struct {
	Space      string `json:"space"`
	ExternalID string `json:"externalId"`
}

// Node is a store-ready typed node record.
type Node struct {
	Space      string
	ExternalID string
	View       rules.ViewEntity
	Properties map[string]any
}

// Edge is a store-ready typed edge record.
type Edge struct {
	Space      string
	ExternalID string
	View       rules.ViewEntity
	Type       NodeRef
	StartNode  NodeRef
	EndNode    NodeRef
	Properties map[string]any
}

// Result is one item of the load stream: exactly one of Node, Edge or
// Issue is set.
type Result struct {
	Node  *Node
	Edge  *Edge
	Issue *issues.Issue
}

// Loader projects triples into typed records for one instance space.
type Loader struct {
	dms           *rules.DMSRules
	info          *rules.InformationRules
	reader        TripleReader
	store         StoreMetadata
	instanceSpace string
	stopOnError   bool
	listLimit     int
	logger        *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithStopOnError makes Load return its first per-instance error
// instead of yielding it as an issue and continuing.
func WithStopOnError() Option {
	return func(l *Loader) { l.stopOnError = true }
}

// WithLogger sets the loader's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// WithDirectRelationLimit overrides the fallback direct-relation list
// cap used when neither the property nor the store declares one.
func WithDirectRelationLimit(limit int) Option {
	return func(l *Loader) {
		if limit > 0 {
			l.listLimit = limit
		}
	}
}

// New builds a loader over a physical+conceptual rules pairing and a
// triple source.
func New(dms *rules.DMSRules, info *rules.InformationRules, reader TripleReader, store StoreMetadata, instanceSpace string, opts ...Option) (*Loader, error) {
	if dms == nil || info == nil {
		return nil, fmt.Errorf("loader requires both physical and conceptual rules")
	}
	if reader == nil {
		return nil, fmt.Errorf("loader requires a triple reader")
	}
	if instanceSpace == "" {
		return nil, fmt.Errorf("loader requires an instance space")
	}
	l := &Loader{
		dms:           dms,
		info:          info,
		reader:        reader,
		store:         store,
		instanceSpace: instanceSpace,
		listLimit:     DefaultDirectRelationLimit,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Load plans the per-view iteration, checks the store's ingestion
// capacity, and returns the lazy result stream. The capacity check and
// any planning failure abort before anything is emitted. The returned
// error value of the sequence is non-nil only when stop-on-error is
// set and a per-instance error occurred; iteration stops there.
func (l *Loader) Load(ctx context.Context) (iter.Seq2[Result, error], error) {
	plan, err := l.Plan(ctx)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, vp := range plan {
		total += vp.Count
	}
	if l.store != nil {
		if err := l.store.CheckCapacity(ctx, total); err != nil {
			var failed issues.List
			failed.Append(issues.Errorf(issues.CodeCapacityExceeded,
				"ingestion capacity for %d instances: %v", total, err))
			return nil, failed.AsError()
		}
	}

	l.logger.Info("starting instance load",
		"views", len(plan),
		"instances", total,
		"space", l.instanceSpace)

	return func(yield func(Result, error) bool) {
		for _, vp := range plan {
			proj, err := l.projection(ctx, vp.View)
			if err != nil {
				if l.stopOnError {
					yield(Result{}, err)
					return
				}
				iss := issues.Errorf(issues.CodeInvalidPropertyValue,
					"projection for view %s: %v", vp.View.View, err)
				if !yield(Result{Issue: &iss}, nil) {
					return
				}
				continue
			}

			for raw, err := range l.reader.ReadByType(ctx, vp.Type) {
				if err != nil {
					if l.stopOnError {
						yield(Result{}, fmt.Errorf("read instances of %s: %w", vp.Type, err))
						return
					}
					iss := issues.Errorf(issues.CodeInvalidPropertyValue,
						"read instances of %s: %v", vp.Type, err)
					if !yield(Result{Issue: &iss}, nil) {
						return
					}
					continue
				}

				result, extra := l.project(vp, proj, raw)
				for i := range extra {
					metricIssues.WithLabelValues(string(extra[i].Severity)).Inc()
					if extra[i].Severity == issues.SeverityError && l.stopOnError {
						yield(Result{}, fmt.Errorf("instance %s: %s", raw.Subject, extra[i].Message))
						return
					}
					if !yield(Result{Issue: &extra[i]}, nil) {
						return
					}
				}
				if result.Node != nil || result.Edge != nil {
					metricInstances.WithLabelValues(vp.View.View.ExternalID).Inc()
					if !yield(result, nil) {
						return
					}
				}
			}
		}
	}, nil
}
