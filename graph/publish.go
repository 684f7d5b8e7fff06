package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/c360studio/semstreams/message"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/c360studio/semforge/loader"
)

// publishSource identifies this component in triple provenance.
const publishSource = "semforge.load"

// Publisher sends instance records to a JetStream subject.
type Publisher struct {
	js      nats.JetStreamContext
	subject string
	batchID string
}

// NewPublisher wraps a NATS connection. A nil connection yields a nil
// publisher, on which every publish is a no-op (graceful degradation
// when no graph backend is configured).
func NewPublisher(nc *nats.Conn, subject string) (*Publisher, error) {
	if nc == nil {
		return nil, nil
	}
	js, err := nc.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream context: %w", err)
	}
	if subject == "" {
		subject = IngestSubject
	}
	return &Publisher{
		js:      js,
		subject: subject,
		batchID: uuid.New().String(),
	}, nil
}

// PublishNode publishes one node record as an entity-ingest message.
func (p *Publisher) PublishNode(ctx context.Context, node *loader.Node) error {
	if p == nil {
		return nil
	}
	entityID := NodeEntityID(node)
	now := time.Now()

	triples := make([]message.Triple, 0, len(node.Properties)+1)
	triples = append(triples, message.Triple{
		Subject:    entityID,
		Predicate:  "view",
		Object:     node.View.String(),
		Source:     publishSource,
		Timestamp:  now,
		Confidence: 1.0,
	})
	for name, value := range node.Properties {
		triples = append(triples, message.Triple{
			Subject:    entityID,
			Predicate:  name,
			Object:     value,
			Source:     publishSource,
			Timestamp:  now,
			Confidence: 1.0,
		})
	}

	return p.publish(ctx, &InstanceIngestMessage{
		ID:        entityID,
		BatchID:   p.batchID,
		Triples:   triples,
		UpdatedAt: now,
	})
}

// PublishEdge publishes one edge record as an entity-ingest message.
func (p *Publisher) PublishEdge(ctx context.Context, edge *loader.Edge) error {
	if p == nil {
		return nil
	}
	entityID := EdgeEntityID(edge)
	now := time.Now()

	triples := []message.Triple{
		{
			Subject:    entityID,
			Predicate:  "view",
			Object:     edge.View.String(),
			Source:     publishSource,
			Timestamp:  now,
			Confidence: 1.0,
		},
		{
			Subject:    entityID,
			Predicate:  "startNode",
			Object:     edge.StartNode.ExternalID,
			Source:     publishSource,
			Timestamp:  now,
			Confidence: 1.0,
		},
		{
			Subject:    entityID,
			Predicate:  "endNode",
			Object:     edge.EndNode.ExternalID,
			Source:     publishSource,
			Timestamp:  now,
			Confidence: 1.0,
		},
	}
	for name, value := range edge.Properties {
		triples = append(triples, message.Triple{
			Subject:    entityID,
			Predicate:  name,
			Object:     value,
			Source:     publishSource,
			Timestamp:  now,
			Confidence: 1.0,
		})
	}

	return p.publish(ctx, &InstanceIngestMessage{
		ID:        entityID,
		BatchID:   p.batchID,
		Triples:   triples,
		UpdatedAt: now,
	})
}

func (p *Publisher) publish(ctx context.Context, msg *InstanceIngestMessage) error {
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("invalid ingest message: %w", err)
	}
	data, err := msg.Marshal()
	if err != nil {
		return fmt.Errorf("marshal ingest message: %w", err)
	}
	if _, err := p.js.Publish(p.subject, data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("publish ingest message: %w", err)
	}
	return nil
}

// NodeEntityID generates a consistent entity ID for a node record.
// Format: semforge.<space>.node.<view>.<external id>
func NodeEntityID(node *loader.Node) string {
	return fmt.Sprintf("semforge.%s.node.%s.%s", node.Space, node.View.ExternalID, node.ExternalID)
}

// EdgeEntityID generates a consistent entity ID for an edge record.
// Format: semforge.<space>.edge.<view>.<external id>
func EdgeEntityID(edge *loader.Edge) string {
	return fmt.Sprintf("semforge.%s.edge.%s.%s", edge.Space, edge.View.ExternalID, edge.ExternalID)
}
