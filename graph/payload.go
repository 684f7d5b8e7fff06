// Package graph publishes loaded instance records to the knowledge
// graph as entity-ingest messages.
package graph

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/c360studio/semstreams/message"
)

// IngestSubject is the stream subject instance records are published
// to.
const IngestSubject = "graph.ingest.instance"

// InstanceIngestMessage is the message format for graph ingestion.
// Matches the entity-ingest format consumed by the graph components.
type InstanceIngestMessage struct {
	ID        string           `json:"id"`
	BatchID   string           `json:"batch_id,omitempty"`
	Triples   []message.Triple `json:"triples"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Validate checks the message is publishable.
func (m *InstanceIngestMessage) Validate() error {
	if m.ID == "" {
		return errors.New("instance ID is required")
	}
	return nil
}

// Marshal renders the message for publishing.
func (m *InstanceIngestMessage) Marshal() ([]byte, error) {
	return json.Marshal(m)
}
