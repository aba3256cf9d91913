package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/c360studio/semstreams/message"
	"github.com/c360studio/semstreams/natsclient"
)

// Subject for graph ingestion.
const IngestSubject = "graph.ingest.entity"

// Source tag attached to published triples.
const ingestSource = "semgate.describe"

// EntityIngestMessage is the message format for graph ingestion.
// Matches the format used by other semstreams components.
type EntityIngestMessage struct {
	ID        string           `json:"id"`
	Triples   []message.Triple `json:"triples"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Publish sends a materialized resource graph to the knowledge-graph
// ingest stream. Blank-node statements are skipped: the stream models
// entities by stable identifier only.
func Publish(ctx context.Context, nc *natsclient.Client, entityID string, g *Graph) error {
	if nc == nil {
		return nil // Skip publishing if no NATS client (graceful degradation)
	}

	now := time.Now()
	triples := make([]message.Triple, 0, g.Len())
	for _, t := range g.Triples() {
		if t.Subject.IsBlank() || t.Object.IsBlank() {
			continue
		}
		triples = append(triples, message.Triple{
			Subject:    t.Subject.Value(),
			Predicate:  t.Predicate.Value(),
			Object:     t.Object.Value(),
			Source:     ingestSource,
			Timestamp:  now,
			Confidence: 1.0,
			Datatype:   t.Object.Datatype(),
		})
	}
	if len(triples) == 0 {
		return nil
	}

	msg := EntityIngestMessage{
		ID:        entityID,
		Triples:   triples,
		UpdatedAt: now,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal entity: %w", err)
	}

	if err := nc.PublishToStream(ctx, IngestSubject, data); err != nil {
		return fmt.Errorf("publish entity: %w", err)
	}

	return nil
}
