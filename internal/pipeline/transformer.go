// Package pipeline contains the ingestion stages that turn Pub/Sub messages
// into stored notification records.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
)

// IngestRequest is the JSON payload published by producers.
type IngestRequest struct {
	RecipientID string            `json:"recipient_id"`
	DeviceToken string            `json:"device_token,omitempty"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Data        map[string]string `json:"data,omitempty"`
}

// IngestRequestTransformer unmarshals and validates a raw message payload.
// Failures set skip=true so the StreamingService can Nack the message towards
// the dead-letter topic.
func IngestRequestTransformer(
	_ context.Context,
	msg *messagepipeline.Message,
) (*IngestRequest, bool, error) {
	var req IngestRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return nil, true, fmt.Errorf("failed to unmarshal ingest request from message %s: %w", msg.ID, err)
	}
	if req.RecipientID == "" {
		return nil, true, fmt.Errorf("ingest request in message %s has no recipient_id", msg.ID)
	}
	return &req, false, nil
}
