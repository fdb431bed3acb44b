package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaSink publishes entries as JSON records keyed by the audited record.
type KafkaSink struct {
	client *kgo.Client
	topic  string
}

// NewKafkaSink builds a sink producing to topic.
func NewKafkaSink(client *kgo.Client, topic string) *KafkaSink {
	return &KafkaSink{client: client, topic: topic}
}

// entryMessage is the wire format of a relayed entry.
type entryMessage struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	UserID        string    `json:"user_id,omitempty"`
	Username      string    `json:"username"`
	Action        Action    `json:"action"`
	Model         Model     `json:"model"`
	RecordID      string    `json:"record_id"`
	Justification string    `json:"justification,omitempty"`
	Changes       ChangeSet `json:"changes"`
	Client        string    `json:"client,omitempty"`
	RequestID     string    `json:"request_id,omitempty"`
}

// EncodeEntry renders the wire format of e.
func EncodeEntry(e *Entry) ([]byte, error) {
	msg := entryMessage{
		ID:            e.ID.String(),
		Timestamp:     e.Timestamp.UTC(),
		Username:      e.Actor.Username,
		Action:        e.Action,
		Model:         e.Model,
		RecordID:      e.RecordID,
		Justification: e.Justification,
		Changes:       e.Changes,
		Client:        e.Client,
		RequestID:     e.RequestID,
	}
	if !e.Actor.UserID.IsNil() {
		msg.UserID = e.Actor.UserID.String()
	}
	return json.Marshal(msg)
}

// Publish produces the batch synchronously and fails if any record fails.
func (k *KafkaSink) Publish(ctx context.Context, entries []*Entry) error {
	records := make([]*kgo.Record, 0, len(entries))
	for _, e := range entries {
		value, err := EncodeEntry(e)
		if err != nil {
			return fmt.Errorf("encode audit entry %s: %w", e.ID, err)
		}
		records = append(records, &kgo.Record{
			Topic: k.topic,
			Key:   []byte(string(e.Model) + ":" + e.RecordID),
			Value: value,
			Headers: []kgo.RecordHeader{
				{Key: "action", Value: []byte(e.Action)},
				{Key: "entry_id", Value: []byte(e.ID.String())},
			},
		})
	}
	if err := k.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("produce audit entries: %w", err)
	}
	return nil
}
