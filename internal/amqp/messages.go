package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Operations carried by sync messages.
const (
	OpSync   = "sync"
	OpDelete = "delete"
)

// EntrySyncMessage is the lightweight message published on every local
// mutation. It carries only the entry ID, the operation, and the local row
// version; the worker fetches the full entry from the projection.
type EntrySyncMessage struct {
	EntryID   int64     `json:"entry_id"`
	Operation string    `json:"operation"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEntrySyncMessage creates a message for one mutated entry.
func NewEntrySyncMessage(entryID int64, operation string, version int64) *EntrySyncMessage {
	return &EntrySyncMessage{
		EntryID:   entryID,
		Operation: operation,
		Version:   version,
		Timestamp: time.Now(),
	}
}

// Validate rejects messages with an unknown operation or a bad ID.
func (m *EntrySyncMessage) Validate() error {
	if m.EntryID <= 0 {
		return fmt.Errorf("invalid entry id %d", m.EntryID)
	}
	switch m.Operation {
	case OpSync, OpDelete:
		return nil
	default:
		return fmt.Errorf("unknown operation %q", m.Operation)
	}
}

// ToJSON converts the message to JSON bytes.
func (m *EntrySyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EntrySyncMessageFromJSON parses a message from JSON bytes.
func EntrySyncMessageFromJSON(data []byte) (*EntrySyncMessage, error) {
	var msg EntrySyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
