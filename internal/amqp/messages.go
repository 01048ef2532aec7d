package amqp

import (
	"encoding/json"
	"time"
)

// Ledger change operations.
const (
	OpCreate   = "create"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpClear    = "clear"
	OpReorder  = "reorder"
	OpSettings = "settings"
)

// LedgerChangedMessage announces that the ledger state changed. It carries
// no entry data; consumers reload the state they need.
type LedgerChangedMessage struct {
	Op        string    `json:"op"`
	EntryID   string    `json:"entryId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerChangedMessage(op, entryID string) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		Op:        op,
		EntryID:   entryID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangedMessageFromJSON decodes a message body.
func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
