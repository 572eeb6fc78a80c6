package amqp

import (
	"encoding/json"
	"time"
)

// TransactionsChangedMessage signals that the transaction set changed.
// It carries only the revision counter, consumers re-read the store
// instead of trusting a payload.
type TransactionsChangedMessage struct {
	Revision  uint64    `json:"revision"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionsChangedMessage(revision uint64) *TransactionsChangedMessage {
	return &TransactionsChangedMessage{
		Revision:  revision,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionsChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON creates a message from JSON bytes
func TransactionsChangedMessageFromJSON(data []byte) (*TransactionsChangedMessage, error) {
	var msg TransactionsChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
