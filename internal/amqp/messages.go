package amqp

import (
	"encoding/json"
	"time"
)

// Operations carried by a LedgerEventMessage.
const (
	OpCreated = "created"
	OpDeleted = "deleted"
)

// LedgerEventMessage signals that a user's ledger changed and derived
// balances need rebuilding. It carries only identifiers, the worker
// reloads the full ledger from the database.
type LedgerEventMessage struct {
	TransactionID int64     `json:"transaction_id"`
	UserID        string    `json:"user_id"`
	Op            string    `json:"op"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewLedgerEventMessage creates an event stamped with the current time.
func NewLedgerEventMessage(transactionID int64, userID, op string) *LedgerEventMessage {
	return &LedgerEventMessage{
		TransactionID: transactionID,
		UserID:        userID,
		Op:            op,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventMessageFromJSON creates a message from JSON bytes
func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
