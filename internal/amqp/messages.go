package amqp

import (
	"encoding/json"
	"time"
)

const (
	RecordExpense      = "expense"
	RecordSubscription = "subscription"

	ChangeCreated = "created"
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"
)

// RecordChangeMessage announces a change to an expense or subscription.
// Consumers fetch the full record from the database by ID; the message stays
// lightweight on purpose.
type RecordChangeMessage struct {
	RecordType string    `json:"record_type"`
	Change     string    `json:"change"`
	ID         int64     `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewRecordChangeMessage creates a change announcement for a record.
func NewRecordChangeMessage(recordType, change string, id int64) *RecordChangeMessage {
	return &RecordChangeMessage{
		RecordType: recordType,
		Change:     change,
		ID:         id,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *RecordChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordChangeMessageFromJSON creates a message from JSON bytes.
func RecordChangeMessageFromJSON(data []byte) (*RecordChangeMessage, error) {
	var msg RecordChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
