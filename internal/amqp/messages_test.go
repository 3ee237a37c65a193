package amqp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordChangeMessageRoundTrip(t *testing.T) {
	msg := NewRecordChangeMessage(RecordExpense, ChangeCreated, 42)
	assert.WithinDuration(t, time.Now(), msg.Timestamp, time.Second)

	data, err := msg.ToJSON()
	require.NoError(t, err)

	decoded, err := RecordChangeMessageFromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, RecordExpense, decoded.RecordType)
	assert.Equal(t, ChangeCreated, decoded.Change)
	assert.Equal(t, int64(42), decoded.ID)
	assert.True(t, decoded.Timestamp.Equal(msg.Timestamp))
}

func TestRecordChangeMessageFromJSONRejectsGarbage(t *testing.T) {
	_, err := RecordChangeMessageFromJSON([]byte("not json"))
	assert.Error(t, err)
}
