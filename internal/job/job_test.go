package job

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	t.Run("every declared type parses", func(t *testing.T) {
		for _, declared := range Types {
			parsed, err := ParseType(string(declared))
			require.NoError(t, err)
			assert.Equal(t, declared, parsed)
		}
	})

	tests := []struct {
		name  string
		input string
	}{
		{name: "unknown type", input: "unknownType"},
		{name: "empty string", input: ""},
		{name: "case sensitive", input: "Mint"},
		{name: "camel case matters", input: "settaxrate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseType(tt.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "unknown job type: "+tt.input)
		})
	}
}

func TestMessage_RoundTrip(t *testing.T) {
	msg := &Message{
		JobID:       "job-123",
		Type:        "mint",
		UserAddress: "0x1234567890abcdef",
		Params:      json.RawMessage(`{"recipient":"0x1234567890abcdef","amount":"10.5"}`),
		MessageID:   "msg-456",
		RetryCount:  2,
		MaxRetries:  5,
	}

	j := FromMessage(msg)
	assert.Equal(t, Type("mint"), j.Type)
	assert.Equal(t, msg.JobID, j.JobID)
	assert.Equal(t, msg.RetryCount, j.RetryCount)

	back := j.ToMessage()
	assert.Equal(t, msg, back)
}

func TestMessage_JSONTags(t *testing.T) {
	raw := []byte(`{
		"job_id": "job-123",
		"type": "transfer",
		"user_address": "0xfedcba0987654321",
		"params": {"amount": "1"},
		"message_id": "msg-789",
		"retry_count": 1,
		"max_retries": 3
	}`)

	var msg Message
	require.NoError(t, json.Unmarshal(raw, &msg))

	assert.Equal(t, "job-123", msg.JobID)
	assert.Equal(t, "transfer", msg.Type)
	assert.Equal(t, "0xfedcba0987654321", msg.UserAddress)
	assert.JSONEq(t, `{"amount":"1"}`, string(msg.Params))
	assert.Equal(t, "msg-789", msg.MessageID)
	assert.Equal(t, 1, msg.RetryCount)
	assert.Equal(t, 3, msg.MaxRetries)
}
