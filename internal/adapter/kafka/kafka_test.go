package kafka

import (
	"encoding/json"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/agri-risk-service/internal/domain"
	"github.com/couchcryptid/agri-risk-service/internal/workflow"
)

func TestMapMessageToRawEvent(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("key-1"),
		Value:     []byte(`{"location":"Pune"}`),
		Topic:     "agri-risk-requests",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte("mobile")},
		},
	}

	raw := mapMessageToRawEvent(msg)

	assert.Equal(t, []byte("key-1"), raw.Key)
	assert.JSONEq(t, `{"location":"Pune"}`, string(raw.Value))
	assert.Equal(t, "agri-risk-requests", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "mobile", raw.Headers["source"])
	assert.Nil(t, raw.Commit, "commit is attached by the reader")
}

func TestSerializeResult(t *testing.T) {
	now := time.Date(2026, 6, 1, 9, 30, 0, 0, time.UTC)
	result := &workflow.Result{
		Status:    workflow.StatusSuccess,
		SessionID: "sess-1",
		TaskID:    "task-1",
		Location:  "Pune",
		Forecast:  &domain.ForecastResult{OverallRisk: domain.High},
	}

	msg, err := serializeResult(result, now)
	require.NoError(t, err)

	assert.Equal(t, []byte("task-1"), msg.Key)
	assert.Contains(t, string(msg.Value), `"status":"Success"`)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "status", msg.Headers[0].Key)
	assert.Equal(t, []byte("Success"), msg.Headers[0].Value)
	assert.Equal(t, "overall_risk", msg.Headers[1].Key)
	assert.Equal(t, []byte("High"), msg.Headers[1].Value)
	assert.Equal(t, "published_at", msg.Headers[2].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[2].Value)
}

func TestSerializeResult_KeyFallsBackToSession(t *testing.T) {
	msg, err := serializeResult(&workflow.Result{Status: workflow.StatusError, SessionID: "sess-2"}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, []byte("sess-2"), msg.Key)
	assert.Empty(t, msg.Headers[1].Value, "no forecast, no overall risk")
}

func TestSerializeNotification(t *testing.T) {
	sent := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	note := domain.Notification{
		Recipient: "farmer@example.com",
		Subject:   "Risk plan for Pune",
		Body:      "P1: irrigate",
		SentAt:    sent,
	}

	msg, err := serializeNotification(note)
	require.NoError(t, err)

	assert.Equal(t, []byte("farmer@example.com"), msg.Key)
	var decoded domain.Notification
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, note, decoded)
	assert.Equal(t, []byte(sent.Format(time.RFC3339)), msg.Headers[0].Value)
}
