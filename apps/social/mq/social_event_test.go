package mq

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"AlumniServer/pkg/ctxmeta"
	"AlumniServer/pkg/kafka"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafkago.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestBuildSocialEvent(t *testing.T) {
	ctx := ctxmeta.WithTraceID(context.Background(), "trace-1")
	ev := BuildSocialEvent(ctx, EventRequestSent, "alice", "bob")

	assert.NotEmpty(t, ev.EventID)
	assert.Equal(t, EventRequestSent, ev.Type)
	assert.Equal(t, "alice", ev.ActorUUID)
	assert.Equal(t, "bob", ev.TargetUUID)
	assert.Equal(t, "trace-1", ev.TraceID)
	assert.False(t, ev.OccurredAt.IsZero())

	other := BuildSocialEvent(ctx, EventRequestSent, "alice", "bob")
	assert.NotEqual(t, ev.EventID, other.EventID)
}

func TestKafkaPublisherPublish(t *testing.T) {
	writer := &fakeWriter{}
	pub := NewKafkaPublisher(kafka.NewProducerWithWriter(writer, "social.events"))

	ev := BuildSocialEvent(context.Background(), EventRequestAccepted, "bob", "alice")
	require.NoError(t, pub.Publish(context.Background(), ev))

	require.Len(t, writer.msgs, 1)
	msg := writer.msgs[0]
	assert.Equal(t, "alice", string(msg.Key))

	var decoded SocialEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, ev.EventID, decoded.EventID)
	assert.Equal(t, EventRequestAccepted, decoded.Type)

	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, string(EventRequestAccepted), string(msg.Headers[0].Value))
}

func TestKafkaPublisherError(t *testing.T) {
	writer := &fakeWriter{err: errors.New("broker down")}
	pub := NewKafkaPublisher(kafka.NewProducerWithWriter(writer, "social.events"))

	err := pub.Publish(context.Background(), BuildSocialEvent(context.Background(), EventConnectionRemove, "a", "b"))
	assert.Error(t, err)
}

func TestNopPublisher(t *testing.T) {
	assert.NoError(t, NopPublisher{}.Publish(context.Background(), SocialEvent{}))
}
