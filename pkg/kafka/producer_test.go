package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"

	"AlumniServer/pkg/logger"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestProducerSend(t *testing.T) {
	logger.ReplaceGlobal(zap.NewNop())
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, "social.events")

	require.NoError(t, p.Send(context.Background(), []byte("u2"), []byte(`{"type":"friend_request"}`)))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "u2", string(w.msgs[0].Key))
	assert.Equal(t, "social.events", p.Topic())
}

func TestProducerBreakerOpensAfterFailures(t *testing.T) {
	logger.ReplaceGlobal(zap.NewNop())
	w := &fakeWriter{err: errors.New("broker down")}
	p := NewProducerWithWriter(w, "social.events")

	for i := 0; i < 5; i++ {
		err := p.Send(context.Background(), nil, []byte("x"))
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrBreakerOpen)
	}

	err := p.Send(context.Background(), nil, []byte("x"))
	assert.ErrorIs(t, err, ErrBreakerOpen)
}
