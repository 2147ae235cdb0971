package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeRoundTripKeepsPipesInBody(t *testing.T) {
	msg := Message{Type: "notification", Body: []byte(`{"title":"a|b"}`)}
	assert.Equal(t, msg, deserialize(serialize(msg)))
}

func TestDeserializeWithoutType(t *testing.T) {
	assert.Equal(t, Message{Body: []byte("raw")}, deserialize("raw"))
}

func TestInMemoryDeliversInOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewInMemory(4)
	require.NoError(t, q.Publish(ctx, Message{Type: "notification", Body: []byte("1")}))
	require.NoError(t, q.Publish(ctx, Message{Type: "notification", Body: []byte("2")}))

	msgs, err := q.Consume(ctx)
	require.NoError(t, err)

	for _, want := range []string{"1", "2"} {
		select {
		case msg := <-msgs:
			assert.Equal(t, want, string(msg.Body))
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}

func TestInMemoryPublishHonoursContext(t *testing.T) {
	q := NewInMemory(1)
	require.NoError(t, q.Publish(context.Background(), Message{Type: "x"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, q.Publish(ctx, Message{Type: "y"}), context.Canceled)
}

func TestInMemoryConsumeClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	msgs, err := NewInMemory(1).Consume(ctx)
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-msgs:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("consumer channel not closed")
	}
}
