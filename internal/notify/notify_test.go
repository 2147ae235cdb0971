package notify

import (
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"campusd/internal/queue"
)

func TestNewStampsSortableIDs(t *testing.T) {
	a := Success("Success", "Room booked successfully")
	b := Failure("Error", "Failed to book room. Please try again.")

	_, err := ulid.ParseStrict(a.ID)
	require.NoError(t, err)
	assert.Less(t, a.ID, b.ID)
	assert.Equal(t, VariantDefault, a.Variant)
	assert.Equal(t, VariantDestructive, b.Variant)
	assert.WithinDuration(t, time.Now(), a.CreatedAt, time.Minute)
}

func TestFeedKeepsNewestUpToLimit(t *testing.T) {
	f := NewFeed(2)
	ctx := context.Background()

	assert.NotNil(t, f.Drain())

	f.Notify(ctx, Success("one", ""))
	f.Notify(ctx, Success("two", ""))
	f.Notify(ctx, Success("three", ""))

	got := f.Drain()
	require.Len(t, got, 2)
	assert.Equal(t, "two", got[0].Title)
	assert.Equal(t, "three", got[1].Title)
	assert.Empty(t, f.Drain())
}

func TestTeeStampsOperator(t *testing.T) {
	a, b := NewFeed(5), NewFeed(5)
	tee := Tee{Operator: "Prof. Smith", Targets: []Notifier{a, b}}

	tee.Notify(context.Background(), Success("Success", "Booking cancelled successfully"))

	for _, f := range []*Feed{a, b} {
		got := f.Drain()
		require.Len(t, got, 1)
		assert.Equal(t, "Prof. Smith", got[0].Operator)
	}
}

func TestPublisherRoundTrip(t *testing.T) {
	q := queue.NewInMemory(1)
	p := NewPublisher(q, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sent := Failure("Error", "Failed to save attendance. Please try again.")
	sent.Operator = "Dr. Johnson"
	p.Notify(ctx, sent)

	msgs, err := q.Consume(ctx)
	require.NoError(t, err)
	msg := <-msgs
	assert.Equal(t, MessageType, msg.Type)

	got, err := Decode(msg)
	require.NoError(t, err)
	assert.Equal(t, sent.ID, got.ID)
	assert.Equal(t, sent.Operator, got.Operator)
	assert.Equal(t, sent.Description, got.Description)
	assert.True(t, sent.CreatedAt.Equal(got.CreatedAt))
}
