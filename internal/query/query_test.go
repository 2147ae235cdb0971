package query

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counter(calls *int32, val string) Fetcher[string] {
	return func(ctx context.Context) (string, error) {
		atomic.AddInt32(calls, 1)
		return val, nil
	}
}

func TestFetchCachesUntilInvalidated(t *testing.T) {
	c := NewClient(0)
	ctx := context.Background()
	var calls int32

	for i := 0; i < 3; i++ {
		v, err := Fetch(ctx, c, Key{"classes"}, counter(&calls, "a"))
		require.NoError(t, err)
		assert.Equal(t, "a", v)
	}
	assert.EqualValues(t, 1, calls)

	assert.Equal(t, 1, c.Invalidate(Key{"classes"}))
	_, err := Fetch(ctx, c, Key{"classes"}, counter(&calls, "a"))
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls)
}

func TestInvalidateMatchesPrefix(t *testing.T) {
	c := NewClient(0)
	ctx := context.Background()
	var calls int32

	_, _ = Fetch(ctx, c, Key{"attendance", "c1"}, counter(&calls, "x"))
	_, _ = Fetch(ctx, c, Key{"attendance", "c2"}, counter(&calls, "y"))
	_, _ = Fetch(ctx, c, Key{"rooms"}, counter(&calls, "z"))
	require.EqualValues(t, 3, calls)

	assert.Equal(t, 2, c.Invalidate(Key{"attendance"}))

	_, _ = Fetch(ctx, c, Key{"rooms"}, counter(&calls, "z"))
	assert.EqualValues(t, 3, calls)
	_, _ = Fetch(ctx, c, Key{"attendance", "c1"}, counter(&calls, "x"))
	assert.EqualValues(t, 4, calls)
}

func TestFetchErrorsAreNotCached(t *testing.T) {
	c := NewClient(0)
	ctx := context.Background()
	boom := errors.New("boom")

	_, err := Fetch(ctx, c, Key{"rooms"}, func(context.Context) (string, error) { return "", boom })
	assert.ErrorIs(t, err, boom)

	_, ok := Peek[string](c, Key{"rooms"})
	assert.False(t, ok)

	v, err := Fetch(ctx, c, Key{"rooms"}, func(context.Context) (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestStaleAfterAgesEntriesOut(t *testing.T) {
	c := NewClient(time.Minute)
	now := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()
	var calls int32

	_, _ = Fetch(ctx, c, Key{"rooms"}, counter(&calls, "r"))
	now = now.Add(30 * time.Second)
	_, _ = Fetch(ctx, c, Key{"rooms"}, counter(&calls, "r"))
	assert.EqualValues(t, 1, calls)

	now = now.Add(2 * time.Minute)
	_, _ = Fetch(ctx, c, Key{"rooms"}, counter(&calls, "r"))
	assert.EqualValues(t, 2, calls)
}

func TestConcurrentFetchesShareOneCall(t *testing.T) {
	c := NewClient(0)
	release := make(chan struct{})
	var calls int32
	fn := func(context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return 7, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := Fetch(context.Background(), c, Key{"students", "c1"}, fn)
			assert.NoError(t, err)
			assert.Equal(t, 7, v)
		}()
	}

	assert.Eventually(t, func() bool { return c.Fetching(Key{"students"}) }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	assert.False(t, c.Fetching(Key{"students"}))
	assert.LessOrEqual(t, atomic.LoadInt32(&calls), int32(5))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(1))
}

func TestCancelledCallerDoesNotFailSharedFetch(t *testing.T) {
	c := NewClient(0)
	started := make(chan struct{})
	release := make(chan struct{})
	fn := func(ctx context.Context) (string, error) {
		close(started)
		<-release
		return "rooms", ctx.Err()
	}

	first, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := Fetch(first, c, Key{"rooms"}, fn)
		done <- err
	}()
	<-started

	second := make(chan string, 1)
	go func() {
		v, err := Fetch(context.Background(), c, Key{"rooms"}, fn)
		assert.NoError(t, err)
		second <- v
	}()

	cancel()
	close(release)

	require.NoError(t, <-done)
	assert.Equal(t, "rooms", <-second)
}

func TestInvalidateDuringFetchLeavesEntryStale(t *testing.T) {
	c := NewClient(0)
	started := make(chan struct{})
	release := make(chan struct{})
	var calls int32

	go func() {
		_, _ = Fetch(context.Background(), c, Key{"attendance", "c1"}, func(context.Context) (string, error) {
			atomic.AddInt32(&calls, 1)
			close(started)
			<-release
			return "old", nil
		})
	}()
	<-started
	c.Invalidate(Key{"attendance"})
	close(release)

	assert.Eventually(t, func() bool { return !c.Fetching(Key{"attendance"}) }, time.Second, time.Millisecond)

	v, err := Fetch(context.Background(), c, Key{"attendance", "c1"}, counter(&calls, "new"))
	require.NoError(t, err)
	assert.Equal(t, "new", v)
	assert.EqualValues(t, 2, calls)
}

func TestDisabledQueryDoesNotFetch(t *testing.T) {
	c := NewClient(0)
	var calls int32
	q := Query[string]{Client: c, Key: Key{"students", ""}, Enabled: false, Fetch: counter(&calls, "s")}

	v, err := q.Data(context.Background())
	require.NoError(t, err)
	assert.Empty(t, v)
	assert.False(t, q.Loading())
	assert.EqualValues(t, 0, calls)
}

func TestQueryRefetch(t *testing.T) {
	c := NewClient(0)
	var calls int32
	q := Query[string]{Client: c, Key: Key{"rooms"}, Enabled: true, Fetch: counter(&calls, "r")}

	_, _ = q.Data(context.Background())
	_, _ = q.Data(context.Background())
	_, _ = q.Refetch(context.Background())
	assert.EqualValues(t, 2, calls)
}
