// Package worker delivers queued notifications and closes finished bookings.
package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"campusd/internal/booking"
	"campusd/internal/metrics"
	"campusd/internal/notify"
	"campusd/internal/queue"
)

// Worker runs the notification consumer and the booking completion sweep.
// Either part is skipped when its dependency is nil.
type Worker struct {
	Queue    queue.Queue
	Bookings booking.Repository
	Interval time.Duration
	Log      *zap.Logger

	// OnSweep is called after a sweep that completed at least one booking.
	OnSweep func(n int)

	now func() time.Time
}

// Run blocks until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	if w.now == nil {
		w.now = time.Now
	}
	var wg sync.WaitGroup

	if w.Queue != nil {
		msgs, err := w.Queue.Consume(ctx)
		if err != nil {
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.deliver(msgs)
		}()
	}

	if w.Bookings != nil && w.Interval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.sweepLoop(ctx)
		}()
	}

	wg.Wait()
	return nil
}

func (w *Worker) deliver(msgs <-chan queue.Message) {
	for msg := range msgs {
		if msg.Type != notify.MessageType {
			w.Log.Warn("skipping unknown message", zap.String("type", msg.Type))
			continue
		}
		n, err := notify.Decode(msg)
		if err != nil {
			w.Log.Warn("malformed notification", zap.Error(err))
			continue
		}
		w.Log.Info("notification",
			zap.String("id", n.ID),
			zap.String("operator", n.Operator),
			zap.String("variant", string(n.Variant)),
			zap.String("title", n.Title),
			zap.String("description", n.Description),
		)
	}
}

func (w *Worker) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	w.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *Worker) sweep(ctx context.Context) {
	if _, err := w.Sweep(ctx); err != nil && ctx.Err() == nil {
		w.Log.Error("booking sweep failed", zap.Error(err))
	}
}

// Sweep marks every upcoming booking that has ended as completed.
// Cancelled bookings are never touched.
func (w *Worker) Sweep(ctx context.Context) (int, error) {
	now := time.Now
	if w.now != nil {
		now = w.now
	}
	n, err := w.Bookings.CompletePast(ctx, now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.BookingsCompleted.Add(float64(n))
		w.Log.Info("bookings completed", zap.Int("count", n))
		if w.OnSweep != nil {
			w.OnSweep(n)
		}
	}
	return n, nil
}
