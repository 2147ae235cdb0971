package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AttendanceSaves counts saveAttendance outcomes.
	AttendanceSaves = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "campus",
		Name:      "attendance_saves_total",
		Help:      "Attendance saves by outcome.",
	}, []string{"outcome"})

	// BookingActions counts booking writes by action and outcome.
	BookingActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "campus",
		Name:      "booking_actions_total",
		Help:      "Room booking writes by action and outcome.",
	}, []string{"action", "outcome"})

	// BookingsCompleted counts bookings closed by the worker sweep.
	BookingsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "campus",
		Name:      "bookings_completed_total",
		Help:      "Upcoming bookings marked completed after their end time.",
	})

	// CompletionRequests counts forwards to the completion API.
	CompletionRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "campus",
		Name:      "completion_requests_total",
		Help:      "Completion API forwards by function and outcome.",
	}, []string{"function", "outcome"})

	// CompletionLatency observes completion API round trips.
	CompletionLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "campus",
		Name:      "completion_latency_seconds",
		Help:      "Completion API round-trip latency.",
		Buckets:   []float64{.25, .5, 1, 2, 4, 8, 16},
	}, []string{"function"})

	// NotificationsPublished counts notifications handed to the queue.
	NotificationsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "campus",
		Name:      "notifications_published_total",
		Help:      "Notifications published to the queue by variant.",
	}, []string{"variant"})
)

// Outcome maps a success flag to a label value.
func Outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
