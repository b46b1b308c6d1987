package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "turfbook",
			Name:      "http_requests_total",
			Help:      "Count of script API requests by action.",
		},
		[]string{"action"},
	)

	bookingCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "turfbook",
			Name:      "booking_created_total",
			Help:      "Count of bookings accepted as PENDING.",
		},
	)

	bookingRejectedSlot = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "turfbook",
			Name:      "booking_slot_refusal_total",
			Help:      "Count of booking attempts refused by slot state.",
		},
		[]string{"reason"},
	)

	adminDecision = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "turfbook",
			Name:      "admin_decision_total",
			Help:      "Count of admin decisions over bookings.",
		},
		[]string{"decision"},
	)

	availabilityCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "turfbook",
			Name:      "availability_cache_total",
			Help:      "Availability cache lookups by result.",
		},
		[]string{"result"},
	)

	sheetSync = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "turfbook",
			Name:      "sheet_sync_total",
			Help:      "Sheet mirror task outcomes.",
		},
		[]string{"result"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests, bookingCreated, bookingRejectedSlot,
			adminDecision, availabilityCache, sheetSync,
		)
	})
}

func IncHTTP(action string) {
	httpRequests.WithLabelValues(action).Inc()
}

func IncBookingCreated() {
	bookingCreated.Inc()
}

func IncSlotRefusal(reason string) {
	bookingRejectedSlot.WithLabelValues(reason).Inc()
}

func IncAdminDecision(decision string) {
	adminDecision.WithLabelValues(decision).Inc()
}

func IncAvailabilityCache(result string) {
	availabilityCache.WithLabelValues(result).Inc()
}

func IncSheetSync(result string) {
	sheetSync.WithLabelValues(result).Inc()
}
