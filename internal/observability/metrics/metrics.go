package metrics

import "github.com/prometheus/client_golang/prometheus"

// SchedulingMetrics exposes counters/histograms for slot resolution and
// availability checks.
type SchedulingMetrics struct {
	resolveLatency     *prometheus.HistogramVec
	slotQueriesTotal   *prometheus.CounterVec
	availabilityChecks *prometheus.CounterVec
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		resolveLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "resolve_latency_seconds",
			Help:      "Latency of slot resolution operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		slotQueriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "slot_queries_total",
			Help:      "Total slot queries by outcome",
		}, []string{"outcome"}),
		availabilityChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "availability_checks_total",
			Help:      "Total doctor availability checks by result",
		}, []string{"result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.resolveLatency, m.slotQueriesTotal, m.availabilityChecks)
	return m
}

func (m *SchedulingMetrics) ObserveResolve(operation string, seconds float64) {
	if m == nil {
		return
	}
	m.resolveLatency.WithLabelValues(operation).Observe(seconds)
}

func (m *SchedulingMetrics) ObserveSlotQuery(outcome string) {
	if m == nil {
		return
	}
	m.slotQueriesTotal.WithLabelValues(outcome).Inc()
}

func (m *SchedulingMetrics) ObserveAvailabilityCheck(available bool) {
	if m == nil {
		return
	}
	result := "unavailable"
	if available {
		result = "available"
	}
	m.availabilityChecks.WithLabelValues(result).Inc()
}

// AppointmentMetrics exposes counters for the appointment lifecycle.
type AppointmentMetrics struct {
	transitionsTotal *prometheus.CounterVec
	bookingsTotal    *prometheus.CounterVec
}

func NewAppointmentMetrics(reg prometheus.Registerer) *AppointmentMetrics {
	m := &AppointmentMetrics{
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "appointments",
			Name:      "status_transitions_total",
			Help:      "Total appointment status transitions",
		}, []string{"from", "to"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "appointments",
			Name:      "bookings_total",
			Help:      "Total booking attempts by outcome",
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.transitionsTotal, m.bookingsTotal)
	return m
}

func (m *AppointmentMetrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(from, to).Inc()
}

func (m *AppointmentMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}
