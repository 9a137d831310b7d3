package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestSchedulingMetricsObserve(t *testing.T) {
	m := NewSchedulingMetrics(nil)
	m.ObserveResolve("slots", 0.02)
	m.ObserveSlotQuery("found")
	m.ObserveAvailabilityCheck(true)
}

func TestSchedulingMetricsCustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSchedulingMetrics(reg)
	m.ObserveAvailabilityCheck(false)
}

func TestSchedulingMetricsNilSafe(t *testing.T) {
	var m *SchedulingMetrics
	m.ObserveResolve("slots", 0.1)
	m.ObserveSlotQuery("empty")
	m.ObserveAvailabilityCheck(true)
}

func TestAppointmentMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewAppointmentMetrics(reg)
	m.ObserveTransition("pending", "confirmed")
	m.ObserveBooking("booked")
}

func TestAppointmentMetricsNilSafe(t *testing.T) {
	var m *AppointmentMetrics
	m.ObserveTransition("pending", "cancelled")
	m.ObserveBooking("conflict")
}
