package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registration module: saga progress,
// vendor failures, and reconciliation outcomes.
type Metrics struct {
	RegistrationsStarted   prometheus.Counter
	RegistrationsCompleted prometheus.Counter
	StepVendorErrors       *prometheus.CounterVec
	ReconcilePasses        prometheus.Counter
	Approvals              prometheus.Counter
	Declines               prometheus.Counter
	RegisterDuration       prometheus.Histogram
	ReconcileDuration      prometheus.Histogram
}

// New creates a Metrics instance with all registration metrics registered.
func New() *Metrics {
	return &Metrics{
		RegistrationsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sendcore_registrations_started_total",
			Help: "Total number of registration saga runs started",
		}),
		RegistrationsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sendcore_registrations_completed_total",
			Help: "Total number of saga runs that reached campaign creation",
		}),
		StepVendorErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sendcore_registration_step_vendor_errors_total",
			Help: "Vendor rejections per saga step",
		}, []string{"step"}),
		ReconcilePasses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sendcore_reconcile_passes_total",
			Help: "Total number of reconciliation passes",
		}),
		Approvals: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sendcore_registration_approvals_total",
			Help: "Total number of first-time approval transitions",
		}),
		Declines: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sendcore_registration_declines_total",
			Help: "Total number of reconciliation passes ending declined",
		}),
		RegisterDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sendcore_register_duration_seconds",
			Help:    "Duration of registration saga runs",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		ReconcileDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sendcore_reconcile_duration_seconds",
			Help:    "Duration of reconciliation passes",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

// ObserveRegister records the duration of a saga run.
func (m *Metrics) ObserveRegister(start time.Time) {
	m.RegisterDuration.Observe(time.Since(start).Seconds())
}

// ObserveReconcile records the duration of a reconciliation pass.
func (m *Metrics) ObserveReconcile(start time.Time) {
	m.ReconcileDuration.Observe(time.Since(start).Seconds())
}
