package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the marketplace module.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	OperationDuration *prometheus.HistogramVec
	OperationErrors   *prometheus.CounterVec
	BidsCompleted     prometheus.Counter
	UnitsDonated      prometheus.Counter
	CreditMinted      prometheus.Counter
	CreditReturned    prometheus.Counter
	CreditSwept       prometheus.Counter
	BiddingOpen       prometheus.Gauge
}

// New registers the marketplace metrics with the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the marketplace metrics with reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "charitydrive_marketplace_operation_duration_seconds",
			Help:    "Duration of marketplace operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
		OperationErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "charitydrive_marketplace_operation_errors_total",
			Help: "Failed marketplace operations by error code",
		}, []string{"operation", "code"}),
		BidsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "charitydrive_marketplace_bids_total",
			Help: "Total number of completed bids",
		}),
		UnitsDonated: factory.NewCounter(prometheus.CounterOpts{
			Name: "charitydrive_marketplace_units_donated_total",
			Help: "Total item units fulfilled through bids",
		}),
		CreditMinted: factory.NewCounter(prometheus.CounterOpts{
			Name: "charitydrive_marketplace_credit_minted_total",
			Help: "Credit minted from deposits",
		}),
		CreditReturned: factory.NewCounter(prometheus.CounterOpts{
			Name: "charitydrive_marketplace_credit_returned_total",
			Help: "Credit returned by bidders",
		}),
		CreditSwept: factory.NewCounter(prometheus.CounterOpts{
			Name: "charitydrive_marketplace_credit_swept_total",
			Help: "Credit swept to the operator",
		}),
		BiddingOpen: factory.NewGauge(prometheus.GaugeOpts{
			Name: "charitydrive_marketplace_bidding_open",
			Help: "1 while bidding is open, 0 otherwise",
		}),
	}
}

// ObserveOperation records the duration of an operation started at start,
// and counts it as failed when code is non-empty.
func (m *Metrics) ObserveOperation(operation, code string, start time.Time) {
	if m == nil {
		return
	}
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if code != "" {
		m.OperationErrors.WithLabelValues(operation, code).Inc()
	}
}

func (m *Metrics) RecordBid(units int64) {
	if m == nil {
		return
	}
	m.BidsCompleted.Inc()
	m.UnitsDonated.Add(float64(units))
}

func (m *Metrics) RecordMint(credit int64) {
	if m == nil {
		return
	}
	m.CreditMinted.Add(float64(credit))
}

func (m *Metrics) RecordReturn(credit int64) {
	if m == nil {
		return
	}
	m.CreditReturned.Add(float64(credit))
}

func (m *Metrics) RecordSweep(credit int64) {
	if m == nil {
		return
	}
	m.CreditSwept.Add(float64(credit))
}

func (m *Metrics) SetBiddingOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.BiddingOpen.Set(1)
		return
	}
	m.BiddingOpen.Set(0)
}
