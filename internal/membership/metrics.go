// internal/membership/metrics.go
package membership

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// Observer receives front desk activity for telemetry.
type Observer interface {
	MemberRegistered(planID string)
	VisitRecorded(method string)
	PaymentRecorded(planID string, amount decimal.Decimal)
}

type nopObserver struct{}

func (nopObserver) MemberRegistered(string)                 {}
func (nopObserver) VisitRecorded(string)                    {}
func (nopObserver) PaymentRecorded(string, decimal.Decimal) {}

// PrometheusObserver exports front desk counters.
type PrometheusObserver struct {
	registrations *prometheus.CounterVec
	visits        *prometheus.CounterVec
	payments      *prometheus.CounterVec
	income        *prometheus.CounterVec
}

// NewPrometheusObserver registers the membership counters on reg (the default registerer when nil).
func NewPrometheusObserver(reg prometheus.Registerer) (*PrometheusObserver, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	o := &PrometheusObserver{
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gymdesk",
			Name:      "member_registrations_total",
			Help:      "Members registered, by plan.",
		}, []string{"plan"}),
		visits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gymdesk",
			Name:      "visits_total",
			Help:      "Check-ins recorded, by method.",
		}, []string{"method"}),
		payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gymdesk",
			Name:      "payments_total",
			Help:      "Payments recorded, by plan or payment type.",
		}, []string{"plan"}),
		income: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gymdesk",
			Name:      "income_total",
			Help:      "Income recorded in the house currency, by plan or payment type.",
		}, []string{"plan"}),
	}
	collectors := []*prometheus.CounterVec{o.registrations, o.visits, o.payments, o.income}
	for i, c := range collectors {
		if err := reg.Register(c); err != nil {
			if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
				if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
					collectors[i] = existing
					continue
				}
			}
			return nil, fmt.Errorf("register membership metric: %w", err)
		}
	}
	o.registrations, o.visits, o.payments, o.income = collectors[0], collectors[1], collectors[2], collectors[3]
	return o, nil
}

func (o *PrometheusObserver) MemberRegistered(planID string) {
	o.registrations.WithLabelValues(planID).Inc()
}

func (o *PrometheusObserver) VisitRecorded(method string) {
	o.visits.WithLabelValues(method).Inc()
}

func (o *PrometheusObserver) PaymentRecorded(planID string, amount decimal.Decimal) {
	o.payments.WithLabelValues(planID).Inc()
	if amount.IsPositive() {
		o.income.WithLabelValues(planID).Add(amount.InexactFloat64())
	}
}
