// Package metrics exposes Prometheus counters for the referral network.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

var (
	// closureRowsTotal counts closure rows written on signup.
	closureRowsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "uplinehub_closure_rows_total",
		Help: "Total number of closure rows written",
	})

	// closureFallbackTotal counts signups whose parent had no closure chain.
	closureFallbackTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "uplinehub_closure_fallback_edges_total",
		Help: "Total number of signups that fell back to a single direct edge",
	})

	// promotionsTotal counts level changes by target hierarchy.
	promotionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uplinehub_promotions_total",
		Help: "Total number of level promotions",
	}, []string{"hierarchy"})

	// cascadeErrorsTotal counts per-ancestor failures inside a promotion cascade.
	cascadeErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "uplinehub_cascade_errors_total",
		Help: "Total number of ancestor promotion checks that failed",
	})

	// distributionsTotal counts settlements by outcome (ok|aborted).
	distributionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uplinehub_distributions_total",
		Help: "Total number of passive income settlements",
	}, []string{"outcome"})

	// passiveIncomePaid sums the amount credited to ancestors.
	passiveIncomePaid = promauto.NewCounter(prometheus.CounterOpts{
		Name: "uplinehub_passive_income_paid",
		Help: "Sum of passive income credited to ancestors",
	})

	// passiveIncomeUndistributed sums pool amounts returned to the company.
	passiveIncomeUndistributed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "uplinehub_passive_income_undistributed",
		Help: "Sum of passive income pool left undistributed",
	})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordClosures records the rows written for one signup.
func RecordClosures(rows int, fallback bool) {
	closureRowsTotal.Add(float64(rows))
	if fallback {
		closureFallbackTotal.Inc()
	}
}

// RecordPromotion records a level change to hierarchy h.
func RecordPromotion(h int) {
	promotionsTotal.WithLabelValues(strconv.Itoa(h)).Inc()
}

// RecordCascadeError records one failed ancestor check.
func RecordCascadeError() {
	cascadeErrorsTotal.Inc()
}

// RecordDistribution records a committed settlement.
func RecordDistribution(paid, remainder decimal.Decimal) {
	distributionsTotal.WithLabelValues("ok").Inc()
	// Counters only move forward; non-positive amounts are not recorded.
	if paid.IsPositive() {
		passiveIncomePaid.Add(paid.InexactFloat64())
	}
	if remainder.IsPositive() {
		passiveIncomeUndistributed.Add(remainder.InexactFloat64())
	}
}

// RecordDistributionAborted records a settlement that was rolled back.
func RecordDistributionAborted() {
	distributionsTotal.WithLabelValues("aborted").Inc()
}
