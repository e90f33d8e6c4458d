package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// This file defines the Prometheus metrics that are exposed by the application.

// httpRequestsTotal is a Prometheus counter vector that tracks the total number of HTTP requests.
// It is partitioned by the request's URL path, HTTP method, and the resulting status code.
var httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "isotherm_http_requests_total",
	Help: "Total number of HTTP requests by path, method and code.",
}, []string{"path", "method", "code"})

// recomputesTotal counts region recompute pipeline runs by outcome:
// "ok" (value classified), "nodata" (no sample for the selection) or
// "error" (provider failure, region degraded to the default color).
var recomputesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "isotherm_recomputes_total",
	Help: "Total number of region recomputes by outcome.",
}, []string{"outcome"})

// providerErrorsTotal counts failed data-provider fetches.
var providerErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "isotherm_provider_errors_total",
	Help: "Total number of failed data provider fetches.",
})

// staleResultsTotal counts recompute results discarded because a newer
// recompute for the same region superseded them while in flight.
var staleResultsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "isotherm_stale_results_discarded_total",
	Help: "Total number of recompute results discarded as stale.",
})
