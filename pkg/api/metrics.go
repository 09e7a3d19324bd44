package api

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "samvad_board_client",
			Name:      "requests_total",
			Help:      "API requests by HTTP method and outcome (ok, transport, decode, or the HTTP status class).",
		},
		[]string{"method", "outcome"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "samvad_board_client",
			Name:      "request_duration_seconds",
			Help:      "Wall time of API requests including response decoding.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

func observeRequest(method string, err error, elapsed time.Duration) {
	requestsTotal.WithLabelValues(method, outcome(err)).Inc()
	requestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return strconv.Itoa(httpErr.StatusCode/100) + "xx"
	}
	var decodeErr *decodeError
	if errors.As(err, &decodeErr) {
		return "decode"
	}
	return "transport"
}
