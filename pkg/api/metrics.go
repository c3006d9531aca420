package api

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var apiRequests = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "subgraphwatcher_api_requests_total",
		Help: "Total number of API requests by method and status code",
	},
	[]string{"method", "status"},
)

func APIRequestInc(method string, status int) {
	apiRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}
