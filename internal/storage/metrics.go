package storage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var storageFailures = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storefront_storage_failures_total",
		Help: "Persistent state reads, writes and decodes that failed",
	},
	[]string{"key", "op"},
)
