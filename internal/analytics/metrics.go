package analytics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_analytics_events_dropped_total",
		Help: "Analytics events discarded because the buffer was full",
	})

	batchesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_analytics_batches_total",
			Help: "Analytics batch deliveries by result",
		},
		[]string{"sink", "result"},
	)
)
