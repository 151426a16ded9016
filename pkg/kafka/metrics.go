package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// publishedMessages counts publish attempts by outcome ("ok" or "error").
var publishedMessages = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storefront_kafka_messages_total",
		Help: "Kafka messages the storefront tried to publish, by topic and result",
	},
	[]string{"topic", "result"},
)
