package wishlist

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var rollbacks = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storefront_wishlist_rollbacks_total",
		Help: "Optimistic wishlist changes undone after the backend refused them",
	},
	[]string{"op"},
)
