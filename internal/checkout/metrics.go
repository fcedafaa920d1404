package checkout

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var conversionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storefront_cart_conversions_total",
		Help: "Cart to order conversions by outcome.",
	},
	[]string{"outcome"},
)
