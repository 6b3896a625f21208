package teller

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var movementsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "bank",
		Name:      "movements_total",
		Help:      "Total number of applied balance movements",
	},
	[]string{"operation"},
)
