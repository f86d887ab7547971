package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var switchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "irrigator_relay_switch_total",
	Help: "Relay output switches, by output name.",
}, []string{"output"})
