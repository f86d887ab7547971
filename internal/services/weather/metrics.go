package weather

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	refreshTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "irrigator_weather_refresh_total",
		Help: "Weather cache refresh attempts.",
	})
	refreshFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "irrigator_weather_refresh_failures_total",
		Help: "Weather cache refresh attempts that failed.",
	})
)
