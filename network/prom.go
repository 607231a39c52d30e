package network

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	promLatencyMs = promauto.NewGauge(
		prometheus.GaugeOpts{Name: "bithodl_network_latency_ms", Help: "Round-trip latency of the chain status API in milliseconds"},
	)
	promConnected = promauto.NewGauge(
		prometheus.GaugeOpts{Name: "bithodl_network_connected", Help: "Whether the chain status API is reachable (1) or not (0)"},
	)
)

func recordStatus(s Status) {
	if s.IsConnected {
		promConnected.Set(1)
		promLatencyMs.Set(float64(s.LatencyMs))
	} else {
		promConnected.Set(0)
	}
}
