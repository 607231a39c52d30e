package txflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	promTxInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bithodl_tx_in_flight",
		Help: "Whether a transaction currently occupies the in-flight slot",
	})
	promTxPolls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bithodl_tx_status_polls_total",
		Help: "Transaction status polls by outcome",
	}, []string{"outcome"})
	promTxFinal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bithodl_tx_final_total",
		Help: "Transactions reaching a terminal state",
	}, []string{"state"})
	promTxRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bithodl_tx_retries_total",
		Help: "Transaction retry attempts",
	})
)
