package resolution

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// turnsTotal counts turns by entry point and outcome.
	// Labels: turn (start, resume), outcome (clarification, final, failure)
	turnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "intent",
		Name:      "resolution_turns_total",
		Help:      "Total resolution turns by entry point and outcome",
	}, []string{"turn", "outcome"})

	// backendLatencySeconds measures answer backend calls.
	// Labels: mode (single, cross), status (ok, error)
	backendLatencySeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "intent",
		Name:      "backend_latency_seconds",
		Help:      "Answer backend latency by mode and status",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"mode", "status"})

	// rejectedSelectionsTotal counts answers that were not among the offered options.
	// Labels: awaiting (ASK_DEPARTMENT, ASK_METRIC)
	rejectedSelectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "intent",
		Name:      "rejected_selections_total",
		Help:      "Clarification answers rejected as not one of the offered options",
	}, []string{"awaiting"})
)

func recordTurn(turn string, out Outcome) {
	turnsTotal.WithLabelValues(turn, outcomeLabel(out)).Inc()
}

func recordBackendCall(mode string, durationSec float64, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	backendLatencySeconds.WithLabelValues(mode, status).Observe(durationSec)
}

func recordRejectedSelection(a Awaiting) {
	rejectedSelectionsTotal.WithLabelValues(a.String()).Inc()
}

func outcomeLabel(out Outcome) string {
	switch out.(type) {
	case *Clarification:
		return "clarification"
	case *Final:
		return "final"
	default:
		return "failure"
	}
}
