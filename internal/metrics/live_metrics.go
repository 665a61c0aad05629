package metrics

import "github.com/prometheus/client_golang/prometheus"

// Live feed counters
var (
	LiveMessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "live_messages_total",
		Help:      "Total number of live feed lines applied by command",
	}, []string{"command"})

	LiveUnknownCommandsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "live_unknown_commands_total",
		Help:      "Total number of live feed lines with an unknown command",
	})

	LiveReconnectsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "live_reconnects_total",
		Help:      "Total number of live feed reconnection attempts",
	})

	RelayStaleResponsesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "relay_stale_responses_total",
		Help:      "Total number of relay responses dropped for carrying an older sequence",
	})

	OnboardMessagesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "onboard_messages_total",
		Help:      "Total number of onboard messages sent to drivers",
	})
)

// Live feed gauges
var (
	LiveSequence = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "live_sequence",
		Help:      "Sequence number of the live state",
	})

	LiveRows = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "live_rows",
		Help:      "Number of rows in the live timing grid",
	})

	LiveConnected = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "live_connected",
		Help:      "Whether the live feed is connected (1) or not (0)",
	})
)

// RecordLiveMessage records an applied live feed line.
func RecordLiveMessage(command string) {
	LiveMessagesTotal.WithLabelValues(command).Inc()
}

// RecordUnknownCommand records an ignored live feed line.
func RecordUnknownCommand() {
	LiveUnknownCommandsTotal.Inc()
}

// RecordReconnect records a live feed reconnection attempt.
func RecordReconnect() {
	LiveReconnectsTotal.Inc()
}

// RecordStaleRelayResponse records a dropped relay response.
func RecordStaleRelayResponse() {
	RelayStaleResponsesTotal.Inc()
}

// RecordOnboardMessage records a sent onboard message.
func RecordOnboardMessage() {
	OnboardMessagesTotal.Inc()
}

// UpdateLiveState updates the live state gauges.
func UpdateLiveState(sequence uint64, rows int) {
	LiveSequence.Set(float64(sequence))
	LiveRows.Set(float64(rows))
}

// SetLiveConnected updates the connection gauge.
func SetLiveConnected(connected bool) {
	if connected {
		LiveConnected.Set(1)
		return
	}
	LiveConnected.Set(0)
}
