package statesync

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every counter and gauge the sync core
// reports, constructed once per Syncer and labeled by shard id where
// the underlying event is per-shard.
type Metrics struct {
	Stage                  *prometheus.GaugeVec
	HeaderTimeout          *prometheus.CounterVec
	HeaderError            *prometheus.CounterVec
	RetryPart              *prometheus.CounterVec
	PartsDone              *prometheus.GaugeVec
	PartsTotal             *prometheus.GaugeVec
	DiscardParts           *prometheus.CounterVec
	ExternalPartsDone      *prometheus.CounterVec
	ExternalPartsFailed    *prometheus.CounterVec
	ExternalPartsSizeBytes *prometheus.CounterVec
}

// NewMetrics builds the state sync metric family and registers it with
// reg. A nil reg leaves the collectors unregistered; choosing a
// registry (prometheus.NewRegistry(), prometheus.DefaultRegisterer,
// ...) is left to the caller.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Stage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "near",
			Subsystem: "state_sync",
			Name:      "stage",
			Help:      "Current state sync stage per shard, as an enum ordinal.",
		}, []string{"shard_id"}),
		HeaderTimeout: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "near",
			Subsystem: "state_sync",
			Name:      "header_timeout_total",
			Help:      "Number of state header requests that timed out.",
		}, []string{"shard_id"}),
		HeaderError: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "near",
			Subsystem: "state_sync",
			Name:      "header_error_total",
			Help:      "Number of state header requests that errored.",
		}, []string{"shard_id"}),
		RetryPart: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "near",
			Subsystem: "state_sync",
			Name:      "retry_part_total",
			Help:      "Number of state part requests retried after timeout or error.",
		}, []string{"shard_id"}),
		PartsDone: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "near",
			Subsystem: "state_sync",
			Name:      "parts_done",
			Help:      "Number of state parts downloaded so far for a shard.",
		}, []string{"shard_id"}),
		PartsTotal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "near",
			Subsystem: "state_sync",
			Name:      "parts_total",
			Help:      "Total number of state parts for a shard's sync.",
		}, []string{"shard_id"}),
		DiscardParts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "near",
			Subsystem: "state_sync",
			Name:      "discard_parts_total",
			Help:      "Number of downloaded parts discarded after an apply or finalize failure.",
		}, []string{"shard_id"}),
		ExternalPartsDone: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "near",
			Subsystem: "state_sync",
			Name:      "external_parts_done_total",
			Help:      "Number of parts successfully fetched from external storage.",
		}, []string{"shard_id"}),
		ExternalPartsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "near",
			Subsystem: "state_sync",
			Name:      "external_parts_failed_total",
			Help:      "Number of failed part fetches from external storage.",
		}, []string{"shard_id"}),
		ExternalPartsSizeBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "near",
			Subsystem: "state_sync",
			Name:      "external_parts_size_downloaded_bytes",
			Help:      "Total bytes downloaded from external storage for state parts.",
		}, []string{"shard_id"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.Stage, m.HeaderTimeout, m.HeaderError, m.RetryPart,
			m.PartsDone, m.PartsTotal, m.DiscardParts,
			m.ExternalPartsDone, m.ExternalPartsFailed, m.ExternalPartsSizeBytes,
		)
	}
	return m
}
