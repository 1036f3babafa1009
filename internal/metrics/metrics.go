// Package metrics exposes this system's Prometheus counters and gauges.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PullerPassesTotal counts puller reconciliation passes by outcome
	// (success, error).
	PullerPassesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "puller_reconciliation_passes_total",
			Help: "Total puller reconciliation passes by outcome",
		},
		[]string{"outcome"},
	)

	// PullerFetchesTotal counts individual artifact fetches by outcome
	// (published, download_failed, error). A fetch abandoned because the
	// target was already published counts as published.
	PullerFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "puller_artifact_fetches_total",
			Help: "Total artifact fetch attempts by outcome",
		},
		[]string{"outcome"},
	)

	// PullerPriorityDriftGauge reports the number of keys currently
	// drifted between a local priority pin and its remote counterpart.
	PullerPriorityDriftGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "puller_priority_drift_keys",
			Help: "Number of keys with a local priority pin not reflected remotely",
		},
	)

	// SynchronizerPassesTotal counts config-reconcile and removal passes
	// by pass kind and outcome.
	SynchronizerPassesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "synchronizer_reconciliation_passes_total",
			Help: "Total synchronizer reconciliation passes by pass and outcome",
		},
		[]string{"pass", "outcome"},
	)

	// SynchronizerConfigConflictsTotal counts CRC32 write conflicts on the
	// serving config file.
	SynchronizerConfigConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "synchronizer_config_conflicts_total",
			Help: "Total optimistic-concurrency conflicts writing the serving config",
		},
	)

	// SynchronizerLocalRemovalsTotal counts local directories removed by
	// the removal pass.
	SynchronizerLocalRemovalsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "synchronizer_local_removals_total",
			Help: "Total local model directories removed as out of date",
		},
	)

	// CoordinatorRegisteredNodesGauge is a registry-size gauge labeled by
	// node type. Nothing in this repository sets it, so it exports no
	// series.
	CoordinatorRegisteredNodesGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "coordinator_registered_nodes",
			Help: "Currently registered node count by node type",
		},
		[]string{"node_type"},
	)

	// CoordinatorFanoutTotal counts fan-out calls by node type and
	// outcome (ok, timeout, error).
	CoordinatorFanoutTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coordinator_fanout_calls_total",
			Help: "Total coordinator fan-out calls by node type and outcome",
		},
		[]string{"node_type", "outcome"},
	)
)
