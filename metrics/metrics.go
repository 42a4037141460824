// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package metrics holds the Prometheus collectors for the ledger and round
// lifecycle. Collectors register with the default registry and are served
// by router at GET /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Close paths
const (
	ClosePathWinner    = "winner"
	ClosePathReplay    = "replay"
	ClosePathRecovered = "recovered"
)

var (
	VotesCast = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hive_decide_votes_cast_total",
		Help: "Vote mutations by outcome code (ok on success)",
	}, []string{"outcome"})

	TxConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hive_decide_tx_conflicts_total",
		Help: "Transactions re-run after a serialization conflict or lock timeout",
	})

	RoundsClosed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hive_decide_round_close_total",
		Help: "Round close calls by path taken",
	}, []string{"path"})

	AggregationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hive_decide_aggregation_duration_seconds",
		Help:    "Time to tally, rank and persist a round result",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})

	RoundsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hive_decide_rounds_swept_total",
		Help: "Rounds finalized by the deadline sweeper",
	})
)
