package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	turnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatgate_turns_total",
		Help: "Chat turns by terminal status",
	}, []string{"status"})

	turnDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "chatgate_turn_duration_seconds",
		Help:    "Wall time of completed chat turns",
		Buckets: prometheus.DefBuckets,
	})

	documentLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatgate_document_loads_total",
		Help: "Document load attempts by outcome",
	}, []string{"status"})
)
