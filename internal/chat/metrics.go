package chat

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var searchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "chatgate_searches_total",
	Help: "Web search calls by outcome",
}, []string{"outcome"})
