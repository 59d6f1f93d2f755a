package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcomes recorded by ResolveTotal.
const (
	OutcomeHit   = "hit"
	OutcomeMiss  = "miss"
	OutcomeFault = "fault"
)

var (
	ResolveTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resctl_resolve_total",
			Help: "Total number of resolution attempts by loader kind and outcome",
		},
		[]string{"loader", "outcome"},
	)

	ResolveBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resctl_resolve_bytes_total",
			Help: "Total number of bytes handed out from in-memory resources",
		},
		[]string{"loader"},
	)

	ImageDecodeFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "resctl_image_decode_failed_total",
			Help: "Total number of resolved resources that could not be decoded as images",
		},
	)
)

func Hit(loader string)   { ResolveTotal.WithLabelValues(loader, OutcomeHit).Inc() }
func Miss(loader string)  { ResolveTotal.WithLabelValues(loader, OutcomeMiss).Inc() }
func Fault(loader string) { ResolveTotal.WithLabelValues(loader, OutcomeFault).Inc() }
