package resolve

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	relayAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidgrab_relay_attempts_total",
		Help: "Outbound relay attempts by strategy and result.",
	}, []string{"strategy", "result"})

	resolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidgrab_resolutions_total",
		Help: "Resolution pipelines by platform and result.",
	}, []string{"platform", "result"})
)
