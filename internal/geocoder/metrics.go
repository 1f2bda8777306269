package geocoder

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// geocodeRequests counts provider calls by outcome: ok, not_found, transient.
	geocodeRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geocoder_requests_total",
		Help: "Total number of geocoding provider requests by outcome",
	}, []string{"outcome"})

	// placeLookups counts place store lookups by result.
	placeLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geocoder_place_lookups_total",
		Help: "Total number of place store lookups by result",
	}, []string{"result"})

	// warmupResolved counts addresses resolved during warmup by outcome.
	warmupResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geocoder_warmup_addresses_total",
		Help: "Total number of addresses processed during warmup by outcome",
	}, []string{"outcome"})
)
