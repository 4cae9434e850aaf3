package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the username registry.
type Metrics struct {
	UsernamesClaimed   prometheus.Counter
	UsernamesReclaimed prometheus.Counter
	ClaimDuration      prometheus.Histogram
}

// New creates a Metrics instance with all username registry metrics registered.
func New() *Metrics {
	return &Metrics{
		UsernamesClaimed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nameplate_usernames_claimed_total",
			Help: "Total number of username claims (fresh mints and re-claims)",
		}),
		UsernamesReclaimed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nameplate_usernames_reclaimed_total",
			Help: "Total number of administrative username reclaims",
		}),
		ClaimDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "nameplate_username_claim_duration_seconds",
			Help:    "Duration of Claim operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveClaim records the duration of a Claim operation.
func (m *Metrics) ObserveClaim(start time.Time) {
	m.ClaimDuration.Observe(time.Since(start).Seconds())
}
