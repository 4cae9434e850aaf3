package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the account registry.
type Metrics struct {
	AccountsCreated       prometheus.Counter
	AccountsDeleted       prometheus.Counter
	Follows               prometheus.Counter
	Unfollows             prometheus.Counter
	CreateAccountDuration prometheus.Histogram
}

// New creates a Metrics instance with all account registry metrics registered.
func New() *Metrics {
	return &Metrics{
		AccountsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nameplate_accounts_created_total",
			Help: "Total number of accounts created",
		}),
		AccountsDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nameplate_accounts_deleted_total",
			Help: "Total number of accounts removed by administrative teardown",
		}),
		Follows: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nameplate_follows_total",
			Help: "Total number of follow edges recorded",
		}),
		Unfollows: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nameplate_unfollows_total",
			Help: "Total number of unfollow events recorded",
		}),
		CreateAccountDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "nameplate_create_account_duration_seconds",
			Help:    "Duration of CreateAccount operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveCreateAccount records the duration of a CreateAccount operation.
func (m *Metrics) ObserveCreateAccount(start time.Time) {
	m.CreateAccountDuration.Observe(time.Since(start).Seconds())
}
