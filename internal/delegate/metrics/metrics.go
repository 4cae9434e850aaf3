package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the delegate authorization protocol.
type Metrics struct {
	IntentsProposed  prometheus.Counter
	DelegatesLinked  prometheus.Counter
	DelegatesRemoved prometheus.Counter
	ConfirmRejected  prometheus.Counter
}

// New creates a Metrics instance with all delegate protocol metrics registered.
func New() *Metrics {
	return &Metrics{
		IntentsProposed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nameplate_delegate_intents_proposed_total",
			Help: "Total number of delegation intents proposed (including overwrites)",
		}),
		DelegatesLinked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nameplate_delegates_linked_total",
			Help: "Total number of delegates linked (handshake and direct)",
		}),
		DelegatesRemoved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nameplate_delegates_removed_total",
			Help: "Total number of delegates removed",
		}),
		ConfirmRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "nameplate_delegate_confirms_rejected_total",
			Help: "Total number of confirm attempts rejected by the handshake check",
		}),
	}
}
