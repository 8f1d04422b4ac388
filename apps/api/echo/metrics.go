package echoapi

import (
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/devnest/devnest/core"
)

// Registration outcomes
const (
	outcomeStored   = "stored"
	outcomeInvalid  = "invalid"
	outcomeConflict = "conflict"
	outcomeClosed   = "closed"
	outcomeFailed   = "failed"
)

// Metrics counts registration attempts per event and outcome.
type Metrics struct {
	registrations *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg; a nil reg keeps them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "devnest",
			Name:      "registrations_total",
			Help:      "Registration attempts by event and outcome.",
		}, []string{"event", "outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.registrations)
	}
	return m
}

func (m *Metrics) observe(event string, err error) {
	m.registrations.WithLabelValues(event, outcome(err)).Inc()
}

func outcome(err error) string {
	if err == nil {
		return outcomeStored
	}
	switch errors.Cause(err).(type) {
	case validator.ValidationErrors, *core.ValidationError, *core.InvalidEncodingError:
		return outcomeInvalid
	case *core.ConflictError:
		return outcomeConflict
	case *core.ClosedError:
		return outcomeClosed
	default:
		return outcomeFailed
	}
}
