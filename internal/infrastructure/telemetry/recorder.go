// Package telemetry turns workflow outcomes into log lines and Prometheus
// samples.
package telemetry

import (
	"github.com/rs/zerolog"

	"github.com/holidaze/venue-auth/internal/api/metrics"
	"github.com/holidaze/venue-auth/internal/core/domain"
	"github.com/holidaze/venue-auth/internal/core/ports"
)

// Recorder implements ports.OutcomeRecorder.
type Recorder struct {
	log zerolog.Logger
}

func NewRecorder(log zerolog.Logger) *Recorder {
	return &Recorder{log: log}
}

// Record logs the outcome and updates the workflow metrics. Reasons are
// remote or validation messages and never contain credentials.
func (r *Recorder) Record(o ports.OperationOutcome) {
	metrics.WorkflowOperationsTotal.WithLabelValues(string(o.Operation), o.Kind.String()).Inc()
	metrics.WorkflowOperationDuration.WithLabelValues(string(o.Operation)).Observe(o.Duration.Seconds())

	var evt *zerolog.Event
	switch o.Kind {
	case domain.ResultSuccess:
		evt = r.log.Info()
	case domain.ResultValidationFailed, domain.ResultBusy:
		evt = r.log.Debug()
	case domain.ResultProvisioningFailed:
		evt = r.log.Error()
	default:
		evt = r.log.Warn()
	}
	evt.Str("operation", string(o.Operation)).
		Str("result", o.Kind.String()).
		Dur("duration", o.Duration)
	if o.Reason != "" {
		evt = evt.Str("reason", o.Reason)
	}
	evt.Msg("auth operation finished")
}

// ObserveState tracks the authenticated gauge; register it with
// AuthWorkflow.OnStateChange.
func (r *Recorder) ObserveState(s domain.SessionState) {
	switch s {
	case domain.StateAuthenticated:
		metrics.SessionAuthenticated.Set(1)
	case domain.StateAnonymous:
		metrics.SessionAuthenticated.Set(0)
	}
	r.log.Debug().Str("state", string(s)).Msg("session state changed")
}
