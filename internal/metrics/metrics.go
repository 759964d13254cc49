// Package metrics holds the prometheus collectors of the service.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	LicenseValidations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "license_validations_total",
		Help: "License validation requests by result",
	}, []string{"result"}) // result: valid|expired|deactivated|not_found|invalid_input|error

	Deployments = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "workflow_operations_total",
		Help: "Workflow deploy and disable operations by outcome",
	}, []string{"operation", "status"})

	DeploymentDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "workflow_operation_duration_seconds",
		Help:    "Duration of workflow deploy and disable operations",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"operation"})

	RemoteCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "resource_api_requests_total",
		Help: "Requests sent to the resource-management API by method and status code",
	}, []string{"method", "code"})
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{LicenseValidations, Deployments, DeploymentDuration, RemoteCalls}
}

// Register adds the collectors to reg. Registering twice on the same registry is not an error.
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveOperation records one finished deploy or disable.
func ObserveOperation(operation, status string, started time.Time) {
	Deployments.WithLabelValues(operation, status).Inc()
	DeploymentDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}
