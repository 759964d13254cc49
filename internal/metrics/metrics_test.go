package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Register(reg))
	require.NoError(t, Register(reg))
}

func TestObserveOperation(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Register(reg))

	ObserveOperation("disable", "Failed", time.Now().Add(-time.Second))

	families, err := reg.Gather()
	require.NoError(t, err)

	found := false
	for _, mf := range families {
		if mf.GetName() != "workflow_operations_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["operation"] == "disable" && labels["status"] == "Failed" {
				found = true
				assert.GreaterOrEqual(t, m.GetCounter().GetValue(), 1.0)
			}
		}
	}
	assert.True(t, found)
}
